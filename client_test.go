package storefront_test

import (
	"context"
	"testing"
	"time"

	storefront "github.com/lumina-metro/storefront-go"
)

type noopStore struct{}

func (noopStore) Read(context.Context, string) (string, bool) { return "", false }

func (noopStore) Write(context.Context, string, string, storefront.Tier) {}

func (noopStore) Clear(context.Context, ...string) {}

func (noopStore) Held(context.Context, string) []storefront.Tier { return nil }

func TestNewClient_RequiresAtLeastOneService(t *testing.T) {
	_, err := storefront.NewClient(storefront.Config{})
	if err == nil {
		t.Fatal("NewClient() expected error with no services configured")
	}
}

func TestNewClient_AppliesDefaults(t *testing.T) {
	c, err := storefront.NewClient(storefront.Config{}, storefront.WithCredentialStore(noopStore{}))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	cfg := c.Config()
	if cfg.BaseURL != storefront.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, storefront.DefaultBaseURL)
	}
	if cfg.RequestTimeout != storefront.DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, storefront.DefaultRequestTimeout)
	}
	if cfg.LogoutRedirectDelay != 100*time.Millisecond {
		t.Errorf("LogoutRedirectDelay = %v, want 100ms", cfg.LogoutRedirectDelay)
	}
	if cfg.LogoutGuardReset != time.Second {
		t.Errorf("LogoutGuardReset = %v, want 1s", cfg.LogoutGuardReset)
	}
}

func TestNewClient_KeepsExplicitConfig(t *testing.T) {
	c, err := storefront.NewClient(storefront.Config{
		BaseURL:        "https://api.example.com/storefront",
		RequestTimeout: 3 * time.Second,
	}, storefront.WithCredentialStore(noopStore{}))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if c.Config().BaseURL != "https://api.example.com/storefront" {
		t.Errorf("BaseURL = %q", c.Config().BaseURL)
	}
	if c.Config().RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v", c.Config().RequestTimeout)
	}
}

func TestNewClient_NilServicesBeforeInjection(t *testing.T) {
	c, _ := storefront.NewClient(storefront.Config{}, storefront.WithCredentialStore(noopStore{}))
	if c.Requester() != nil {
		t.Error("Requester should be nil before injection")
	}
	if c.Sessions() != nil {
		t.Error("Sessions should be nil before injection")
	}
	if c.Refresher() != nil {
		t.Error("Refresher should be nil before injection")
	}
	if c.Logout() != nil {
		t.Error("Logout should be nil before injection")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(storefront.EnvBaseURL, "https://kiosk.example.com/api")
	if got := storefront.FromEnv().BaseURL; got != "https://kiosk.example.com/api" {
		t.Errorf("BaseURL = %q", got)
	}

	t.Setenv(storefront.EnvBaseURL, "")
	if got := storefront.FromEnv().BaseURL; got != storefront.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", got)
	}
}

func TestNormalizedBodyMessage(t *testing.T) {
	b := storefront.Body{Kind: storefront.BodyText, Text: "service unavailable"}
	if got := b.Message("fallback"); got != "service unavailable" {
		t.Errorf("Message = %q", got)
	}
	if got := (storefront.Body{}).Message("fallback"); got != "fallback" {
		t.Errorf("Message = %q, want fallback", got)
	}
}
