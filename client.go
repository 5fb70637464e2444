// Package storefront provides a Go client SDK for the Lumina Metro
// storefront REST API.
//
// The SDK covers the session lifecycle of a storefront client: persistent
// credential storage across a durable and a session-scoped tier, an HTTP
// request executor with automatic refresh-on-401 and bounded retry, a
// single-flight token refresh coordinator, auto-logout on session
// exhaustion, and a process-wide session state consumed by UI layers.
// Concrete implementations live in subpackages and are injected via Option
// functions, keeping the root package free of transport and storage
// dependencies.
//
// Example usage:
//
//	store := credstore.New(credstore.Config{})
//	client, err := storefront.NewClient(
//	    storefront.FromEnv(),
//	    storefront.WithCredentialStore(store),
//	    storefront.WithRequester(executor),
//	)
package storefront

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// DefaultBaseURL is the fallback API base URL used when no environment
// configuration is present. Mirrors the backend's app.frontend.base-url.
const DefaultBaseURL = "http://localhost:8080/lumina-metro"

// EnvBaseURL is the environment variable consulted for the API base URL.
const EnvBaseURL = "STOREFRONT_API_BASE_URL"

// Client is the main entry point for storefront session operations.
// Service implementations are injected via Option functions.
type Client struct {
	config    Config
	logger    *slog.Logger
	store     CredentialStore
	requester Requester
	refresher TokenRefresher
	sessions  SessionService
	logout    LogoutController
}

// Config holds connection and behavior configuration.
type Config struct {
	// BaseURL is the root of the storefront REST API. If empty,
	// DefaultBaseURL is used.
	BaseURL string

	// RequestTimeout bounds individual HTTP calls. Default: 15 seconds.
	RequestTimeout time.Duration

	// LogoutRedirectDelay is how long the auto-logout controller waits
	// before navigating home, so in-flight request handling can finish.
	// Default: 100 milliseconds.
	LogoutRedirectDelay time.Duration

	// LogoutGuardReset is how long the auto-logout guard stays armed after
	// a logout, suppressing duplicate clear+redirect cycles.
	// Default: 1 second.
	LogoutGuardReset time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a structured logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithCredentialStore sets the credential store implementation.
func WithCredentialStore(s CredentialStore) Option {
	return func(c *Client) { c.store = s }
}

// WithRequester sets the HTTP request executor implementation.
func WithRequester(r Requester) Option {
	return func(c *Client) { c.requester = r }
}

// WithTokenRefresher sets the session refresh coordinator implementation.
func WithTokenRefresher(r TokenRefresher) Option {
	return func(c *Client) { c.refresher = r }
}

// WithSessionService sets the session state implementation.
func WithSessionService(s SessionService) Option {
	return func(c *Client) { c.sessions = s }
}

// WithLogoutController sets the auto-logout controller implementation.
func WithLogoutController(l LogoutController) Option {
	return func(c *Client) { c.logout = l }
}

// Defaults applied by NewClient when the corresponding Config field is zero.
const (
	DefaultRequestTimeout      = 15 * time.Second
	DefaultLogoutRedirectDelay = 100 * time.Millisecond
	DefaultLogoutGuardReset    = time.Second
)

// FromEnv builds a Config from the process environment, falling back to
// DefaultBaseURL when STOREFRONT_API_BASE_URL is unset or blank.
func FromEnv() Config {
	base := strings.TrimSpace(os.Getenv(EnvBaseURL))
	if base == "" {
		base = DefaultBaseURL
	}
	return Config{BaseURL: base}
}

// NewClient creates a new storefront client with the given configuration
// and options.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.LogoutRedirectDelay == 0 {
		cfg.LogoutRedirectDelay = DefaultLogoutRedirectDelay
	}
	if cfg.LogoutGuardReset == 0 {
		cfg.LogoutGuardReset = DefaultLogoutGuardReset
	}

	c := &Client{config: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	if c.requester == nil && c.store == nil && c.sessions == nil {
		return nil, fmt.Errorf("storefront: no services configured, need at least one of requester, store or sessions")
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.config }

// Store returns the credential store, or nil if not configured.
func (c *Client) Store() CredentialStore { return c.store }

// Requester returns the HTTP request executor, or nil if not configured.
func (c *Client) Requester() Requester { return c.requester }

// Refresher returns the refresh coordinator, or nil if not configured.
func (c *Client) Refresher() TokenRefresher { return c.refresher }

// Sessions returns the session service, or nil if not configured.
func (c *Client) Sessions() SessionService { return c.sessions }

// Logout returns the auto-logout controller, or nil if not configured.
func (c *Client) Logout() LogoutController { return c.logout }

// Close releases all resources held by the client.
// Any injected service that implements io.Closer will be closed.
func (c *Client) Close() error {
	closers := []interface{}{
		c.store, c.requester, c.refresher, c.sessions, c.logout,
	}
	var firstErr error
	for _, svc := range closers {
		if cl, ok := svc.(io.Closer); ok && cl != nil {
			if err := cl.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
