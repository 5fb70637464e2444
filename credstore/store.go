// Package credstore implements storefront.CredentialStore: bearer
// credentials held across a session-scoped tier and a durable
// ("remember me") tier, with pluggable durable backends.
//
// Reads check the session tier first so a tab-local override wins over the
// persisted credential. Raw values are normalized on every read: a single
// layer of matching surrounding quotes is stripped, JSON-encoded strings
// are unwrapped, a case-insensitive "Bearer " prefix is removed, and
// whitespace is trimmed. Storage failures never escape; they are logged
// and treated as absent.
package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	storefront "github.com/lumina-metro/storefront-go"
)

// ErrNotFound is returned by backends when a key holds no value.
var ErrNotFound = errors.New("credstore: key not found")

// Backend is a single key-value storage tier.
type Backend interface {
	// Get returns the raw stored value, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Store implements storefront.CredentialStore over two backends.
type Store struct {
	session Backend
	durable Backend
	logger  *slog.Logger
}

var _ storefront.CredentialStore = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a structured logger for backend failure diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store with an in-memory session tier and a durable tier
// selected by cfg (see Config). A zero Config yields two independent
// in-memory tiers.
func New(cfg Config, opts ...Option) (*Store, error) {
	durable, err := newDurable(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithBackends(NewMemory(), durable, opts...), nil
}

// NewWithBackends creates a Store over explicit tier backends.
func NewWithBackends(session, durable Backend, opts ...Option) *Store {
	s := &Store{
		session: session,
		durable: durable,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Read returns the normalized value for key, session tier first.
// A value that normalizes to empty in one tier falls through to the next.
func (s *Store) Read(ctx context.Context, key string) (string, bool) {
	for _, tier := range []struct {
		name    storefront.Tier
		backend Backend
	}{
		{storefront.TierSession, s.session},
		{storefront.TierDurable, s.durable},
	} {
		raw, err := tier.backend.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				s.logger.Warn("credstore: read failed",
					"key", key, "tier", tier.name.String(), "error", err)
			}
			continue
		}
		if v := Normalize(raw); v != "" {
			return v, true
		}
	}
	return "", false
}

// Write stores value under key in the given tier only.
func (s *Store) Write(ctx context.Context, key, value string, tier storefront.Tier) {
	if err := s.backend(tier).Set(ctx, key, value); err != nil {
		s.logger.Warn("credstore: write failed",
			"key", key, "tier", tier.String(), "error", err)
	}
}

// Clear removes each key from both tiers.
func (s *Store) Clear(ctx context.Context, keys ...string) {
	for _, key := range keys {
		for _, tier := range []storefront.Tier{storefront.TierSession, storefront.TierDurable} {
			if err := s.backend(tier).Delete(ctx, key); err != nil {
				s.logger.Warn("credstore: clear failed",
					"key", key, "tier", tier.String(), "error", err)
			}
		}
	}
}

// Held reports which tiers hold a non-empty raw value for key. Presence is
// judged on the raw value, not the normalized one, matching how the
// refresh path decides which tiers to update.
func (s *Store) Held(ctx context.Context, key string) []storefront.Tier {
	var held []storefront.Tier
	for _, tier := range []storefront.Tier{storefront.TierSession, storefront.TierDurable} {
		raw, err := s.backend(tier).Get(ctx, key)
		if err == nil && strings.TrimSpace(raw) != "" {
			held = append(held, tier)
		}
	}
	return held
}

// Close closes both tier backends.
func (s *Store) Close() error {
	err := s.session.Close()
	if derr := s.durable.Close(); derr != nil && err == nil {
		err = derr
	}
	return err
}

func (s *Store) backend(tier storefront.Tier) Backend {
	if tier == storefront.TierDurable {
		return s.durable
	}
	return s.session
}

// Normalize cleans a raw stored credential value: trim, strip one layer of
// matching surrounding quotes, unwrap a JSON-encoded string (non-string
// JSON yields empty), strip a case-insensitive "Bearer " prefix, trim
// again. The result is round-trip stable: Normalize(Normalize(x)) ==
// Normalize(x).
func Normalize(raw string) string {
	t := strings.TrimSpace(raw)

	if len(t) >= 2 {
		first, last := t[0], t[len(t)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			t = t[1 : len(t)-1]
		}
	}

	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		var v any
		if err := json.Unmarshal([]byte(t), &v); err == nil {
			if s, ok := v.(string); ok {
				t = s
			} else {
				t = ""
			}
		}
	}

	t = strings.TrimSpace(t)
	if len(t) >= 7 && strings.EqualFold(t[:7], "bearer ") {
		t = t[7:]
	}
	return strings.TrimSpace(t)
}
