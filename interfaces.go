package storefront

import "context"

// CredentialStore persists bearer credentials across two storage tiers.
// Implementations: credstore/ (memory, TOML file, redis backends).
//
// Reads check the session tier first, then the durable tier, and normalize
// raw values (quote stripping, JSON unwrapping, "Bearer " prefix removal).
// Backend failures are swallowed and logged; a failed read reports absent.
type CredentialStore interface {
	// Read returns the normalized value for key, or ok=false when absent.
	Read(ctx context.Context, key string) (value string, ok bool)

	// Write stores value under key in the given tier only.
	Write(ctx context.Context, key, value string, tier Tier)

	// Clear removes each key from both tiers.
	Clear(ctx context.Context, keys ...string)

	// Held reports which tiers currently hold a non-empty value for key.
	// The refresh coordinator uses it to update exactly the tiers that
	// previously carried a token.
	Held(ctx context.Context, key string) []Tier
}

// Requester executes authenticated API calls.
// Implementations: rest/ (HTTP executor with refresh-on-401).
type Requester interface {
	// Do issues the request and returns its outcome. It never returns a
	// Go error for network, parse or auth failures; see Result.
	Do(ctx context.Context, path string, opts RequestOptions) Result
}

// TokenRefresher exchanges the current token for a fresh one.
// Implementations: refresh/ (single-flight coordinator).
type TokenRefresher interface {
	// Refresh returns the new token on success. Concurrent callers join
	// the in-flight attempt and observe the same outcome.
	Refresh(ctx context.Context, current string) (string, error)
}

// LogoutController clears all credential state when the session is
// exhausted. Implementations: session/ (guarded auto-logout).
type LogoutController interface {
	// AutoLogout clears both tiers, broadcasts the change and schedules a
	// redirect. Idempotent under concurrency: overlapping calls produce a
	// single clear+redirect cycle.
	AutoLogout(ctx context.Context)
}

// SessionService exposes the process-wide reactive session state.
// Implementations: session/ (manager backed by the credential store).
type SessionService interface {
	// Snapshot returns the current session state.
	Snapshot() Snapshot

	// Login installs a token immediately. An optional role skips the
	// asynchronous profile fetch.
	Login(ctx context.Context, token, role string)

	// Logout clears credentials and session state without navigating.
	Logout(ctx context.Context)

	// OnChange registers a subscriber invoked after every state change.
	// The returned function unregisters it.
	OnChange(fn func(Snapshot)) (cancel func())

	// OpenLoginModal records the path to return to and raises the login
	// dialog.
	OpenLoginModal(redirectPath string)

	// CloseAuthModal dismisses any open auth dialog.
	CloseAuthModal()
}

// Broadcaster dispatches named credential-change notifications to
// process-wide listeners. Implementations: bus/ (EventBus wrapper).
type Broadcaster interface {
	Publish(topic string)
	Subscribe(topic string, fn func()) error
	Unsubscribe(topic string, fn func()) error
}

// Navigator abstracts the host environment's location handling so the
// auto-logout controller can redirect without a browser dependency.
// Implementations: fake/ (recording navigator for tests).
type Navigator interface {
	// CurrentPath returns the current location path.
	CurrentPath() string

	// Navigate schedules a move to path.
	Navigate(path string)
}

// RoleFetcher resolves the server-side role for a token.
// Implementations: rest/ (users service over the executor).
type RoleFetcher interface {
	FetchRole(ctx context.Context, token string) (string, error)
}
