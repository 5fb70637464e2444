// Package session implements the process-wide session state and the
// auto-logout controller.
//
// The Manager is the storefront.SessionService: it restores a persisted
// token at construction, resolves the server-side role asynchronously
// whenever the token changes, and pushes immutable snapshots to
// subscribers. Constructing a second Manager over the same store (hot
// reload) is safe: construction only reads credentials, never clears
// them.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	storefront "github.com/lumina-metro/storefront-go"
	"github.com/lumina-metro/storefront-go/audit"
	"github.com/lumina-metro/storefront-go/refresh"
)

// Manager holds the reactive session state consumed by UI layers.
type Manager struct {
	store     storefront.CredentialStore
	roles     storefront.RoleFetcher
	bus       storefront.Broadcaster
	refresher storefront.TokenRefresher
	logger    *slog.Logger
	auditor   *audit.Logger

	// refreshBuffer is how close to a JWT expiry a restored token is
	// refreshed proactively instead of waiting for the first 401.
	refreshBuffer time.Duration
	fetchTimeout  time.Duration

	mu           sync.Mutex
	token        string
	role         string
	loading      bool
	redirectPath string
	step         storefront.AuthStep
	gen          int
	subs         map[int]func(storefront.Snapshot)
	nextSub      int
	closed       bool

	busHandler func()
}

var _ storefront.SessionService = (*Manager)(nil)

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets a structured logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithManagerBroadcaster subscribes the manager to token-updated
// notifications and lets it publish its own.
func WithManagerBroadcaster(b storefront.Broadcaster) ManagerOption {
	return func(m *Manager) { m.bus = b }
}

// WithRefresher enables proactive refresh of restored sessions whose JWT
// expiry is inside the refresh buffer.
func WithRefresher(r storefront.TokenRefresher) ManagerOption {
	return func(m *Manager) { m.refresher = r }
}

// WithManagerAudit sets the audit trail for login/logout events.
func WithManagerAudit(a *audit.Logger) ManagerOption {
	return func(m *Manager) { m.auditor = a }
}

// WithRefreshBuffer overrides the proactive refresh window.
func WithRefreshBuffer(d time.Duration) ManagerOption {
	return func(m *Manager) { m.refreshBuffer = d }
}

// NewManager creates the session state, restoring any persisted token and
// kicking off role resolution for it.
func NewManager(store storefront.CredentialStore, roles storefront.RoleFetcher, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:         store,
		roles:         roles,
		logger:        slog.Default(),
		refreshBuffer: time.Minute,
		fetchTimeout:  10 * time.Second,
		subs:          make(map[int]func(storefront.Snapshot)),
	}
	for _, o := range opts {
		o(m)
	}

	ctx := context.Background()
	if token, ok := store.Read(ctx, storefront.KeyToken); ok {
		m.token = token
		m.loading = true
		m.gen++
		go m.fetchRole(m.gen, token)

		if m.refresher != nil && refresh.ExpiresWithin(token, m.refreshBuffer) {
			go func() {
				if _, err := m.refresher.Refresh(context.Background(), token); err != nil {
					m.logger.Warn("session: proactive refresh failed", "error", err)
				}
			}()
		}
	}

	if m.bus != nil {
		m.busHandler = m.onTokenUpdated
		if err := m.bus.Subscribe(storefront.TopicTokenUpdated, m.busHandler); err != nil {
			m.logger.Warn("session: bus subscribe failed", "error", err)
		}
	}
	return m
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() storefront.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Login installs a token, persisting it to the durable tier
// ("remember me"). Use LoginWithRemember for session-only persistence.
func (m *Manager) Login(ctx context.Context, token, role string) {
	m.LoginWithRemember(ctx, token, role, true)
}

// LoginWithRemember installs a token, choosing the storage tier by the
// remember flag. A non-empty role skips the asynchronous profile fetch.
func (m *Manager) LoginWithRemember(ctx context.Context, token, role string, remember bool) {
	tier := storefront.TierSession
	if remember {
		tier = storefront.TierDurable
	}
	m.store.Write(ctx, storefront.KeyToken, token, tier)

	m.mu.Lock()
	m.token = token
	m.gen++
	gen := m.gen
	fetch := role == ""
	if fetch {
		m.role = ""
		m.loading = true
	} else {
		m.role = role
		m.loading = false
	}
	m.step = storefront.StepClosed
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if m.auditor != nil {
		m.auditor.Record(audit.Event{Action: audit.ActionLogin, Result: "success"})
	}
	if m.bus != nil {
		m.bus.Publish(storefront.TopicTokenUpdated)
	}
	m.notify(snap)
	if fetch {
		go m.fetchRole(gen, token)
	}
}

// Logout clears credentials and session state. Unlike the auto-logout
// controller it performs no navigation; UI-driven logouts redirect
// themselves.
func (m *Manager) Logout(ctx context.Context) {
	m.store.Clear(ctx,
		storefront.KeyToken,
		storefront.KeyRefreshToken,
		storefront.KeyDisplayName,
	)

	m.mu.Lock()
	m.token = ""
	m.role = ""
	m.loading = false
	m.gen++
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if m.auditor != nil {
		m.auditor.Record(audit.Event{Action: audit.ActionLogout, Result: "success"})
	}
	if m.bus != nil {
		m.bus.Publish(storefront.TopicTokenUpdated)
		m.bus.Publish(storefront.TopicDisplayNameUpdated)
	}
	m.notify(snap)
}

// SetDisplayName persists the user's display name alongside the token and
// notifies listeners. The name lands in the tiers currently holding the
// token so it survives exactly as long as the session does; without a
// token it goes to the session tier only.
func (m *Manager) SetDisplayName(ctx context.Context, name string) {
	tiers := m.store.Held(ctx, storefront.KeyToken)
	if len(tiers) == 0 {
		tiers = []storefront.Tier{storefront.TierSession}
	}
	for _, tier := range tiers {
		m.store.Write(ctx, storefront.KeyDisplayName, name, tier)
	}
	if m.bus != nil {
		m.bus.Publish(storefront.TopicDisplayNameUpdated)
	}
}

// DisplayName returns the persisted display name, if any.
func (m *Manager) DisplayName(ctx context.Context) (string, bool) {
	return m.store.Read(ctx, storefront.KeyDisplayName)
}

// OnChange registers a subscriber for session snapshots. The returned
// function unregisters it; unregistered subscribers are never called
// again, which is the unmount guard for UI consumers.
func (m *Manager) OnChange(fn func(storefront.Snapshot)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// OpenLoginModal raises the login dialog, recording the path to return to
// once authentication completes.
func (m *Manager) OpenLoginModal(redirectPath string) {
	m.mu.Lock()
	m.step = storefront.StepLogin
	m.redirectPath = redirectPath
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

// CloseAuthModal dismisses any open auth dialog.
func (m *Manager) CloseAuthModal() {
	m.mu.Lock()
	m.step = storefront.StepClosed
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

// Close unsubscribes from the bus and stops delivering snapshots.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.subs = make(map[int]func(storefront.Snapshot))
	m.mu.Unlock()

	if m.bus != nil && m.busHandler != nil {
		_ = m.bus.Unsubscribe(storefront.TopicTokenUpdated, m.busHandler)
	}
	return nil
}

// onTokenUpdated re-reads the store after an out-of-band credential
// change (refresh rotation, auto-logout) and reconciles local state.
func (m *Manager) onTokenUpdated() {
	token, _ := m.store.Read(context.Background(), storefront.KeyToken)

	m.mu.Lock()
	if m.closed || token == m.token {
		m.mu.Unlock()
		return
	}
	m.token = token
	m.gen++
	gen := m.gen
	if token == "" {
		m.role = ""
		m.loading = false
	} else {
		m.loading = true
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	if token != "" {
		go m.fetchRole(gen, token)
	}
}

// fetchRole resolves the role for token. The generation guard drops
// results that arrive after the token changed again or the manager
// closed, so stale fetches never overwrite fresher state.
func (m *Manager) fetchRole(gen int, token string) {
	if m.roles == nil {
		m.mu.Lock()
		if gen == m.gen {
			m.loading = false
		}
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.notify(snap)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.fetchTimeout)
	defer cancel()
	role, err := m.roles.FetchRole(ctx, token)

	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.logger.Warn("session: role fetch failed", "error", err)
		m.loading = false
	} else {
		m.role = role
		m.loading = false
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

func (m *Manager) snapshotLocked() storefront.Snapshot {
	return storefront.Snapshot{
		Token:        m.token,
		Role:         m.role,
		Loading:      m.loading,
		RedirectPath: m.redirectPath,
		Step:         m.step,
	}
}

func (m *Manager) notify(snap storefront.Snapshot) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	subs := make([]func(storefront.Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
