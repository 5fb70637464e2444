package session_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	storefront "github.com/lumina-metro/storefront-go"
	"github.com/lumina-metro/storefront-go/bus"
	"github.com/lumina-metro/storefront-go/credstore"
	"github.com/lumina-metro/storefront-go/session"
)

type stubRoles struct {
	mu    sync.Mutex
	roles map[string]string
	gate  chan struct{} // when set, FetchRole blocks until closed
	calls atomic.Int32
}

func (s *stubRoles) FetchRole(_ context.Context, token string) (string, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[token]
	if !ok {
		return "", fmt.Errorf("unknown token %q", token)
	}
	return role, nil
}

type recordingNav struct {
	mu    sync.Mutex
	path  string
	moves []string
}

func (n *recordingNav) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *recordingNav) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = path
	n.moves = append(n.moves, path)
}

func (n *recordingNav) Moves() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.moves))
	copy(out, n.moves)
	return out
}

func memStore() *credstore.Store {
	return credstore.NewWithBackends(credstore.NewMemory(), credstore.NewMemory())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestManagerRestoresPersistedToken(t *testing.T) {
	ctx := context.Background()
	store := memStore()
	store.Write(ctx, storefront.KeyToken, "tok-restored", storefront.TierDurable)

	mgr := session.NewManager(store, &stubRoles{roles: map[string]string{"tok-restored": storefront.RoleCustomer}})
	defer mgr.Close()

	waitFor(t, func() bool { return !mgr.Snapshot().Loading })

	snap := mgr.Snapshot()
	if snap.Token != "tok-restored" {
		t.Fatalf("Token = %q, want tok-restored", snap.Token)
	}
	if snap.Role != storefront.RoleCustomer {
		t.Fatalf("Role = %q, want %q", snap.Role, storefront.RoleCustomer)
	}
	if !snap.LoggedIn() {
		t.Fatal("expected LoggedIn after restore")
	}
}

type countingRefresher struct {
	calls atomic.Int32
}

func (c *countingRefresher) Refresh(context.Context, string) (string, error) {
	c.calls.Add(1)
	return "tok-refreshed", nil
}

func signedJWT(t *testing.T, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(ttl).Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestManagerProactivelyRefreshesNearExpiryToken(t *testing.T) {
	ctx := context.Background()
	store := memStore()
	store.Write(ctx, storefront.KeyToken, signedJWT(t, 30*time.Second), storefront.TierDurable)

	ref := &countingRefresher{}
	mgr := session.NewManager(store, &stubRoles{},
		session.WithRefresher(ref),
		session.WithRefreshBuffer(time.Minute),
	)
	defer mgr.Close()

	waitFor(t, func() bool { return ref.calls.Load() == 1 })
}

func TestManagerSkipsProactiveRefreshForFreshToken(t *testing.T) {
	ctx := context.Background()
	store := memStore()
	store.Write(ctx, storefront.KeyToken, signedJWT(t, 48*time.Hour), storefront.TierDurable)

	ref := &countingRefresher{}
	mgr := session.NewManager(store, &stubRoles{},
		session.WithRefresher(ref),
		session.WithRefreshBuffer(time.Minute),
	)
	defer mgr.Close()

	time.Sleep(50 * time.Millisecond)
	if got := ref.calls.Load(); got != 0 {
		t.Fatalf("refresh calls = %d, want 0 for a fresh token", got)
	}
}

func TestManagerSkipsProactiveRefreshForOpaqueToken(t *testing.T) {
	ctx := context.Background()
	store := memStore()
	store.Write(ctx, storefront.KeyToken, "opaque-session-token", storefront.TierDurable)

	ref := &countingRefresher{}
	mgr := session.NewManager(store, &stubRoles{},
		session.WithRefresher(ref),
		session.WithRefreshBuffer(time.Minute),
	)
	defer mgr.Close()

	time.Sleep(50 * time.Millisecond)
	if got := ref.calls.Load(); got != 0 {
		t.Fatalf("refresh calls = %d, want 0 for an opaque token", got)
	}
}

func TestManagerStartsLoggedOut(t *testing.T) {
	mgr := session.NewManager(memStore(), &stubRoles{})
	defer mgr.Close()

	snap := mgr.Snapshot()
	if snap.LoggedIn() || snap.Loading {
		t.Fatalf("fresh manager: %+v, want logged out and idle", snap)
	}
}

func TestManagerLoginPersistsByTier(t *testing.T) {
	ctx := context.Background()
	store := memStore()
	mgr := session.NewManager(store, &stubRoles{})
	defer mgr.Close()

	mgr.Login(ctx, "tok-durable", storefront.RoleAdmin)
	tiers := store.Held(ctx, storefront.KeyToken)
	if len(tiers) != 1 || tiers[0] != storefront.TierDurable {
		t.Fatalf("Held = %v, want [durable]", tiers)
	}

	snap := mgr.Snapshot()
	if snap.Role != storefront.RoleAdmin || snap.Loading {
		t.Fatalf("after login: %+v", snap)
	}

	mgr.LoginWithRemember(ctx, "tok-session", storefront.RoleStaff, false)
	tiers = store.Held(ctx, storefront.KeyToken)
	found := false
	for _, tr := range tiers {
		if tr == storefront.TierSession {
			found = true
		}
	}
	if !found {
		t.Fatalf("Held = %v, want session tier present", tiers)
	}
}

func TestManagerLoginWithoutRoleFetches(t *testing.T) {
	roles := &stubRoles{roles: map[string]string{"tok": storefront.RoleStaff}}
	mgr := session.NewManager(memStore(), roles)
	defer mgr.Close()

	mgr.Login(context.Background(), "tok", "")
	waitFor(t, func() bool { return !mgr.Snapshot().Loading })

	if got := mgr.Snapshot().Role; got != storefront.RoleStaff {
		t.Fatalf("Role = %q, want %q", got, storefront.RoleStaff)
	}
}

func TestManagerLogoutClearsStore(t *testing.T) {
	ctx := context.Background()
	store := memStore()
	mgr := session.NewManager(store, &stubRoles{})
	defer mgr.Close()

	mgr.Login(ctx, "tok", storefront.RoleCustomer)
	mgr.Logout(ctx)

	if _, ok := store.Read(ctx, storefront.KeyToken); ok {
		t.Fatal("token survived logout")
	}
	snap := mgr.Snapshot()
	if snap.LoggedIn() || snap.Role != "" {
		t.Fatalf("after logout: %+v", snap)
	}
}

func TestManagerStaleRoleFetchDropped(t *testing.T) {
	gate := make(chan struct{})
	roles := &stubRoles{
		roles: map[string]string{"tok-a": storefront.RoleStaff, "tok-b": storefront.RoleAdmin},
		gate:  gate,
	}
	mgr := session.NewManager(memStore(), roles)
	defer mgr.Close()

	ctx := context.Background()
	mgr.Login(ctx, "tok-a", "") // fetch blocks on the gate
	mgr.Login(ctx, "tok-b", storefront.RoleAdmin)
	close(gate)

	// The late tok-a result must not overwrite tok-b's role.
	time.Sleep(50 * time.Millisecond)
	snap := mgr.Snapshot()
	if snap.Role != storefront.RoleAdmin {
		t.Fatalf("Role = %q, want %q", snap.Role, storefront.RoleAdmin)
	}
	if snap.Token != "tok-b" {
		t.Fatalf("Token = %q, want tok-b", snap.Token)
	}
}

func TestManagerDisplayNameLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memStore()
	b := bus.New()
	var updates atomic.Int32
	if err := b.Subscribe(storefront.TopicDisplayNameUpdated, func() { updates.Add(1) }); err != nil {
		t.Fatal(err)
	}

	mgr := session.NewManager(store, &stubRoles{}, session.WithManagerBroadcaster(b))
	defer mgr.Close()

	mgr.Login(ctx, "tok", storefront.RoleCustomer)
	mgr.SetDisplayName(ctx, "Ada")

	if name, ok := mgr.DisplayName(ctx); !ok || name != "Ada" {
		t.Fatalf("DisplayName = %q, %v", name, ok)
	}
	// The name follows the token's tier: durable login, durable name.
	tiers := store.Held(ctx, storefront.KeyDisplayName)
	if len(tiers) != 1 || tiers[0] != storefront.TierDurable {
		t.Fatalf("Held = %v, want [durable]", tiers)
	}
	if got := updates.Load(); got != 1 {
		t.Fatalf("display-name broadcasts = %d, want 1", got)
	}

	mgr.Logout(ctx)
	if _, ok := mgr.DisplayName(ctx); ok {
		t.Fatal("display name survived logout")
	}
}

func TestManagerOnChangeCancel(t *testing.T) {
	mgr := session.NewManager(memStore(), &stubRoles{})
	defer mgr.Close()

	var calls atomic.Int32
	cancel := mgr.OnChange(func(storefront.Snapshot) { calls.Add(1) })

	mgr.OpenLoginModal("/checkout")
	waitFor(t, func() bool { return calls.Load() >= 1 })

	cancel()
	before := calls.Load()
	mgr.CloseAuthModal()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != before {
		t.Fatal("subscriber called after cancel")
	}
}

func TestManagerAuthModalState(t *testing.T) {
	mgr := session.NewManager(memStore(), &stubRoles{})
	defer mgr.Close()

	mgr.OpenLoginModal("/orders/42")
	snap := mgr.Snapshot()
	if snap.Step != storefront.StepLogin || snap.RedirectPath != "/orders/42" {
		t.Fatalf("after open: %+v", snap)
	}

	mgr.CloseAuthModal()
	if got := mgr.Snapshot().Step; got != storefront.StepClosed {
		t.Fatalf("Step = %v, want closed", got)
	}
}

func TestManagerReactsToBusTokenUpdate(t *testing.T) {
	ctx := context.Background()
	store := memStore()
	b := bus.New()
	roles := &stubRoles{roles: map[string]string{"tok-rotated": storefront.RoleCustomer}}

	mgr := session.NewManager(store, roles, session.WithManagerBroadcaster(b))
	defer mgr.Close()

	// A refresh coordinator persists a new token and pings the bus.
	store.Write(ctx, storefront.KeyToken, "tok-rotated", storefront.TierDurable)
	b.Publish(storefront.TopicTokenUpdated)

	waitFor(t, func() bool {
		snap := mgr.Snapshot()
		return snap.Token == "tok-rotated" && !snap.Loading
	})
	if got := mgr.Snapshot().Role; got != storefront.RoleCustomer {
		t.Fatalf("Role = %q, want %q", got, storefront.RoleCustomer)
	}
}

func TestAutoLogoutClearsAndRedirects(t *testing.T) {
	ctx := context.Background()
	store := memStore()
	store.Write(ctx, storefront.KeyToken, "tok", storefront.TierDurable)
	store.Write(ctx, storefront.KeyDisplayName, "Ada", storefront.TierDurable)

	nav := &recordingNav{path: "/orders"}
	ctrl := session.NewController(store,
		session.WithNavigator(nav),
		session.WithDelays(5*time.Millisecond, time.Second),
	)

	ctrl.AutoLogout(ctx)

	if _, ok := store.Read(ctx, storefront.KeyToken); ok {
		t.Fatal("token survived auto-logout")
	}
	if _, ok := store.Read(ctx, storefront.KeyDisplayName); ok {
		t.Fatal("display name survived auto-logout")
	}
	waitFor(t, func() bool { return len(nav.Moves()) == 1 })
	if nav.CurrentPath() != "/" {
		t.Fatalf("path = %q, want /", nav.CurrentPath())
	}
}

func TestAutoLogoutSkipsRedirectOnAuthPaths(t *testing.T) {
	for _, start := range []string{"/", "/login", "/admin/login"} {
		nav := &recordingNav{path: start}
		ctrl := session.NewController(memStore(),
			session.WithNavigator(nav),
			session.WithDelays(time.Millisecond, time.Second),
		)

		ctrl.AutoLogout(context.Background())
		time.Sleep(30 * time.Millisecond)
		if moves := nav.Moves(); len(moves) != 0 {
			t.Fatalf("from %q: navigated %v, want none", start, moves)
		}
	}
}

func TestAutoLogoutGuardCollapsesConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	store := memStore()
	nav := &recordingNav{path: "/orders"}
	b := bus.New()
	var expired atomic.Int32
	if err := b.Subscribe(storefront.TopicSessionExpired, func() { expired.Add(1) }); err != nil {
		t.Fatal(err)
	}

	ctrl := session.NewController(store,
		session.WithNavigator(nav),
		session.WithBroadcaster(b),
		session.WithDelays(5*time.Millisecond, time.Second),
	)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctrl.AutoLogout(ctx)
		}()
	}
	wg.Wait()

	time.Sleep(30 * time.Millisecond)
	if got := expired.Load(); got != 1 {
		t.Fatalf("session-expired broadcasts = %d, want 1", got)
	}
	if moves := nav.Moves(); len(moves) != 1 {
		t.Fatalf("navigations = %v, want exactly one", moves)
	}
}

func TestAutoLogoutGuardRearms(t *testing.T) {
	ctx := context.Background()
	b := bus.New()
	var expired atomic.Int32
	if err := b.Subscribe(storefront.TopicSessionExpired, func() { expired.Add(1) }); err != nil {
		t.Fatal(err)
	}

	ctrl := session.NewController(memStore(),
		session.WithBroadcaster(b),
		session.WithDelays(time.Millisecond, 10*time.Millisecond),
	)

	ctrl.AutoLogout(ctx)
	waitFor(t, func() bool {
		ctrl.AutoLogout(ctx)
		return expired.Load() >= 2
	})
}
