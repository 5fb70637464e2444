// Package fake provides in-memory implementations of all storefront
// interfaces for testing.
//
// Use fake.NewClient() in unit tests to avoid network calls and external
// dependencies.
package fake

import (
	"context"
	"fmt"
	"sync"

	storefront "github.com/lumina-metro/storefront-go"
	"github.com/lumina-metro/storefront-go/credstore"
	"github.com/lumina-metro/storefront-go/session"
)

// Option configures the fake client.
type Option func(*state)

type state struct {
	mu       sync.RWMutex
	accounts map[string]string            // token → role
	results  map[string]storefront.Result // "METHOD path" → scripted result
	rotation []string                     // tokens handed out by Refresh, in order
	refreshN int
	nav      *Navigator
}

// WithAccount registers a token recognised by the fake role fetcher.
func WithAccount(token, role string) Option {
	return func(s *state) { s.accounts[token] = role }
}

// WithResult scripts the response for a method and path on the fake
// requester. Unscripted paths return 404.
func WithResult(method, path string, res storefront.Result) Option {
	return func(s *state) { s.results[method+" "+path] = res }
}

// WithRotation sets the sequence of tokens the fake refresher hands out.
// Once exhausted, Refresh fails.
func WithRotation(tokens ...string) Option {
	return func(s *state) { s.rotation = tokens }
}

// NewClient creates a *storefront.Client with every service wired to
// in-memory fakes and an in-memory credential store.
func NewClient(opts ...Option) (*storefront.Client, *Navigator) {
	s := &state{
		accounts: make(map[string]string),
		results:  make(map[string]storefront.Result),
		nav:      &Navigator{path: "/"},
	}
	for _, o := range opts {
		o(s)
	}

	store := credstore.NewWithBackends(credstore.NewMemory(), credstore.NewMemory())
	refresher := &fakeRefresher{s: s, store: store}
	mgr := session.NewManager(store, &fakeRoleFetcher{s: s})
	ctrl := session.NewController(store, session.WithNavigator(s.nav))

	c, _ := storefront.NewClient(
		storefront.Config{BaseURL: "fake://localhost"},
		storefront.WithCredentialStore(store),
		storefront.WithRequester(&fakeRequester{s: s}),
		storefront.WithTokenRefresher(refresher),
		storefront.WithSessionService(mgr),
		storefront.WithLogoutController(ctrl),
	)
	return c, s.nav
}

// --- Requester ---

type fakeRequester struct{ s *state }

func (f *fakeRequester) Do(_ context.Context, path string, opts storefront.RequestOptions) storefront.Result {
	method := opts.Method
	if method == "" {
		method = "GET"
	}

	f.s.mu.RLock()
	defer f.s.mu.RUnlock()

	if res, ok := f.s.results[method+" "+path]; ok {
		return res
	}
	return storefront.Result{
		Status: 404,
		Body: storefront.Body{
			Kind: storefront.BodyJSON,
			JSON: map[string]any{"message": "not found"},
		},
	}
}

// --- TokenRefresher ---

type fakeRefresher struct {
	s     *state
	store storefront.CredentialStore
}

func (f *fakeRefresher) Refresh(ctx context.Context, _ string) (string, error) {
	f.s.mu.Lock()
	if f.s.refreshN >= len(f.s.rotation) {
		f.s.mu.Unlock()
		return "", fmt.Errorf("storefront/fake: token rotation exhausted")
	}
	token := f.s.rotation[f.s.refreshN]
	f.s.refreshN++
	f.s.mu.Unlock()

	for _, tier := range f.store.Held(ctx, storefront.KeyToken) {
		f.store.Write(ctx, storefront.KeyToken, token, tier)
	}
	return token, nil
}

// --- RoleFetcher ---

type fakeRoleFetcher struct{ s *state }

func (f *fakeRoleFetcher) FetchRole(_ context.Context, token string) (string, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()

	role, ok := f.s.accounts[token]
	if !ok {
		return "", fmt.Errorf("storefront/fake: unknown token %q", token)
	}
	return role, nil
}

// --- Navigator ---

// Navigator is an in-memory storefront.Navigator that records every
// navigation it performs.
type Navigator struct {
	mu    sync.Mutex
	path  string
	moves []string
}

var _ storefront.Navigator = (*Navigator)(nil)

// NewNavigator creates a recorder positioned at path.
func NewNavigator(path string) *Navigator {
	return &Navigator{path: path}
}

func (n *Navigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *Navigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = path
	n.moves = append(n.moves, path)
}

// Moves returns every path navigated to, in order.
func (n *Navigator) Moves() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.moves))
	copy(out, n.moves)
	return out
}
