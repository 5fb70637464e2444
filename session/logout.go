package session

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	storefront "github.com/lumina-metro/storefront-go"
	"github.com/lumina-metro/storefront-go/audit"
)

// homePath is the navigation target after an auto-logout.
const homePath = "/"

// Controller implements storefront.LogoutController: it clears every
// credential key from both tiers, broadcasts the change and schedules a
// delayed redirect home. A single in-process guard makes overlapping
// invocations collapse into one clear+redirect cycle.
type Controller struct {
	store         storefront.CredentialStore
	bus           storefront.Broadcaster
	nav           storefront.Navigator
	logger        *slog.Logger
	auditor       *audit.Logger
	redirectDelay time.Duration
	guardReset    time.Duration

	active atomic.Bool
}

var _ storefront.LogoutController = (*Controller)(nil)

// ControllerOption configures the Controller.
type ControllerOption func(*Controller)

// WithControllerLogger sets a structured logger.
func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// WithBroadcaster sets the bus for credential-change notifications.
func WithBroadcaster(b storefront.Broadcaster) ControllerOption {
	return func(c *Controller) { c.bus = b }
}

// WithNavigator sets the host navigation hook. Without one, auto-logout
// clears and broadcasts but performs no redirect (headless hosts).
func WithNavigator(n storefront.Navigator) ControllerOption {
	return func(c *Controller) { c.nav = n }
}

// WithAudit sets the audit trail for logout events.
func WithAudit(a *audit.Logger) ControllerOption {
	return func(c *Controller) { c.auditor = a }
}

// WithDelays overrides the redirect delay and the guard reset interval.
func WithDelays(redirect, guardReset time.Duration) ControllerOption {
	return func(c *Controller) {
		c.redirectDelay = redirect
		c.guardReset = guardReset
	}
}

// NewController creates an auto-logout controller over the given store.
func NewController(store storefront.CredentialStore, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:         store,
		logger:        slog.Default(),
		redirectDelay: storefront.DefaultLogoutRedirectDelay,
		guardReset:    storefront.DefaultLogoutGuardReset,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AutoLogout clears credential state and schedules the redirect. Calls
// arriving while a logout is underway are no-ops; the guard re-arms after
// the reset interval so future sessions can log out again.
func (c *Controller) AutoLogout(ctx context.Context) {
	if !c.active.CompareAndSwap(false, true) {
		return
	}

	c.store.Clear(ctx,
		storefront.KeyToken,
		storefront.KeyRefreshToken,
		storefront.KeyDisplayName,
	)

	if c.bus != nil {
		c.bus.Publish(storefront.TopicTokenUpdated)
		c.bus.Publish(storefront.TopicDisplayNameUpdated)
		c.bus.Publish(storefront.TopicSessionExpired)
	}
	if c.auditor != nil {
		c.auditor.Record(audit.Event{Action: audit.ActionAutoLogout, Result: "success"})
	}
	c.logger.Info("session: auto-logout, credentials cleared")

	if c.nav != nil {
		path := c.nav.CurrentPath()
		// Already on an auth-entry path: nothing to redirect away from.
		if !strings.Contains(path, "/login") && path != homePath {
			time.AfterFunc(c.redirectDelay, func() {
				c.nav.Navigate(homePath)
			})
		}
	}

	time.AfterFunc(c.guardReset, func() {
		c.active.Store(false)
	})
}
