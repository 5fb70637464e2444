// Package refresh implements storefront.TokenRefresher: a single-flight
// session refresh coordinator. Concurrent callers that each hit a 401
// within the window of one refresh attempt join the same backend call and
// observe the same outcome, so a persistently invalid token produces
// exactly one refresh request regardless of caller count.
package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	storefront "github.com/lumina-metro/storefront-go"
)

// DefaultPath is the backend refresh endpoint.
const DefaultPath = "/auth/refresh"

// Coordinator exchanges the current bearer token for a fresh one and
// persists it into whichever storage tiers previously held a token.
type Coordinator struct {
	baseURL    string
	path       string
	store      storefront.CredentialStore
	bus        storefront.Broadcaster
	logger     *slog.Logger
	httpClient *http.Client

	sf singleflight.Group
}

var _ storefront.TokenRefresher = (*Coordinator)(nil)

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithHTTPClient sets a custom HTTP client for refresh requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Coordinator) { c.httpClient = hc }
}

// WithPath overrides the refresh endpoint path.
func WithPath(path string) Option {
	return func(c *Coordinator) { c.path = path }
}

// WithBroadcaster sets the bus used for token-updated notifications.
func WithBroadcaster(b storefront.Broadcaster) Option {
	return func(c *Coordinator) { c.bus = b }
}

// New creates a refresh coordinator against the given API base URL.
func New(baseURL string, store storefront.CredentialStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		baseURL:    baseURL,
		path:       DefaultPath,
		store:      store,
		logger:     slog.Default(),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type refreshResponse struct {
	Result struct {
		Token string `json:"token"`
	} `json:"result"`
	Message string `json:"message"`
}

// Refresh exchanges current for a new token. It is single-flighted: while
// an attempt is in flight, additional callers wait for and share its
// result. The coordinator returns to idle after every resolution, success
// or failure.
//
// The flight runs detached from the first caller's cancellation; joiners
// must not inherit a failure because whoever arrived first gave up.
func (c *Coordinator) Refresh(ctx context.Context, current string) (string, error) {
	flightCtx := context.WithoutCancel(ctx)
	result, err, _ := c.sf.Do("refresh", func() (interface{}, error) {
		return c.refresh(flightCtx, current)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Coordinator) refresh(ctx context.Context, current string) (string, error) {
	payload, err := json.Marshal(map[string]string{"token": current})
	if err != nil {
		return "", fmt.Errorf("refresh: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("refresh: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("refresh: read response: %w", err)
	}

	var decoded refreshResponse
	// A failed decode leaves decoded zero; handled as a missing token below.
	_ = json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := decoded.Message
		if msg == "" {
			msg = "token refresh failed"
		}
		return "", fmt.Errorf("refresh: endpoint returned %d: %s", resp.StatusCode, msg)
	}
	if decoded.Result.Token == "" {
		return "", fmt.Errorf("refresh: missing token in response")
	}

	c.persist(ctx, decoded.Result.Token)
	return decoded.Result.Token, nil
}

// persist writes the new token into exactly the tiers that already held
// one: a durable holder gets both token and refreshToken, a session holder
// gets the token only. Listeners are notified afterwards.
func (c *Coordinator) persist(ctx context.Context, token string) {
	for _, tier := range c.store.Held(ctx, storefront.KeyToken) {
		switch tier {
		case storefront.TierDurable:
			c.store.Write(ctx, storefront.KeyToken, token, storefront.TierDurable)
			c.store.Write(ctx, storefront.KeyRefreshToken, token, storefront.TierDurable)
		case storefront.TierSession:
			c.store.Write(ctx, storefront.KeyToken, token, storefront.TierSession)
		}
	}
	if c.bus != nil {
		c.bus.Publish(storefront.TopicTokenUpdated)
	}
	c.logger.Debug("refresh: token rotated")
}
