// Package rest implements storefront.Requester: an HTTP request executor
// for the storefront REST API with automatic refresh-on-401 and a single
// bounded retry.
//
// The executor never returns a Go error for caller-reachable failures.
// Network errors come back as {OK: false, Status: 0}, unparseable bodies
// degrade to message-carrying text bodies, and an exhausted session is
// flagged with AutoLoggedOut so UI layers can distinguish it from a
// generic failure.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	storefront "github.com/lumina-metro/storefront-go"
	"github.com/lumina-metro/storefront-go/metrics"
)

// tokenErrorMarkers identify a 401 caused by an invalid or expired token,
// as opposed to an authorization failure the caller must handle itself.
var tokenErrorMarkers = []string{
	"Token invalid",
	"expired",
	"Unauthorized",
	"UNAUTHENTICATED",
}

// sessionExpiredMessage is the uniform message surfaced alongside the
// AutoLoggedOut flag.
const sessionExpiredMessage = "Session expired. Please sign in again."

// Executor issues authenticated API calls against a single base URL.
type Executor struct {
	baseURL    string
	httpClient *http.Client
	store      storefront.CredentialStore
	refresher  storefront.TokenRefresher
	logout     storefront.LogoutController
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

var _ storefront.Requester = (*Executor)(nil)

// Option configures the Executor.
type Option func(*Executor)

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Executor) { e.httpClient = hc }
}

// WithCredentialStore sets the store consulted when no explicit token is
// supplied.
func WithCredentialStore(s storefront.CredentialStore) Option {
	return func(e *Executor) { e.store = s }
}

// WithTokenRefresher sets the coordinator used to recover from token 401s.
func WithTokenRefresher(r storefront.TokenRefresher) Option {
	return func(e *Executor) { e.refresher = r }
}

// WithLogoutController sets the controller triggered on session exhaustion.
func WithLogoutController(l storefront.LogoutController) Option {
	return func(e *Executor) { e.logout = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// New creates an Executor against the given API base URL.
func New(baseURL string, opts ...Option) *Executor {
	e := &Executor{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: storefront.DefaultRequestTimeout},
		logger:     slog.Default(),
		metrics:    metrics.New(false),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Do executes one API request. See storefront.Requester for the contract.
func (e *Executor) Do(ctx context.Context, path string, opts storefront.RequestOptions) storefront.Result {
	if path == "" || !strings.HasPrefix(path, "/") {
		return storefront.Result{Err: fmt.Errorf("rest: path must start with /: %q", path)}
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	token := e.resolveToken(ctx, opts)

	req, err := e.buildRequest(ctx, method, path, token, opts)
	if err != nil {
		return storefront.Result{Err: err}
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Error("rest: request failed", "method", method, "path", path, "error", err)
		e.metrics.RecordRequest(method, 0, time.Since(start))
		return storefront.Result{Status: 0, Body: storefront.Body{}, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		// Treat a truncated body like an empty one rather than failing.
		e.logger.Warn("rest: read response failed", "path", path, "error", err)
		raw = nil
	}
	e.metrics.RecordRequest(method, resp.StatusCode, time.Since(start))

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusUnauthorized && !opts.SkipAuthCheck && token != "" && !opts.Retry {
		return e.handleUnauthorized(ctx, path, opts, token, contentType, raw)
	}

	body := ParseBody(resp.StatusCode, contentType, raw)
	return storefront.Result{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status: resp.StatusCode,
		Body:   body,
	}
}

// resolveToken picks the bearer token: context override, then explicit
// option, then credential store. On a post-refresh replay the refreshed
// token in the options is authoritative and beats any context override.
func (e *Executor) resolveToken(ctx context.Context, opts storefront.RequestOptions) string {
	if opts.Retry && opts.Token != "" {
		return opts.Token
	}
	if t := storefront.TokenFromContext(ctx); t != "" {
		return t
	}
	if opts.Token != "" {
		return opts.Token
	}
	if e.store != nil {
		if t, ok := e.store.Read(ctx, storefront.KeyToken); ok {
			return t
		}
	}
	return ""
}

func (e *Executor) buildRequest(ctx context.Context, method, path, token string, opts storefront.RequestOptions) (*http.Request, error) {
	var reader io.Reader
	contentType := ""

	switch {
	case opts.Form != nil:
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for field, value := range opts.Form.Fields {
			if err := w.WriteField(field, value); err != nil {
				return nil, fmt.Errorf("rest: write form field: %w", err)
			}
		}
		for _, f := range opts.Form.Files {
			part, err := w.CreateFormFile(f.Field, f.Name)
			if err != nil {
				return nil, fmt.Errorf("rest: create form file: %w", err)
			}
			if _, err := part.Write(f.Content); err != nil {
				return nil, fmt.Errorf("rest: write form file: %w", err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("rest: close form writer: %w", err)
		}
		reader = buf
		contentType = w.FormDataContentType()
	case opts.Body != nil:
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("rest: encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	default:
		// GET-style request, still announced as JSON like the other calls.
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("rest: create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	reqID := storefront.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)
	return req, nil
}

// handleUnauthorized recovers from a token 401 by refreshing and replaying
// the request exactly once. Unrecognized 401s pass through untouched.
func (e *Executor) handleUnauthorized(ctx context.Context, path string, opts storefront.RequestOptions, token, contentType string, raw []byte) storefront.Result {
	errBody := ParseBody(http.StatusUnauthorized, contentType, raw)
	// An unreadable error body defaults to a token error, matching the
	// backend's habit of returning bare 401s for expired tokens.
	message := errBody.Message("Token invalid")

	if !containsTokenMarker(message) {
		return storefront.Result{OK: false, Status: http.StatusUnauthorized, Body: errBody}
	}

	if path == RouteAuthRefresh {
		e.logger.Warn("rest: refresh endpoint returned 401, token beyond refreshable duration")
		return e.autoLogout(ctx)
	}

	if e.refresher == nil {
		e.logger.Warn("rest: token 401 with no refresher configured", "path", path)
		return storefront.Result{OK: false, Status: http.StatusUnauthorized, Body: errBody}
	}

	e.logger.Info("rest: token expired, attempting refresh", "path", path)
	newToken, err := e.refresher.Refresh(ctx, token)
	if err != nil {
		e.metrics.RecordRefresh("failure")
		e.logger.Warn("rest: token refresh failed, auto-logging out", "error", err)
		return e.autoLogout(ctx)
	}
	e.metrics.RecordRefresh("success")
	e.metrics.RecordRetry()

	retry := opts
	retry.Token = newToken
	retry.Retry = true
	return e.Do(ctx, path, retry)
}

func (e *Executor) autoLogout(ctx context.Context) storefront.Result {
	if e.logout != nil {
		e.logout.AutoLogout(ctx)
	}
	e.metrics.RecordAutoLogout()
	return storefront.Result{
		OK:     false,
		Status: http.StatusUnauthorized,
		Body: storefront.Body{
			Kind: storefront.BodyJSON,
			JSON: map[string]any{
				"message":       sessionExpiredMessage,
				"autoLoggedOut": true,
			},
		},
		AutoLoggedOut: true,
	}
}

func containsTokenMarker(message string) bool {
	for _, marker := range tokenErrorMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}
