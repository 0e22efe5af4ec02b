package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"mathnb/cli/internal/manifest"
)

// TokenSource returns the bearer token to attach to notebook requests, or ""
// when the user is not logged in.
type TokenSource func() string

// Option configures an HTTP backend.
type Option func(*HTTP)

// WithTokenSource attaches bearer tokens to evaluator and worksheet requests.
func WithTokenSource(ts TokenSource) Option { return func(h *HTTP) { h.tokens = ts } }

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option { return func(h *HTTP) { h.log = l } }

// WithSessionID overrides the generated evaluator session id.
func WithSessionID(id string) Option { return func(h *HTTP) { h.sessionID = id } }

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option { return func(h *HTTP) { h.client.SetTimeout(d) } }

// HTTP implements the API client over REST endpoints.
// It evaluates queries, saves and opens worksheets, and runs the device login.
// User data is cached in memory to support offline scenarios and reduce API calls.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "https://nb.example.org")
	baseURL string
	// endpoints contains the URL paths for various API endpoints
	endpoints manifest.HTTPEndpoints
	// client is the resty client on a pooled transport
	client *resty.Client
	// sessionID identifies this CLI process to the evaluator (X-Session-ID)
	sessionID string
	tokens    TokenSource
	// meCache stores user data from the me endpoint for offline access
	meCache *cache.Cache
	log     *zap.Logger
}

const meCacheTTL = 10 * time.Minute

// newHTTP creates a new HTTP client with the given base URL and endpoints.
// Evaluations can take long, so the default timeout is generous; callers bound
// individual evaluations with their context.
func newHTTP(baseURL string, endpoints manifest.HTTPEndpoints, opts ...Option) *HTTP {
	h := &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: endpoints,
		client:    newRestyClient(),
		sessionID: uuid.NewString(),
		meCache:   cache.New(meCacheTTL, 2*meCacheTTL),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// newRestyClient builds a resty client on the pooled transport of
// go-retryablehttp. Only idempotent GETs are retried: re-posting a query or a
// save would run it twice on the server.
func newRestyClient() *resty.Client {
	pooled := retryablehttp.NewClient()
	pooled.Logger = nil

	c := resty.New()
	c.SetTransport(pooled.HTTPClient.Transport).
		SetTimeout(120*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("User-Agent", manifest.UserAgent).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return c
}

// SessionID returns the evaluator session id sent with every query.
func (h *HTTP) SessionID() string { return h.sessionID }

// BaseURL returns the server base URL without a trailing slash.
func (h *HTTP) BaseURL() string { return h.baseURL }

// request creates a request bound to ctx carrying the bearer token when one is available.
func (h *HTTP) request(ctx context.Context) *resty.Request {
	r := h.client.R().SetContext(ctx).SetHeader("Accept", "application/json")
	if h.tokens != nil {
		if tok := h.tokens(); tok != "" {
			r.SetAuthToken(tok)
		}
	}
	return r
}

func (h *HTTP) url(path string) string {
	return h.baseURL + path
}

// GetVersion calls GET /api/version and returns the version string when available.
// No authentication required. This can be used to check connectivity to the server.
func (h *HTTP) GetVersion(ctx context.Context) (string, error) {
	resp, err := h.client.R().SetContext(ctx).Get(h.url(h.endpoints.Version))
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "unknown", nil
	}
	var out struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", err
	}
	if out.Version == "" {
		return "unknown", nil
	}
	return out.Version, nil
}
