// Package proxmox implements a typed client for the Proxmox VE HTTP
// API (api2/json). Every response arrives wrapped in a {"data": ...}
// envelope, which the client unwraps before decoding, and every
// request carries an API token Authorization header.
package proxmox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/tombee/pvemcp/internal/tracing"
	pvemcperrors "github.com/tombee/pvemcp/pkg/errors"
	"github.com/tombee/pvemcp/pkg/httpclient"
)

// Client talks to a Proxmox VE API endpoint. It is safe for
// concurrent use; the rate limiter spans all callers.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authz      string
	limiter    *rate.Limiter
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL sets the API endpoint, e.g.
// "https://pve1.example.com:8006/api2/json".
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		c.baseURL = strings.TrimRight(baseURL, "/")
		return nil
	}
}

// WithToken sets API token authentication. tokenID is the full
// user@realm!tokenid identifier.
func WithToken(tokenID, secret string) Option {
	return func(c *Client) error {
		if tokenID == "" || secret == "" {
			return fmt.Errorf("token ID and secret are both required")
		}
		c.authz = "PVEAPIToken=" + tokenID + "=" + secret
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client. Without it the client
// builds one from httpclient.DefaultConfig.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = client
		return nil
	}
}

// WithRateLimit sets the client-side request rate in requests per
// second and the burst size.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rate limit and burst must be > 0")
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// New creates a Proxmox API client. WithBaseURL and WithToken are
// required.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		logger:  slog.Default(),
		tracer:  otel.Tracer("pvemcp/proxmox"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if c.authz == "" {
		return nil, fmt.Errorf("API token is required")
	}

	if c.httpClient == nil {
		client, err := httpclient.New(httpclient.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create http client: %w", err)
		}
		c.httpClient = client
	}

	return c, nil
}

// envelope is the wrapper every api2/json response uses.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// do performs one API request: wait for a rate limiter slot, send the
// request with auth, classify failures into APIErrors, unwrap the data
// envelope and decode it into out (which may be nil for calls whose
// response the caller discards).
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	kind := pathKind(path)
	ctx, span := c.tracer.Start(ctx, "proxmox/"+kind,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("proxmox.path", path),
		),
	)
	defer span.End()

	var body io.Reader
	if len(form) > 0 {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.authz)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		tracing.RecordAPIRequest(method, kind, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return c.transportError(path, err)
	}
	defer resp.Body.Close()

	tracing.RecordAPIRequest(method, kind, resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 400 {
		apiErr := c.statusError(path, resp)
		span.SetStatus(codes.Error, apiErr.Message)
		c.logger.Warn("proxmox api request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"kind", string(apiErr.Kind),
		)
		return apiErr
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", path, err)
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, form, out)
}

func (c *Client) putForm(ctx context.Context, path string, form url.Values) error {
	return c.do(ctx, http.MethodPut, path, form, nil)
}

func (c *Client) deletePath(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// Get performs a GET against an arbitrary API path and returns the
// decoded data payload. This is the escape hatch for the query_api
// tool; typed operations are preferred everywhere else.
func (c *Client) Get(ctx context.Context, path string) (any, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	var out any
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// transportError wraps request failures that never produced a
// response. Timeouts keep their own kind so callers can tell them from
// unreachable-host failures.
func (c *Client) transportError(path string, err error) error {
	kind := pvemcperrors.KindServer
	message := "request failed"
	suggestion := "check that the Proxmox API is reachable from this host"

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = pvemcperrors.KindTimeout
		message = "request timed out"
		suggestion = "increase http.timeout or check network latency to the Proxmox API"
	}

	return &pvemcperrors.APIError{
		Kind:       kind,
		Endpoint:   path,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// statusError converts a non-2xx response into a typed APIError,
// pulling the field errors PVE reports on parameter failures into the
// message when present.
func (c *Client) statusError(path string, resp *http.Response) *pvemcperrors.APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	message := strings.TrimSpace(string(body))
	var pveErr struct {
		Errors  map[string]string `json:"errors"`
		Message string            `json:"message"`
	}
	if json.Unmarshal(body, &pveErr) == nil {
		switch {
		case len(pveErr.Errors) > 0:
			keys := make([]string, 0, len(pveErr.Errors))
			for k := range pveErr.Errors {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, k+": "+pveErr.Errors[k])
			}
			message = strings.Join(parts, "; ")
		case pveErr.Message != "":
			message = strings.TrimSpace(pveErr.Message)
		}
	}
	if message == "" {
		message = resp.Status
	}

	kind, suggestion := classifyStatus(resp.StatusCode)

	return &pvemcperrors.APIError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Endpoint:   path,
		Message:    message,
		Suggestion: suggestion,
	}
}

func classifyStatus(code int) (pvemcperrors.APIErrorKind, string) {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return pvemcperrors.KindAuth, "verify the API token ID, secret, and the token's privileges"
	case code == http.StatusNotFound:
		return pvemcperrors.KindNotFound, "check the node name and guest ID"
	case code == http.StatusTooManyRequests:
		return pvemcperrors.KindRateLimit, "reduce the request rate or raise http.rate_limit headroom"
	case code == http.StatusRequestTimeout:
		return pvemcperrors.KindTimeout, "retry; the API server timed out handling the request"
	case code >= 500:
		return pvemcperrors.KindServer, "check the Proxmox node's status and task log"
	default:
		return pvemcperrors.KindClient, "check the request parameters"
	}
}

// pathKind buckets API paths for metric labels so that per-guest paths
// don't explode label cardinality.
func pathKind(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")

	switch segs[0] {
	case "nodes":
		if len(segs) < 3 {
			return "nodes"
		}
		switch segs[2] {
		case "qemu":
			if strings.Contains(path, "/agent/") {
				return "agent"
			}
			return "qemu"
		case "lxc":
			return "lxc"
		case "tasks":
			return "tasks"
		case "storage":
			return "storage"
		default:
			return "nodes"
		}
	case "cluster":
		return "cluster"
	case "storage":
		return "storage"
	case "version":
		return "version"
	default:
		return "other"
	}
}
