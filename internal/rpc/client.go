package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout applies when Config.Timeout is zero.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a non-2xx body we keep for logging.
	maxErrorBody = 4 << 10
)

// ErrMissingToken is returned by New when no bearer token is configured.
var ErrMissingToken = errors.New("API token is required. Set EVA_API_TOKEN environment variable.")

// Config holds everything needed to build a Client. It is copied by New;
// later changes have no effect.
type Config struct {
	// BaseURL is the API root, e.g. "https://eva.example.com/api".
	BaseURL string

	// Token is the static bearer token. Required.
	Token string

	// ReadOnly blocks write-looking methods. Nil means read-only: the bare
	// client defaults to the safe mode. Use Bool to set it explicitly.
	ReadOnly *bool

	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Transport overrides the underlying round tripper. Nil uses a clone
	// of http.DefaultTransport.
	Transport http.RoundTripper

	// Observer receives a CallRecord after every call. Optional.
	Observer Observer

	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

// Bool returns a pointer to v, for Config.ReadOnly.
func Bool(v bool) *bool { return &v }

// Client is a JSON-RPC client bound to one backend and one token.
// It is safe for sequential use; concurrent use is as safe as net/http.
type Client struct {
	baseURL  string
	readOnly bool
	timeout  time.Duration
	http     *http.Client
	observer Observer
	logger   *zap.Logger
	now      func() time.Time

	closeOnce sync.Once
}

// newHTTPClient is a package-level var so tests can verify it is never
// reached with an invalid configuration.
var newHTTPClient = func(base http.RoundTripper, token string, timeout time.Duration) *http.Client {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &headerTransport{base: base, token: token},
		// Never follow redirects: the Authorization header would go with it.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// New validates cfg and creates a Client. The HTTP client is only created
// once validation passes.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("rpc: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("rpc: parsing base URL: %w", err)
	}

	readOnly := true
	if cfg.ReadOnly != nil {
		readOnly = *cfg.ReadOnly
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		readOnly: readOnly,
		timeout:  timeout,
		http:     newHTTPClient(cfg.Transport, cfg.Token, timeout),
		observer: cfg.Observer,
		logger:   logger,
		now:      time.Now,
	}

	logger.Info("eva client initialized",
		zap.Bool("read_only", readOnly),
		zap.String("url", c.baseURL),
		zap.Duration("timeout", timeout),
	)
	return c, nil
}

// ReadOnly reports whether write-looking methods are blocked.
func (c *Client) ReadOnly() bool { return c.readOnly }

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Call runs method with params on the backend and returns the raw "result"
// value (JSON null when the backend sent none).
//
// Errors are *PolicyViolationError (no I/O happened), *RPCError or
// *TransportError. Nothing is retried.
func (c *Client) Call(ctx context.Context, method string, params Params) (json.RawMessage, error) {
	rec := CallRecord{Method: method, Started: c.now()}

	var (
		result json.RawMessage
		err    error
	)
	if err = CheckWrite(method, c.readOnly); err == nil {
		req := NewRequest(method, params)
		rec.CallID = req.CallID
		c.logger.Debug("api call",
			zap.String("method", method),
			zap.String("callid", req.CallID),
			zap.Any("params", req.Kwargs),
		)
		result, err = c.do(ctx, req)
	}

	rec.Duration = c.now().Sub(rec.Started)
	classify(&rec, err)
	if c.observer != nil {
		c.observer.ObserveCall(rec)
	}

	if err != nil {
		c.logger.Warn("api call failed",
			zap.String("method", method),
			zap.String("callid", rec.CallID),
			zap.String("outcome", string(rec.Outcome)),
			zap.Error(err),
		)
		return nil, err
	}
	c.logger.Debug("api call successful", zap.String("method", method), zap.Duration("took", rec.Duration))
	return result, nil
}

// Close releases idle connections. Calling it more than once is harmless.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.http.CloseIdleConnections()
	})
	return nil
}

func (c *Client) do(ctx context.Context, req Request) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("Request error: encoding request: %v", err), Err: err}
	}

	endpoint := c.baseURL + "/?m=" + url.QueryEscape(req.Method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("Request error: %v", err), Err: err}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("Request error: %v", err), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("non-2xx response",
			zap.Int("status", resp.StatusCode),
			zap.String("location", resp.Header.Get("Location")),
			zap.ByteString("body", snippet),
		)
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP error: %d", resp.StatusCode),
		}
	}

	return decodeResponse(resp.Body)
}

// decodeResponse maps a 2xx body to either the result or an *RPCError.
// Any "error" key wins over "result", even when its value is null.
func decodeResponse(r io.Reader) (json.RawMessage, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("Request error: decoding response: %v", err), Err: err}
	}

	if raw, ok := body["error"]; ok {
		return nil, parseRPCError(raw)
	}

	result, ok := body["result"]
	if !ok {
		return json.RawMessage("null"), nil
	}
	return result, nil
}

func parseRPCError(raw json.RawMessage) *RPCError {
	if isNull(raw) {
		return &RPCError{Message: "Unknown error", NoCode: true}
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		// Not an object: keep whatever the backend said as the message.
		return &RPCError{Message: strings.Trim(string(raw), `"`), NoCode: true}
	}

	rpcErr := &RPCError{Message: cast.ToString(obj["message"]), Details: obj}
	if code, ok := obj["code"]; ok && code != nil {
		rpcErr.Code = cast.ToInt(code)
	} else {
		rpcErr.NoCode = true
	}
	if rpcErr.Message == "" {
		rpcErr.Message = "Unknown error"
	}
	return rpcErr
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// headerTransport stamps the fixed per-connection headers on every request.
type headerTransport struct {
	base  http.RoundTripper
	token string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)
	r.Header.Set("Content-Type", "application/json")
	return t.base.RoundTrip(r)
}

// CloseIdleConnections lets http.Client.CloseIdleConnections reach the base.
func (t *headerTransport) CloseIdleConnections() {
	type idleCloser interface{ CloseIdleConnections() }
	if ic, ok := t.base.(idleCloser); ok {
		ic.CloseIdleConnections()
	}
}
