package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/httputil"
	"github.com/matzehuels/hovercard/pkg/observability"
	"github.com/matzehuels/hovercard/pkg/store"
)

// maxBodySize bounds response bodies read into memory.
const maxBodySize = 8 << 20

// Request describes one API call.
type Request struct {
	Method string // defaults to GET
	Path   string // relative to the client's base URL, e.g. "users/octocat"
	Accept string // overrides the default Accept header
	Body   any    // JSON-encoded when non-nil
	Cache  bool   // cache a successful GET response
}

// Response is a fully read API response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Config configures a [Client].
type Config struct {
	BaseURL    string
	Headers    map[string]string
	Tokens     TokenSource
	Cache      store.Store // nil disables response caching
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client provides shared HTTP functionality for API clients.
// It handles authentication, retry, classification, caching and dedup.
type Client struct {
	http     *http.Client
	baseURL  string
	headers  map[string]string
	tokens   TokenSource
	cache    store.Store
	cacheTTL time.Duration
	logger   *log.Logger
	group    singleflight.Group
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	c := &Client{
		http:     cfg.HTTPClient,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		headers:  cfg.Headers,
		tokens:   cfg.Tokens,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		logger:   cfg.Logger,
	}
	if c.http == nil {
		c.http = NewHTTPClient()
	}
	if c.tokens == nil {
		c.tokens = StaticToken("")
	}
	if c.cache == nil {
		c.cache = store.NewNullStore()
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Do performs req. Non-2xx responses are returned as classified errors
// together with the response, so callers can inspect 404s that carry meaning
// (for example "not following").
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Method != http.MethodGet || req.Body != nil {
		return c.do(ctx, req, c.tokens.Token(ctx))
	}

	tok := c.tokens.Token(ctx)
	key := cacheKey(tok, req.Accept, req.Path)
	if req.Cache {
		if resp, ok := c.cached(ctx, key); ok {
			return resp, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.do(ctx, req, tok)
	})
	resp, _ := v.(*Response)
	if err == nil && req.Cache && resp != nil {
		c.store(ctx, key, resp)
	}
	return resp, err
}

// GetJSON performs a GET and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, path string, cache bool, v any) error {
	resp, err := c.Do(ctx, Request{Path: path, Cache: cache})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return errors.Wrap(errors.ErrCodeGeneric, err, "decode %s", path)
	}
	return nil
}

// cacheKey scopes a GET to the credential it is sent with, so responses
// fetched with different tokens never share a cache or dedup entry.
func cacheKey(tok, accept, path string) string {
	cred := "anon"
	if tok != "" {
		cred = store.Hash([]byte(tok))[:16]
	}
	return cred + " " + accept + " " + path
}

func (c *Client) do(ctx context.Context, req Request, tok string) (*Response, error) {
	var payload []byte
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = data
	}

	// Only GETs drop the credential on retry. Mutations need it to succeed.
	strip := req.Method == http.MethodGet && tok != ""

	var (
		resp      *Response
		transport error
	)
	retry := httputil.Policy{
		Attempts: httputil.Once.Attempts,
		OnRetry: func(_ int, err error) {
			transport = err
			if strip {
				c.logger.Debug("retrying without credentials", "path", req.Path, "err", err)
			}
		},
	}
	err := retry.Do(ctx, func(attempt int) error {
		withAuth := tok != "" && !(strip && attempt > 0)
		r, err := c.send(ctx, req, payload, tok, withAuth)
		if err != nil {
			return httputil.Transient(err)
		}
		resp = r
		return nil
	})
	if err == nil && strip && transport != nil && needsAuth(resp.Status) {
		err = transport
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeConnection, err,
			"Could not connect to the API. Check your network or proxy settings.")
	}

	if err := Classify(resp.Status, resp.Header, resp.Body); err != nil {
		c.logger.Debug("request failed", "method", req.Method, "path", req.Path, "status", resp.Status)
		return resp, err
	}
	return resp, nil
}

// needsAuth reports whether an anonymous retry was refused for lacking
// credentials.
func needsAuth(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// send issues a single HTTP request. It returns an error only when no HTTP
// status was received.
func (c *Client) send(ctx context.Context, req Request, payload []byte, tok string, withAuth bool) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	target := c.baseURL + "/" + strings.TrimPrefix(req.Path, "/")
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if withAuth {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}

	host, path := hostPath(httpReq.URL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, err
	}
	hooks.OnResponse(ctx, req.Method, host, path, httpResp.StatusCode, time.Since(start))

	return &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

func (c *Client) cached(ctx context.Context, key string) (*Response, bool) {
	data, hit, err := c.cache.Get(ctx, key)
	if err != nil || !hit {
		return nil, false
	}
	var cr cachedResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, false
	}
	return &Response{Status: cr.Status, Header: cr.Header, Body: cr.Body}, true
}

func (c *Client) store(ctx context.Context, key string, resp *Response) {
	if c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(cachedResponse{Status: resp.Status, Header: resp.Header, Body: resp.Body})
	if err != nil {
		return
	}
	_ = c.cache.Set(ctx, key, data, c.cacheTTL)
}

// Invalidate drops the cached GET response for path under the current
// credential.
func (c *Client) Invalidate(ctx context.Context, accept, path string) {
	_ = c.cache.Delete(ctx, cacheKey(c.tokens.Token(ctx), accept, path))
}

func hostPath(u *url.URL) (string, string) {
	return u.Host, u.Path
}
