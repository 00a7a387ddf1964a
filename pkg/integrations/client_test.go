package integrations

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	hcerrors "github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/store"
)

func TestClientGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/users/octocat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Test"); got != "yes" {
			t.Errorf("X-Test = %q", got)
		}
		w.Write([]byte(`{"login":"octocat"}`))
	}))
	defer server.Close()

	c := NewClient(Config{
		BaseURL: server.URL,
		Headers: map[string]string{"X-Test": "yes"},
		Tokens:  StaticToken("secret"),
	})

	var out struct {
		Login string `json:"login"`
	}
	if err := c.GetJSON(context.Background(), "users/octocat", false, &out); err != nil {
		t.Fatalf("GetJSON() error: %v", err)
	}
	if out.Login != "octocat" {
		t.Errorf("Login = %q", out.Login)
	}
}

func TestClientAnonymous(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("unexpected Authorization %q", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	if _, err := c.Do(context.Background(), Request{Path: "x"}); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
}

func TestClientPostBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	resp, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "markdown", Body: map[string]string{"text": "hi"}})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Errorf("Status = %d", resp.Status)
	}
}

// flakyTransport fails the first n requests at the transport level and
// records the Authorization header of every attempt.
type flakyTransport struct {
	mu    sync.Mutex
	fail  int
	auths []string
	next  http.RoundTripper
}

func (f *flakyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.auths = append(f.auths, r.Header.Get("Authorization"))
	fail := f.fail > 0
	if fail {
		f.fail--
	}
	f.mu.Unlock()
	if fail {
		return nil, &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	}
	return f.next.RoundTrip(r)
}

func TestClientRetryWithoutAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr := &flakyTransport{fail: 1, next: http.DefaultTransport}
	c := NewClient(Config{
		BaseURL:    server.URL,
		Tokens:     StaticToken("secret"),
		HTTPClient: &http.Client{Transport: tr},
	})

	if _, err := c.Do(context.Background(), Request{Path: "users/octocat"}); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if len(tr.auths) != 2 {
		t.Fatalf("attempts = %d, want 2", len(tr.auths))
	}
	if tr.auths[0] != "Bearer secret" {
		t.Errorf("first attempt Authorization = %q", tr.auths[0])
	}
	if tr.auths[1] != "" {
		t.Errorf("retry should strip credentials, got %q", tr.auths[1])
	}
}

func TestClientConnectionError(t *testing.T) {
	tr := &flakyTransport{fail: 5, next: http.DefaultTransport}
	c := NewClient(Config{
		BaseURL:    "http://api.invalid",
		Tokens:     StaticToken("secret"),
		HTTPClient: &http.Client{Transport: tr},
	})

	_, err := c.Do(context.Background(), Request{Path: "users/octocat"})
	if !hcerrors.Is(err, hcerrors.ErrCodeConnection) {
		t.Fatalf("error = %v, want connection error", err)
	}
	if len(tr.auths) != 2 {
		t.Errorf("attempts = %d, want exactly one retry", len(tr.auths))
	}
}

func TestClientHTTPErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	resp, err := c.Do(context.Background(), Request{Path: "x"})
	if !hcerrors.Is(err, hcerrors.ErrCodeGeneric) {
		t.Fatalf("error = %v, want generic", err)
	}
	if resp == nil || resp.Status != http.StatusInternalServerError {
		t.Errorf("response should be returned alongside the error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClientCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"n":1}`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, Cache: store.NewMemoryStore(), CacheTTL: time.Hour})
	ctx := context.Background()
	for range 3 {
		if _, err := c.Do(ctx, Request{Path: "users/a", Cache: true}); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}

	c.Invalidate(ctx, "", "users/a")
	if _, err := c.Do(ctx, Request{Path: "users/a", Cache: true}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls after invalidate = %d, want 2", calls.Load())
	}
}

// switchToken is a TokenSource whose token can change between calls.
type switchToken struct {
	mu  sync.Mutex
	tok string
}

func (s *switchToken) Token(context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tok
}

func (s *switchToken) set(tok string) {
	s.mu.Lock()
	s.tok = tok
	s.mu.Unlock()
}

func TestClientCacheScopedToCredential(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		w.Write([]byte(`{"title":"private issue"}`))
	}))
	defer server.Close()

	tokens := &switchToken{tok: "secret"}
	c := NewClient(Config{BaseURL: server.URL, Tokens: tokens, Cache: store.NewMemoryStore(), CacheTTL: time.Hour})
	ctx := context.Background()
	req := Request{Path: "repos/acme/private/issues/1", Cache: true}

	if _, err := c.Do(ctx, req); err != nil {
		t.Fatalf("authenticated Do() error: %v", err)
	}

	tokens.set("")
	if _, err := c.Do(ctx, req); !hcerrors.Is(err, hcerrors.ErrCodeNotFound) {
		t.Fatalf("anonymous Do() error = %v, want not found", err)
	}

	tokens.set("other")
	if _, err := c.Do(ctx, req); err != nil {
		t.Fatalf("second token Do() error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}

	tokens.set("secret")
	if _, err := c.Do(ctx, req); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Errorf("cached response not reused for the same token, calls = %d", calls.Load())
	}
}

func TestClientMutationRetryKeepsCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Requires authentication"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	tr := &flakyTransport{fail: 1, next: http.DefaultTransport}
	c := NewClient(Config{
		BaseURL:    server.URL,
		Tokens:     StaticToken("secret"),
		HTTPClient: &http.Client{Transport: tr},
	})

	if _, err := c.Do(context.Background(), Request{Method: http.MethodPut, Path: "user/following/octocat"}); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if len(tr.auths) != 2 || tr.auths[1] != "Bearer secret" {
		t.Errorf("attempt credentials = %q, want both authenticated", tr.auths)
	}
}

func TestClientAnonymousRetryRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Requires authentication"}`))
	}))
	defer server.Close()

	tr := &flakyTransport{fail: 1, next: http.DefaultTransport}
	c := NewClient(Config{
		BaseURL:    server.URL,
		Tokens:     StaticToken("secret"),
		HTTPClient: &http.Client{Transport: tr},
	})

	_, err := c.Do(context.Background(), Request{Path: "user/starred/octocat/Hello-World"})
	if !hcerrors.Is(err, hcerrors.ErrCodeConnection) {
		t.Fatalf("error = %v, want connection error", err)
	}
	if hcerrors.NeedsToken(hcerrors.GetCode(err)) {
		t.Error("transport failure should not ask for a token")
	}
}

func TestClientCacheSkipsErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, Cache: store.NewMemoryStore(), CacheTTL: time.Hour})
	for range 2 {
		c.Do(context.Background(), Request{Path: "users/ghost", Cache: true})
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClassify(t *testing.T) {
	reset := time.Unix(1700000000, 0)
	tests := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   hcerrors.Code
	}{
		{"ok", 200, nil, "", ""},
		{"no content", 204, nil, "", ""},
		{"unauthorized", 401, nil, "", hcerrors.ErrCodeInvalidToken},
		{"rate limited 403", 403, http.Header{"X-Ratelimit-Remaining": {"0"}, "X-Ratelimit-Reset": {"1700000000"}}, "", hcerrors.ErrCodeRateLimited},
		{"rate limited 429", 429, http.Header{"X-Ratelimit-Remaining": {"0"}}, "", hcerrors.ErrCodeRateLimited},
		{"blocked 403", 403, nil, `{"message":"Repository access blocked","block":{"reason":"tos"}}`, hcerrors.ErrCodeAccessBlocked},
		{"blocked 451", 451, nil, `{"block":{"reason":"dmca"}}`, hcerrors.ErrCodeAccessBlocked},
		{"forbidden", 403, http.Header{"X-Ratelimit-Remaining": {"42"}}, `{"message":"Resource not accessible"}`, hcerrors.ErrCodeForbidden},
		{"not found", 404, nil, `{"message":"Not Found"}`, hcerrors.ErrCodeNotFound},
		{"server error", 502, nil, "", hcerrors.ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.header
			if h == nil {
				h = http.Header{}
			}
			err := Classify(tt.status, h, []byte(tt.body))
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Classify() = %v, want nil", err)
				}
				return
			}
			if got := hcerrors.GetCode(err); got != tt.want {
				t.Errorf("code = %s, want %s", got, tt.want)
			}
			var e *hcerrors.Error
			if errors.As(err, &e) && e.Status != tt.status {
				t.Errorf("Status = %d, want %d", e.Status, tt.status)
			}
		})
	}

	t.Run("reset time", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-RateLimit-Remaining", "0")
		h.Set("X-RateLimit-Reset", "1700000000")
		var rl *hcerrors.RateLimitedError
		if !errors.As(Classify(403, h, nil), &rl) {
			t.Fatal("expected RateLimitedError in chain")
		}
		if !rl.Reset.Equal(reset) {
			t.Errorf("Reset = %v, want %v", rl.Reset, reset)
		}
	})
}
