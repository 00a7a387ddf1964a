package integrations

import (
	"context"
	"net/http"
	"time"
)

const httpTimeout = 10 * time.Second

// TokenSource supplies the current access token, or "" for anonymous access.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token returns the token.
func (t StaticToken) Token(context.Context) string { return string(t) }

// NewHTTPClient creates an HTTP client with a standard timeout for API requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
