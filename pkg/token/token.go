// Package token holds the optional API access token.
//
// The token is persisted in a key-value [store.Store] so that it survives
// restarts. When the API rejects the token or the anonymous rate limit is
// exhausted, callers ask the [Store] to [Store.Prompt] the user for a new one.
//
//	kv, _ := store.NewFileStore(dir)
//	tokens := token.NewStore(kv, cliPrompter)
//	tok, _ := tokens.Get(ctx)
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/hovercard/pkg/store"
)

// tokenKey is the store key the token is persisted under.
const tokenKey = "token"

// ErrNoPrompter is returned by Prompt when no interactive prompter is configured.
var ErrNoPrompter = errors.New("no token prompter configured")

// Token is a stored credential.
type Token struct {
	Value   string    `json:"value"`
	Login   string    `json:"login,omitempty"` // owner of the token, when known
	SavedAt time.Time `json:"saved_at"`
}

// Prompter asks the user for a token. reason explains why the token is needed.
// An empty result means the user declined.
type Prompter interface {
	PromptToken(ctx context.Context, reason string) (string, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, reason string) (string, error)

// PromptToken calls f.
func (f PrompterFunc) PromptToken(ctx context.Context, reason string) (string, error) {
	return f(ctx, reason)
}

// Store reads and writes the access token.
// The last value read is memoized, so Token is cheap to call per request.
type Store struct {
	kv       store.Store
	prompter Prompter

	mu     sync.RWMutex
	cached *Token
	loaded bool
}

// NewStore creates a token store on top of kv. prompter may be nil.
func NewStore(kv store.Store, prompter Prompter) *Store {
	if kv == nil {
		kv = store.NewNullStore()
	}
	return &Store{kv: kv, prompter: prompter}
}

// Get returns the stored token, or nil when none is set.
func (s *Store) Get(ctx context.Context) (*Token, error) {
	s.mu.RLock()
	if s.loaded {
		tok := s.cached
		s.mu.RUnlock()
		return tok, nil
	}
	s.mu.RUnlock()

	data, hit, err := s.kv.Get(ctx, tokenKey)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok *Token
	if hit {
		tok = &Token{}
		if err := json.Unmarshal(data, tok); err != nil {
			return nil, fmt.Errorf("decode token: %w", err)
		}
	}

	s.mu.Lock()
	s.cached, s.loaded = tok, true
	s.mu.Unlock()
	return tok, nil
}

// Token returns the raw token value, or "" when none is set. It satisfies the
// token source used by the API client.
func (s *Store) Token(ctx context.Context) string {
	tok, err := s.Get(ctx)
	if err != nil || tok == nil {
		return ""
	}
	return tok.Value
}

// Set stores value. An empty value clears the token.
func (s *Store) Set(ctx context.Context, value, login string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.Clear(ctx)
	}
	tok := &Token{Value: value, Login: login, SavedAt: time.Now().UTC()}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, tokenKey, data, 0); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	s.mu.Lock()
	s.cached, s.loaded = tok, true
	s.mu.Unlock()
	return nil
}

// Clear removes the stored token.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, tokenKey); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	s.mu.Lock()
	s.cached, s.loaded = nil, true
	s.mu.Unlock()
	return nil
}

// Prompt asks the user for a new token and stores it. It returns the new
// value, or "" when the user declined (the stored token is left untouched).
func (s *Store) Prompt(ctx context.Context, reason string) (string, error) {
	if s.prompter == nil {
		return "", ErrNoPrompter
	}
	value, err := s.prompter.PromptToken(ctx, reason)
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if err := s.Set(ctx, value, ""); err != nil {
		return "", err
	}
	return value, nil
}

// Mask hides all but the last four characters of a token for display.
func Mask(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
