package cli

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/hovercard/pkg/store"
)

func TestCacheDirFollowsXDG(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name string
		xdg  string
		want string
	}{
		{"default", "", filepath.Join(home, ".cache", "hovercard")},
		{"xdg", "/tmp/xdg-cache", filepath.Join("/tmp/xdg-cache", "hovercard")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			got, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("cacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenUsesLocalFiles(t *testing.T) {
	dir := isolate(t)
	c := New(io.Discard, LogInfo)

	e, err := c.open(context.Background(), nil)
	if err != nil {
		t.Fatalf("open() error: %v", err)
	}
	defer e.Close()

	state, ok := e.state.(*store.FileStore)
	if !ok {
		t.Fatalf("state store = %T, want *store.FileStore", e.state)
	}
	if want := filepath.Join(dir, "config", "hovercard", "state"); state.Dir() != want {
		t.Errorf("state dir = %q, want %q", state.Dir(), want)
	}
	cache, ok := e.cache.(*store.FileStore)
	if !ok {
		t.Fatalf("cache store = %T, want *store.FileStore", e.cache)
	}
	if want := filepath.Join(dir, "cache", "hovercard"); cache.Dir() != want {
		t.Errorf("cache dir = %q, want %q", cache.Dir(), want)
	}
}

func TestOpenNoCache(t *testing.T) {
	isolate(t)
	c := New(io.Discard, LogInfo)
	c.noCache = true

	e, err := c.open(context.Background(), nil)
	if err != nil {
		t.Fatalf("open() error: %v", err)
	}
	defer e.Close()

	if _, ok := e.cache.(store.NullStore); !ok {
		t.Errorf("cache store = %T, want store.NullStore", e.cache)
	}
}

func TestOpenRedisSeedsTokenFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv(envToken, "ghp_from_env")
	mr := miniredis.RunT(t)

	c := New(io.Discard, LogInfo)
	c.redisURL = "redis://" + mr.Addr()
	ctx := context.Background()

	e, err := c.open(ctx, nil)
	if err != nil {
		t.Fatalf("open() error: %v", err)
	}
	if got := e.tokens.Token(ctx); got != "ghp_from_env" {
		t.Errorf("token = %q, want the environment token", got)
	}
	keys := mr.Keys()
	if len(keys) == 0 {
		t.Fatal("no keys written to redis")
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, "hovercard:state:") {
			t.Errorf("key %q outside the state prefix", k)
		}
	}
	e.Close()
}
