// Package cli implements the hovercard command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hovercard/pkg/buildinfo"
	"github.com/matzehuels/hovercard/pkg/config"
	"github.com/matzehuels/hovercard/pkg/integrations/github"
	"github.com/matzehuels/hovercard/pkg/store"
	"github.com/matzehuels/hovercard/pkg/token"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "hovercard"

	envToken = "GITHUB_TOKEN"
	envRedis = "HOVERCARD_REDIS"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	redisURL   string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the pipeline's
// observability hooks are routed to the logger.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		installLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Hovercard decorates code-hosting pages with entity cards",
		Long: `Hovercard finds references to users, repositories, issues, pull requests,
comments and commits in page markup and attaches an information card to each,
populated from the GitHub REST API.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/hovercard/config.toml)")
	root.PersistentFlags().StringVar(&c.redisURL, "redis", os.Getenv(envRedis), "redis URL for shared token, options and cache storage")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the HTTP response cache")

	root.AddCommand(c.decorateCommand())
	root.AddCommand(c.cardCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.tokenCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Environment
// =============================================================================

// env bundles the stores and clients a command works with.
type env struct {
	opts   config.Options
	state  store.Store // token and options
	cache  store.Store // HTTP responses
	tokens *token.Store
	github *github.Client
}

// Close releases the stores.
func (e *env) Close() {
	e.state.Close()
	e.cache.Close()
}

// open loads options, opens the stores and builds the API client.
func (c *CLI) open(ctx context.Context, prompter token.Prompter) (*env, error) {
	state, cache, err := c.openStores(ctx)
	if err != nil {
		return nil, err
	}

	path := c.configPath
	if path == "" {
		path, _ = config.DefaultPath()
	}
	opts, err := config.LoadFile(path)
	if err == nil {
		opts, err = config.Load(ctx, state, opts)
	}
	if err != nil {
		state.Close()
		cache.Close()
		return nil, err
	}

	tokens := token.NewStore(state, prompter)
	if v := os.Getenv(envToken); v != "" && tokens.Token(ctx) == "" {
		if err := tokens.Set(ctx, v, ""); err != nil {
			state.Close()
			cache.Close()
			return nil, err
		}
	}

	if c.noCache || opts.CacheTTL.Duration == 0 {
		cache.Close()
		cache = store.NewNullStore()
	}
	client := github.NewClient(github.Options{
		BaseURL:  opts.APIBase,
		Tokens:   tokens,
		Cache:    cache,
		CacheTTL: opts.CacheTTL.Duration,
		Logger:   c.Logger,
	})
	return &env{opts: opts, state: state, cache: cache, tokens: tokens, github: client}, nil
}

// openStores returns the state and response-cache stores: one redis instance
// split by prefix when --redis is set, local files otherwise.
func (c *CLI) openStores(ctx context.Context) (store.Store, store.Store, error) {
	if c.redisURL != "" {
		rs, err := store.NewRedisStore(ctx, store.RedisConfig{URL: c.redisURL})
		if err != nil {
			return nil, nil, err
		}
		return ownedStore{Store: store.Scoped(rs, appName+":state:"), owner: rs}, store.Scoped(rs, appName+":http:"), nil
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, nil, fmt.Errorf("get config dir: %w", err)
	}
	state, err := store.NewFileStore(filepath.Join(dir, "state"))
	if err != nil {
		return nil, nil, err
	}
	cacheRoot, err := cacheDir()
	if err != nil {
		return state, store.NewNullStore(), nil
	}
	cache, err := store.NewFileStore(cacheRoot)
	if err != nil {
		return state, store.NewNullStore(), nil
	}
	return state, cache, nil
}

// ownedStore is a scoped view that closes the connection it shares.
type ownedStore struct {
	store.Store
	owner store.Store
}

func (o ownedStore) Close() error { return o.owner.Close() }

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/hovercard/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
