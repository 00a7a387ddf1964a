// Package server exposes the hovercard pipeline over HTTP.
//
// A client posts page markup to /pages and receives the decorated markup
// together with one hover session per detected reference. Cards are then
// fetched per session, and later page mutations are posted to the page so
// only the changed subtree is rescanned.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/hovercard/pkg/config"
	"github.com/matzehuels/hovercard/pkg/entity"
	"github.com/matzehuels/hovercard/pkg/extract"
	"github.com/matzehuels/hovercard/pkg/render"
	"github.com/matzehuels/hovercard/pkg/store"
	"github.com/matzehuels/hovercard/pkg/token"
)

const shutdownTimeout = 5 * time.Second

// Config configures a [Server].
type Config struct {
	// API serves entity fetches for every page.
	API entity.API
	// Tokens holds the access token shared by all pages.
	Tokens *token.Store
	// Store persists options changed through PUT /options.
	Store    store.Store
	Options  config.Options
	Registry *extract.Registry
	Renderer *render.Renderer
	Logger   *log.Logger
}

// Server holds the pages decorated so far.
type Server struct {
	cfg    Config
	logger *log.Logger

	mu    sync.RWMutex
	opts  config.Options
	pages map[string]*page
}

// New creates a server. Missing registry, renderer and store fall back to
// the defaults.
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		cfg.Registry = extract.DefaultRegistry()
	}
	if cfg.Renderer == nil {
		r, err := render.NewRenderer()
		if err != nil {
			return nil, err
		}
		cfg.Renderer = r
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Tokens == nil {
		cfg.Tokens = token.NewStore(cfg.Store, nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{cfg: cfg, logger: logger, opts: cfg.Options, pages: make(map[string]*page)}, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/pages", func(r chi.Router) {
		r.Post("/", s.handleCreatePage)
		r.Route("/{page}", func(r chi.Router) {
			r.Get("/", s.handleGetPage)
			r.Delete("/", s.handleDeletePage)
			r.Post("/mutations", s.handleMutation)
			r.Route("/cards/{session}", func(r chi.Router) {
				r.Get("/", s.handleCard)
				r.Post("/follow", s.handleFollow(true))
				r.Delete("/follow", s.handleFollow(false))
				r.Post("/star", s.handleStar(true))
				r.Delete("/star", s.handleStar(false))
			})
		})
	})

	r.Get("/options", s.handleGetOptions)
	r.Put("/options", s.handlePutOptions)
	r.Put("/token", s.handlePutToken)
	r.Delete("/token", s.handleDeleteToken)
	return r
}

// Options returns the options new pages are created with.
func (s *Server) Options() config.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// Close releases every page.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.pages {
		p.close()
		delete(s.pages, id)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Run serves srv until ctx is done or the process receives SIGINT/SIGTERM,
// then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("hovercard server running", "addr", "http://"+srv.Addr)
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, ":") {
		logger.Warn("server is binding to all interfaces and may be reachable from the network")
	}

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
