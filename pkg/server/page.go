package server

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/matzehuels/hovercard/pkg/entity"
	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/extract"
	"github.com/matzehuels/hovercard/pkg/hover"
	"github.com/matzehuels/hovercard/pkg/scan"
)

// page is one decorated document and its hover state.
type page struct {
	id      string
	doc     *goquery.Document
	pc      *extract.PageContext
	watcher *scan.Watcher
	ctrl    *hover.Controller
	tooltip *hover.MemoryTooltip
	skipped bool

	mu       sync.Mutex
	sessions []sessionInfo
}

type sessionInfo struct {
	Session string `json:"session"`
	Kind    string `json:"kind"`
	ID      string `json:"id"`
}

// newPage parses markup, derives its context and runs the initial scan.
func (s *Server) newPage(ctx context.Context, markup string, pageURL *url.URL) (*page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse page")
	}
	opts := s.Options()
	pc := extract.NewPageContext(doc, pageURL, opts)

	principal := pc.Principal
	if principal == "" {
		if tok, err := s.cfg.Tokens.Get(ctx); err == nil && tok != nil {
			principal = tok.Login
		}
	}

	orch := entity.NewOrchestrator(s.cfg.API, entity.Options{
		Principal: principal,
		ReadMe:    opts.ReadMe,
		Tokens:    s.cfg.Tokens,
		Logger:    s.logger,
	})
	tooltip := hover.NewMemoryTooltip()
	p := &page{
		id:      uuid.NewString(),
		doc:     doc,
		pc:      pc,
		tooltip: tooltip,
		skipped: opts.DisableProjects && pc.ProjectBoard(),
	}
	p.ctrl = hover.NewController(hover.Config{
		Orchestrator: orch,
		Renderer:     s.cfg.Renderer,
		Tooltip:      tooltip,
		Tokens:       s.cfg.Tokens,
		Prompter:     s.cfg.Tokens,
		Principal:    principal,
		Options:      opts,
		Logger:       s.logger,
	})

	scanner := scan.NewScanner(s.cfg.Registry, extract.NewMarkers(), s.logger)
	// Mutations arrive from the client, never from our own rewrites, so no
	// settle window is needed.
	p.watcher = scan.NewWatcher(scanner, doc.Nodes[0], pc, scan.Config{
		OnTargets: p.bind,
		Disabled:  p.skipped,
		Logger:    s.logger,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.watcher.Start(ctx)
	return p, nil
}

// bind hands new targets to the controller. Called with p.mu held.
func (p *page) bind(targets []extract.Target) {
	ids := p.ctrl.Bind(targets)
	for i, t := range targets {
		p.sessions = append(p.sessions, sessionInfo{
			Session: ids[i],
			Kind:    t.ID.Kind.String(),
			ID:      t.ID.String(),
		})
	}
}

// mutate appends fragment under the first element matching selector and
// rescans the new nodes. It returns the sessions created by the rescan.
func (p *page) mutate(ctx context.Context, selector, fragment string) ([]sessionInfo, error) {
	if err := errors.ValidateSelector(selector); err != nil {
		return nil, err
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSelector, err, "invalid selector %q", selector)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sel := p.doc.FindMatcher(m)
	if sel.Length() == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no element matches %q", selector)
	}
	parent := sel.Nodes[0]
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse fragment")
	}

	before := len(p.sessions)
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			p.watcher.Notify(ctx, n)
		}
	}
	p.watcher.Flush(ctx)
	return append([]sessionInfo(nil), p.sessions[before:]...), nil
}

// html renders the current document.
func (p *page) html() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var buf bytes.Buffer
	if err := html.Render(&buf, p.doc.Nodes[0]); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p *page) allSessions() []sessionInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sessionInfo(nil), p.sessions...)
}

func (p *page) close() { p.ctrl.Close() }

func (s *Server) addPage(p *page) {
	s.mu.Lock()
	s.pages[p.id] = p
	s.mu.Unlock()
}

func (s *Server) page(id string) (*page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[id]
	if !ok {
		return nil, errors.New(errors.ErrCodePageNotFound, "unknown page %q", id)
	}
	return p, nil
}

func (s *Server) removePage(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[id]
	if ok {
		p.close()
		delete(s.pages, id)
	}
	return ok
}
