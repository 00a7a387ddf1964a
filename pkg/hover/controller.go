// Package hover binds marked elements to tooltips and drives card display.
package hover

import (
	"context"
	"sync"

	"golang.org/x/net/html"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/hovercard/pkg/config"
	"github.com/matzehuels/hovercard/pkg/entity"
	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/extract"
	"github.com/matzehuels/hovercard/pkg/integrations"
	"github.com/matzehuels/hovercard/pkg/ref"
	"github.com/matzehuels/hovercard/pkg/render"
)

// AttrSession is written onto every bound element.
const AttrSession = "data-hovercard-session"

// Actions exposed on cards.
const (
	ActionFollow = "follow"
	ActionStar   = "star"
)

// TokenPrompter asks the user for a new access token.
type TokenPrompter interface {
	Prompt(ctx context.Context, reason string) (string, error)
}

// Config configures a [Controller].
type Config struct {
	Orchestrator *entity.Orchestrator
	Renderer     *render.Renderer
	Tooltip      Tooltip
	Tokens       integrations.TokenSource
	Prompter     TokenPrompter
	Principal    string
	Options      config.Options
	Logger       *log.Logger
}

// Session is one bound element.
type Session struct {
	ID     string
	Target extract.Target

	unsubscribe func()

	// paintMu orders content writes. painted is the render count of the
	// card in card, -1 before any.
	paintMu sync.Mutex
	painted int
	card    string
}

// Controller binds targets to the tooltip and wires display to the
// orchestrator.
type Controller struct {
	cfg    Config
	logger *log.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewController creates a controller.
func NewController(cfg Config) *Controller {
	if cfg.Tokens == nil {
		cfg.Tokens = integrations.StaticToken("")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{cfg: cfg, logger: logger, sessions: make(map[string]*Session)}
}

// Bind attaches a tooltip session to each target and returns the session ids
// in target order.
func (c *Controller) Bind(targets []extract.Target) []string {
	p := Placement{Delay: c.cfg.Options.Delay.Duration, Side: c.cfg.Options.Side}
	ids := make([]string, 0, len(targets))

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range targets {
		id := uuid.NewString()
		c.sessions[id] = &Session{ID: id, Target: t, painted: -1}
		setAttr(t, AttrSession, id)
		c.cfg.Tooltip.Attach(id, t, p)
		ids = append(ids, id)
	}
	return ids
}

// Session returns a bound session.
func (c *Controller) Session(id string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	return s, ok
}

// Len returns the number of bound sessions.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Show is the tooltip's before-show hook. It displays the loading
// placeholder, resolves the record and keeps the tooltip content in sync as
// the record fills in. It returns the record so callers can wait on it.
func (c *Controller) Show(ctx context.Context, sessionID string) (*entity.Record, error) {
	s, err := c.session(sessionID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	first := s.unsubscribe == nil
	c.mu.Unlock()
	if first {
		if rec, ok := c.cfg.Orchestrator.Cache().Get(s.Target.ID); !ok || !rec.Snapshot().Ready {
			c.loading(s)
		}
	}

	rec, err := c.cfg.Orchestrator.Resolve(ctx, s.Target.ID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if s.unsubscribe == nil {
		s.unsubscribe = rec.Subscribe(func(snap entity.Snapshot) {
			c.paint(ctx, s, snap)
		})
	}
	c.mu.Unlock()

	// A render may have happened before the subscription existed.
	if snap := rec.Snapshot(); snap.Ready {
		c.paint(ctx, s, snap)
	}
	return rec, nil
}

// Wait shows the session and blocks until its record is complete, returning
// the final card.
func (c *Controller) Wait(ctx context.Context, sessionID string) (string, error) {
	rec, err := c.Show(ctx, sessionID)
	if err != nil {
		return "", err
	}
	select {
	case <-rec.Done():
	case <-ctx.Done():
		return "", ctx.Err()
	}
	s, err := c.session(sessionID)
	if err != nil {
		return "", err
	}
	return c.paint(ctx, s, rec.Snapshot())
}

// Close removes all subscriptions.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sessions {
		if s.unsubscribe != nil {
			s.unsubscribe()
			s.unsubscribe = nil
		}
	}
}

// Refresh re-renders the session from the record's current state.
func (c *Controller) Refresh(ctx context.Context, sessionID string) error {
	s, err := c.session(sessionID)
	if err != nil {
		return err
	}
	rec, ok := c.cfg.Orchestrator.Cache().Get(s.Target.ID)
	if !ok {
		return nil
	}
	_, err = c.paint(ctx, s, rec.Snapshot())
	return err
}

// Viewer describes the current viewer for rendering.
func (c *Controller) Viewer(ctx context.Context) render.Viewer {
	return render.Viewer{Principal: c.cfg.Principal, HasToken: c.cfg.Tokens.Token(ctx) != ""}
}

// paint shows snap unless a snapshot from a later render is already on
// screen. It returns the content left in the tooltip.
func (c *Controller) paint(ctx context.Context, s *Session, snap entity.Snapshot) (string, error) {
	s.paintMu.Lock()
	defer s.paintMu.Unlock()
	if snap.Renders < s.painted {
		return s.card, nil
	}
	out, err := c.cfg.Renderer.Card(snap, c.Viewer(ctx))
	if err != nil {
		c.logger.Warn("render failed", "id", snap.ID, "err", err)
		return "", err
	}
	s.painted, s.card = snap.Renders, out
	c.cfg.Tooltip.SetContent(s.ID, out)
	return out, nil
}

// loading shows the placeholder while nothing has been painted yet.
func (c *Controller) loading(s *Session) {
	s.paintMu.Lock()
	defer s.paintMu.Unlock()
	if s.painted >= 0 {
		return
	}
	if out, err := c.cfg.Renderer.Loading(s.Target.ID); err == nil {
		c.cfg.Tooltip.SetContent(s.ID, out)
	}
}

// ToggleFollow follows or unfollows the session's user, depending on the
// cached relationship.
func (c *Controller) ToggleFollow(ctx context.Context, sessionID string) error {
	on, err := c.current(sessionID, entity.FieldViewerFollowing)
	if err != nil {
		return err
	}
	return c.Follow(ctx, sessionID, !on)
}

// ToggleStar stars or unstars the session's repository.
func (c *Controller) ToggleStar(ctx context.Context, sessionID string) error {
	on, err := c.current(sessionID, entity.FieldViewerStarred)
	if err != nil {
		return err
	}
	return c.Star(ctx, sessionID, !on)
}

// Follow sets the viewer's follow state for the session's user.
func (c *Controller) Follow(ctx context.Context, sessionID string, on bool) error {
	s, err := c.session(sessionID)
	if err != nil {
		return err
	}
	if s.Target.ID.Kind != ref.KindUser {
		return errors.New(errors.ErrCodeUnsupported, "cannot follow a %s", s.Target.ID.Kind)
	}
	return c.act(ctx, s, ActionFollow, func() error {
		return c.cfg.Orchestrator.SetFollow(ctx, s.Target.ID.Owner, on)
	})
}

// Star sets the viewer's star state for the session's repository.
func (c *Controller) Star(ctx context.Context, sessionID string, on bool) error {
	s, err := c.session(sessionID)
	if err != nil {
		return err
	}
	if s.Target.ID.Kind != ref.KindRepo {
		return errors.New(errors.ErrCodeUnsupported, "cannot star a %s", s.Target.ID.Kind)
	}
	return c.act(ctx, s, ActionStar, func() error {
		return c.cfg.Orchestrator.SetStar(ctx, s.Target.ID, on)
	})
}

func (c *Controller) current(sessionID, field string) (bool, error) {
	s, err := c.session(sessionID)
	if err != nil {
		return false, err
	}
	rec, ok := c.cfg.Orchestrator.Cache().Get(s.Target.ID)
	if !ok {
		return false, nil
	}
	v, _ := rec.Get(field)
	on, _ := v.(bool)
	return on, nil
}

// act disables the control, performs the mutation and re-renders. On
// failure the card body is replaced by an inline error.
func (c *Controller) act(ctx context.Context, s *Session, action string, call func() error) error {
	c.cfg.Tooltip.SetBusy(s.ID, action, true)
	defer c.cfg.Tooltip.SetBusy(s.ID, action, false)

	if err := call(); err != nil {
		c.logger.Debug("action failed", "action", action, "id", s.Target.ID, "err", err)
		if out, rerr := c.cfg.Renderer.Error(err, c.Viewer(ctx)); rerr == nil {
			s.paintMu.Lock()
			c.cfg.Tooltip.SetContent(s.ID, out)
			s.paintMu.Unlock()
		}
		return err
	}
	return c.Refresh(ctx, s.ID)
}

// EditToken prompts for a new access token.
func (c *Controller) EditToken(ctx context.Context, reason string) (string, error) {
	if c.cfg.Prompter == nil {
		return "", errors.New(errors.ErrCodeUnsupported, "no token prompt available")
	}
	return c.cfg.Prompter.Prompt(ctx, reason)
}

func (c *Controller) session(id string) (*Session, error) {
	s, ok := c.Session(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "unknown session %q", id)
	}
	return s, nil
}

func setAttr(t extract.Target, key, val string) {
	n := t.Node
	if n == nil {
		return
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
