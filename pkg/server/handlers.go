package server

import (
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/hovercard/pkg/config"
	"github.com/matzehuels/hovercard/pkg/errors"
)

// maxBody bounds request bodies.
const maxBody = 8 << 20

// PageResponse is returned by page creation and lookup.
type PageResponse struct {
	Page     string        `json:"page"`
	HTML     string        `json:"html"`
	Skipped  bool          `json:"skipped,omitempty"`
	Sessions []sessionInfo `json:"sessions"`
}

// MutationRequest appends HTML under the first element matching Selector.
type MutationRequest struct {
	Selector string `json:"selector"`
	HTML     string `json:"html"`
}

// handleCreatePage handles POST /pages?url=... with the page markup as body.
func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if err := errors.ValidateURL(rawURL); err != nil {
		s.writeError(w, err)
		return
	}
	pageURL, _ := url.Parse(rawURL)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	p, err := s.newPage(r.Context(), string(body), pageURL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.addPage(p)
	s.writePage(w, http.StatusCreated, p, p.allSessions())
}

// handleGetPage handles GET /pages/{page}.
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	p, err := s.page(chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writePage(w, http.StatusOK, p, p.allSessions())
}

// handleDeletePage handles DELETE /pages/{page}.
func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "page")
	if !s.removePage(id) {
		s.writeError(w, errors.New(errors.ErrCodePageNotFound, "unknown page %q", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMutation handles POST /pages/{page}/mutations. Only the sessions
// created by the rescan are returned.
func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request) {
	p, err := s.page(chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req MutationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	added, err := p.mutate(r.Context(), req.Selector, req.HTML)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writePage(w, http.StatusOK, p, added)
}

// handleCard handles GET /pages/{page}/cards/{session}. By default it waits
// for every supplementary fetch; wait=false returns the current content.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	p, err := s.page(chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	session := chi.URLParam(r, "session")
	wait := true
	if v := r.URL.Query().Get("wait"); v != "" {
		wait, _ = strconv.ParseBool(v)
	}

	var out string
	if wait {
		out, err = p.ctrl.Wait(r.Context(), session)
	} else {
		_, err = p.ctrl.Show(r.Context(), session)
		out = p.tooltip.Content(session)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeHTML(w, http.StatusOK, out)
}

func (s *Server) handleFollow(on bool) http.HandlerFunc {
	return s.action(func(p *page, r *http.Request, session string) error {
		return p.ctrl.Follow(r.Context(), session, on)
	})
}

func (s *Server) handleStar(on bool) http.HandlerFunc {
	return s.action(func(p *page, r *http.Request, session string) error {
		return p.ctrl.Star(r.Context(), session, on)
	})
}

// action runs a card mutation. Upstream failures are reported with the
// inline error card as body so clients can swap it into the tooltip.
func (s *Server) action(fn func(p *page, r *http.Request, session string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.page(chi.URLParam(r, "page"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		session := chi.URLParam(r, "session")
		if err := fn(p, r, session); err != nil {
			if errors.Is(err, errors.ErrCodeSessionNotFound) || errors.Is(err, errors.ErrCodeUnsupported) {
				s.writeError(w, err)
				return
			}
			writeHTML(w, statusFor(err), p.tooltip.Content(session))
			return
		}
		writeHTML(w, http.StatusOK, p.tooltip.Content(session))
	}
}

// handleGetOptions handles GET /options.
func (s *Server) handleGetOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Options())
}

// handlePutOptions handles PUT /options. Fields missing from the body keep
// their current value. New settings apply to pages created afterwards.
func (s *Server) handlePutOptions(w http.ResponseWriter, r *http.Request) {
	opts := s.Options()
	if err := decodeJSON(r, &opts); err != nil {
		s.writeError(w, err)
		return
	}
	if err := opts.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := config.Save(r.Context(), s.cfg.Store, opts); err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, opts)
}

// TokenRequest sets the access token.
type TokenRequest struct {
	Token string `json:"token"`
	Login string `json:"login,omitempty"`
}

// handlePutToken handles PUT /token.
func (s *Server) handlePutToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Token == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "token is required"))
		return
	}
	if err := s.cfg.Tokens.Set(r.Context(), req.Token, req.Login); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteToken handles DELETE /token.
func (s *Server) handleDeleteToken(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Tokens.Clear(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
