package render

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/cbroglie/mustache"

	"github.com/matzehuels/hovercard/pkg/entity"
	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/ref"
)

//go:embed templates/*.mustache
var templateFS embed.FS

// ErrorView is the model for error cards.
type ErrorView struct {
	Code       string
	Title      string
	Message    string
	NeedsToken bool
	HasToken   bool
}

// Renderer renders cards from embedded templates.
type Renderer struct {
	templates map[string]*mustache.Template
	now       func() time.Time
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	return newRenderer(templateFS, time.Now)
}

func newRenderer(fsys fs.FS, now func() time.Time) (*Renderer, error) {
	files, err := fs.Glob(fsys, "templates/*.mustache")
	if err != nil {
		return nil, err
	}
	sources := make(map[string]string, len(files))
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(f, "templates/"), ".mustache")
		sources[name] = string(data)
	}

	partials := &mustache.StaticProvider{Partials: sources}
	r := &Renderer{templates: make(map[string]*mustache.Template, len(sources)), now: now}
	for name, src := range sources {
		t, err := mustache.ParseStringPartials(src, partials)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	for _, k := range ref.Kinds() {
		if r.templates[k.String()] == nil {
			return nil, fmt.Errorf("missing template for %s cards", k)
		}
	}
	return r, nil
}

// Card renders a snapshot: a loading placeholder before the primary fetch
// finishes, an error card if it failed, the entity card otherwise.
func (r *Renderer) Card(snap entity.Snapshot, v Viewer) (string, error) {
	switch {
	case !snap.Ready:
		return r.Loading(snap.ID)
	case snap.Err != nil:
		return r.Error(snap.Err, v)
	}
	return r.execute(snap.ID.Kind.String(), NewCardView(snap, v, r.now()))
}

// Loading renders the transient placeholder shown while fetching.
func (r *Renderer) Loading(id ref.ID) (string, error) {
	return r.execute("loading", CardView{Kind: id.Kind.String(), ID: id.String()})
}

// Error renders an error card. Auth-related errors carry a call to action
// for entering a token.
func (r *Renderer) Error(err error, v Viewer) (string, error) {
	return r.execute("error", NewErrorView(err, v))
}

// NewErrorView builds the error card model for err.
func NewErrorView(err error, v Viewer) ErrorView {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeGeneric
	}
	return ErrorView{
		Code:       string(code),
		Title:      errors.Title(code),
		Message:    errors.UserMessage(err),
		NeedsToken: errors.NeedsToken(code),
		HasToken:   v.HasToken,
	}
}

func (r *Renderer) execute(name string, data any) (string, error) {
	t, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}
	out, err := t.Render(data)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return out, nil
}
