package entity

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/integrations"
	"github.com/matzehuels/hovercard/pkg/observability"
	"github.com/matzehuels/hovercard/pkg/ref"
)

// API is the set of endpoints the orchestrator needs.
type API interface {
	User(ctx context.Context, login string) (map[string]any, error)
	Hovercard(ctx context.Context, login string) (map[string]any, error)
	IsFollowing(ctx context.Context, login string) (bool, error)
	FollowsUser(ctx context.Context, login, target string) (bool, error)
	Follow(ctx context.Context, login string) error
	Unfollow(ctx context.Context, login string) error

	Repo(ctx context.Context, owner, repo string) (map[string]any, error)
	Readme(ctx context.Context, owner, repo string) (string, error)
	IsStarred(ctx context.Context, owner, repo string) (bool, error)
	Star(ctx context.Context, owner, repo string) error
	Unstar(ctx context.Context, owner, repo string) error

	Issue(ctx context.Context, owner, repo string, number int) (map[string]any, error)
	Pull(ctx context.Context, owner, repo string, number int) (map[string]any, error)
	Reviews(ctx context.Context, owner, repo string, number int) ([]map[string]any, error)
	RequestedReviewers(ctx context.Context, owner, repo string, number int) (map[string]any, error)
	IssueComment(ctx context.Context, owner, repo string, id int64) (map[string]any, error)
	Commit(ctx context.Context, owner, repo, sha string) (map[string]any, error)
	Markdown(ctx context.Context, text, owner, repo string) (string, error)
}

// Options configures an [Orchestrator].
type Options struct {
	// Principal is the signed-in viewer, used for relationship fields.
	Principal string
	// ReadMe enables fetching repository READMEs.
	ReadMe bool
	// Tokens decides whether authenticated-only fetches are attempted.
	Tokens integrations.TokenSource
	Logger *log.Logger
}

// Orchestrator resolves identifiers to records for one page.
type Orchestrator struct {
	api    API
	cache  *Cache
	opts   Options
	logger *log.Logger
}

// NewOrchestrator creates an orchestrator with an empty cache.
func NewOrchestrator(api API, opts Options) *Orchestrator {
	if opts.Tokens == nil {
		opts.Tokens = integrations.StaticToken("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{api: api, cache: NewCache(), opts: opts, logger: logger}
}

// Cache returns the orchestrator's record cache.
func (o *Orchestrator) Cache() *Cache { return o.cache }

// Resolve returns the record for id, starting its fetch on first use. The
// fetch outlives ctx's cancellation; ctx only carries values.
func (o *Orchestrator) Resolve(ctx context.Context, id ref.ID) (*Record, error) {
	if id.Kind == ref.KindSkip || !id.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidReference, "invalid reference %q", id.String())
	}

	hooks := observability.Entity()
	rec, created := o.cache.getOrCreate(id)
	if !created {
		hooks.OnCacheHit(ctx, id.Kind.String())
		return rec, nil
	}
	hooks.OnCacheMiss(ctx, id.Kind.String())

	go o.fetch(context.WithoutCancel(ctx), rec)
	return rec, nil
}

func (o *Orchestrator) fetch(ctx context.Context, rec *Record) {
	start := time.Now()
	raw, err := o.primary(ctx, rec.ID)
	observability.Entity().OnFetchComplete(ctx, rec.ID.Kind.String(), rec.ID.String(), time.Since(start), err)

	if err != nil {
		o.logger.Debug("primary fetch failed", "id", rec.ID, "err", err)
		rec.setReady(err)
		rec.render()
		rec.finish()
		return
	}

	rec.Merge(raw)
	rec.setReady(nil)
	rec.render()

	rec.latch.Go(o.supplementary(ctx, rec)...)
	rec.latch.Wait()
	rec.finish()
}

func (o *Orchestrator) primary(ctx context.Context, id ref.ID) (map[string]any, error) {
	switch id.Kind {
	case ref.KindUser:
		return o.api.User(ctx, id.Owner)
	case ref.KindRepo:
		return o.api.Repo(ctx, id.Owner, id.Repo)
	case ref.KindIssue:
		return o.api.Issue(ctx, id.Owner, id.Repo, id.Number)
	case ref.KindComment:
		return o.api.IssueComment(ctx, id.Owner, id.Repo, id.Comment)
	case ref.KindCommit:
		return o.api.Commit(ctx, id.Owner, id.Repo, id.SHA)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "cannot fetch %s", id.Kind)
}

func (o *Orchestrator) hasToken(ctx context.Context) bool {
	return o.opts.Tokens.Token(ctx) != ""
}

// isPrincipal reports whether login is the signed-in viewer.
func (o *Orchestrator) isPrincipal(login string) bool {
	return o.opts.Principal != "" && strings.EqualFold(login, o.opts.Principal)
}
