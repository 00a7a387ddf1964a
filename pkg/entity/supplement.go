package entity

import (
	"context"

	"github.com/matzehuels/hovercard/pkg/ref"
)

// Raw fields added by supplementary fetches.
const (
	FieldViewerFollowing  = "viewer_is_following"
	FieldFollowsViewer    = "follows_viewer"
	FieldHovercard        = "hovercard_contexts"
	FieldReadme           = "readme_html"
	FieldViewerStarred    = "viewer_has_starred"
	FieldBodyHTML         = "body_html"
	FieldPull             = "pull"
	FieldReviews          = "reviews"
	FieldRequestedReviews = "requested_reviewers"
)

// supplementary returns the kind-specific follow-up fetches for rec.
func (o *Orchestrator) supplementary(ctx context.Context, rec *Record) []func() {
	id := rec.ID
	var tasks []func()
	add := func(name string, fn func() error) {
		tasks = append(tasks, func() {
			if err := fn(); err != nil {
				o.logger.Debug("supplementary fetch failed", "id", id, "fetch", name, "err", err)
			}
		})
	}

	switch id.Kind {
	case ref.KindUser:
		login := id.Owner
		if o.opts.Principal != "" && !o.isPrincipal(login) {
			if o.hasToken(ctx) {
				add("following", func() error {
					ok, err := o.api.IsFollowing(ctx, login)
					if err == nil {
						rec.Set(FieldViewerFollowing, ok)
					}
					return err
				})
			}
			add("follows-viewer", func() error {
				ok, err := o.api.FollowsUser(ctx, login, o.opts.Principal)
				if err == nil {
					rec.Set(FieldFollowsViewer, ok)
				}
				return err
			})
		}
		if o.hasToken(ctx) {
			add("hovercard", func() error {
				hc, err := o.api.Hovercard(ctx, login)
				if err == nil {
					rec.Set(FieldHovercard, hc["contexts"])
				}
				return err
			})
		}

	case ref.KindRepo:
		if o.opts.ReadMe {
			add("readme", func() error {
				html, err := o.api.Readme(ctx, id.Owner, id.Repo)
				if err == nil {
					rec.Set(FieldReadme, html)
				}
				return err
			})
		}
		if o.hasToken(ctx) {
			add("starred", func() error {
				ok, err := o.api.IsStarred(ctx, id.Owner, id.Repo)
				if err == nil {
					rec.Set(FieldViewerStarred, ok)
				}
				return err
			})
		}

	case ref.KindIssue:
		add("body", func() error { return o.renderBody(ctx, rec) })
		if pr, _ := rec.Get("pull_request"); pr != nil {
			add("pull", func() error {
				pull, err := o.api.Pull(ctx, id.Owner, id.Repo, id.Number)
				if err == nil {
					rec.Set(FieldPull, pull)
				}
				return err
			})
			add("reviews", func() error {
				reviews, err := o.api.Reviews(ctx, id.Owner, id.Repo, id.Number)
				if err == nil {
					rec.Set(FieldReviews, reviews)
				}
				return err
			})
			add("requested-reviewers", func() error {
				rr, err := o.api.RequestedReviewers(ctx, id.Owner, id.Repo, id.Number)
				if err == nil {
					rec.Set(FieldRequestedReviews, rr)
				}
				return err
			})
		}

	case ref.KindComment:
		add("body", func() error { return o.renderBody(ctx, rec) })
	}
	return tasks
}

// renderBody renders the record's markdown body to HTML, falling back to a
// local renderer when the API call fails.
func (o *Orchestrator) renderBody(ctx context.Context, rec *Record) error {
	v, _ := rec.Get("body")
	body, _ := v.(string)
	if body == "" {
		return nil
	}
	html, err := o.api.Markdown(ctx, body, rec.ID.Owner, rec.ID.Repo)
	if err != nil {
		o.logger.Debug("markdown endpoint failed, rendering locally", "id", rec.ID, "err", err)
		html, err = RenderMarkdown(body)
		if err != nil {
			return err
		}
	}
	rec.Set(FieldBodyHTML, html)
	return nil
}
