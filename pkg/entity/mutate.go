package entity

import (
	"context"

	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/ref"
)

// SetFollow follows or unfollows login and reconciles the cached user record.
func (o *Orchestrator) SetFollow(ctx context.Context, login string, follow bool) error {
	if !ref.ValidUser(login) {
		return errors.New(errors.ErrCodeInvalidReference, "invalid user %q", login)
	}
	var err error
	if follow {
		err = o.api.Follow(ctx, login)
	} else {
		err = o.api.Unfollow(ctx, login)
	}
	if err != nil {
		return err
	}
	if rec, ok := o.cache.Get(ref.User(login)); ok {
		rec.update(func(raw map[string]any) {
			was, _ := raw[FieldViewerFollowing].(bool)
			raw[FieldViewerFollowing] = follow
			if was != follow {
				adjustCount(raw, "followers", follow)
			}
		})
	}
	return nil
}

// SetStar stars or unstars a repository and reconciles the cached record.
func (o *Orchestrator) SetStar(ctx context.Context, repo ref.ID, star bool) error {
	repo = repo.RepoID()
	if !repo.Valid() {
		return errors.New(errors.ErrCodeInvalidReference, "invalid repository %q", repo.String())
	}
	var err error
	if star {
		err = o.api.Star(ctx, repo.Owner, repo.Repo)
	} else {
		err = o.api.Unstar(ctx, repo.Owner, repo.Repo)
	}
	if err != nil {
		return err
	}
	if rec, ok := o.cache.Get(repo); ok {
		rec.update(func(raw map[string]any) {
			was, _ := raw[FieldViewerStarred].(bool)
			raw[FieldViewerStarred] = star
			if was != star {
				adjustCount(raw, "stargazers_count", star)
			}
		})
	}
	return nil
}

func adjustCount(raw map[string]any, key string, up bool) {
	n, ok := raw[key].(float64)
	if !ok {
		return
	}
	if up {
		raw[key] = n + 1
	} else if n > 0 {
		raw[key] = n - 1
	}
}
