package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hovercard/pkg/buildinfo"
	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/integrations"
	"github.com/matzehuels/hovercard/pkg/store"
)

// DefaultBaseURL is the public REST API root.
const DefaultBaseURL = "https://api.github.com"

const (
	acceptJSON = "application/vnd.github.v3+json"
	acceptHTML = "application/vnd.github.v3.html"
	apiVersion = "2022-11-28"
)

// Options configures a [Client].
type Options struct {
	BaseURL    string
	Tokens     integrations.TokenSource
	Cache      store.Store
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client provides access to the REST endpoints needed for hover cards.
type Client struct {
	api *integrations.Client
}

// NewClient creates an API client. Requests carry the token from
// opts.Tokens when one is available.
func NewClient(opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{api: integrations.NewClient(integrations.Config{
		BaseURL:    base,
		Headers: map[string]string{
			"Accept":               acceptJSON,
			"X-GitHub-Api-Version": apiVersion,
			"User-Agent":           buildinfo.UserAgent(),
		},
		Tokens:     opts.Tokens,
		Cache:      opts.Cache,
		CacheTTL:   opts.CacheTTL,
		HTTPClient: opts.HTTPClient,
		Logger:     opts.Logger,
	})}
}

// User fetches a user or organization profile.
func (c *Client) User(ctx context.Context, login string) (Object, error) {
	return c.object(ctx, "users/"+esc(login), true)
}

// CurrentUser fetches the profile of the token's owner.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.api.GetJSON(ctx, "user", false, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Hovercard fetches the contextual hovercard data for a user. It requires
// authentication.
func (c *Client) Hovercard(ctx context.Context, login string) (Object, error) {
	return c.object(ctx, "users/"+esc(login)+"/hovercard", true)
}

// IsFollowing reports whether the authenticated user follows login.
func (c *Client) IsFollowing(ctx context.Context, login string) (bool, error) {
	return c.check(ctx, "user/following/"+esc(login))
}

// FollowsUser reports whether login follows target.
func (c *Client) FollowsUser(ctx context.Context, login, target string) (bool, error) {
	return c.check(ctx, "users/"+esc(login)+"/following/"+esc(target))
}

// Follow makes the authenticated user follow login.
func (c *Client) Follow(ctx context.Context, login string) error {
	return c.mutate(ctx, http.MethodPut, "user/following/"+esc(login), "users/"+esc(login))
}

// Unfollow makes the authenticated user stop following login.
func (c *Client) Unfollow(ctx context.Context, login string) error {
	return c.mutate(ctx, http.MethodDelete, "user/following/"+esc(login), "users/"+esc(login))
}

// Repo fetches a repository.
func (c *Client) Repo(ctx context.Context, owner, repo string) (Object, error) {
	return c.object(ctx, repoPath(owner, repo), true)
}

// Readme fetches the repository README rendered to HTML.
func (c *Client) Readme(ctx context.Context, owner, repo string) (string, error) {
	resp, err := c.api.Do(ctx, integrations.Request{
		Path:   repoPath(owner, repo) + "/readme",
		Accept: acceptHTML,
		Cache:  true,
	})
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// IsStarred reports whether the authenticated user starred the repository.
func (c *Client) IsStarred(ctx context.Context, owner, repo string) (bool, error) {
	return c.check(ctx, "user/starred/"+esc(owner)+"/"+esc(repo))
}

// Star stars the repository for the authenticated user.
func (c *Client) Star(ctx context.Context, owner, repo string) error {
	return c.mutate(ctx, http.MethodPut, "user/starred/"+esc(owner)+"/"+esc(repo), repoPath(owner, repo))
}

// Unstar removes the authenticated user's star from the repository.
func (c *Client) Unstar(ctx context.Context, owner, repo string) error {
	return c.mutate(ctx, http.MethodDelete, "user/starred/"+esc(owner)+"/"+esc(repo), repoPath(owner, repo))
}

// Issue fetches an issue or pull request by number.
func (c *Client) Issue(ctx context.Context, owner, repo string, number int) (Object, error) {
	return c.object(ctx, fmt.Sprintf("%s/issues/%d", repoPath(owner, repo), number), true)
}

// Pull fetches the pull-request details for number.
func (c *Client) Pull(ctx context.Context, owner, repo string, number int) (Object, error) {
	return c.object(ctx, fmt.Sprintf("%s/pulls/%d", repoPath(owner, repo), number), true)
}

// Reviews lists the reviews submitted on a pull request.
func (c *Client) Reviews(ctx context.Context, owner, repo string, number int) ([]Object, error) {
	var out []Object
	path := fmt.Sprintf("%s/pulls/%d/reviews", repoPath(owner, repo), number)
	if err := c.api.GetJSON(ctx, path, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RequestedReviewers lists the users and teams asked to review a pull request.
func (c *Client) RequestedReviewers(ctx context.Context, owner, repo string, number int) (Object, error) {
	return c.object(ctx, fmt.Sprintf("%s/pulls/%d/requested_reviewers", repoPath(owner, repo), number), true)
}

// IssueComment fetches a comment on an issue or pull request.
func (c *Client) IssueComment(ctx context.Context, owner, repo string, id int64) (Object, error) {
	return c.object(ctx, fmt.Sprintf("%s/issues/comments/%d", repoPath(owner, repo), id), true)
}

// Commit fetches a commit by SHA.
func (c *Client) Commit(ctx context.Context, owner, repo, sha string) (Object, error) {
	return c.object(ctx, repoPath(owner, repo)+"/commits/"+esc(sha), true)
}

// Markdown renders GitHub-flavored markdown to HTML in the context of the
// repository owner/repo, so issue and user references resolve.
func (c *Client) Markdown(ctx context.Context, text, owner, repo string) (string, error) {
	body := map[string]string{"text": text, "mode": "gfm"}
	if owner != "" && repo != "" {
		body["context"] = owner + "/" + repo
	}
	resp, err := c.api.Do(ctx, integrations.Request{
		Method: http.MethodPost,
		Path:   "markdown",
		Accept: "text/html",
		Body:   body,
	})
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

func (c *Client) object(ctx context.Context, path string, cache bool) (Object, error) {
	var out Object
	if err := c.api.GetJSON(ctx, path, cache, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// check interprets a 204/404 relationship endpoint.
func (c *Client) check(ctx context.Context, path string) (bool, error) {
	resp, err := c.api.Do(ctx, integrations.Request{Path: path})
	switch {
	case err == nil:
		return resp.Status == http.StatusNoContent || resp.Status == http.StatusOK, nil
	case errors.Is(err, errors.ErrCodeNotFound):
		return false, nil
	default:
		return false, err
	}
}

// mutate sends a relationship change and drops the cached profile at stale,
// whose follower or star count it changed.
func (c *Client) mutate(ctx context.Context, method, path, stale string) error {
	if _, err := c.api.Do(ctx, integrations.Request{Method: method, Path: path}); err != nil {
		return err
	}
	c.api.Invalidate(ctx, "", stale)
	return nil
}

func repoPath(owner, repo string) string {
	return "repos/" + esc(owner) + "/" + esc(repo)
}

func esc(s string) string { return url.PathEscape(s) }
