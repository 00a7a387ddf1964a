package render

import (
	"strings"
	"time"

	"github.com/matzehuels/hovercard/pkg/entity"
	"github.com/matzehuels/hovercard/pkg/ref"
)

// Viewer describes who is looking at a card.
type Viewer struct {
	Principal string
	HasToken  bool
}

// CardView is the model passed to every card template.
type CardView struct {
	Kind    string
	ID      string
	Partial bool // supplementary fetches still running

	User    *UserView
	Repo    *RepoView
	Issue   *IssueView
	Comment *CommentView
	Commit  *CommitView
}

type UserView struct {
	Login       string
	Name        string
	AvatarURL   string
	URL         string
	Bio         string
	Company     string
	Location    string
	IsOrg       bool
	Followers   string
	Following   string
	PublicRepos string
	Joined      *Timestamp
	Contexts    []string

	CanFollow       bool
	ViewerFollowing bool
	FollowsViewer   bool
}

type RepoView struct {
	FullName    string
	Owner       string
	Name        string
	URL         string
	Description string
	Language    string
	Stars       string
	Forks       string
	OpenIssues  string
	Topics      []string
	HasTopics   bool
	Private     bool
	Archived    bool
	Parent      string
	Pushed      *Timestamp
	Readme      string // HTML

	CanStar       bool
	ViewerStarred bool
}

type LabelView struct {
	Name  string
	Color string
}

type ReviewView struct {
	Login string
	State string
}

type IssueView struct {
	Repo     string
	Number   int
	Title    string
	URL      string
	State    string // open, closed, merged or draft
	IsPull   bool
	Author   string
	Body     string // HTML
	Comments string
	Created  *Timestamp
	Labels   []LabelView

	HasLabels     bool
	HasReviews    bool
	HasRequested  bool
	HasPullDetail bool
	Base          string
	Head          string
	Commits       string
	Additions     string
	Deletions     string
	ChangedFiles  string
	Reviews       []ReviewView
	Requested     []string
}

type CommentView struct {
	Repo    string
	Author  string
	URL     string
	Body    string // HTML
	Created *Timestamp
	Updated bool
}

type CommitView struct {
	Repo      string
	SHA       string
	ShortSHA  string
	Title     string
	Message   string
	Author    string
	URL       string
	Date      *Timestamp
	Verified  bool
	Additions string
	Deletions string
	Files     string
}

// NewCardView builds the view model for a ready, successful snapshot.
func NewCardView(snap entity.Snapshot, v Viewer, now time.Time) CardView {
	raw := snap.Raw
	cv := CardView{Kind: snap.ID.Kind.String(), ID: snap.ID.String(), Partial: snap.Pending > 0}
	switch snap.ID.Kind {
	case ref.KindUser:
		cv.User = userView(snap.ID, raw, v, now)
	case ref.KindRepo:
		cv.Repo = repoView(snap.ID, raw, v, now)
	case ref.KindIssue:
		cv.Issue = issueView(snap.ID, raw, now)
	case ref.KindComment:
		cv.Comment = commentView(snap.ID, raw, now)
	case ref.KindCommit:
		cv.Commit = commitView(snap.ID, raw, now)
	}
	return cv
}

func userView(id ref.ID, raw map[string]any, v Viewer, now time.Time) *UserView {
	login := str(raw, "login")
	if login == "" {
		login = id.Owner
	}
	u := &UserView{
		Login:           login,
		Name:            str(raw, "name"),
		AvatarURL:       str(raw, "avatar_url"),
		URL:             str(raw, "html_url"),
		Bio:             str(raw, "bio"),
		Company:         str(raw, "company"),
		Location:        str(raw, "location"),
		IsOrg:           str(raw, "type") == "Organization",
		Followers:       Abbreviate(num(raw, "followers")),
		Following:       Abbreviate(num(raw, "following")),
		PublicRepos:     Abbreviate(num(raw, "public_repos")),
		Joined:          newTimestamp(when(raw, "created_at"), now),
		ViewerFollowing: flag(raw, entity.FieldViewerFollowing),
		FollowsViewer:   flag(raw, entity.FieldFollowsViewer),
	}
	u.CanFollow = v.HasToken && !u.IsOrg && v.Principal != "" && !strings.EqualFold(v.Principal, login)
	for _, c := range list(raw, entity.FieldHovercard) {
		if m, ok := c.(map[string]any); ok {
			if msg := str(m, "message"); msg != "" {
				u.Contexts = append(u.Contexts, msg)
			}
		}
	}
	return u
}

func repoView(id ref.ID, raw map[string]any, v Viewer, now time.Time) *RepoView {
	r := &RepoView{
		FullName:      str(raw, "full_name"),
		Owner:         str(raw, "owner", "login"),
		Name:          str(raw, "name"),
		URL:           str(raw, "html_url"),
		Description:   str(raw, "description"),
		Language:      str(raw, "language"),
		Stars:         Abbreviate(num(raw, "stargazers_count")),
		Forks:         Abbreviate(num(raw, "forks_count")),
		OpenIssues:    Abbreviate(num(raw, "open_issues_count")),
		Private:       flag(raw, "private"),
		Archived:      flag(raw, "archived"),
		Parent:        str(raw, "parent", "full_name"),
		Pushed:        newTimestamp(when(raw, "pushed_at"), now),
		Readme:        str(raw, entity.FieldReadme),
		CanStar:       v.HasToken,
		ViewerStarred: flag(raw, entity.FieldViewerStarred),
	}
	if r.FullName == "" {
		r.FullName = id.Slug()
	}
	for _, t := range list(raw, "topics") {
		if s, ok := t.(string); ok {
			r.Topics = append(r.Topics, s)
		}
	}
	r.HasTopics = len(r.Topics) > 0
	return r
}

func issueView(id ref.ID, raw map[string]any, now time.Time) *IssueView {
	iv := &IssueView{
		Repo:     id.Slug(),
		Number:   id.Number,
		Title:    str(raw, "title"),
		URL:      str(raw, "html_url"),
		State:    str(raw, "state"),
		IsPull:   lookup(raw, "pull_request") != nil,
		Author:   str(raw, "user", "login"),
		Body:     str(raw, entity.FieldBodyHTML),
		Comments: Abbreviate(num(raw, "comments")),
		Created:  newTimestamp(when(raw, "created_at"), now),
	}
	for _, l := range list(raw, "labels") {
		if m, ok := l.(map[string]any); ok {
			iv.Labels = append(iv.Labels, LabelView{Name: str(m, "name"), Color: str(m, "color")})
		}
	}

	if pull, ok := lookup(raw, entity.FieldPull).(map[string]any); ok {
		iv.HasPullDetail = true
		iv.Base = str(pull, "base", "label")
		iv.Head = str(pull, "head", "label")
		iv.Commits = Abbreviate(num(pull, "commits"))
		iv.Additions = Abbreviate(num(pull, "additions"))
		iv.Deletions = Abbreviate(num(pull, "deletions"))
		iv.ChangedFiles = Abbreviate(num(pull, "changed_files"))
		switch {
		case flag(pull, "merged"):
			iv.State = "merged"
		case flag(pull, "draft") && iv.State == "open":
			iv.State = "draft"
		}
	}

	// Keep the latest decisive review per reviewer.
	latest := map[string]int{}
	for _, r := range list(raw, entity.FieldReviews) {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		login, state := str(m, "user", "login"), str(m, "state")
		if login == "" || state == "COMMENTED" || state == "PENDING" {
			continue
		}
		if i, seen := latest[login]; seen {
			iv.Reviews[i].State = strings.ToLower(state)
			continue
		}
		latest[login] = len(iv.Reviews)
		iv.Reviews = append(iv.Reviews, ReviewView{Login: login, State: strings.ToLower(state)})
	}
	for _, u := range list(raw, entity.FieldRequestedReviews, "users") {
		if m, ok := u.(map[string]any); ok {
			iv.Requested = append(iv.Requested, str(m, "login"))
		}
	}
	for _, t := range list(raw, entity.FieldRequestedReviews, "teams") {
		if m, ok := t.(map[string]any); ok {
			iv.Requested = append(iv.Requested, str(m, "name"))
		}
	}
	iv.HasLabels = len(iv.Labels) > 0
	iv.HasReviews = len(iv.Reviews) > 0
	iv.HasRequested = len(iv.Requested) > 0
	return iv
}

func commentView(id ref.ID, raw map[string]any, now time.Time) *CommentView {
	created := when(raw, "created_at")
	updated := when(raw, "updated_at")
	return &CommentView{
		Repo:    id.Slug(),
		Author:  str(raw, "user", "login"),
		URL:     str(raw, "html_url"),
		Body:    str(raw, entity.FieldBodyHTML),
		Created: newTimestamp(created, now),
		Updated: !updated.IsZero() && updated.After(created),
	}
}

func commitView(id ref.ID, raw map[string]any, now time.Time) *CommitView {
	title, body := firstLine(str(raw, "commit", "message"))
	sha := str(raw, "sha")
	if sha == "" {
		sha = id.SHA
	}
	short := sha
	if len(short) > 7 {
		short = short[:7]
	}
	author := str(raw, "author", "login")
	if author == "" {
		author = str(raw, "commit", "author", "name")
	}
	return &CommitView{
		Repo:      id.Slug(),
		SHA:       sha,
		ShortSHA:  short,
		Title:     title,
		Message:   body,
		Author:    author,
		URL:       str(raw, "html_url"),
		Date:      newTimestamp(when(raw, "commit", "author", "date"), now),
		Verified:  flag(raw, "commit", "verification", "verified"),
		Additions: Abbreviate(num(raw, "stats", "additions")),
		Deletions: Abbreviate(num(raw, "stats", "deletions")),
		Files:     Abbreviate(len(list(raw, "files"))),
	}
}
