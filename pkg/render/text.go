package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/hovercard/pkg/entity"
)

var (
	textTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	textMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	textBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	textError  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	textBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Text renders a snapshot for a terminal.
func (r *Renderer) Text(snap entity.Snapshot, v Viewer) string {
	var lines []string
	switch {
	case !snap.Ready:
		lines = []string{textMuted.Render("Loading " + snap.ID.String() + "...")}
	case snap.Err != nil:
		ev := NewErrorView(snap.Err, v)
		lines = []string{textError.Render(ev.Title), ev.Message}
		if ev.NeedsToken {
			lines = append(lines, textMuted.Render("Run `hovercard token set` to add an access token."))
		}
	default:
		lines = textLines(NewCardView(snap, v, r.now()))
	}
	return textBorder.Render(strings.Join(lines, "\n"))
}

func textLines(cv CardView) []string {
	var out []string
	add := func(format string, args ...any) { out = append(out, fmt.Sprintf(format, args...)) }
	muted := func(s string) string { return textMuted.Render(s) }

	switch {
	case cv.User != nil:
		u := cv.User
		head := textTitle.Render(u.Login)
		if u.Name != "" {
			head += " " + muted(u.Name)
		}
		if u.FollowsViewer {
			head += " " + textBadge.Render("follows you")
		}
		out = append(out, head)
		if u.Bio != "" {
			out = append(out, u.Bio)
		}
		for _, c := range u.Contexts {
			out = append(out, muted(c))
		}
		if u.IsOrg {
			add("%s repositories", u.PublicRepos)
		} else {
			add("%s followers · %s following · %s repositories", u.Followers, u.Following, u.PublicRepos)
		}
		if u.Joined != nil {
			out = append(out, muted("Joined "+u.Joined.Relative))
		}

	case cv.Repo != nil:
		rp := cv.Repo
		out = append(out, textTitle.Render(rp.FullName))
		if rp.Description != "" {
			out = append(out, rp.Description)
		}
		stats := fmt.Sprintf("★ %s · %s forks · %s open issues", rp.Stars, rp.Forks, rp.OpenIssues)
		if rp.Language != "" {
			stats = rp.Language + " · " + stats
		}
		out = append(out, stats)
		if rp.ViewerStarred {
			out = append(out, textBadge.Render("starred"))
		}
		if rp.Pushed != nil {
			out = append(out, muted("Updated "+rp.Pushed.Relative))
		}

	case cv.Issue != nil:
		iv := cv.Issue
		add("%s %s", textTitle.Render(fmt.Sprintf("%s #%d", iv.Repo, iv.Number)), muted("["+iv.State+"]"))
		out = append(out, iv.Title)
		if iv.Author != "" {
			add("by %s", iv.Author)
		}
		if iv.HasPullDetail {
			add("%s <- %s · +%s -%s", iv.Base, iv.Head, iv.Additions, iv.Deletions)
		}
		for _, rv := range iv.Reviews {
			out = append(out, muted(rv.Login+": "+rv.State))
		}

	case cv.Comment != nil:
		c := cv.Comment
		add("%s commented on %s", textTitle.Render(c.Author), c.Repo)
		if c.Created != nil {
			out = append(out, muted(c.Created.Relative))
		}

	case cv.Commit != nil:
		c := cv.Commit
		add("%s %s", textTitle.Render(c.Repo+"@"+c.ShortSHA), c.Title)
		if c.Author != "" {
			add("by %s", c.Author)
		}
		add("%s files · +%s -%s", c.Files, c.Additions, c.Deletions)
	}
	if cv.Partial {
		out = append(out, muted("loading more..."))
	}
	return out
}
