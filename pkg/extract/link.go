package extract

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/matzehuels/hovercard/pkg/ref"
)

// issueTabs are pull request sub-pages that still identify the issue.
var issueTabs = map[string]bool{"files": true, "commits": true, "checks": true}

// ResolveURL classifies a link target. Patterns are tried from most to least
// specific: comment, commit, issue, repo, user. Only links on the configured
// domain are considered, and links to the current page are ignored unless
// they point at a comment.
//
// The returned ID is not validated.
func ResolveURL(u *url.URL, pc *PageContext) (ref.ID, bool) {
	if u == nil || pc == nil {
		return ref.ID{}, false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return ref.ID{}, false
	}
	if !sameHost(u.Host, pc.Domain) {
		return ref.ID{}, false
	}

	comment := commentFragment(u.Fragment)
	if pc.URL != nil && comment == 0 && samePage(u, pc.URL) {
		return ref.ID{}, false
	}

	segs := segments(u.Path)
	switch {
	case len(segs) >= 4 && (segs[2] == "issues" || segs[2] == "pull"):
		n, err := strconv.Atoi(segs[3])
		if err != nil {
			return ref.ID{}, false
		}
		if len(segs) == 6 && segs[2] == "pull" && segs[4] == "commits" {
			return ref.Commit(segs[0], segs[1], segs[5]), true
		}
		if comment > 0 && len(segs) == 4 {
			return ref.Comment(segs[0], segs[1], comment), true
		}
		if len(segs) == 4 || (len(segs) == 5 && issueTabs[segs[4]]) {
			return ref.Issue(segs[0], segs[1], n), true
		}
	case len(segs) == 4 && segs[2] == "commit":
		return ref.Commit(segs[0], segs[1], segs[3]), true
	case len(segs) == 2:
		return ref.Repo(segs[0], segs[1]), true
	case len(segs) == 1:
		return ref.User(segs[0]), true
	}
	return ref.ID{}, false
}

func commentFragment(frag string) int64 {
	id, ok := strings.CutPrefix(frag, "issuecomment-")
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func samePage(a, b *url.URL) bool {
	return strings.EqualFold(a.Host, b.Host) &&
		strings.TrimSuffix(a.Path, "/") == strings.TrimSuffix(b.Path, "/")
}
