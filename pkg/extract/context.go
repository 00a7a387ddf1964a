package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/matzehuels/hovercard/pkg/config"
)

// PageContext describes the page being scanned. It is derived once per page.
type PageContext struct {
	URL *url.URL

	// Principal is the signed-in viewer, if any.
	Principal string
	// ProfileOwner is the user whose profile page is being viewed, if any.
	ProfileOwner string

	// Owner and Repo are taken from the page path and used to complete
	// partial references such as a bare repository name.
	Owner string
	Repo  string

	ShowSelf bool
	Domain   string
}

// NewPageContext derives the page context from the document head and the
// page URL.
func NewPageContext(doc *goquery.Document, pageURL *url.URL, opts config.Options) *PageContext {
	pc := &PageContext{
		URL:      pageURL,
		ShowSelf: opts.ShowSelf,
		Domain:   opts.Domain,
	}
	if pc.Domain == "" {
		pc.Domain = config.DefaultDomain
	}
	if doc != nil {
		pc.Principal = strings.TrimSpace(doc.Find(`meta[name="user-login"]`).AttrOr("content", ""))
		pc.ProfileOwner = strings.TrimSpace(doc.Find(`meta[property="profile:username"]`).AttrOr("content", ""))
	}
	if pageURL != nil && sameHost(pageURL.Host, pc.Domain) {
		segs := segments(pageURL.Path)
		if len(segs) > 0 {
			pc.Owner = segs[0]
		}
		if len(segs) > 1 {
			pc.Repo = segs[1]
		}
	}
	return pc
}

// IsSelf reports whether login refers to the viewer or the profile owner and
// should therefore not receive a card.
func (pc *PageContext) IsSelf(login string) bool {
	if pc == nil || pc.ShowSelf || login == "" {
		return false
	}
	return strings.EqualFold(login, pc.Principal) || strings.EqualFold(login, pc.ProfileOwner)
}

// ProjectBoard reports whether the page is a project board.
func (pc *PageContext) ProjectBoard() bool {
	if pc == nil || pc.URL == nil {
		return false
	}
	segs := segments(pc.URL.Path)
	for i, s := range segs {
		if s == "projects" && i < 3 {
			return true
		}
	}
	return false
}

func sameHost(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(domain)
	return host == domain || host == "www."+domain
}

func segments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
