package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matzehuels/hovercard/pkg/ref"
)

// StrategyKind tags a [Strategy] variant.
type StrategyKind int

const (
	StrategyText StrategyKind = iota
	StrategyAttr
	StrategyLink
	StrategyRelatedLink
	StrategyNextText
	StrategySlug
	StrategySkip
)

var strategyNames = [...]string{"text", "attr", "link", "related-link", "next-text", "slug", "skip"}

func (k StrategyKind) String() string {
	if int(k) < len(strategyNames) {
		return strategyNames[k]
	}
	return "unknown"
}

// Strategy reads raw reference components from a located element.
type Strategy struct {
	Kind StrategyKind
	Attr string // attribute name for StrategyAttr
}

// Strategy constructors.
var (
	Text        = Strategy{Kind: StrategyText}
	Link        = Strategy{Kind: StrategyLink}
	RelatedLink = Strategy{Kind: StrategyRelatedLink}
	NextText    = Strategy{Kind: StrategyNextText}
	Slug        = Strategy{Kind: StrategySlug}
	Skip        = Strategy{Kind: StrategySkip}
)

// Attr reads the named attribute.
func Attr(name string) Strategy { return Strategy{Kind: StrategyAttr, Attr: name} }

func (s Strategy) String() string {
	if s.Kind == StrategyAttr {
		return "attr(" + s.Attr + ")"
	}
	return s.Kind.String()
}

// layout describes how a match maps onto markup.
type layout int

const (
	// layoutWhole targets the matched element itself.
	layoutWhole layout = iota
	// layoutSlug splits the element's text into user, repo and suffix spans.
	layoutSlug
	// layoutPair targets the element as the user and Next as the repo.
	layoutPair
)

// Match is the raw result of a strategy. ID is the most specific reference
// found; for slugs and pairs the user and repo are implied by it.
type Match struct {
	ID     ref.ID
	layout layout
	next   *html.Node // layoutPair: element holding the repo name
}

// maxNextTextSteps bounds how far NextText looks for the repo name.
const maxNextTextSteps = 16

// slugPattern matches "owner/repo", "owner/repo#N" and "owner/repo@sha".
var slugPattern = regexp.MustCompile(`^\s*([^/\s]+)/([^#@\s/]+)(?:#(\d+)|@([0-9a-f]{7,40}))?\s*$`)

// Apply runs the strategy against node. hint is the rule's kind hint, used
// by strategies that read free text.
func (s Strategy) Apply(node *html.Node, hint ref.Kind, pc *PageContext) (Match, bool) {
	switch s.Kind {
	case StrategyText:
		return fromText(textOf(node), hint, pc)
	case StrategyAttr:
		v, ok := attr(node, s.Attr)
		if !ok {
			return Match{}, false
		}
		return fromText(v, hint, pc)
	case StrategyLink:
		return fromLink(node, pc)
	case StrategyRelatedLink:
		if a := closestLink(node); a != nil {
			return fromLink(a, pc)
		}
		if a := previousLink(node); a != nil {
			return fromLink(a, pc)
		}
		return Match{}, false
	case StrategyNextText:
		return fromNextText(node)
	case StrategySlug:
		return fromSlug(textOf(node))
	}
	return Match{}, false
}

func fromText(s string, hint ref.Kind, pc *PageContext) (Match, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "@")
	if s == "" {
		return Match{}, false
	}
	owner, repo := "", ""
	if pc != nil {
		owner, repo = pc.Owner, pc.Repo
	}

	var id ref.ID
	switch hint {
	case ref.KindUser:
		id = ref.User(s)
	case ref.KindRepo:
		if o, r, ok := strings.Cut(s, "/"); ok {
			id = ref.Repo(o, r)
		} else if owner != "" {
			id = ref.Repo(owner, s)
		}
	case ref.KindIssue:
		slug, num, ok := strings.Cut(s, "#")
		n, err := strconv.Atoi(num)
		if !ok || err != nil {
			return Match{}, false
		}
		if o, r, ok := strings.Cut(slug, "/"); ok {
			id = ref.Issue(o, r, n)
		} else if slug == "" && repo != "" {
			id = ref.Issue(owner, repo, n)
		}
	case ref.KindCommit:
		if repo != "" {
			id = ref.Commit(owner, repo, s)
		}
	default:
		parsed, err := ref.ParseAny(s)
		if err != nil {
			return Match{}, false
		}
		id = parsed
	}
	if id.Kind == ref.KindSkip {
		return Match{}, false
	}
	return Match{ID: id}, true
}

func fromLink(node *html.Node, pc *PageContext) (Match, bool) {
	href, ok := attr(node, "href")
	if !ok || pc == nil {
		return Match{}, false
	}
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return Match{}, false
	}
	if pc.URL != nil {
		u = pc.URL.ResolveReference(u)
	}
	id, ok := ResolveURL(u, pc)
	if !ok {
		return Match{}, false
	}
	return Match{ID: id}, true
}

func fromNextText(node *html.Node) (Match, bool) {
	owner := strings.TrimPrefix(strings.TrimSpace(textOf(node)), "@")
	if owner == "" {
		return Match{}, false
	}
	steps := 0
	for n := following(node); n != nil && steps < maxNextTextSteps; n = advance(n) {
		steps++
		if n.Type != html.TextNode {
			continue
		}
		name := strings.TrimSpace(strings.Trim(strings.TrimSpace(n.Data), "/"))
		if name == "" {
			continue
		}
		if n.Parent == nil || n.Parent.Type != html.ElementNode {
			return Match{}, false
		}
		return Match{ID: ref.Repo(owner, name), layout: layoutPair, next: n.Parent}, true
	}
	return Match{}, false
}

func fromSlug(s string) (Match, bool) {
	m := slugPattern.FindStringSubmatch(s)
	if m == nil {
		return Match{}, false
	}
	owner, repo := m[1], m[2]
	id := ref.Repo(owner, repo)
	switch {
	case m[3] != "":
		n, err := strconv.Atoi(m[3])
		if err != nil {
			return Match{}, false
		}
		id = ref.Issue(owner, repo, n)
	case m[4] != "":
		id = ref.Commit(owner, repo, m[4])
	}
	return Match{ID: id, layout: layoutSlug}, true
}

func textOf(n *html.Node) string {
	return goquery.NewDocumentFromNode(n).Text()
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func isLink(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.A {
		return false
	}
	_, ok := attr(n, "href")
	return ok
}

// closestLink returns node or its nearest ancestor that is a link.
func closestLink(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if isLink(n) {
			return n
		}
	}
	return nil
}

// previousLink returns the nearest preceding sibling link.
func previousLink(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if isLink(s) {
			return s
		}
	}
	return nil
}

// advance returns the next node in document order.
func advance(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	return following(n)
}

// following returns the next node in document order after n's subtree.
func following(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}
