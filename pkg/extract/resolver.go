package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matzehuels/hovercard/pkg/ref"
)

// Attributes written onto every target element.
const (
	AttrKind = "data-hovercard-kind"
	AttrID   = "data-hovercard-id"
)

// partClass is the class of spans created when splitting a slug.
const partClass = "hovercard-part"

// Target is an element that carries a reference.
type Target struct {
	Node *html.Node
	ID   ref.ID
}

// Resolver turns strategy matches into marked targets.
type Resolver struct {
	reg     *Registry
	markers *Markers
}

// NewResolver creates a resolver recording outcomes in markers.
func NewResolver(reg *Registry, markers *Markers) *Resolver {
	return &Resolver{reg: reg, markers: markers}
}

// Markers returns the resolver's marker table.
func (r *Resolver) Markers() *Markers { return r.markers }

// Resolve evaluates node with rule. Elements that were already evaluated are
// ignored; every other element ends up marked or skip-marked.
func (r *Resolver) Resolve(node *html.Node, rule Rule, pc *PageContext) []Target {
	if node.Type != html.ElementNode || r.markers.Claimed(node) {
		return nil
	}
	if r.reg.Denied(node) || r.markers.HasMarkedDescendant(node) || rule.Strategy.Kind == StrategySkip {
		r.markers.Skip(node)
		return nil
	}

	m, ok := rule.Strategy.Apply(node, rule.Kind, pc)
	if !ok || !m.ID.Valid() {
		r.markers.Skip(node)
		return nil
	}

	switch m.layout {
	case layoutSlug:
		return r.splitSlug(node, m, pc)
	case layoutPair:
		return r.pair(node, m, pc)
	}
	if m.ID.Kind == ref.KindUser && pc.IsSelf(m.ID.Owner) {
		r.markers.Skip(node)
		return nil
	}
	return []Target{r.mark(node, m.ID)}
}

func (r *Resolver) mark(n *html.Node, id ref.ID) Target {
	setAttr(n, AttrKind, id.Kind.String())
	setAttr(n, AttrID, id.String())
	r.markers.Mark(n, id)
	return Target{Node: n, ID: id}
}

// pair marks node as the owner and m.next as the repository.
func (r *Resolver) pair(node *html.Node, m Match, pc *PageContext) []Target {
	var out []Target
	if pc.IsSelf(m.ID.Owner) {
		r.markers.Skip(node)
	} else {
		out = append(out, r.mark(node, ref.User(m.ID.Owner)))
	}
	if !r.markers.Claimed(m.next) && !r.reg.Denied(m.next) {
		out = append(out, r.mark(m.next, m.ID))
	}
	return out
}

// splitSlug rewrites the text node holding the slug into addressable spans
// for the user, the repository and the optional issue or commit suffix.
// Surrounding markup is kept. A slug whose text is spread over several
// nodes is skip-marked untouched.
func (r *Resolver) splitSlug(node *html.Node, m Match, pc *PageContext) []Target {
	t := slugText(node)
	if t == nil {
		r.markers.Skip(node)
		return nil
	}
	text := t.Data
	idx := slugPattern.FindStringSubmatchIndex(text)
	if idx == nil {
		r.markers.Skip(node)
		return nil
	}
	ownerEnd, repoStart, repoEnd := idx[3], idx[4], idx[5]
	end := repoEnd
	for _, g := range []int{7, 9} {
		if idx[g] > end {
			end = idx[g]
		}
	}

	parent := t.Parent
	insertText(parent, t, text[:idx[2]])
	userSpan := insertSpan(parent, t, text[idx[2]:ownerEnd])
	insertText(parent, t, text[ownerEnd:repoStart])
	repoSpan := insertSpan(parent, t, text[repoStart:repoEnd])
	var suffixSpan *html.Node
	if end > repoEnd {
		suffixSpan = insertSpan(parent, t, text[repoEnd:end])
	}
	insertText(parent, t, text[end:])
	parent.RemoveChild(t)

	var out []Target
	if pc.IsSelf(m.ID.Owner) {
		r.markers.Skip(userSpan)
	} else {
		out = append(out, r.mark(userSpan, ref.User(m.ID.Owner)))
	}
	out = append(out, r.mark(repoSpan, m.ID.RepoID()))
	if suffixSpan != nil {
		out = append(out, r.mark(suffixSpan, m.ID))
	}
	r.markers.Skip(node)
	return out
}

// slugText returns the only non-blank text node below n, or nil when the
// text is split across several nodes.
func slugText(n *html.Node) *html.Node {
	var found *html.Node
	many := false
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil && !many; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if strings.TrimSpace(c.Data) == "" {
					continue
				}
				if found != nil {
					many = true
					return
				}
				found = c
			case html.ElementNode:
				walk(c.FirstChild)
			}
		}
	}
	walk(n.FirstChild)
	if many {
		return nil
	}
	return found
}

func insertText(parent, before *html.Node, s string) {
	if s == "" {
		return
	}
	parent.InsertBefore(&html.Node{Type: html.TextNode, Data: s}, before)
}

func insertSpan(parent, before *html.Node, s string) *html.Node {
	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "class", Val: partClass}},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	parent.InsertBefore(span, before)
	return span
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
