package extract

import (
	"slices"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/ref"
)

// Rule maps a location pattern to a strategy. Kind is an optional hint used
// by the text-reading strategies; KindSkip means no hint.
type Rule struct {
	Priority int
	Selector string
	Strategy Strategy
	Kind     ref.Kind

	sel cascadia.Selector
}

// Find returns the elements in root's subtree, root included, that match the
// rule, in document order.
func (r Rule) Find(root *html.Node) []*html.Node {
	if r.sel == nil {
		return nil
	}
	return r.sel.MatchAll(root)
}

// Registry is a priority-ordered rule table plus a denylist.
type Registry struct {
	rules []Rule
	deny  []cascadia.Selector
}

// NewRegistry compiles rules and denylist selectors. Rules are ordered by
// ascending Priority; rules with equal priority keep their given order.
func NewRegistry(rules []Rule, denylist []string) (*Registry, error) {
	reg := &Registry{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		if err := errors.ValidateSelector(r.Selector); err != nil {
			return nil, err
		}
		sel, err := cascadia.Compile(r.Selector)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSelector, err, "rule selector %q", r.Selector)
		}
		r.sel = sel
		reg.rules = append(reg.rules, r)
	}
	slices.SortStableFunc(reg.rules, func(a, b Rule) int { return a.Priority - b.Priority })

	for _, d := range denylist {
		sel, err := cascadia.Compile(d)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSelector, err, "denylist selector %q", d)
		}
		reg.deny = append(reg.deny, sel)
	}
	return reg, nil
}

// Rules returns the rules in evaluation order.
func (r *Registry) Rules() []Rule { return slices.Clone(r.rules) }

// Denied reports whether n lies inside a denylisted location.
func (r *Registry) Denied(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, sel := range r.deny {
			if sel.Match(n) {
				return true
			}
		}
	}
	return false
}
