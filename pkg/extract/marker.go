package extract

import (
	"golang.org/x/net/html"

	"github.com/matzehuels/hovercard/pkg/ref"
)

// State is the processing state of an element.
type State int

const (
	Unmarked State = iota
	Marked
	Skipped
)

func (s State) String() string {
	switch s {
	case Marked:
		return "marked"
	case Skipped:
		return "skipped"
	}
	return "unmarked"
}

// Marker records the outcome of evaluating one element.
type Marker struct {
	State State
	ID    ref.ID // set when State is Marked
}

// Markers is the per-element processed-state table for one page. Elements
// are keyed by node identity. It is not safe for concurrent use.
type Markers struct {
	m      map[*html.Node]Marker
	marked int
}

// NewMarkers creates an empty table.
func NewMarkers() *Markers {
	return &Markers{m: make(map[*html.Node]Marker)}
}

// Get returns the marker for n.
func (t *Markers) Get(n *html.Node) Marker { return t.m[n] }

// Len returns the number of elements marked with a reference.
func (t *Markers) Len() int { return t.marked }

// Mark records a reference for n.
func (t *Markers) Mark(n *html.Node, id ref.ID) {
	if t.m[n].State != Marked {
		t.marked++
	}
	t.m[n] = Marker{State: Marked, ID: id}
}

// Skip marks n as evaluated with no reference.
func (t *Markers) Skip(n *html.Node) {
	if t.m[n].State == Marked {
		t.marked--
	}
	t.m[n] = Marker{State: Skipped}
}

// Claimed reports whether n or one of its ancestors has been evaluated.
func (t *Markers) Claimed(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if t.m[n].State != Unmarked {
			return true
		}
	}
	return false
}

// HasMarkedDescendant reports whether any element below n carries a
// reference marker.
func (t *Markers) HasMarkedDescendant(n *html.Node) bool {
	if t.marked == 0 {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t.m[c].State == Marked || t.HasMarkedDescendant(c) {
			return true
		}
	}
	return false
}
