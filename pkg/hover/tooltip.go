package hover

import (
	"sync"
	"time"

	"github.com/matzehuels/hovercard/pkg/config"
	"github.com/matzehuels/hovercard/pkg/extract"
)

// Placement configures when and where a tooltip appears.
type Placement struct {
	Delay time.Duration
	Side  config.Side
}

// Tooltip is the overlay widget that displays cards.
type Tooltip interface {
	// Attach binds a session to its target element.
	Attach(session string, target extract.Target, p Placement)
	// SetContent replaces the session's tooltip body.
	SetContent(session, content string)
	// SetBusy toggles the disabled state of an action control.
	SetBusy(session, action string, busy bool)
}

// TooltipState is the recorded state of one session in a [MemoryTooltip].
type TooltipState struct {
	Target    extract.Target
	Placement Placement
	Content   string
	History   []string
	Busy      map[string]bool
}

// MemoryTooltip records tooltip state in memory. The HTTP server reads card
// content from it; tests use it to observe progressive updates.
type MemoryTooltip struct {
	mu       sync.Mutex
	sessions map[string]*TooltipState
}

// NewMemoryTooltip creates an empty tooltip store.
func NewMemoryTooltip() *MemoryTooltip {
	return &MemoryTooltip{sessions: make(map[string]*TooltipState)}
}

func (m *MemoryTooltip) Attach(session string, target extract.Target, p Placement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session] = &TooltipState{Target: target, Placement: p, Busy: map[string]bool{}}
}

func (m *MemoryTooltip) SetContent(session, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[session]; ok {
		s.Content = content
		s.History = append(s.History, content)
	}
}

func (m *MemoryTooltip) SetBusy(session, action string, busy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[session]; ok {
		s.Busy[action] = busy
	}
}

// State returns a copy of a session's state.
func (m *MemoryTooltip) State(session string) (TooltipState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[session]
	if !ok {
		return TooltipState{}, false
	}
	cp := *s
	cp.History = append([]string(nil), s.History...)
	cp.Busy = make(map[string]bool, len(s.Busy))
	for k, v := range s.Busy {
		cp.Busy[k] = v
	}
	return cp, true
}

// Content returns the session's current content.
func (m *MemoryTooltip) Content(session string) string {
	s, _ := m.State(session)
	return s.Content
}
