package scan

import (
	"context"
	"sync"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/matzehuels/hovercard/pkg/extract"
	"github.com/matzehuels/hovercard/pkg/observability"
)

// State is the watcher's scanning state.
type State int

const (
	Idle State = iota
	Scanning
)

func (s State) String() string {
	if s == Scanning {
		return "scanning"
	}
	return "idle"
}

// DefaultSettle is how long after a scan mutations are attributed to the
// scan's own rewrites and ignored.
const DefaultSettle = 100 * time.Millisecond

// cosmetic matches subtrees whose mutations never carry references.
var cosmetic = cascadia.MustCompile("relative-time, time-ago, local-time, time, .timestamp, ." + extract.CardClass)

// Drop reasons reported to observability hooks.
const (
	DropReentrant = "reentrant"
	DropSettling  = "settling"
	DropCosmetic  = "cosmetic"
	DropDisabled  = "disabled"
	DropNotReady  = "not-started"
)

// Config configures a [Watcher].
type Config struct {
	// Settle is the window after each scan during which mutations are
	// dropped. Zero disables the window.
	Settle time.Duration
	// OnTargets receives the targets produced by every pass.
	OnTargets func([]extract.Target)
	// Disabled turns the watcher into a no-op, for pages the user opted out of.
	Disabled bool
	Logger   *log.Logger
	Now      func() time.Time
}

// Watcher tracks a live document. It runs one full scan and then scans
// mutated subtrees as they are reported.
type Watcher struct {
	scanner *Scanner
	doc     *html.Node
	pc      *extract.PageContext
	cfg     Config

	mu       sync.Mutex
	state    State
	started  bool
	lastScan time.Time
	queue    []*html.Node
	signal   chan struct{}
}

// NewWatcher creates a watcher for doc.
func NewWatcher(scanner *Scanner, doc *html.Node, pc *extract.PageContext, cfg Config) *Watcher {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Watcher{
		scanner: scanner,
		doc:     doc,
		pc:      pc,
		cfg:     cfg,
		signal:  make(chan struct{}, 1),
	}
}

// State returns the current state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start runs the full-document scan. Only the first call scans.
func (w *Watcher) Start(ctx context.Context) []extract.Target {
	w.mu.Lock()
	if w.started || w.cfg.Disabled {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	return w.scan(ctx, w.doc, true)
}

// Notify reports a mutated subtree. It returns false when the mutation is
// dropped: while a scan is running, while the last scan is settling, for
// cosmetic subtrees, and before Start.
func (w *Watcher) Notify(ctx context.Context, subtree *html.Node) bool {
	reason := w.admit(subtree)
	if reason != "" {
		observability.Scan().OnScanDropped(ctx, reason)
		w.cfg.Logger.Debug("mutation dropped", "reason", reason)
		return false
	}
	select {
	case w.signal <- struct{}{}:
	default:
	}
	return true
}

func (w *Watcher) admit(subtree *html.Node) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.cfg.Disabled:
		return DropDisabled
	case !w.started:
		return DropNotReady
	case w.state == Scanning:
		return DropReentrant
	case w.cfg.Settle > 0 && w.cfg.Now().Sub(w.lastScan) < w.cfg.Settle:
		return DropSettling
	case isCosmetic(subtree):
		return DropCosmetic
	}
	w.queue = append(w.queue, subtree)
	return ""
}

// Flush scans every queued subtree and returns the new targets.
func (w *Watcher) Flush(ctx context.Context) []extract.Target {
	w.mu.Lock()
	queue := w.queue
	w.queue = nil
	w.mu.Unlock()

	var out []extract.Target
	for _, n := range queue {
		out = append(out, w.scan(ctx, n, false)...)
	}
	return out
}

// Pending returns the number of queued subtrees.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// Run drains the queue whenever mutations arrive until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.signal:
			w.Flush(ctx)
		}
	}
}

func (w *Watcher) scan(ctx context.Context, root *html.Node, full bool) []extract.Target {
	w.mu.Lock()
	w.state = Scanning
	w.mu.Unlock()

	targets := w.scanner.Pass(ctx, root, w.pc, full)

	w.mu.Lock()
	w.state = Idle
	w.lastScan = w.cfg.Now()
	w.mu.Unlock()

	if len(targets) > 0 && w.cfg.OnTargets != nil {
		w.cfg.OnTargets(targets)
	}
	return targets
}

func isCosmetic(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && cosmetic.Match(n) {
			return true
		}
	}
	return false
}
