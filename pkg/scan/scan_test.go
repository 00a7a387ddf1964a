package scan

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/matzehuels/hovercard/pkg/config"
	"github.com/matzehuels/hovercard/pkg/extract"
	"github.com/matzehuels/hovercard/pkg/observability"
)

const page = `<html><head><meta name="user-login" content="alice"></head><body>
<div id="feed" class="markdown-body">
  <p><a href="https://github.com/octocat">octocat</a> opened <code>octocat/Hello-World#42</code></p>
  <relative-time datetime="2024-01-01T00:00:00Z">Jan 1</relative-time>
</div>
</body></html>`

type fixture struct {
	doc *html.Node
	sel *goquery.Document
	w   *Watcher
	now time.Time
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{doc: doc, sel: goquery.NewDocumentFromNode(doc), now: time.Unix(1000, 0)}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return f.now }
	}
	u, _ := url.Parse("https://github.com/")
	pc := extract.NewPageContext(f.sel, u, config.Default())
	scanner := NewScanner(extract.DefaultRegistry(), extract.NewMarkers(), nil)
	f.w = NewWatcher(scanner, doc, pc, cfg)
	return f
}

// appendHTML parses fragment into a new element under the node matched by sel.
func (f *fixture) appendHTML(t *testing.T, sel, fragment string) *html.Node {
	t.Helper()
	parent := f.sel.Find(sel).Nodes[0]
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nodes[0]
}

func TestWatcherFullScanOnce(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	if got := len(f.w.Start(ctx)); got != 4 {
		t.Fatalf("Start() targets = %d, want 4", got)
	}
	if got := f.w.Start(ctx); got != nil {
		t.Errorf("second Start() = %d targets, want none", len(got))
	}
}

func TestWatcherIncremental(t *testing.T) {
	var mu sync.Mutex
	var delivered int
	f := newFixture(t, Config{OnTargets: func(ts []extract.Target) {
		mu.Lock()
		delivered += len(ts)
		mu.Unlock()
	}})
	ctx := context.Background()

	if f.w.Notify(ctx, f.doc) {
		t.Error("Notify before Start should be dropped")
	}
	f.w.Start(ctx)

	added := f.appendHTML(t, "#feed", `<p><a href="https://github.com/hubot">hubot</a></p>`)
	if !f.w.Notify(ctx, added) {
		t.Fatal("Notify() dropped a real mutation")
	}
	if f.w.Pending() != 1 {
		t.Errorf("Pending() = %d", f.w.Pending())
	}
	targets := f.w.Flush(ctx)
	if len(targets) != 1 || targets[0].ID.String() != "hubot" {
		t.Fatalf("Flush() targets = %v", targets)
	}

	// Re-reporting the whole document finds nothing new.
	f.w.Notify(ctx, f.doc)
	if again := f.w.Flush(ctx); len(again) != 0 {
		t.Errorf("rescan produced %d targets", len(again))
	}
	if delivered != 5 {
		t.Errorf("OnTargets received %d targets, want 5", delivered)
	}
}

func TestWatcherSettleWindow(t *testing.T) {
	f := newFixture(t, Config{Settle: time.Second})
	ctx := context.Background()
	f.w.Start(ctx)

	added := f.appendHTML(t, "#feed", `<p><a href="https://github.com/hubot">hubot</a></p>`)
	f.now = f.now.Add(500 * time.Millisecond)
	if f.w.Notify(ctx, added) {
		t.Error("mutation inside settle window should be dropped")
	}
	f.now = f.now.Add(time.Second)
	if !f.w.Notify(ctx, added) {
		t.Error("mutation after settle window should be queued")
	}
}

type reentrantHooks struct {
	observability.NoopScanHooks
	w       *Watcher
	node    *html.Node
	dropped []string
	inner   bool
}

func (h *reentrantHooks) OnScanStart(ctx context.Context, full bool) {
	if h.w != nil {
		h.inner = h.w.Notify(ctx, h.node)
	}
}

func (h *reentrantHooks) OnScanDropped(_ context.Context, reason string) {
	h.dropped = append(h.dropped, reason)
}

func TestWatcherReentrantNotifyDropped(t *testing.T) {
	defer observability.Reset()
	f := newFixture(t, Config{})
	hooks := &reentrantHooks{w: f.w, node: f.doc}
	observability.SetScanHooks(hooks)

	f.w.Start(context.Background())
	if hooks.inner {
		t.Error("Notify during a scan should be dropped")
	}
	if len(hooks.dropped) != 1 || hooks.dropped[0] != DropReentrant {
		t.Errorf("dropped = %v, want [%s]", hooks.dropped, DropReentrant)
	}
	if f.w.State() != Idle {
		t.Errorf("State() = %s, want idle", f.w.State())
	}
}

func TestWatcherCosmeticExcluded(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.w.Start(ctx)

	rt := f.sel.Find("relative-time").Nodes[0]
	if f.w.Notify(ctx, rt) {
		t.Error("timestamp mutation should be dropped")
	}
	card := f.appendHTML(t, "body", `<div class="hovercard"><a href="https://github.com/hubot">hubot</a></div>`)
	if f.w.Notify(ctx, card.FirstChild) {
		t.Error("mutation inside a card should be dropped")
	}
}

func TestWatcherDisabled(t *testing.T) {
	f := newFixture(t, Config{Disabled: true})
	ctx := context.Background()
	if got := f.w.Start(ctx); got != nil {
		t.Errorf("disabled Start() = %v", got)
	}
	if f.w.Notify(ctx, f.doc) {
		t.Error("disabled Notify() should drop")
	}
}

func TestWatcherRun(t *testing.T) {
	got := make(chan []extract.Target, 4)
	f := newFixture(t, Config{OnTargets: func(ts []extract.Target) { got <- ts }})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.w.Start(ctx)
	<-got

	done := make(chan error, 1)
	go func() { done <- f.w.Run(ctx) }()

	added := f.appendHTML(t, "#feed", `<p><span class="user-mention">@defunkt</span></p>`)
	f.w.Notify(ctx, added)

	select {
	case ts := <-got:
		if len(ts) != 1 || ts[0].ID.String() != "defunkt" {
			t.Errorf("targets = %v", ts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not scan the mutation")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}
