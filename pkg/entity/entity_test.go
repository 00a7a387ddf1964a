package entity

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/integrations"
	"github.com/matzehuels/hovercard/pkg/ref"
)

// fakeAPI serves canned payloads. Calls block on gates when one is set for
// the endpoint name.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int
	gates map[string]chan struct{}
	errs  map[string]error

	objects map[string]map[string]any
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:   map[string]int{},
		gates:   map[string]chan struct{}{},
		errs:    map[string]error{},
		objects: map[string]map[string]any{},
	}
}

func (f *fakeAPI) gate(name string) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[name] = ch
	f.mu.Unlock()
	return ch
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) enter(name string) error {
	f.mu.Lock()
	f.calls[name]++
	gate := f.gates[name]
	err := f.errs[name]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeAPI) object(name string) (map[string]any, error) {
	if err := f.enter(name); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	obj := map[string]any{}
	for k, v := range f.objects[name] {
		obj[k] = v
	}
	return obj, nil
}

func (f *fakeAPI) flag(name string) (bool, error) {
	if err := f.enter(name); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeAPI) User(context.Context, string) (map[string]any, error)      { return f.object("user") }
func (f *fakeAPI) Hovercard(context.Context, string) (map[string]any, error) { return f.object("hovercard") }
func (f *fakeAPI) IsFollowing(context.Context, string) (bool, error)         { return f.flag("following") }
func (f *fakeAPI) FollowsUser(context.Context, string, string) (bool, error) { return f.flag("follows") }
func (f *fakeAPI) Follow(context.Context, string) error                      { return f.enter("follow") }
func (f *fakeAPI) Unfollow(context.Context, string) error                    { return f.enter("unfollow") }
func (f *fakeAPI) Repo(context.Context, string, string) (map[string]any, error) {
	return f.object("repo")
}
func (f *fakeAPI) Readme(context.Context, string, string) (string, error) {
	return "<p>readme</p>", f.enter("readme")
}
func (f *fakeAPI) IsStarred(context.Context, string, string) (bool, error) { return f.flag("starred") }
func (f *fakeAPI) Star(context.Context, string, string) error              { return f.enter("star") }
func (f *fakeAPI) Unstar(context.Context, string, string) error            { return f.enter("unstar") }
func (f *fakeAPI) Issue(context.Context, string, string, int) (map[string]any, error) {
	return f.object("issue")
}
func (f *fakeAPI) Pull(context.Context, string, string, int) (map[string]any, error) {
	return f.object("pull")
}
func (f *fakeAPI) Reviews(context.Context, string, string, int) ([]map[string]any, error) {
	if err := f.enter("reviews"); err != nil {
		return nil, err
	}
	return []map[string]any{{"state": "APPROVED"}}, nil
}
func (f *fakeAPI) RequestedReviewers(context.Context, string, string, int) (map[string]any, error) {
	return f.object("requested")
}
func (f *fakeAPI) IssueComment(context.Context, string, string, int64) (map[string]any, error) {
	return f.object("comment")
}
func (f *fakeAPI) Commit(context.Context, string, string, string) (map[string]any, error) {
	return f.object("commit")
}
func (f *fakeAPI) Markdown(_ context.Context, text, _, _ string) (string, error) {
	if err := f.enter("markdown"); err != nil {
		return "", err
	}
	return "<p>" + text + "</p>", nil
}

func waitDone(t *testing.T, rec *Record) Snapshot {
	t.Helper()
	select {
	case <-rec.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("record %s never completed", rec.ID)
	}
	return rec.Snapshot()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestResolveAtMostOneFetch(t *testing.T) {
	api := newFakeAPI()
	api.objects["repo"] = map[string]any{"full_name": "octocat/Hello-World"}
	gate := api.gate("repo")
	o := NewOrchestrator(api, Options{})
	ctx := context.Background()
	id := ref.Repo("octocat", "Hello-World")

	first, err := o.Resolve(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := o.Resolve(ctx, id)
	if first != second {
		t.Error("Resolve() returned different records for one identifier")
	}
	if snap := second.Snapshot(); snap.Ready {
		t.Error("record should not be ready before the fetch completes")
	}

	close(gate)
	snap := waitDone(t, first)
	if got := api.count("repo"); got != 1 {
		t.Errorf("primary requests = %d, want 1", got)
	}
	if snap.Raw["full_name"] != "octocat/Hello-World" {
		t.Errorf("raw = %v", snap.Raw)
	}
	if o.Cache().Len() != 1 {
		t.Errorf("cache len = %d", o.Cache().Len())
	}
}

func TestProgressiveCompletion(t *testing.T) {
	api := newFakeAPI()
	api.objects["repo"] = map[string]any{"stargazers_count": float64(3)}
	readme := api.gate("readme")
	starred := api.gate("starred")
	o := NewOrchestrator(api, Options{ReadMe: true, Tokens: integrations.StaticToken("t")})

	var renders []Snapshot
	var mu sync.Mutex
	rec, _ := o.Resolve(context.Background(), ref.Repo("octocat", "Hello-World"))
	rec.Subscribe(func(s Snapshot) {
		mu.Lock()
		renders = append(renders, s)
		mu.Unlock()
	})
	renderCount := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(renders)
	}

	waitFor(t, func() bool { return rec.Snapshot().Pending == 2 })
	if rec.Renders() != 1 {
		t.Fatalf("renders after primary = %d, want 1", rec.Renders())
	}

	close(readme)
	waitFor(t, func() bool { return rec.Snapshot().Pending == 1 })
	if rec.Renders() != 1 {
		t.Errorf("renders with one fetch pending = %d, want 1", rec.Renders())
	}
	if rec.Snapshot().Complete {
		t.Error("record complete with a fetch still pending")
	}

	close(starred)
	snap := waitDone(t, rec)
	if rec.Renders() != 2 {
		t.Errorf("renders = %d, want 2", rec.Renders())
	}
	if snap.Raw[FieldReadme] != "<p>readme</p>" || snap.Raw[FieldViewerStarred] != true {
		t.Errorf("raw = %v", snap.Raw)
	}
	if !snap.RenderedOnce || !snap.Complete {
		t.Errorf("snapshot flags = %+v", snap)
	}
	// The subscriber may have missed the primary render, but must see the last one.
	waitFor(t, func() bool { return renderCount() >= 1 })
	mu.Lock()
	last := renders[len(renders)-1]
	mu.Unlock()
	if last.Pending != 0 {
		t.Errorf("last render pending = %d", last.Pending)
	}
}

func TestUserSupplementary(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		token     string
		want      []string
		skip      []string
	}{
		{"anonymous", "", "", nil, []string{"following", "follows", "hovercard"}},
		{"viewer without token", "alice", "", []string{"follows"}, []string{"following", "hovercard"}},
		{"viewer with token", "alice", "t", []string{"following", "follows", "hovercard"}, nil},
		{"self", "octocat", "t", []string{"hovercard"}, []string{"following", "follows"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.objects["user"] = map[string]any{"login": "octocat"}
			api.objects["hovercard"] = map[string]any{"contexts": []any{"Owns this repository"}}
			o := NewOrchestrator(api, Options{Principal: tt.principal, Tokens: integrations.StaticToken(tt.token)})

			rec, _ := o.Resolve(context.Background(), ref.User("octocat"))
			snap := waitDone(t, rec)
			for _, name := range tt.want {
				if api.count(name) != 1 {
					t.Errorf("%s calls = %d, want 1", name, api.count(name))
				}
			}
			for _, name := range tt.skip {
				if api.count(name) != 0 {
					t.Errorf("%s should not be fetched", name)
				}
			}
			if tt.token != "" && snap.Raw[FieldHovercard] == nil {
				t.Error("hovercard contexts missing")
			}
		})
	}
}

func TestIssueSupplementary(t *testing.T) {
	api := newFakeAPI()
	api.objects["issue"] = map[string]any{"body": "Fixes #1", "pull_request": map[string]any{"url": "x"}}
	api.objects["pull"] = map[string]any{"merged": true}
	api.objects["requested"] = map[string]any{"users": []any{}}
	o := NewOrchestrator(api, Options{})

	rec, _ := o.Resolve(context.Background(), ref.Issue("octocat", "Hello-World", 42))
	snap := waitDone(t, rec)

	if snap.Raw[FieldBodyHTML] != "<p>Fixes #1</p>" {
		t.Errorf("body_html = %v", snap.Raw[FieldBodyHTML])
	}
	for _, f := range []string{FieldPull, FieldReviews, FieldRequestedReviews} {
		if snap.Raw[f] == nil {
			t.Errorf("%s missing", f)
		}
	}
	if rec.Renders() != 2 {
		t.Errorf("renders = %d, want 2", rec.Renders())
	}
}

func TestIssueWithoutPull(t *testing.T) {
	api := newFakeAPI()
	api.objects["issue"] = map[string]any{"body": ""}
	o := NewOrchestrator(api, Options{})

	rec, _ := o.Resolve(context.Background(), ref.Issue("octocat", "Hello-World", 1))
	waitDone(t, rec)
	for _, name := range []string{"pull", "reviews", "requested", "markdown"} {
		if api.count(name) != 0 {
			t.Errorf("%s fetched for a plain issue with empty body", name)
		}
	}
}

func TestMarkdownFallback(t *testing.T) {
	api := newFakeAPI()
	api.objects["comment"] = map[string]any{"body": "**bold**"}
	api.errs["markdown"] = errors.New(errors.ErrCodeGeneric, "boom")
	o := NewOrchestrator(api, Options{})

	rec, _ := o.Resolve(context.Background(), ref.Comment("octocat", "Hello-World", 9))
	snap := waitDone(t, rec)
	html, _ := snap.Raw[FieldBodyHTML].(string)
	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Errorf("body_html = %q", html)
	}
}

func TestPrimaryErrorCaptured(t *testing.T) {
	api := newFakeAPI()
	api.errs["commit"] = errors.New(errors.ErrCodeNotFound, "missing")
	o := NewOrchestrator(api, Options{})

	rec, err := o.Resolve(context.Background(), ref.Commit("octocat", "Hello-World", "7fd1a60"))
	if err != nil {
		t.Fatalf("Resolve() error = %v; fetch errors belong on the record", err)
	}
	snap := waitDone(t, rec)
	if !errors.Is(snap.Err, errors.ErrCodeNotFound) {
		t.Errorf("Err = %v", snap.Err)
	}
	if !snap.Ready || rec.Renders() != 1 {
		t.Errorf("ready=%v renders=%d", snap.Ready, rec.Renders())
	}
}

func TestResolveRejectsInvalid(t *testing.T) {
	o := NewOrchestrator(newFakeAPI(), Options{})
	for _, id := range []ref.ID{{}, ref.Repo("octocat", "followers"), ref.User("-bad")} {
		if _, err := o.Resolve(context.Background(), id); !errors.Is(err, errors.ErrCodeInvalidReference) {
			t.Errorf("Resolve(%v) error = %v", id, err)
		}
	}
	if o.Cache().Len() != 0 {
		t.Errorf("invalid references were cached")
	}
}

func TestSetFollowReconciles(t *testing.T) {
	api := newFakeAPI()
	api.objects["user"] = map[string]any{"followers": float64(10)}
	o := NewOrchestrator(api, Options{})
	ctx := context.Background()

	rec, _ := o.Resolve(ctx, ref.User("octocat"))
	waitDone(t, rec)

	if err := o.SetFollow(ctx, "octocat", true); err != nil {
		t.Fatal(err)
	}
	if v, _ := rec.Get("followers"); v != float64(11) {
		t.Errorf("followers = %v, want 11", v)
	}
	if v, _ := rec.Get(FieldViewerFollowing); v != true {
		t.Errorf("following = %v", v)
	}

	api.errs["unfollow"] = errors.New(errors.ErrCodeForbidden, "no")
	if err := o.SetFollow(ctx, "octocat", false); !errors.Is(err, errors.ErrCodeForbidden) {
		t.Errorf("error = %v", err)
	}
	if v, _ := rec.Get(FieldViewerFollowing); v != true {
		t.Error("failed unfollow must not change the record")
	}
}

func TestSetStarReconciles(t *testing.T) {
	api := newFakeAPI()
	api.objects["repo"] = map[string]any{"stargazers_count": float64(5)}
	o := NewOrchestrator(api, Options{Tokens: integrations.StaticToken("t")})
	ctx := context.Background()

	rec, _ := o.Resolve(ctx, ref.Repo("octocat", "Hello-World"))
	waitDone(t, rec)
	// IsStarred reported true from the fake.
	if err := o.SetStar(ctx, ref.Issue("octocat", "Hello-World", 1), false); err != nil {
		t.Fatal(err)
	}
	if v, _ := rec.Get("stargazers_count"); v != float64(4) {
		t.Errorf("stargazers_count = %v, want 4", v)
	}
	if api.count("unstar") != 1 {
		t.Errorf("unstar calls = %d", api.count("unstar"))
	}
}

func TestLatch(t *testing.T) {
	var zeros atomic.Int32
	l := NewLatch(func() { zeros.Add(1) })

	release := make(chan struct{})
	l.Go(func() { <-release }, func() { <-release })
	if l.Pending() != 2 {
		t.Errorf("Pending() = %d", l.Pending())
	}
	close(release)
	l.Wait()
	if zeros.Load() != 1 {
		t.Errorf("onZero calls = %d, want 1", zeros.Load())
	}

	l.Go(func() {})
	l.Wait()
	if zeros.Load() != 2 {
		t.Errorf("onZero calls = %d, want 2", zeros.Load())
	}
	l.Go()
	if l.Pending() != 0 || zeros.Load() != 2 {
		t.Error("empty Go should not fire")
	}
}

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("- [x] done\n\n~~old~~")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<del>old</del>") || !strings.Contains(html, `type="checkbox"`) {
		t.Errorf("RenderMarkdown() = %q", html)
	}
}
