package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/hovercard/pkg/config"
	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/extract"
	"github.com/matzehuels/hovercard/pkg/ref"
	"github.com/matzehuels/hovercard/pkg/store"
	"github.com/matzehuels/hovercard/pkg/token"
)

const samplePage = `<html><head><meta name="user-login" content="alice"></head><body>
<div class="markdown-body">
  <p><a href="https://github.com/octocat">octocat</a> and <a href="https://github.com/alice">alice</a></p>
  <p><code>octocat/Hello-World#42</code></p>
</div>
</body></html>`

// isolate points the config and cache directories at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(envToken, "")
	t.Setenv(envRedis, "")
	return dir
}

func TestDecorate(t *testing.T) {
	res, err := decorate(context.Background(), strings.NewReader(samplePage), "https://github.com/", config.Default(), nil)
	if err != nil {
		t.Fatalf("decorate() error: %v", err)
	}

	var ids []string
	for _, tgt := range res.Targets {
		ids = append(ids, tgt.ID.String())
	}
	got := strings.Join(ids, ",")
	for _, want := range []string{"octocat", "octocat/Hello-World", "octocat/Hello-World#42"} {
		if !strings.Contains(got, want) {
			t.Errorf("targets %q missing %q", got, want)
		}
	}
	for _, tgt := range res.Targets {
		if tgt.ID == ref.User("alice") {
			t.Error("the viewer's own login should not be decorated")
		}
	}
	if !strings.Contains(res.HTML, `data-hovercard-kind="user"`) {
		t.Errorf("decorated html missing kind attribute:\n%s", res.HTML)
	}
}

func TestDecorateProjectBoard(t *testing.T) {
	opts := config.Default()
	opts.DisableProjects = true
	res, err := decorate(context.Background(), strings.NewReader(samplePage), "https://github.com/orgs/acme/projects/3", opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped || len(res.Targets) != 0 {
		t.Errorf("skipped=%v targets=%d", res.Skipped, len(res.Targets))
	}
}

func TestDecorateInvalidURL(t *testing.T) {
	_, err := decorate(context.Background(), strings.NewReader(samplePage), "github.com", config.Default(), nil)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestDecorateCommand(t *testing.T) {
	dir := isolate(t)
	page := filepath.Join(dir, "page.html")
	if err := os.WriteFile(page, []byte(samplePage), 0o644); err != nil {
		t.Fatal(err)
	}

	var logs, out bytes.Buffer
	root := New(&logs, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"decorate", page, "--list"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("decorate error: %v", err)
	}
	if !strings.Contains(out.String(), "octocat/Hello-World#42") {
		t.Errorf("reference list:\n%s", out.String())
	}
	if !strings.Contains(logs.String(), "Decorated") {
		t.Errorf("progress log missing: %q", logs.String())
	}
}

func TestConfigPathCommand(t *testing.T) {
	dir := isolate(t)
	var out bytes.Buffer
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "path"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "config", appName, "config.toml")
	if strings.TrimSpace(out.String()) != want {
		t.Errorf("config path = %q, want %q", out.String(), want)
	}
}

func TestConfigShowCommand(t *testing.T) {
	dir := isolate(t)
	cfgFile := filepath.Join(dir, "hovercard.toml")
	if err := os.WriteFile(cfgFile, []byte("side = \"bottom\"\ndelay = \"350ms\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", cfgFile, "config", "show"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`side = "bottom"`, `delay = "350ms"`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("config show missing %q:\n%s", want, out.String())
		}
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		kind, in string
		want     ref.ID
		wantErr  bool
	}{
		{"", "octocat", ref.User("octocat"), false},
		{"", "@octocat", ref.User("octocat"), false},
		{"", "octocat/Hello-World", ref.Repo("octocat", "Hello-World"), false},
		{"", "octocat/Hello-World#42", ref.Issue("octocat", "Hello-World", 42), false},
		{"", "octocat/Hello-World@7fd1a60", ref.Commit("octocat", "Hello-World", "7fd1a60"), false},
		{"repo", "octocat/Hello-World", ref.Repo("octocat", "Hello-World"), false},
		{"", "settings", ref.ID{}, true},
		{"gist", "octocat", ref.ID{}, true},
		{"", "octocat/../Hello-World", ref.ID{}, true},
		{"", "  ", ref.ID{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind+":"+tt.in, func(t *testing.T) {
			got, err := parseReference(tt.kind, tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseReference() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseReference() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTokenModel(t *testing.T) {
	var m tea.Model = NewTokenModel("needed for private repositories")
	for _, r := range "ghp_abc" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	view := m.View()
	if strings.Contains(view, "ghp_ab") {
		t.Error("token should be masked in the view")
	}
	if !strings.Contains(view, "private repositories") {
		t.Error("view should explain why the token is needed")
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("enter should quit the prompt")
	}
	if got := m.(TokenModel).Token(); got != "ghp_ab" {
		t.Errorf("Token() = %q, want %q", got, "ghp_ab")
	}
}

func TestTokenModelCancel(t *testing.T) {
	var m tea.Model = NewTokenModel("")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("secret")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.(TokenModel).Token(); got != "" {
		t.Errorf("cancelled prompt returned %q", got)
	}
}

func runRoot(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%v error: %v", args, err)
	}
	return out.String()
}

func TestTokenShowAndClearCommands(t *testing.T) {
	dir := isolate(t)

	out := runRoot(t, "token", "show")
	if !strings.Contains(out, "No token stored") || !strings.Contains(out, "hovercard token set") {
		t.Errorf("empty token show:\n%s", out)
	}

	kv, err := store.NewFileStore(filepath.Join(dir, "config", "hovercard", "state"))
	if err != nil {
		t.Fatal(err)
	}
	if err := token.NewStore(kv, nil).Set(context.Background(), "ghp_0123456789abcdef", "alice"); err != nil {
		t.Fatal(err)
	}

	out = runRoot(t, "token", "show")
	for _, want := range []string{"Token", "@alice", "Saved"} {
		if !strings.Contains(out, want) {
			t.Errorf("token show missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "ghp_0123456789abcdef") {
		t.Error("token show printed the unmasked token")
	}

	if out := runRoot(t, "token", "clear"); !strings.Contains(out, "Token removed") {
		t.Errorf("token clear:\n%s", out)
	}
	if out := runRoot(t, "token", "show"); !strings.Contains(out, "No token stored") {
		t.Errorf("token still stored after clear:\n%s", out)
	}
}

func TestReferenceTableKinds(t *testing.T) {
	table := referenceTable([]extract.Target{
		{ID: ref.User("octocat")},
		{ID: ref.Commit("octocat", "Hello-World", "7fd1a60")},
	})
	for _, want := range []string{"Kind", "Reference", "user", "octocat", "commit", "octocat/Hello-World@7fd1a60"} {
		if !strings.Contains(table, want) {
			t.Errorf("table missing %q:\n%s", want, table)
		}
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)
	p.success("Cleared %d cached responses", 3)
	p.warn("careful")
	p.field("User", "@alice")
	p.hint("Add one", "hovercard token set")

	out := buf.String()
	for _, want := range []string{"✓ Cleared 3 cached responses", "! careful", "User", "@alice", "Add one: hovercard token set"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	out := runRoot(t, "completion", "bash")
	if !strings.Contains(out, "hovercard") {
		t.Errorf("bash completion does not mention the command:\n%.200s", out)
	}

	out = runRoot(t, "__complete", "card", "--kind", "")
	for _, k := range []string{"user", "repo", "issue", "comment", "commit"} {
		if !strings.Contains(out, k) {
			t.Errorf("--kind completions missing %q:\n%s", k, out)
		}
	}
}
