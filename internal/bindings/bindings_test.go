package bindings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MakeNowJust/heredoc"
)

func TestDefaultMapContainsExpectedBindings(t *testing.T) {
	m := DefaultMap()

	cases := map[string]ActionID{
		"enter":  ActionRun,
		"up":     ActionHistoryPrev,
		"ctrl+n": ActionHistoryNext,
		"ctrl+y": ActionCopyResult,
		"ctrl+c": ActionQuit,
		"esc":    ActionQuit,
	}
	for key, want := range cases {
		if got, ok := m.Match(key); !ok || got != want {
			t.Fatalf("expected %s -> %s, got %s (ok=%v)", key, want, got, ok)
		}
	}
	if _, ok := m.Match("a"); ok {
		t.Fatalf("expected plain letters to be unbound")
	}
}

func TestLoadOverridesBindings(t *testing.T) {
	dir := t.TempDir()
	payload := heredoc.Doc(`
		[bindings]
		copy_result = ["Ctrl+Shift+C"]
		help = ["?"]
	`)
	path := filepath.Join(dir, "bindings.toml")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write bindings: %v", err)
	}

	m, src, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if src.Path != path || src.Format != FormatTOML {
		t.Fatalf("unexpected source %+v", src)
	}
	if _, ok := m.Match("ctrl+y"); ok {
		t.Fatalf("expected ctrl+y to be unbound")
	}
	if got, ok := m.Match("ctrl+shift+c"); !ok || got != ActionCopyResult {
		t.Fatalf("expected ctrl+shift+c -> copy_result, got %s (ok=%v)", got, ok)
	}
	if got, ok := m.Match("?"); !ok || got != ActionHelp {
		t.Fatalf("expected ? -> help, got %s (ok=%v)", got, ok)
	}
	if keys := m.Keys(ActionQuit); len(keys) != 3 {
		t.Fatalf("expected quit defaults to remain, got %v", keys)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	payload := heredoc.Doc(`
		bindings:
		  quit: ["ctrl+q"]
	`)
	if err := os.WriteFile(filepath.Join(dir, "bindings.yaml"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write bindings: %v", err)
	}
	m, src, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if src.Format != FormatYAML {
		t.Fatalf("unexpected format %q", src.Format)
	}
	if got, ok := m.Match("ctrl+q"); !ok || got != ActionQuit {
		t.Fatalf("expected ctrl+q -> quit, got %s", got)
	}
	if _, ok := m.Match("esc"); ok {
		t.Fatalf("expected esc to be unbound")
	}
}

func TestLoadRejectsBadConfigs(t *testing.T) {
	cases := map[string]string{
		"conflict": "[bindings]\nclear = [\"ctrl+y\"]\n",
		"unknown":  "[bindings]\nsave_file = [\"ctrl+s\"]\n",
		"sequence": "[bindings]\nclear = [\"g g\"]\n",
		"no quit":  "[bindings]\nquit = []\n",
	}
	for name, payload := range cases {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "bindings.toml"), []byte(payload), 0o644); err != nil {
			t.Fatalf("write bindings: %v", err)
		}
		if _, _, err := Load(dir); err == nil {
			t.Fatalf("%s: expected error, got nil", name)
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	m, src, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if src.Format != FormatTOML {
		t.Fatalf("unexpected default source %+v", src)
	}
	if got, _ := m.Match("enter"); got != ActionRun {
		t.Fatalf("expected defaults, got %s", got)
	}
}

func TestNormalizeKeyString(t *testing.T) {
	cases := map[string]string{
		"Ctrl+Y":       "ctrl+y",
		"shift+ctrl+a": "ctrl+shift+a",
		"A":            "shift+a",
		"Up":           "up",
		"control+l":    "ctrl+l",
		"":             "",
	}
	for in, want := range cases {
		if got := NormalizeKeyString(in); got != want {
			t.Fatalf("%q: got %q, want %q", in, got, want)
		}
	}
}
