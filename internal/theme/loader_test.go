package theme

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func writeTheme(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadCatalogKeysFilesByName(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "oceanic.toml", `
[metadata]
name = "Oceanic"
author = "QA"

[styles.number]
foreground = "#335577"
bold = true
`)
	writeTheme(t, dir, "sunset.json", `{"styles": {"error": {"foreground": "#ff9900"}}}`)
	writeTheme(t, dir, "Night Owl.yaml", "extends: oceanic\nstyles:\n  comment:\n    foreground: \"#123123\"\n    italic: false\n")
	writeTheme(t, dir, "notes.txt", "not a theme")

	catalog, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	want := []string{DefaultKey, PlainKey, "night-owl", "oceanic", "sunset"}
	if got := catalog.Keys(); !slices.Equal(got, want) {
		t.Fatalf("expected keys %v, got %v", want, got)
	}

	oceanic, ok := catalog.Get("Oceanic")
	if !ok {
		t.Fatalf("expected oceanic theme")
	}
	if oceanic.Name != "Oceanic" || oceanic.Meta.Author != "QA" || oceanic.Builtin {
		t.Fatalf("unexpected oceanic entry %+v", oceanic)
	}
	if oceanic.Theme.Number.GetForeground() != lipgloss.Color("#335577") || !oceanic.Theme.Number.GetBold() {
		t.Fatalf("expected number override on oceanic")
	}

	owl, _ := catalog.Get("night-owl")
	if owl.Name != "Night Owl" {
		t.Fatalf("expected name from file key, got %q", owl.Name)
	}
	if owl.Theme.Number.GetForeground() != lipgloss.Color("#335577") {
		t.Fatalf("night-owl should inherit oceanic numbers")
	}
	if owl.Theme.Comment.GetItalic() {
		t.Fatalf("expected italic override to be applied")
	}

	sunset, _ := catalog.Get("sunset")
	if sunset.Theme.Error.GetForeground() != lipgloss.Color("#ff9900") {
		t.Fatalf("expected json error override")
	}
	if sunset.Theme.Number.GetForeground() != DefaultTheme().Number.GetForeground() {
		t.Fatalf("themes without extends should build on the default theme")
	}
}

func TestLoadCatalogOverridesBuiltinDefault(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "default.toml", "[styles.number]\nforeground = \"#010203\"\n")
	writeTheme(t, dir, "mine.toml", "[styles.string]\nforeground = \"#aabbcc\"\n")

	catalog, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	def, _ := catalog.Get(DefaultKey)
	if def.Builtin {
		t.Fatalf("default should come from the file")
	}
	if catalog.Resolve("").Number.GetForeground() != lipgloss.Color("#010203") {
		t.Fatalf("blank key should resolve to the replaced default")
	}
	mine := catalog.Resolve("mine")
	if mine.Number.GetForeground() != lipgloss.Color("#010203") {
		t.Fatalf("mine should extend the replaced default")
	}
	if len(catalog.Keys()) != 3 {
		t.Fatalf("unexpected keys %v", catalog.Keys())
	}
}

func TestLoadCatalogRejectsDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "dusk.json", `{"styles": {"number": {"foreground": "#111111"}}}`)
	writeTheme(t, dir, "dusk.toml", "[styles.number]\nforeground = \"#222222\"\n")

	catalog, err := LoadCatalog(dir)
	if err == nil || !strings.Contains(err.Error(), "already defined by dusk.json") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
	if catalog.Resolve("dusk").Number.GetForeground() != lipgloss.Color("#111111") {
		t.Fatalf("first file by name should win")
	}
}

func TestLoadCatalogExtendsErrors(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "a.toml", "extends = \"b\"\n")
	writeTheme(t, dir, "b.toml", "extends = \"a\"\n")
	writeTheme(t, dir, "c.toml", "extends = \"nowhere\"\n")
	writeTheme(t, dir, "d.toml", "extends = \"plain\"\n")

	catalog, err := LoadCatalog(dir)
	if err == nil {
		t.Fatalf("expected errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "extends cycle a -> b -> a") {
		t.Fatalf("expected cycle error, got %v", msg)
	}
	if !strings.Contains(msg, `unknown theme "nowhere"`) {
		t.Fatalf("expected unknown base error, got %v", msg)
	}
	for _, key := range []string{"a", "b", "c"} {
		if _, ok := catalog.Get(key); ok {
			t.Fatalf("%s should not be registered", key)
		}
	}
	if d, ok := catalog.Get("d"); !ok || d.Theme.Number.GetBold() {
		t.Fatalf("d should extend the plain theme")
	}
}

func TestLoadCatalogHandlesMissingDirectory(t *testing.T) {
	catalog, err := LoadCatalog("/nonexistent/path")
	if err != nil {
		t.Fatalf("LoadCatalog should not error on missing directories: %v", err)
	}
	if !slices.Equal(catalog.Keys(), []string{DefaultKey, PlainKey}) {
		t.Fatalf("expected only builtin themes, got %v", catalog.Keys())
	}
}

func TestLoadCatalogReportsBadTheme(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "bad.json", `{"styles": {"number": {"foreground": "  "}}}`)
	writeTheme(t, dir, "typo.json", `{"stiles": {}}`)

	catalog, err := LoadCatalog(dir)
	if err == nil {
		t.Fatalf("expected error for empty colour")
	}
	if !strings.Contains(err.Error(), "typo.json") {
		t.Fatalf("unknown fields should be rejected: %v", err)
	}
	if _, ok := catalog.Get("bad"); ok {
		t.Fatalf("bad theme should not be registered")
	}
}

func TestCatalogResolveFallsBack(t *testing.T) {
	catalog := Builtins()
	plain := catalog.Resolve(" PLAIN ")
	if plain.Number.GetBold() {
		t.Fatalf("plain theme should carry no attributes")
	}
	def := catalog.Resolve("missing")
	if def.Number.GetForeground() != DefaultTheme().Number.GetForeground() {
		t.Fatalf("expected fallback to default theme")
	}
}
