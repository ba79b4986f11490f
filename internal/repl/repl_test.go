package repl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/ember/internal/bindings"
	"github.com/unkn0wn-root/ember/internal/ems"
	"github.com/unkn0wn-root/ember/internal/runner"
	"github.com/unkn0wn-root/ember/internal/theme"
)

func newModel() Model {
	r := runner.New(runner.Options{Limits: ems.DefaultLimits(), Mode: runner.ModeREPL})
	return New(context.Background(), r, theme.Plain(), nil)
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return out, cmd
}

func submit(t *testing.T, m Model, src string) Model {
	t.Helper()
	m.input.SetValue(src)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected evaluation command for %q", src)
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestSubmitEvaluatesLine(t *testing.T) {
	m := submit(t, newModel(), "print(1); 1 + 2")
	if len(m.transcript) != 1 {
		t.Fatalf("expected one transcript entry, got %d", len(m.transcript))
	}
	e := m.transcript[0]
	if e.output != "1\n" {
		t.Fatalf("unexpected output %q", e.output)
	}
	if !strings.Contains(e.result, "=> 3") {
		t.Fatalf("unexpected result %q", e.result)
	}
	if m.last != "3" {
		t.Fatalf("unexpected last value %q", m.last)
	}
	if m.input.Value() != "" {
		t.Fatalf("input not cleared")
	}
	if !strings.Contains(m.View(), "=> 3") {
		t.Fatalf("view misses result:\n%s", m.View())
	}
}

func TestSubmitReportsDiagnosticsAndFatalErrors(t *testing.T) {
	m := submit(t, newModel(), "1 ~ 2")
	if !strings.Contains(m.transcript[0].result, "error:") {
		t.Fatalf("expected error report, got %q", m.transcript[0].result)
	}

	m = submit(t, m, "true + 1")
	if !strings.Contains(m.transcript[1].result, "error: Unknown operation") {
		t.Fatalf("unexpected result %q", m.transcript[1].result)
	}
}

func TestBlankInputIsIgnored(t *testing.T) {
	m := newModel()
	m.input.SetValue("   ")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || len(m.history) != 0 {
		t.Fatalf("blank input should be ignored")
	}
}

func TestHistoryNavigation(t *testing.T) {
	m := newModel()
	m = submit(t, m, "1")
	m = submit(t, m, "2")
	m = submit(t, m, "2")

	if len(m.history) != 2 {
		t.Fatalf("expected duplicate to collapse, got %v", m.history)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "2" {
		t.Fatalf("expected 2, got %q", m.input.Value())
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "1" {
		t.Fatalf("expected oldest entry, got %q", m.input.Value())
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.input.Value() != "2" {
		t.Fatalf("expected 2, got %q", m.input.Value())
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.input.Value() != "" || m.historyIdx != -1 {
		t.Fatalf("expected fresh input, got %q", m.input.Value())
	}
}

func TestCopyLastResult(t *testing.T) {
	m := newModel()
	var copied string
	m.copy = func(s string) error {
		copied = s
		return nil
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if m.status != "Nothing to copy yet" {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = submit(t, m, "2 * 21")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if copied != "42" {
		t.Fatalf("unexpected clipboard %q", copied)
	}

	m.copy = func(string) error { return errors.New("no clipboard") }
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if m.status != "Clipboard unavailable" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestCommands(t *testing.T) {
	m := submit(t, newModel(), "1")

	m.input.SetValue(":clear")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || len(m.transcript) != 0 {
		t.Fatalf("expected transcript to be cleared")
	}

	m.input.SetValue(":help")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.status != m.helpText() || !strings.Contains(m.status, "enter: run") {
		t.Fatalf("unexpected status %q", m.status)
	}

	m.input.SetValue(":q")
	_, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

func TestCustomBindings(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bindings.toml"), []byte("[bindings]\nclear = [\"ctrl+k\"]\n"), 0o644); err != nil {
		t.Fatalf("write bindings: %v", err)
	}
	keys, _, err := bindings.Load(dir)
	if err != nil {
		t.Fatalf("load bindings: %v", err)
	}
	r := runner.New(runner.Options{Limits: ems.DefaultLimits(), Mode: runner.ModeREPL})
	m := submit(t, New(context.Background(), r, theme.Plain(), keys), "1")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(m.transcript) != 1 {
		t.Fatalf("ctrl+l should no longer clear")
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	if len(m.transcript) != 0 {
		t.Fatalf("ctrl+k should clear")
	}
}
