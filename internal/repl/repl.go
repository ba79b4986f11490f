package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/ember/internal/bindings"
	"github.com/unkn0wn-root/ember/internal/highlight"
	"github.com/unkn0wn-root/ember/internal/report"
	"github.com/unkn0wn-root/ember/internal/runner"
	"github.com/unkn0wn-root/ember/internal/theme"
)

const (
	historyLimit    = 200
	transcriptLimit = 500
	inputPath       = "<repl>"
)


type entry struct {
	src    string
	output string
	result string
}

type evalMsg struct {
	src string
	oc  *runner.Outcome
}

// Model is the bubbletea model of the interactive prompt. Every submitted
// line is parsed and evaluated as a program of its own.
type Model struct {
	ctx        context.Context
	run        *runner.Runner
	th         theme.Theme
	input      textinput.Model
	transcript []entry
	history    []string
	historyIdx int
	last       string
	status     string
	busy       bool
	width      int
	keys       *bindings.Map
	copy       func(string) error
}

// New builds the prompt. A nil keys uses the default bindings.
func New(ctx context.Context, run *runner.Runner, th theme.Theme, keys *bindings.Map) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if keys == nil {
		keys = bindings.DefaultMap()
	}
	input := textinput.New()
	input.Prompt = "ember> "
	input.PromptStyle = th.Prompt
	input.Placeholder = "1 + 2 * 3"
	input.CharLimit = 0
	input.Focus()

	return Model{
		ctx:        ctx,
		run:        run,
		th:         th,
		input:      input,
		historyIdx: -1,
		keys:       keys,
		copy:       clipboard.WriteAll,
	}
}

// Run starts the prompt and blocks until the user quits.
func Run(ctx context.Context, run *runner.Runner, th theme.Theme, keys *bindings.Map) error {
	_, err := tea.NewProgram(New(ctx, run, th, keys), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 10)
		return m, nil
	case evalMsg:
		m.busy = false
		m.record(msg)
		return m, nil
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	action, ok := m.keys.Match(msg.String())
	if !ok {
		return nil, false
	}
	switch action {
	case bindings.ActionQuit:
		return tea.Quit, true
	case bindings.ActionRun:
		return m.submit(), true
	case bindings.ActionHistoryPrev:
		m.historyPrev()
	case bindings.ActionHistoryNext:
		m.historyNext()
	case bindings.ActionClear:
		m.transcript = nil
		m.status = ""
	case bindings.ActionCopyResult:
		m.copyLast()
	case bindings.ActionHelp:
		m.status = m.helpText()
	default:
		return nil, false
	}
	return nil, true
}

func (m *Model) helpText() string {
	labels := []struct {
		id   bindings.ActionID
		name string
	}{
		{bindings.ActionRun, "run"},
		{bindings.ActionHistoryPrev, "prev"},
		{bindings.ActionHistoryNext, "next"},
		{bindings.ActionCopyResult, "copy result"},
		{bindings.ActionClear, "clear"},
		{bindings.ActionQuit, "quit"},
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		if keys := m.keys.Keys(l.id); len(keys) > 0 {
			parts = append(parts, keys[0]+": "+l.name)
		}
	}
	return strings.Join(parts, "  ")
}

func (m *Model) submit() tea.Cmd {
	src := strings.TrimSpace(m.input.Value())
	if src == "" || m.busy {
		return nil
	}
	m.pushHistory(src)
	m.input.SetValue("")
	m.status = ""

	switch src {
	case ":q", ":quit", ":exit":
		return tea.Quit
	case ":help":
		m.status = m.helpText()
		return nil
	case ":clear":
		m.transcript = nil
		return nil
	}

	m.busy = true
	ctx, run := m.ctx, m.run
	return func() tea.Msg {
		return evalMsg{src: src, oc: run.RunMode(ctx, runner.ModeREPL, inputPath, []byte(src))}
	}
}

func (m *Model) record(msg evalMsg) {
	var b strings.Builder
	p := report.New(&b, m.th, m.width)
	oc := msg.oc
	switch {
	case oc.Fatal():
		p.Fatal([]byte(msg.src), oc.Err)
	default:
		p.Diagnostics([]byte(msg.src), oc.Diags)
		p.Value(oc.Value)
		m.last = runner.ValueText(oc.Value)
	}

	m.transcript = append(m.transcript, entry{
		src:    msg.src,
		output: oc.Output,
		result: strings.TrimRight(b.String(), "\n"),
	})
	if len(m.transcript) > transcriptLimit {
		m.transcript = m.transcript[len(m.transcript)-transcriptLimit:]
	}
}

func (m *Model) copyLast() {
	if m.last == "" {
		m.status = "Nothing to copy yet"
		return
	}
	if err := m.copy(m.last); err != nil {
		m.status = "Clipboard unavailable"
		return
	}
	m.status = fmt.Sprintf("Copied %q", m.last)
}

func (m *Model) pushHistory(src string) {
	if len(m.history) == 0 || m.history[0] != src {
		m.history = append([]string{src}, m.history...)
	}
	if len(m.history) > historyLimit {
		m.history = m.history[:historyLimit]
	}
	m.historyIdx = -1
}

func (m *Model) historyPrev() {
	if len(m.history) == 0 {
		return
	}
	if m.historyIdx+1 < len(m.history) {
		m.historyIdx++
	}
	m.input.SetValue(m.history[m.historyIdx])
	m.input.CursorEnd()
}

func (m *Model) historyNext() {
	if m.historyIdx <= 0 {
		m.historyIdx = -1
		m.input.SetValue("")
		return
	}
	m.historyIdx--
	m.input.SetValue(m.history[m.historyIdx])
	m.input.CursorEnd()
}

func (m Model) View() string {
	var b strings.Builder
	for _, e := range m.transcript {
		b.WriteString(m.th.Dim.Render("» "))
		b.WriteString(highlight.Terminal([]byte(e.src), m.th))
		b.WriteByte('\n')
		if e.output != "" {
			b.WriteString(m.th.Output.Render(strings.TrimRight(e.output, "\n")))
			b.WriteByte('\n')
		}
		if e.result != "" {
			b.WriteString(e.result)
			b.WriteByte('\n')
		}
	}
	b.WriteString(m.input.View())
	b.WriteByte('\n')
	status := m.status
	if status == "" {
		status = ":help for keys"
	}
	b.WriteString(m.th.StatusBar.Render(status))
	return b.String()
}
