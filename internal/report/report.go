package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/unkn0wn-root/ember/internal/ems"
	"github.com/unkn0wn-root/ember/internal/theme"
)

// Printer renders results and diagnostics for humans. Width limits how much
// of a source line is shown; zero means no limit.
type Printer struct {
	w       io.Writer
	th      theme.Theme
	width   int
	compact bool
}

func New(w io.Writer, th theme.Theme, width int) *Printer {
	return &Printer{w: w, th: th, width: width}
}

// Compact switches diagnostics to their one-line form without excerpts,
// for output that is not a terminal.
func (p *Printer) Compact() *Printer {
	p.compact = true
	return p
}

func (p *Printer) Value(o ems.Object) {
	if o.IsError() {
		fmt.Fprintf(p.w, "%s %s\n", p.th.Error.Render("error:"), o.Msg)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", p.th.Dim.Render("=>"), p.th.Value.Render(o.String()))
}

func (p *Printer) Diagnostics(src []byte, diags []*ems.ParseError) {
	for _, d := range diags {
		p.Diagnostic(src, d)
	}
}

func (p *Printer) Diagnostic(src []byte, d *ems.ParseError) {
	if d == nil {
		return
	}
	if p.compact {
		fmt.Fprintln(p.w, d.Error())
		return
	}
	if d.Pos.Line == 0 {
		fmt.Fprintf(p.w, "%s %s\n", p.th.Error.Render("error:"), d.Msg)
		return
	}
	fmt.Fprintf(
		p.w,
		"%s %s %s\n",
		p.th.Location.Render(d.Pos.String()+":"),
		p.th.Error.Render("error:"),
		d.Msg,
	)
	p.excerpt(src, d.Pos)
}

// Fatal reports an error that stopped the run. Illegal tokens list every
// diagnostic collected before the parse stopped.
func (p *Printer) Fatal(src []byte, err error) {
	if err == nil {
		return
	}
	var ill *ems.IllegalTokenError
	if errors.As(err, &ill) && len(ill.Diags) > 0 {
		p.Diagnostics(src, ill.Diags)
		return
	}
	var ab *ems.AbortError
	if errors.As(err, &ab) {
		fmt.Fprintf(p.w, "%s %s\n", p.th.Error.Render("aborted:"), ab.Error())
		if ab.Pos.Line > 0 && !p.compact {
			p.excerpt(src, ab.Pos)
		}
		return
	}
	fmt.Fprintf(p.w, "%s %v\n", p.th.Error.Render("error:"), err)
}

func (p *Printer) excerpt(src []byte, pos ems.Pos) {
	line, ok := SourceLine(src, pos.Line)
	if !ok {
		return
	}
	num := strconv.Itoa(pos.Line)
	gutter := strings.Repeat(" ", len(num))
	shown := line
	if p.width > 0 {
		avail := p.width - len(num) - 3
		if avail < 8 {
			avail = 8
		}
		shown = ansi.Truncate(line, avail, "…")
	}
	fmt.Fprintf(p.w, "%s %s %s\n", p.th.Dim.Render(num), p.th.Dim.Render("|"), shown)
	fmt.Fprintf(
		p.w,
		"%s %s %s\n",
		gutter,
		p.th.Dim.Render("|"),
		p.th.Caret.TabWidth(lipgloss.NoTabConversion).Render(Caret(line, pos.Col)),
	)
}

// SourceLine returns the 1-based line n of src without its line ending.
func SourceLine(src []byte, n int) (string, bool) {
	if n <= 0 {
		return "", false
	}
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}

// Caret returns the padding and marker that point at column col of line.
// Tabs are kept so the caret lines up however the terminal expands them,
// and wide runes take as many cells as they occupy.
func Caret(line string, col int) string {
	var b strings.Builder
	n := 1
	for _, r := range line {
		if n >= col {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
		}
		n++
	}
	if n < col {
		b.WriteString(strings.Repeat(" ", col-n))
	}
	b.WriteByte('^')
	return b.String()
}
