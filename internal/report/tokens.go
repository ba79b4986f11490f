package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"

	"github.com/unkn0wn-root/ember/internal/ems"
)

// Tokens prints one token per line as "line:col KIND literal".
func (p *Printer) Tokens(toks []ems.Tok) {
	width := 0
	for _, t := range toks {
		if w := runewidth.StringWidth(posLabel(t)); w > width {
			width = w
		}
	}
	for _, t := range toks {
		writeToken(p.w, runewidth.FillRight(posLabel(t), width), t)
	}
}

func writeToken(w io.Writer, pos string, t ems.Tok) {
	switch t.K {
	case ems.EOL:
		fmt.Fprintf(w, "%s  %s %s\n", pos, t.K, strconv.Quote(t.Lit))
	case ems.EOF:
		fmt.Fprintf(w, "%s  %s\n", pos, t.K)
	default:
		fmt.Fprintf(w, "%s  %s %s\n", pos, t.K, t.Lit)
	}
}

func posLabel(t ems.Tok) string {
	return strconv.Itoa(t.P.Line) + ":" + strconv.Itoa(t.P.Col)
}
