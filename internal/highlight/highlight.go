package highlight

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/styles"

	"github.com/unkn0wn-root/ember/internal/ems"
	"github.com/unkn0wn-root/ember/internal/theme"
)

type Class int

const (
	Text Class = iota
	Keyword
	KeywordDecl
	KeywordControl
	KeywordLiteral
	Ident
	Number
	String
	Comment
	Operator
	Punct
	Annotation
	Illegal
)

// Span is a run of source text sharing one class. Spans returned by
// Classify cover the source exactly, so joining their Text reproduces it.
type Span struct {
	Class Class
	Text  string
}

func Classify(src []byte) []Span {
	toks := ems.Lex("", src)
	spans := make([]Span, 0, len(toks)*2)
	last := 0
	annot := false
	for _, tok := range toks {
		if tok.K == ems.EOF {
			break
		}
		if tok.Off > last {
			spans = appendGap(spans, string(src[last:tok.Off]))
		}
		cls := classOf(tok)
		if annot && tok.K == ems.IDENT {
			cls = Annotation
		}
		annot = tok.K == ems.AT
		spans = append(spans, Span{Class: cls, Text: string(src[tok.Off:tok.End])})
		last = tok.End
	}
	if last < len(src) {
		spans = appendGap(spans, string(src[last:]))
	}
	return spans
}

// appendGap splits text skipped by the lexer into whitespace and comments.
func appendGap(spans []Span, gap string) []Span {
	for gap != "" {
		i := strings.IndexByte(gap, '#')
		if i < 0 {
			return append(spans, Span{Class: Text, Text: gap})
		}
		if i > 0 {
			spans = append(spans, Span{Class: Text, Text: gap[:i]})
		}
		end := strings.IndexAny(gap[i:], "\r\n")
		if end < 0 {
			return append(spans, Span{Class: Comment, Text: gap[i:]})
		}
		spans = append(spans, Span{Class: Comment, Text: gap[i : i+end]})
		gap = gap[i+end:]
	}
	return spans
}

func classOf(tok ems.Tok) Class {
	switch tok.K {
	case ems.ILLEGAL:
		return Illegal
	case ems.IDENT:
		return Ident
	case ems.NUMBER:
		return Number
	case ems.STRING:
		return String
	case ems.AT:
		return Annotation
	case ems.EOL:
		if tok.Lit == ";" {
			return Punct
		}
		return Text
	case ems.LPAREN, ems.RPAREN, ems.LBRACK, ems.RBRACK, ems.LBRACE, ems.RBRACE, ems.COMMA:
		return Punct
	case ems.KW_IN:
		return Keyword
	}
	switch ems.KeywordClassOf(tok.Lit) {
	case ems.KeywordDecl:
		return KeywordDecl
	case ems.KeywordControl:
		return KeywordControl
	case ems.KeywordLiteral:
		return KeywordLiteral
	}
	return Operator
}

var chromaTypes = map[Class]chroma.TokenType{
	Text:           chroma.Text,
	Keyword:        chroma.Keyword,
	KeywordDecl:    chroma.KeywordDeclaration,
	KeywordControl: chroma.KeywordReserved,
	KeywordLiteral: chroma.KeywordConstant,
	Ident:          chroma.Name,
	Number:         chroma.LiteralNumberFloat,
	String:         chroma.LiteralString,
	Comment:        chroma.CommentSingle,
	Operator:       chroma.Operator,
	Punct:          chroma.Punctuation,
	Annotation:     chroma.NameDecorator,
	Illegal:        chroma.Error,
}

// Tokens converts the classified source into a chroma token stream.
func Tokens(src []byte) []chroma.Token {
	spans := Classify(src)
	out := make([]chroma.Token, 0, len(spans))
	for _, sp := range spans {
		out = append(out, chroma.Token{Type: chromaTypes[sp.Class], Value: sp.Text})
	}
	return out
}

// Format writes src through a named chroma formatter and style. Unknown
// names fall back to chroma's defaults.
func Format(w io.Writer, src []byte, formatter, style string) error {
	f := formatters.Get(formatter)
	return f.Format(w, styles.Get(style), chroma.Literator(Tokens(src)...))
}

// HTML writes a standalone HTML page with inline styles and line numbers.
func HTML(w io.Writer, src []byte, style string) error {
	f := html.New(html.Standalone(true), html.WithLineNumbers(true), html.TabWidth(4))
	return f.Format(w, styles.Get(style), chroma.Literator(Tokens(src)...))
}

// Terminal renders src with the theme's lipgloss styles.
func Terminal(src []byte, th theme.Theme) string {
	var b strings.Builder
	for _, sp := range Classify(src) {
		st, ok := styleFor(th, sp.Class)
		if !ok {
			b.WriteString(sp.Text)
			continue
		}
		// lipgloss pads multi-line blocks, so style line by line.
		for i, line := range strings.Split(sp.Text, "\n") {
			if i > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(st.Render(line))
			}
		}
	}
	return b.String()
}
