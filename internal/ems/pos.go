package ems

import (
	"fmt"
	"strings"
)

type Pos struct {
	Path string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.Path == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Col)
}

type ParseError struct {
	Pos Pos
	Msg string
}

func (e *ParseError) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s. error at: %s", e.Msg, e.Pos.String())
}

// IllegalTokenError stops a parse. Diags holds every diagnostic recorded
// up to and including the illegal token.
type IllegalTokenError struct {
	Tok   Tok
	Diags []*ParseError
}

func (e *IllegalTokenError) Error() string {
	if len(e.Diags) == 0 {
		return fmt.Sprintf("illegal token: '%s'", e.Tok.Lit)
	}
	return e.Diags[len(e.Diags)-1].Error()
}

// Pretty lists all diagnostics, one per line.
func (e *IllegalTokenError) Pretty() string {
	lines := make([]string, 0, len(e.Diags))
	for _, d := range e.Diags {
		lines = append(lines, d.Error())
	}
	return strings.Join(lines, "\n")
}

type RuntimeError struct {
	Pos Pos
	Msg string
}

func (e *RuntimeError) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos.String(), e.Msg)
}

type AbortError struct {
	*RuntimeError
}
