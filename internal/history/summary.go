package history

import (
	"time"

	"github.com/unkn0wn-root/ember/internal/ems"
)

// RunSummary is the persisted account of one parse and evaluation.
type RunSummary struct {
	ParseDuration time.Duration `json:"parseDuration"`
	EvalDuration  time.Duration `json:"evalDuration"`
	Steps         int           `json:"steps"`
	Aborted       bool          `json:"aborted,omitempty"`
	Diagnostics   []Diagnostic  `json:"diagnostics,omitempty"`
}

type Diagnostic struct {
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Msg  string `json:"msg"`
}

func NewRunSummary(diags []*ems.ParseError, steps int, parse, eval time.Duration) *RunSummary {
	sum := &RunSummary{
		ParseDuration: parse,
		EvalDuration:  eval,
		Steps:         steps,
	}
	for _, d := range diags {
		if d == nil {
			continue
		}
		sum.Diagnostics = append(sum.Diagnostics, Diagnostic{
			Line: d.Pos.Line,
			Col:  d.Pos.Col,
			Msg:  d.Msg,
		})
	}
	return sum
}

// ParseErrors rebuilds the diagnostics against path.
func (s *RunSummary) ParseErrors(path string) []*ems.ParseError {
	if s == nil || len(s.Diagnostics) == 0 {
		return nil
	}
	out := make([]*ems.ParseError, 0, len(s.Diagnostics))
	for _, d := range s.Diagnostics {
		out = append(out, &ems.ParseError{
			Pos: ems.Pos{Path: path, Line: d.Line, Col: d.Col},
			Msg: d.Msg,
		})
	}
	return out
}

func (s *RunSummary) Total() time.Duration {
	if s == nil {
		return 0
	}
	return s.ParseDuration + s.EvalDuration
}
