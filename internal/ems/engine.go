package ems

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

type Result struct {
	Value Object
	Diags []*ParseError
	Steps int
}

type Eng struct {
	Lim Limits
	Out io.Writer
	Now func() time.Time
}

func NewEng() *Eng {
	return &Eng{Lim: DefaultLimits(), Out: os.Stdout}
}

// Run parses and evaluates src. Recoverable diagnostics do not prevent
// evaluation and are returned in Result.Diags. An illegal token returns an
// *IllegalTokenError and nothing is evaluated.
func (e *Eng) Run(ctx context.Context, path string, src []byte) (*Result, error) {
	if e == nil {
		return nil, fmt.Errorf("nil engine")
	}
	prog, diags, err := Parse(path, src)
	if err != nil {
		return &Result{Value: None(), Diags: diags}, err
	}
	res, err := e.Exec(ctx, prog)
	if res != nil {
		res.Diags = diags
	}
	return res, err
}

// Exec evaluates an already parsed program.
func (e *Eng) Exec(ctx context.Context, prog *Program) (*Result, error) {
	if e == nil {
		return nil, fmt.Errorf("nil engine")
	}
	cx := e.newCtx(ctx)
	v, err := Eval(cx, prog)
	return &Result{Value: v, Steps: cx.Steps()}, err
}

func (e *Eng) newCtx(ctx context.Context) *Ctx {
	cx := NewCtx(ctx, e.Lim)
	if e.Out != nil {
		cx.Out = e.Out
	}
	if e.Now != nil {
		cx.Now = e.Now
		cx.start = cx.Now()
	}
	return cx
}
