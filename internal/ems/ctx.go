package ems

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Limits bounds one evaluation. MaxDepth counts nested blocks, so any
// program the parser accepts fits the default.
type Limits struct {
	MaxSteps int
	MaxDepth int
	Timeout  time.Duration
}

func DefaultLimits() Limits {
	return Limits{MaxSteps: 100000, MaxDepth: maxDepth}
}

// Ctx carries the per-run state of an evaluation. It is not safe for
// concurrent use.
type Ctx struct {
	Ctx context.Context
	Lim Limits
	Out io.Writer
	Now func() time.Time

	steps int
	depth int
	start time.Time
}

func NewCtx(ctx context.Context, lim Limits) *Ctx {
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Ctx{Ctx: ctx, Lim: lim, Out: io.Discard}
	c.Now = time.Now
	c.start = c.Now()
	return c
}

// Steps reports how many statements and expressions were evaluated.
func (c *Ctx) Steps() int {
	return c.steps
}

func (c *Ctx) tick(pos Pos) error {
	c.steps++
	if c.Lim.MaxSteps > 0 && c.steps > c.Lim.MaxSteps {
		return rtAbort(pos, "step limit exceeded")
	}
	if c.Lim.Timeout > 0 && c.Now().Sub(c.start) > c.Lim.Timeout {
		return rtAbort(pos, "timeout exceeded")
	}
	select {
	case <-c.Ctx.Done():
		return rtAbort(pos, "canceled: %v", c.Ctx.Err())
	default:
		return nil
	}
}

func (c *Ctx) enter(pos Pos) error {
	c.depth++
	if c.Lim.MaxDepth > 0 && c.depth > c.Lim.MaxDepth {
		c.depth--
		return rtAbort(pos, "depth limit exceeded")
	}
	return nil
}

func (c *Ctx) leave() {
	if c.depth > 0 {
		c.depth--
	}
}

func rtAbort(pos Pos, format string, args ...any) error {
	base := &RuntimeError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	return &AbortError{RuntimeError: base}
}

// IsAbort reports whether err stopped an evaluation early.
func IsAbort(err error) bool {
	var ab *AbortError
	return errors.As(err, &ab)
}
