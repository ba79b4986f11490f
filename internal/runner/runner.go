package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/ember/internal/ems"
	"github.com/unkn0wn-root/ember/internal/errdef"
	"github.com/unkn0wn-root/ember/internal/history"
	"github.com/unkn0wn-root/ember/internal/telemetry"
)

const (
	ModeFile       = "file"
	ModeEval       = "eval"
	ModeREPL       = "repl"
	ModePlayground = "playground"

	snippetLimit = 80
)

type Options struct {
	Limits  ems.Limits
	Out     io.Writer
	Mode    string
	Tracer  telemetry.Instrumenter
	History history.Backend
	Now     func() time.Time
}

// Runner parses and evaluates sources, recording each run to the tracer and
// the history backend when they are configured. It is safe for concurrent
// use; each run gets its own evaluation context.
type Runner struct {
	lim    ems.Limits
	out    io.Writer
	mode   string
	tracer telemetry.Instrumenter
	hist   history.Backend
	now    func() time.Time
	mu     sync.Mutex
}

type Outcome struct {
	ID     string
	Path   string
	Value  ems.Object
	Diags  []*ems.ParseError
	Output string
	Steps  int
	Err    error
	Parse  time.Duration
	Eval   time.Duration
}

func New(opts Options) *Runner {
	r := &Runner{
		lim:    opts.Limits,
		out:    opts.Out,
		mode:   opts.Mode,
		tracer: opts.Tracer,
		hist:   opts.History,
		now:    opts.Now,
	}
	if r.tracer == nil {
		r.tracer = telemetry.Noop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.mode == "" {
		r.mode = ModeFile
	}
	return r
}

// Failed reports whether the run ended in an Error value or a fatal error.
func (o *Outcome) Failed() bool {
	return o == nil || o.Err != nil || o.Value.IsError()
}

// Fatal reports whether nothing useful was evaluated: an illegal token or
// an aborted evaluation.
func (o *Outcome) Fatal() bool {
	return o != nil && o.Err != nil
}

func (r *Runner) Run(ctx context.Context, path string, src []byte) *Outcome {
	return r.RunMode(ctx, r.mode, path, src)
}

func (r *Runner) RunMode(ctx context.Context, mode, path string, src []byte) *Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	oc := &Outcome{ID: uuid.NewString(), Path: path, Value: ems.None()}
	started := r.now()

	ctx, span := r.tracer.Start(ctx, telemetry.RunStart{
		RunID:  oc.ID,
		Path:   path,
		Mode:   mode,
		Source: src,
		Steps:  r.lim.MaxSteps,
		Depth:  r.lim.MaxDepth,
	})

	prog, diags, err := ems.Parse(path, src)
	oc.Parse = r.now().Sub(started)
	oc.Diags = diags
	span.RecordParse(oc.Parse, diagStrings(diags))

	var buf bytes.Buffer
	if err != nil {
		oc.Err = errdef.Wrap(errdef.CodeParse, err, "parse %s", displayPath(path))
	} else {
		eng := &ems.Eng{Lim: r.lim, Out: r.sink(&buf), Now: r.now}
		evalStart := r.now()
		res, err := eng.Exec(ctx, prog)
		oc.Eval = r.now().Sub(evalStart)
		if res != nil {
			oc.Value = res.Value
			oc.Steps = res.Steps
		}
		if err != nil {
			oc.Err = errdef.Wrap(errdef.CodeScript, err, "evaluate %s", displayPath(path))
		}
	}
	oc.Output = buf.String()

	span.End(telemetry.RunResult{
		Err:   oc.Err,
		Kind:  oc.Value.TypeName(),
		Value: ValueText(oc.Value),
		Steps: oc.Steps,
	})
	r.record(mode, src, started, oc)
	return oc
}

func (r *Runner) sink(buf *bytes.Buffer) io.Writer {
	if r.out == nil {
		return buf
	}
	return io.MultiWriter(r.out, buf)
}

func (r *Runner) record(mode string, src []byte, started time.Time, oc *Outcome) {
	if r.hist == nil {
		return
	}
	entry := history.Entry{
		ID:         oc.ID,
		ExecutedAt: started,
		FilePath:   oc.Path,
		Mode:       mode,
		SourceHash: history.Fingerprint(src),
		Snippet:    history.Snippet(string(src), snippetLimit),
		Kind:       oc.Value.TypeName(),
		Value:      ValueText(oc.Value),
		Output:     oc.Output,
		Duration:   oc.Parse + oc.Eval,
		Summary:    history.NewRunSummary(oc.Diags, oc.Steps, oc.Parse, oc.Eval),
	}
	if oc.Err != nil {
		entry.Error = oc.Err.Error()
		entry.Summary.Aborted = ems.IsAbort(oc.Err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hist.Append(entry); err != nil {
		log.Printf("history append failed: %v", err)
	}
}

// ValueText renders a result for display: Error values show their message.
func ValueText(o ems.Object) string {
	if o.IsError() {
		return o.Msg
	}
	return o.String()
}

// IllegalToken extracts the illegal-token failure from an outcome, if any.
func IllegalToken(oc *Outcome) (*ems.IllegalTokenError, bool) {
	if oc == nil || oc.Err == nil {
		return nil, false
	}
	var ill *ems.IllegalTokenError
	if errors.As(oc.Err, &ill) {
		return ill, true
	}
	return nil, false
}

func diagStrings(diags []*ems.ParseError) []string {
	if len(diags) == 0 {
		return nil
	}
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Error())
	}
	return out
}

func displayPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "<input>"
	}
	return path
}
