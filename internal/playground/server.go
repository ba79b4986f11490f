package playground

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/unkn0wn-root/ember/internal/ems"
	"github.com/unkn0wn-root/ember/internal/errdef"
	"github.com/unkn0wn-root/ember/internal/highlight"
	"github.com/unkn0wn-root/ember/internal/runner"
)

const (
	defaultMaxConns   = 64
	defaultHTMLStyle  = "github"
	maxSourceBytes    = 1 << 20
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
	playgroundPath    = "<playground>"
)

// Request is one program sent over the socket, either as this JSON object
// or as a plain text frame holding only the source.
type Request struct {
	ID     string `json:"id,omitempty"`
	Path   string `json:"path,omitempty"`
	Source string `json:"source"`
}

type Diagnostic struct {
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Msg  string `json:"msg"`
}

// Reply carries the result of a Request. Kind is the value's type name,
// or "fatal" when the program was rejected or aborted.
type Reply struct {
	ID          string       `json:"id"`
	RunID       string       `json:"runId"`
	Kind        string       `json:"kind"`
	Value       string       `json:"value,omitempty"`
	Output      string       `json:"output,omitempty"`
	Steps       int          `json:"steps"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	Error       string       `json:"error,omitempty"`
}

type Options struct {
	Runner    *runner.Runner
	MaxConns  int
	HTMLStyle string
}

type Server struct {
	run      *runner.Runner
	maxConns int
	style    string
}

func New(opts Options) *Server {
	s := &Server{run: opts.Runner, maxConns: opts.MaxConns, style: opts.HTMLStyle}
	if s.run == nil {
		s.run = runner.New(runner.Options{Limits: ems.DefaultLimits(), Mode: runner.ModePlayground})
	}
	if s.maxConns <= 0 {
		s.maxConns = defaultMaxConns
	}
	if s.style == "" {
		s.style = defaultHTMLStyle
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("POST /highlight", s.handleHighlight)
	mux.HandleFunc("GET /ws", s.handleSocket)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errdef.Wrap(errdef.CodeNetwork, err, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts at most MaxConns concurrent connections from ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				log.Printf("playground shutdown: %v", err)
			}
		case <-done:
		}
	}()

	log.Printf("playground listening on %s", ln.Addr())
	err := srv.Serve(netutil.LimitListener(ln, s.maxConns))
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errdef.Wrap(errdef.CodeNetwork, err, "serve playground")
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("playground accept: %v", err)
		return
	}
	conn.SetReadLimit(maxSourceBytes)
	defer func() {
		if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
			log.Printf("playground close: %v", err)
		}
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.Printf("playground read: %v", err)
			}
			return
		}
		if err := wsjson.Write(ctx, conn, s.Eval(ctx, DecodeRequest(data))); err != nil {
			log.Printf("playground write: %v", err)
			return
		}
	}
}

// DecodeRequest accepts either a JSON Request object or the bare source
// text. A frame is only treated as JSON when it decodes with a source field,
// so a block such as "{ 1 }" stays source.
func DecodeRequest(data []byte) Request {
	var probe struct {
		ID     string  `json:"id"`
		Path   string  `json:"path"`
		Source *string `json:"source"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.Source != nil {
		return Request{ID: probe.ID, Path: probe.Path, Source: *probe.Source}
	}
	return Request{Source: string(data)}
}

// Eval runs one request and shapes the outcome into a Reply.
func (s *Server) Eval(ctx context.Context, req Request) Reply {
	path := req.Path
	if path == "" {
		path = playgroundPath
	}
	oc := s.run.RunMode(ctx, runner.ModePlayground, path, []byte(req.Source))
	rep := Reply{
		ID:     req.ID,
		RunID:  oc.ID,
		Output: oc.Output,
		Steps:  oc.Steps,
	}
	if rep.ID == "" {
		rep.ID = oc.ID
	}

	diags := oc.Diags
	if ill, ok := runner.IllegalToken(oc); ok {
		diags = ill.Diags
	}
	for _, d := range diags {
		rep.Diagnostics = append(rep.Diagnostics, Diagnostic{Line: d.Pos.Line, Col: d.Pos.Col, Msg: d.Msg})
	}

	if oc.Fatal() {
		rep.Kind = "fatal"
		rep.Error = oc.Err.Error()
		return rep
	}
	rep.Kind = oc.Value.TypeName()
	if oc.Value.IsError() {
		rep.Error = oc.Value.Msg
		return rep
	}
	rep.Value = oc.Value.String()
	return rep
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, maxSourceBytes)); err != nil {
		http.Error(w, "source too large", http.StatusRequestEntityTooLarge)
		return
	}
	style := r.URL.Query().Get("style")
	if style == "" {
		style = s.style
	}
	var out bytes.Buffer
	if err := highlight.HTML(&out, buf.Bytes(), style); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(out.Bytes())
}
