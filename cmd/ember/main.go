package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/muesli/termenv"

	"github.com/unkn0wn-root/ember/internal/bindings"
	"github.com/unkn0wn-root/ember/internal/config"
	"github.com/unkn0wn-root/ember/internal/errdef"
	"github.com/unkn0wn-root/ember/internal/history"
	"github.com/unkn0wn-root/ember/internal/playground"
	"github.com/unkn0wn-root/ember/internal/repl"
	"github.com/unkn0wn-root/ember/internal/report"
	"github.com/unkn0wn-root/ember/internal/runner"
	"github.com/unkn0wn-root/ember/internal/telemetry"
	"github.com/unkn0wn-root/ember/internal/theme"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitFatal = 2
)

var usageText = heredoc.Doc(`
	Usage: ember [flags] [file | -]

	Runs an ember program and prints its final value. With no file and no -e
	the program is read from stdin. Use -repl for an interactive prompt or
	-serve for the playground server.

	Exit status is 1 when the program ends in an error value or an expectation
	does not match, and 2 when it cannot be parsed or run at all.

	Examples:
	  ember main.ems
	  ember -e '1 + 2 * 3'
	  ember -tokens main.ems
	  ember -html out.html main.ems
	  ember -watch main.ems
	  ember -check ./examples -recursive
	  ember -serve=:7420
	  ember -history 20

	Flags:
`)

type options struct {
	expr          string
	tokens        bool
	ast           bool
	highlight     bool
	chroma        string
	html          string
	style         string
	expect        string
	repl          bool
	serve         serveFlag
	watch         bool
	check         string
	recursive     bool
	history       int
	historyDelete string
	noHistory     bool
	themeKey      string
	maxSteps      int
	maxDepth      int
	timeout       time.Duration
	otelEndpoint  string
	otelInsecure  bool
	otelService   string
	showVersion   bool
	args          []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseArgs(args []string, tcfg telemetry.Config, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("ember", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.expr, "e", "", "Evaluate the given source instead of a file")
	fs.BoolVar(&opts.tokens, "tokens", false, "Print the token stream and exit")
	fs.BoolVar(&opts.ast, "ast", false, "Print the parsed program and exit")
	fs.BoolVar(&opts.highlight, "highlight", false, "Print the highlighted source and exit")
	fs.StringVar(&opts.chroma, "chroma", "", "Print the source through a chroma formatter (e.g. terminal256)")
	fs.StringVar(&opts.html, "html", "", "Write highlighted HTML to the given path (- for stdout)")
	fs.StringVar(&opts.style, "style", "", "Chroma style for -html and -chroma")
	fs.StringVar(&opts.expect, "expect", "", "Compare output and final value with the given file")
	fs.BoolVar(&opts.repl, "repl", false, "Start the interactive prompt")
	fs.Var(&opts.serve, "serve", "Start the playground server, optionally on `addr` (-serve=:7420)")
	fs.BoolVar(&opts.watch, "watch", false, "Run the file again whenever it changes")
	fs.StringVar(&opts.check, "check", "", "Run every source in `dir` against its .out file")
	fs.BoolVar(&opts.recursive, "recursive", false, "Descend into subdirectories with -check")
	fs.IntVar(&opts.history, "history", 0, "List the N most recent runs and exit")
	fs.StringVar(&opts.historyDelete, "history-delete", "", "Delete the history entry with the given id")
	fs.BoolVar(&opts.noHistory, "no-history", false, "Do not record this run")
	fs.StringVar(&opts.themeKey, "theme", "", "Theme key from the catalog")
	fs.IntVar(&opts.maxSteps, "max-steps", 0, "Override the evaluation step limit")
	fs.IntVar(&opts.maxDepth, "max-depth", 0, "Override the evaluation depth limit")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Abort evaluation after this duration")
	fs.StringVar(&opts.otelEndpoint, "trace-otel-endpoint", tcfg.Endpoint, "OTLP collector endpoint for run spans")
	fs.BoolVar(&opts.otelInsecure, "trace-otel-insecure", tcfg.Insecure, "Disable TLS for OTLP trace export")
	fs.StringVar(&opts.otelService, "trace-otel-service", tcfg.ServiceName, "Override service.name for exported spans")
	fs.BoolVar(&opts.showVersion, "version", false, "Show ember version")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.args = fs.Args()
	if len(opts.args) > 1 {
		fs.Usage()
		return opts, fmt.Errorf("expected at most one file, got %d", len(opts.args))
	}
	if opts.expr != "" && len(opts.args) > 0 {
		return opts, errors.New("-e cannot be combined with a file argument")
	}
	if opts.watch && (len(opts.args) == 0 || opts.args[0] == "-") {
		return opts, errors.New("-watch needs a file argument")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)
	log.SetFlags(0)
	log.SetPrefix("ember: ")

	tcfg := telemetry.ConfigFromEnv(os.Getenv)
	opts, err := parseArgs(args, tcfg, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "ember: %v\n", err)
		return exitFatal
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "ember %s\n", version)
		fmt.Fprintf(stdout, "  commit: %s\n", commit)
		fmt.Fprintf(stdout, "  built:  %s\n", date)
		return exitOK
	}

	lipgloss.SetColorProfile(termenv.EnvColorProfile())

	settings, _, err := config.LoadSettings()
	if err != nil {
		log.Printf("settings load error: %v", err)
		settings = config.Normalise(config.Settings{})
	}
	applyOverrides(&settings, opts)
	th := loadTheme(settings.Theme)

	if opts.history > 0 || opts.historyDelete != "" {
		return historyCommand(opts, settings, stdout, stderr)
	}

	if opts.serve.on || opts.repl {
		return interactive(ctx, opts, settings, th, tcfg, stdout, stderr)
	}

	if opts.check != "" {
		return checkCommand(ctx, opts, settings, th, stdout, stderr)
	}

	path, src, err := readSource(opts, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "ember: %v\n", err)
		return exitFatal
	}

	if code, ok := inspect(opts, settings, th, path, src, stdout, stderr); ok {
		return code
	}

	inst := startTelemetry(tcfg, opts)
	defer shutdownTelemetry(inst)
	hist := openHistory(settings, opts)
	if hist != nil {
		defer closeHistory(hist)
	}

	mode := runner.ModeFile
	if opts.expr != "" {
		mode = runner.ModeEval
	}
	var out io.Writer = stdout
	if opts.expect != "" {
		out = nil
	}
	r := runner.New(runner.Options{
		Limits:  settings.Limits.Engine(),
		Out:     out,
		Mode:    mode,
		Tracer:  inst,
		History: hist,
	})

	if opts.watch {
		return watchCommand(ctx, r, path, src, th, stdout, stderr)
	}
	oc := r.Run(ctx, path, src)
	if opts.expect != "" {
		return expectCommand(opts.expect, oc, src, th, stdout, stderr)
	}
	return present(oc, src, th, stdout, stderr)
}

// present prints the outcome of one run and returns the exit code for it.
func present(oc *runner.Outcome, src []byte, th theme.Theme, stdout, stderr io.Writer) int {
	errs := printer(stderr, th)
	if oc.Fatal() {
		errs.Fatal(src, oc.Err)
		return exitCodeFor(oc.Err)
	}
	errs.Diagnostics(src, oc.Diags)
	if oc.Value.IsError() {
		errs.Value(oc.Value)
		return exitFail
	}
	printer(stdout, th).Value(oc.Value)
	return exitOK
}

func exitCodeFor(err error) int {
	switch errdef.CodeOf(err) {
	case errdef.CodeParse, errdef.CodeScript, errdef.CodeFilesystem:
		return exitFatal
	default:
		return exitFail
	}
}

func applyOverrides(settings *config.Settings, opts options) {
	if opts.maxSteps > 0 {
		settings.Limits.MaxSteps = opts.maxSteps
	}
	if opts.maxDepth > 0 {
		settings.Limits.MaxDepth = opts.maxDepth
	}
	if opts.timeout > 0 {
		settings.Limits.TimeoutMS = opts.timeout.Milliseconds()
	}
	if opts.themeKey != "" {
		settings.Theme = opts.themeKey
	}
	if opts.style != "" {
		settings.HTMLStyle = opts.style
	}
	if opts.serve.addr != "" {
		settings.Playground.Addr = opts.serve.addr
	}
	*settings = config.Normalise(*settings)
}

func loadTheme(key string) theme.Theme {
	catalog, err := theme.LoadCatalog(filepath.Join(config.Dir(), "themes"))
	if err != nil {
		log.Printf("theme load error: %v", err)
	}
	if key != "" {
		if _, ok := catalog.Get(key); !ok {
			log.Printf("theme %q not found; using built-in default", key)
		}
	}
	return catalog.Resolve(key)
}

func readSource(opts options, stdin io.Reader) (string, []byte, error) {
	if opts.expr != "" {
		return "", []byte(opts.expr), nil
	}
	path := "-"
	if len(opts.args) > 0 {
		path = opts.args[0]
	}
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", nil, fmt.Errorf("read stdin: %w", err)
		}
		return "<stdin>", data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read file: %w", err)
	}
	return filepath.Clean(path), data, nil
}

func interactive(
	ctx context.Context,
	opts options,
	settings config.Settings,
	th theme.Theme,
	tcfg telemetry.Config,
	stdout, stderr io.Writer,
) int {
	inst := startTelemetry(tcfg, opts)
	defer shutdownTelemetry(inst)
	hist := openHistory(settings, opts)
	if hist != nil {
		defer closeHistory(hist)
	}

	if opts.serve.on {
		r := runner.New(runner.Options{
			Limits:  settings.Limits.Engine(),
			Mode:    runner.ModePlayground,
			Tracer:  inst,
			History: hist,
		})
		srv := playground.New(playground.Options{
			Runner:    r,
			MaxConns:  settings.Playground.MaxConns,
			HTMLStyle: settings.HTMLStyle,
		})
		fmt.Fprintf(stdout, "playground: ws://%s/ws\n", settings.Playground.Addr)
		if err := srv.ListenAndServe(ctx, settings.Playground.Addr); err != nil {
			fmt.Fprintf(stderr, "ember: %v\n", err)
			return exitFail
		}
		return exitOK
	}

	r := runner.New(runner.Options{
		Limits:  settings.Limits.Engine(),
		Mode:    runner.ModeREPL,
		Tracer:  inst,
		History: hist,
	})
	keys, _, err := bindings.Load(config.Dir())
	if err != nil {
		log.Printf("bindings load error: %v", err)
		keys = bindings.DefaultMap()
	}
	if err := repl.Run(ctx, r, th, keys); err != nil {
		fmt.Fprintf(stderr, "ember: %v\n", err)
		return exitFail
	}
	return exitOK
}

func startTelemetry(cfg telemetry.Config, opts options) telemetry.Instrumenter {
	cfg.Endpoint = strings.TrimSpace(opts.otelEndpoint)
	cfg.Insecure = opts.otelInsecure
	cfg.ServiceName = strings.TrimSpace(opts.otelService)
	cfg.Version = version

	inst, err := telemetry.New(cfg)
	if err != nil {
		if cfg.Enabled() {
			log.Printf("telemetry init error: %v", err)
		}
		return telemetry.Noop()
	}
	return inst
}

func shutdownTelemetry(inst telemetry.Instrumenter) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := inst.Shutdown(ctx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
}

func openHistory(settings config.Settings, opts options) history.Backend {
	if opts.noHistory || !settings.History.On() {
		return nil
	}
	hist, err := history.Open(
		string(settings.History.Backend),
		settings.HistoryPath(),
		settings.History.MaxEntries,
	)
	if err != nil {
		log.Printf("history load error: %v", err)
		return nil
	}
	return hist
}

func closeHistory(hist history.Backend) {
	if err := hist.Close(); err != nil {
		log.Printf("history close: %v", err)
	}
}

func printer(w io.Writer, th theme.Theme) *report.Printer {
	width := termWidth(w)
	p := report.New(w, th, width)
	if width == 0 {
		p.Compact()
	}
	return p
}

// termWidth reports the terminal width of w, or 0 when w is not a terminal.
func termWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return 0
	}
	width, _, err := term.GetSize(f.Fd())
	if err != nil {
		return 0
	}
	return width
}

// serveFlag is a boolean flag that also accepts a listen address.
type serveFlag struct {
	on   bool
	addr string
}

func (f *serveFlag) String() string {
	if f == nil || !f.on {
		return ""
	}
	return f.addr
}

func (f *serveFlag) Set(v string) error {
	switch v {
	case "true":
		f.on = true
	case "false":
		f.on, f.addr = false, ""
	default:
		f.on, f.addr = true, v
	}
	return nil
}

func (f *serveFlag) IsBoolFlag() bool { return true }
