package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/unkn0wn-root/ember/internal/config"
	"github.com/unkn0wn-root/ember/internal/ems"
	"github.com/unkn0wn-root/ember/internal/highlight"
	"github.com/unkn0wn-root/ember/internal/report"
	"github.com/unkn0wn-root/ember/internal/theme"
)

// inspect handles the flags that look at a source without running it. The
// second result is false when no such flag was given.
func inspect(
	opts options,
	settings config.Settings,
	th theme.Theme,
	path string,
	src []byte,
	stdout, stderr io.Writer,
) (int, bool) {
	switch {
	case opts.tokens:
		report.New(stdout, th, termWidth(stdout)).Tokens(ems.Lex(path, src))
		return exitOK, true
	case opts.ast:
		return dumpAST(th, path, src, stdout, stderr), true
	case opts.highlight:
		fmt.Fprintln(stdout, highlight.Terminal(src, th))
		return exitOK, true
	case opts.chroma != "":
		if err := highlight.Format(stdout, src, opts.chroma, settings.HTMLStyle); err != nil {
			fmt.Fprintf(stderr, "ember: format: %v\n", err)
			return exitFail, true
		}
		return exitOK, true
	case opts.html != "":
		return writeHTML(opts.html, settings.HTMLStyle, src, stdout, stderr), true
	}
	return exitOK, false
}

func dumpAST(th theme.Theme, path string, src []byte, stdout, stderr io.Writer) int {
	prog, diags, err := ems.Parse(path, src)
	p := printer(stderr, th)
	if err != nil {
		p.Fatal(src, err)
		return exitFatal
	}
	p.Diagnostics(src, diags)
	fmt.Fprint(stdout, ems.Dump(prog))
	if len(diags) > 0 {
		return exitFail
	}
	return exitOK
}

func writeHTML(target, style string, src []byte, stdout, stderr io.Writer) int {
	var buf bytes.Buffer
	if err := highlight.HTML(&buf, src, style); err != nil {
		fmt.Fprintf(stderr, "ember: html: %v\n", err)
		return exitFail
	}
	if target == "-" {
		_, _ = stdout.Write(buf.Bytes())
		return exitOK
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(stderr, "ember: write html: %v\n", err)
		return exitFail
	}
	fmt.Fprintf(stdout, "wrote %s\n", target)
	return exitOK
}
