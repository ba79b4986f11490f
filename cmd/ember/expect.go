package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/aymanbagabas/go-udiff"

	"github.com/unkn0wn-root/ember/internal/report"
	"github.com/unkn0wn-root/ember/internal/runner"
	"github.com/unkn0wn-root/ember/internal/theme"
)

// transcript is what an expectation file holds: printed output followed by
// the final value line, or the fatal report in one-line form.
func transcript(oc *runner.Outcome, src []byte) string {
	var buf bytes.Buffer
	buf.WriteString(oc.Output)
	p := report.New(&buf, theme.Plain(), 0).Compact()
	if oc.Fatal() {
		p.Fatal(src, oc.Err)
	} else {
		p.Diagnostics(src, oc.Diags)
		p.Value(oc.Value)
	}
	return buf.String()
}

// compareExpect returns a unified diff between the expectation file and the
// outcome, empty when they match.
func compareExpect(path string, oc *runner.Outcome, src []byte) (string, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read expectation: %w", err)
	}
	got := transcript(oc, src)
	if got == string(want) {
		return "", nil
	}
	return udiff.Unified(path, "actual", string(want), got), nil
}

func expectCommand(path string, oc *runner.Outcome, src []byte, th theme.Theme, stdout, stderr io.Writer) int {
	diff, err := compareExpect(path, oc, src)
	if err != nil {
		fmt.Fprintf(stderr, "ember: %v\n", err)
		return exitFatal
	}
	if diff != "" {
		fmt.Fprint(stdout, diff)
		return exitFail
	}
	fmt.Fprintln(stdout, th.Success.Render("ok"))
	return exitOK
}
