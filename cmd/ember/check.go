package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/unkn0wn-root/ember/internal/config"
	"github.com/unkn0wn-root/ember/internal/filesvc"
	"github.com/unkn0wn-root/ember/internal/runner"
	"github.com/unkn0wn-root/ember/internal/theme"
)

// checkCommand runs every source under opts.check against its .out file.
// Sources without one are reported and skipped. Runs are not recorded.
func checkCommand(
	ctx context.Context,
	opts options,
	settings config.Settings,
	th theme.Theme,
	stdout, stderr io.Writer,
) int {
	files, err := filesvc.ListSourceFiles(opts.check, opts.recursive)
	if err != nil {
		fmt.Fprintf(stderr, "ember: %v\n", err)
		return exitFatal
	}
	if len(files) == 0 {
		fmt.Fprintf(stdout, "no sources in %s\n", opts.check)
		return exitOK
	}

	r := runner.New(runner.Options{Limits: settings.Limits.Engine(), Mode: runner.ModeFile})
	var passed, failed, skipped int
	for _, f := range files {
		if f.Expect == "" {
			skipped++
			fmt.Fprintf(stdout, "%s %s\n", th.Dim.Render("SKIP"), f.Name)
			continue
		}
		src, err := os.ReadFile(f.Path)
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "%s %s: %v\n", th.Error.Render("FAIL"), f.Name, err)
			continue
		}
		diff, err := compareExpect(f.Expect, r.Run(ctx, f.Path, src), src)
		switch {
		case err != nil:
			failed++
			fmt.Fprintf(stdout, "%s %s: %v\n", th.Error.Render("FAIL"), f.Name, err)
		case diff != "":
			failed++
			fmt.Fprintf(stdout, "%s %s\n%s", th.Error.Render("FAIL"), f.Name, diff)
		default:
			passed++
			fmt.Fprintf(stdout, "%s %s\n", th.Success.Render("PASS"), f.Name)
		}
	}

	fmt.Fprintf(stdout, "%d passed, %d failed, %d skipped\n", passed, failed, skipped)
	if failed > 0 {
		return exitFail
	}
	return exitOK
}
