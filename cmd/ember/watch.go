package main

import (
	"context"
	"fmt"
	"io"

	"github.com/unkn0wn-root/ember/internal/runner"
	"github.com/unkn0wn-root/ember/internal/theme"
	"github.com/unkn0wn-root/ember/internal/watcher"
)

// watchCommand runs path once and again after every content change until
// ctx is done. The exit code is that of the last run.
func watchCommand(
	ctx context.Context,
	r *runner.Runner,
	path string,
	src []byte,
	th theme.Theme,
	stdout, stderr io.Writer,
) int {
	w := watcher.New(watcher.Options{})
	if err := w.Track(path); err != nil {
		fmt.Fprintf(stderr, "ember: %v\n", err)
		return exitFatal
	}
	w.Start()
	defer w.Stop()

	code := present(r.Run(ctx, path, src), src, th, stdout, stderr)
	for {
		select {
		case <-ctx.Done():
			return code
		case evt, ok := <-w.Events():
			if !ok {
				return code
			}
			if evt.Kind == watcher.EventMissing {
				fmt.Fprintf(stderr, "%s %s is missing\n", th.Dim.Render("--"), evt.Path)
				continue
			}
			fmt.Fprintf(stdout, "%s %s changed\n", th.Dim.Render("--"), evt.Path)
			code = present(r.Run(ctx, path, evt.Src), evt.Src, th, stdout, stderr)
		}
	}
}
