package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/unkn0wn-root/ember/internal/config"
	"github.com/unkn0wn-root/ember/internal/history"
)

const historyValueWidth = 24

func historyCommand(opts options, settings config.Settings, stdout, stderr io.Writer) int {
	hist, err := history.Open(
		string(settings.History.Backend),
		settings.HistoryPath(),
		settings.History.MaxEntries,
	)
	if err != nil {
		fmt.Fprintf(stderr, "ember: open history: %v\n", err)
		return exitFail
	}
	defer closeHistory(hist)

	if opts.historyDelete != "" {
		ok, err := hist.Delete(opts.historyDelete)
		if err != nil {
			fmt.Fprintf(stderr, "ember: delete history entry: %v\n", err)
			return exitFail
		}
		if !ok {
			fmt.Fprintf(stderr, "ember: no history entry %q\n", opts.historyDelete)
			return exitFail
		}
		fmt.Fprintf(stdout, "deleted %s\n", opts.historyDelete)
		return exitOK
	}

	var entries []history.Entry
	if len(opts.args) > 0 {
		entries, err = hist.ByFile(opts.args[0])
		if len(entries) > opts.history {
			entries = entries[:opts.history]
		}
	} else {
		entries, err = hist.Recent(opts.history)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ember: read history: %v\n", err)
		return exitFail
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "no runs recorded")
		return exitOK
	}
	fmt.Fprintln(stdout, historyTable(entries))
	return exitOK
}

func historyTable(entries []history.Entry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "WHEN", "MODE", "KIND", "VALUE", "STEPS", "SOURCE")
	for _, e := range entries {
		steps := "-"
		if e.Summary != nil {
			steps = strconv.Itoa(e.Summary.Steps)
		}
		value := e.Value
		if e.Error != "" {
			value = e.Error
		}
		t.Row(
			e.ID,
			e.ExecutedAt.Local().Format(time.DateTime),
			e.Mode,
			e.Kind,
			runewidth.Truncate(value, historyValueWidth, "…"),
			steps,
			e.Snippet,
		)
	}
	return t.String()
}
