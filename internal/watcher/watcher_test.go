package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSource(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case evt := <-w.Events():
		return evt
	default:
		t.Fatalf("expected an event")
	}
	return Event{}
}

func expectQuiet(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case evt := <-w.Events():
		t.Fatalf("unexpected event %+v", evt)
	default:
	}
}

func TestScanReportsContentChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.ems")
	writeSource(t, path, "1")

	w := New(Options{})
	defer w.Stop()
	if err := w.Track(path); err != nil {
		t.Fatalf("track: %v", err)
	}

	w.Scan()
	expectQuiet(t, w)

	writeSource(t, path, "1 + 1")
	w.Scan()
	evt := nextEvent(t, w)
	if evt.Kind != EventChanged || string(evt.Src) != "1 + 1" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt.Prev.Hash == evt.Curr.Hash {
		t.Fatalf("expected fingerprints to differ")
	}
}

func TestScanIgnoresTouchWithoutChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.ems")
	writeSource(t, path, "print(1)")

	w := New(Options{})
	defer w.Stop()
	if err := w.Track(path); err != nil {
		t.Fatalf("track: %v", err)
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	w.Scan()
	expectQuiet(t, w)
}

func TestScanReportsMissingAndRecreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.ems")
	writeSource(t, path, "1")

	w := New(Options{})
	defer w.Stop()
	if err := w.Track(path); err != nil {
		t.Fatalf("track: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	w.Scan()
	if evt := nextEvent(t, w); evt.Kind != EventMissing {
		t.Fatalf("expected missing event, got %s", evt.Kind)
	}
	w.Scan()
	expectQuiet(t, w)

	writeSource(t, path, "1")
	w.Scan()
	if evt := nextEvent(t, w); evt.Kind != EventChanged {
		t.Fatalf("expected changed event after recreate, got %s", evt.Kind)
	}
}

func TestTrackMissingFile(t *testing.T) {
	w := New(Options{})
	defer w.Stop()
	if err := w.Track(filepath.Join(t.TempDir(), "nope.ems")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestStartAndStopClosesEvents(t *testing.T) {
	w := New(Options{Interval: time.Millisecond})
	w.Start()
	w.Stop()
	if _, ok := <-w.Events(); ok {
		t.Fatalf("expected closed channel")
	}
	w.Stop()
}
