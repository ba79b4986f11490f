package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/unkn0wn-root/ember/internal/errdef"
	"github.com/unkn0wn-root/ember/internal/history"
)

type EventKind int

const (
	EventChanged EventKind = iota
	EventMissing
)

func (k EventKind) String() string {
	if k == EventMissing {
		return "missing"
	}
	return "changed"
}

type Fingerprint struct {
	Mod  time.Time
	Size int64
	Hash string
}

type Event struct {
	Path string
	Kind EventKind
	Prev Fingerprint
	Curr Fingerprint
	Src  []byte
}

type Options struct {
	Interval time.Duration
	Buffer   int
}

type entry struct {
	fp      Fingerprint
	missing bool
}

// Watcher polls tracked source files and emits an Event when their content
// changes or they disappear. Touching a file without changing it is silent.
type Watcher struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	out      chan Event
	interval time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
	started  bool
	closed   bool
}

const (
	defaultInterval = 500 * time.Millisecond
	defaultBuffer   = 8
)

func New(opts Options) *Watcher {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	buf := opts.Buffer
	if buf <= 0 {
		buf = defaultBuffer
	}
	return &Watcher{
		entries:  make(map[string]*entry),
		out:      make(chan Event, buf),
		interval: interval,
	}
}

func (w *Watcher) Events() <-chan Event {
	return w.out
}

func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started || w.closed {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.stop = make(chan struct{})
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		t := time.NewTicker(w.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				w.Scan()
			case <-w.stop:
				return
			}
		}
	}()
}

// Stop ends polling and closes the event channel.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.started {
		close(w.stop)
	}
	w.mu.Unlock()
	w.wg.Wait()
	close(w.out)
}

// Track reads path and remembers its current fingerprint.
func (w *Watcher) Track(path string) error {
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "watch %s", clean)
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "watch %s", clean)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.entries[clean] = &entry{fp: fingerprint(info, data)}
	return nil
}

func (w *Watcher) Forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.entries, filepath.Clean(path))
}

// Scan checks every tracked file once.
func (w *Watcher) Scan() {
	for path, e := range w.snapshot() {
		if evt, ok := w.check(path, e); ok {
			w.emit(evt)
		}
	}
}

func (w *Watcher) snapshot() map[string]entry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil
	}
	list := make(map[string]entry, len(w.entries))
	for path, e := range w.entries {
		list[path] = *e
	}
	return list
}

func (w *Watcher) check(path string, e entry) (Event, bool) {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || e.missing {
			return Event{}, false
		}
		w.update(path, e.fp, true)
		return Event{Path: path, Kind: EventMissing, Prev: e.fp}, true
	}
	if !e.missing && info.ModTime().Equal(e.fp.Mod) && info.Size() == e.fp.Size {
		return Event{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.update(path, e.fp, true)
		return Event{Path: path, Kind: EventMissing, Prev: e.fp}, true
	}
	next := fingerprint(info, data)
	w.update(path, next, false)
	if !e.missing && next.Hash == e.fp.Hash {
		return Event{}, false
	}
	return Event{Path: path, Kind: EventChanged, Prev: e.fp, Curr: next, Src: data}, true
}

func (w *Watcher) update(path string, fp Fingerprint, missing bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entries[path]; ok {
		e.fp = fp
		e.missing = missing
	}
}

// emit drops the event when the consumer is behind.
func (w *Watcher) emit(evt Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.out <- evt:
	default:
	}
}

func fingerprint(info fs.FileInfo, data []byte) Fingerprint {
	return Fingerprint{
		Mod:  info.ModTime(),
		Size: int64(len(data)),
		Hash: history.Fingerprint(data),
	}
}
