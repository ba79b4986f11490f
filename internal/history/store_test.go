package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestStoreByFileFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	store := NewStore(path, 10)

	fileA := filepath.Join(dir, "a.ems")
	fileB := filepath.Join(dir, "b.ems")

	t1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Minute)

	if err := store.Append(Entry{ID: "1", ExecutedAt: t1, FilePath: fileA}); err != nil {
		t.Fatalf("append entry 1: %v", err)
	}
	if err := store.Append(Entry{ID: "2", ExecutedAt: t2, FilePath: fileA}); err != nil {
		t.Fatalf("append entry 2: %v", err)
	}
	if err := store.Append(Entry{ID: "3", ExecutedAt: t1, FilePath: fileB}); err != nil {
		t.Fatalf("append entry 3: %v", err)
	}

	got, err := store.ByFile(filepath.Join(dir, ".", "a.ems"))
	if err != nil {
		t.Fatalf("by file: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for file A, got %d", len(got))
	}
	if got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("expected newest-first order, got %q then %q", got[0].ID, got[1].ID)
	}

	if blank, _ := store.ByFile(""); len(blank) != 0 {
		t.Fatalf("expected empty result for blank path")
	}
}

func TestStoreTrimsAndReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "history.json")
	store := NewStore(path, 2)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := Entry{ExecutedAt: base.Add(time.Duration(i) * time.Second), Value: string(rune('a' + i))}
		if err := store.Append(entry); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	reloaded := NewStore(path, 2)
	got, err := reloaded.Recent(0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries after trim, got %d", len(got))
	}
	if got[0].Value != "c" || got[1].Value != "b" {
		t.Fatalf("unexpected order %q, %q", got[0].Value, got[1].Value)
	}
	if got[0].ID == "" {
		t.Fatalf("expected generated id")
	}

	ok, err := reloaded.Delete(got[0].ID)
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, _ := reloaded.Delete("missing"); ok {
		t.Fatalf("expected missing id to report false")
	}
	if left, _ := reloaded.Recent(5); len(left) != 1 {
		t.Fatalf("expected 1 entry after delete, got %d", len(left))
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open("redis", filepath.Join(t.TempDir(), "h"), 10); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Open("json", "", 10); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
