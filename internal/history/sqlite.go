package history

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/ember/internal/errdef"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	executed_at INTEGER NOT NULL,
	file_path   TEXT NOT NULL DEFAULT '',
	mode        TEXT NOT NULL DEFAULT '',
	source_hash TEXT NOT NULL DEFAULT '',
	snippet     TEXT NOT NULL DEFAULT '',
	kind        TEXT NOT NULL DEFAULT '',
	value       TEXT NOT NULL DEFAULT '',
	output      TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	duration    INTEGER NOT NULL DEFAULT 0,
	summary     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_executed_at ON runs (executed_at DESC);
CREATE INDEX IF NOT EXISTS runs_file_path ON runs (file_path);
`

const sqliteColumns = `id, executed_at, file_path, mode, source_hash, snippet,
	kind, value, output, error, duration, summary`

// SQLStore keeps history in a SQLite database.
type SQLStore struct {
	db         *sql.DB
	maxEntries int
	mu         sync.Mutex
}

func OpenSQL(path string, maxEntries int) (*SQLStore, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "create history dir")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "open history database")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errdef.Wrap(errdef.CodeHistory, err, "create history schema")
	}
	return &SQLStore{db: db, maxEntries: maxEntries}, nil
}

func (s *SQLStore) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	summary, err := encodeSummary(entry.Summary)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "begin history write")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO runs (`+sqliteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ExecutedAt.UnixNano(),
		cleanPath(entry.FilePath),
		entry.Mode,
		entry.SourceHash,
		entry.Snippet,
		entry.Kind,
		entry.Value,
		entry.Output,
		entry.Error,
		int64(entry.Duration),
		summary,
	)
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "insert history entry")
	}

	_, err = tx.Exec(
		`DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY executed_at DESC, id DESC LIMIT ?
		)`,
		s.maxEntries,
	)
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "prune history")
	}

	if err := tx.Commit(); err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "commit history write")
	}
	return nil
}

func (s *SQLStore) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		n = s.maxEntries
	}
	return s.query(
		`SELECT `+sqliteColumns+` FROM runs ORDER BY executed_at DESC, id DESC LIMIT ?`,
		n,
	)
}

func (s *SQLStore) ByFile(path string) ([]Entry, error) {
	cleaned := cleanPath(path)
	if cleaned == "" {
		return nil, nil
	}
	return s.query(
		`SELECT `+sqliteColumns+` FROM runs WHERE file_path = ?
		ORDER BY executed_at DESC, id DESC`,
		cleaned,
	)
}

func (s *SQLStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return false, errdef.Wrap(errdef.CodeHistory, err, "delete history entry")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errdef.Wrap(errdef.CodeHistory, err, "delete history entry")
	}
	return n > 0, nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) query(q string, args ...any) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "query history")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			executed int64
			duration int64
			summary  string
		)
		err := rows.Scan(
			&e.ID,
			&executed,
			&e.FilePath,
			&e.Mode,
			&e.SourceHash,
			&e.Snippet,
			&e.Kind,
			&e.Value,
			&e.Output,
			&e.Error,
			&duration,
			&summary,
		)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeHistory, err, "scan history row")
		}
		e.ExecutedAt = time.Unix(0, executed).UTC()
		e.Duration = time.Duration(duration)
		if e.Summary, err = decodeSummary(summary); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "read history rows")
	}
	return out, nil
}

func encodeSummary(sum *RunSummary) (string, error) {
	if sum == nil {
		return "", nil
	}
	data, err := json.Marshal(sum)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeHistory, err, "encode run summary")
	}
	return string(data), nil
}

func decodeSummary(raw string) (*RunSummary, error) {
	if raw == "" {
		return nil, nil
	}
	var sum RunSummary
	if err := json.Unmarshal([]byte(raw), &sum); err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "decode run summary")
	}
	return &sum, nil
}
