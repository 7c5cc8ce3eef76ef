package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tiku/internal"
)

const lastRunKey = "last_run_id"

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  startedAt TEXT NOT NULL,
  sourceDir TEXT NOT NULL,
  filesSeen INTEGER NOT NULL,
  accepted INTEGER NOT NULL,
  filtered INTEGER NOT NULL,
  errorCount INTEGER NOT NULL,
  outputPath TEXT NOT NULL,
  reportPath TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS run_errors (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  seq INTEGER NOT NULL,
  file TEXT NOT NULL,
  rowNo INTEGER NOT NULL,
  kind TEXT NOT NULL,
  reason TEXT NOT NULL,
  rawValue TEXT,
  UNIQUE(runId, seq),
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_run_errors_runId ON run_errors(runId);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) RecordRun(res internal.RunResult, sourceDir string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	filtered := 0
	for _, f := range res.Files {
		filtered += f.Filtered
	}

	if _, err := tx.Exec(`
INSERT INTO runs (id, startedAt, sourceDir, filesSeen, accepted, filtered, errorCount, outputPath, reportPath)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, res.RunID, res.StartedAt.Format(time.RFC3339), sourceDir, res.FilesSeen, len(res.Records), filtered, len(res.Errors), res.OutputPath, res.ReportPath); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO run_errors (runId, seq, file, rowNo, kind, reason, rawValue)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range res.Errors {
		if _, err := stmt.Exec(res.RunID, i, e.File, e.RowNo, string(e.Kind), e.Reason, e.Raw); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, lastRunKey, res.RunID); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	rows, err := d.conn.Query(`
SELECT id, startedAt, sourceDir, filesSeen, accepted, filtered, errorCount, outputPath, COALESCE(reportPath, '')
FROM runs ORDER BY startedAt DESC, createdAt DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var r internal.RunRow
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.SourceDir, &r.FilesSeen, &r.Accepted, &r.Filtered, &r.ErrorCount, &r.OutputPath, &r.ReportPath); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) ListRunErrors(runID string) ([]internal.ErrorEntry, error) {
	rows, err := d.conn.Query(`
SELECT file, rowNo, kind, reason, COALESCE(rawValue, '')
FROM run_errors WHERE runId = ? ORDER BY seq ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ErrorEntry
	for rows.Next() {
		var e internal.ErrorEntry
		var kind string
		if err := rows.Scan(&e.File, &e.RowNo, &kind, &e.Reason, &e.Raw); err != nil {
			return nil, err
		}
		e.Kind = internal.ErrorKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// LastRunID returns "" when no run has been recorded yet.
func (d *DB) LastRunID() (string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, lastRunKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}
