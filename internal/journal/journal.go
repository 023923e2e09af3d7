// Package journal keeps a local record of every backend call the server
// made: call id, method, outcome and timing. It never stores request
// parameters or results, only what is needed to trace a call id back to
// what happened.
//
// The journal is an optional subsystem. If it cannot be opened the server
// logs a warning and runs without it.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/eva-mcp/internal/rpc"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// Entry is one recorded call.
type Entry struct {
	ID         int64   `json:"id"`
	CallID     string  `json:"callid,omitempty"`
	Method     string  `json:"method"`
	Outcome    string  `json:"outcome"`
	Code       *int    `json:"code,omitempty"`
	StatusCode int     `json:"status_code,omitempty"`
	Error      *string `json:"error,omitempty"`
	DurationMS int64   `json:"duration_ms"`
	StartedAt  string  `json:"started_at"`
}

// Stats aggregates the journal.
type Stats struct {
	TotalCalls int64            `json:"total_calls"`
	ByOutcome  map[string]int64 `json:"by_outcome"`
	LastCallAt *string          `json:"last_call_at,omitempty"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed journal.
type Store struct {
	db     *sql.DB
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open creates the parent directory if needed, opens the database with WAL
// mode and runs migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// Close closes the database. Later calls return the first result.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rpc_calls (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			callid      TEXT,
			method      TEXT    NOT NULL,
			outcome     TEXT    NOT NULL,
			code        INTEGER,
			status_code INTEGER NOT NULL DEFAULT 0,
			error       TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			started_at  TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_rpc_calls_method ON rpc_calls(method, id);
		CREATE INDEX IF NOT EXISTS idx_rpc_calls_callid ON rpc_calls(callid);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// Record stores one call record and returns its row id.
func (s *Store) Record(rec rpc.CallRecord) (int64, error) {
	var code any
	if rec.HasCode {
		code = rec.Code
	}
	res, err := s.db.Exec(
		`INSERT INTO rpc_calls (callid, method, outcome, code, status_code, error, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(rec.CallID),
		rec.Method,
		string(rec.Outcome),
		code,
		rec.StatusCode,
		nullableString(rec.Error),
		rec.Duration.Milliseconds(),
		rec.Started.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("journal: insert: %w", err)
	}
	return res.LastInsertId()
}

// ObserveCall implements rpc.Observer. Write failures are logged, never
// surfaced: the journal must not break a tool call.
func (s *Store) ObserveCall(rec rpc.CallRecord) {
	if _, err := s.Record(rec); err != nil {
		s.logger.Warn("journal write failed", zap.String("method", rec.Method), zap.Error(err))
	}
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// Recent returns the newest entries first. method filters exactly when set.
func (s *Store) Recent(limit int, method string) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, callid, method, outcome, code, status_code, error, duration_ms, started_at
		FROM rpc_calls`
	args := []any{}
	if method != "" {
		query += " WHERE method = ?"
		args = append(args, method)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var (
			e      Entry
			callID sql.NullString
			code   sql.NullInt64
			errMsg sql.NullString
		)
		if err := rows.Scan(&e.ID, &callID, &e.Method, &e.Outcome, &code, &e.StatusCode, &errMsg, &e.DurationMS, &e.StartedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.CallID = callID.String
		if code.Valid {
			c := int(code.Int64)
			e.Code = &c
		}
		if errMsg.Valid {
			e.Error = &errMsg.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns totals by outcome.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{ByOutcome: map[string]int64{}}

	rows, err := s.db.Query("SELECT outcome, COUNT(*) FROM rpc_calls GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("journal: stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			outcome string
			n       int64
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("journal: stats scan: %w", err)
		}
		stats.ByOutcome[outcome] = n
		stats.TotalCalls += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var last sql.NullString
	_ = s.db.QueryRow("SELECT MAX(started_at) FROM rpc_calls").Scan(&last)
	if last.Valid {
		stats.LastCallAt = &last.String
	}
	return stats, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
