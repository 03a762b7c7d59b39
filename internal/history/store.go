// Package history persists completed evaluations to SQLite and can
// replay them to verify the engine still derives the same graph.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/engine"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/trace"
)

//go:embed schema.sql
var schemaSQL string

// Record is one stored evaluation. Graph is nil on listing results;
// Get loads and re-validates it.
type Record struct {
	ID          string
	CreatedAt   time.Time
	Operation   string
	Input       string
	Output      string
	Steps       int
	Fingerprint string
	Graph       *trace.Graph
}

// NotFoundError reports a lookup of a missing record.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("history record %q not found", e.ID)
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Store is the history database. Safe for concurrent use; SQLite is
// opened with a single writer connection.
type Store struct {
	db  *sql.DB
	gen TokenGenerator
	now func() time.Time
}

// Open creates or opens the history database at path. ":memory:" gives
// an ephemeral store for tests.
//
// The connection is configured with WAL journaling, NORMAL synchronous
// mode and a 5-second busy timeout, matching SQLite good practice for
// a single-writer workload.
func Open(path string, gen TokenGenerator) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	// One writer avoids SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, gen: gen, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores a completed result and returns the record id.
func (s *Store) Save(ctx context.Context, res *engine.Result) (string, error) {
	fp, err := trace.Fingerprint(res.Graph)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	graphJSON, err := json.Marshal(res.Graph)
	if err != nil {
		return "", fmt.Errorf("marshal graph: %w", err)
	}

	id := s.gen.Generate()
	createdAt := s.now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, operation, input, output, steps, fingerprint, graph_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, createdAt, res.Operation, res.Input, res.Output, res.Graph.Len(), fp, string(graphJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Get loads a record with its graph. The graph is re-validated and
// sealed before it is returned, and its fingerprint is checked against
// the stored one, so a corrupted row cannot masquerade as a valid
// derivation.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, operation, input, output, steps, fingerprint, graph_json
		FROM runs WHERE id = ?`, id)

	var rec Record
	var createdAt, graphJSON string
	err := row.Scan(&rec.ID, &createdAt, &rec.Operation, &rec.Input, &rec.Output,
		&rec.Steps, &rec.Fingerprint, &graphJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	graph := &trace.Graph{}
	if err := json.Unmarshal([]byte(graphJSON), graph); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	if err := graph.Seal(); err != nil {
		return nil, fmt.Errorf("validate stored graph %s: %w", id, err)
	}
	fp, err := trace.Fingerprint(graph)
	if err != nil {
		return nil, err
	}
	if fp != rec.Fingerprint {
		return nil, fmt.Errorf("stored graph %s does not match its fingerprint", id)
	}
	rec.Graph = graph
	return &rec, nil
}

// List returns the most recent records, newest first, without graphs.
// A non-positive limit defaults to 20.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, operation, input, output, steps, fingerprint
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var createdAt string
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Operation, &rec.Input,
			&rec.Output, &rec.Steps, &rec.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ReplayResult is the outcome of re-deriving a stored run.
type ReplayResult struct {
	Record     *Record
	Replayed   *engine.Result
	Match      bool
	ReplayedFP string
}

// Replay re-runs a stored record through the engine and compares graph
// fingerprints. A mismatch means the rule set's behavior has drifted
// since the record was saved.
func (s *Store) Replay(ctx context.Context, id string, e *engine.Engine) (*ReplayResult, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := e.Run(ctx, engine.Request{
		Operation:  rec.Operation,
		Expression: rec.Input,
	})
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", id, err)
	}

	fp, err := trace.Fingerprint(res.Graph)
	if err != nil {
		return nil, err
	}
	return &ReplayResult{
		Record:     rec,
		Replayed:   res,
		Match:      fp == rec.Fingerprint,
		ReplayedFP: fp,
	}, nil
}
