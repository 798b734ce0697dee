package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" sql.DB driver
	"github.com/google/uuid"
)

// Outcome is the terminal state of one recorded execution.
type Outcome string

const (
	OutcomeExecuted  Outcome = "executed"
	OutcomeAbandoned Outcome = "abandoned"
	OutcomeFailed    Outcome = "failed"
)

// Record is one row of the execution ledger.
type Record struct {
	ID          string
	Kind        string
	SubmittedAt time.Time
	ResolvedAt  time.Time
	Outcome     Outcome
	Error       string
}

// NewDB opens (and, for a file path, creates) a DuckDB database.
func NewDB(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("store: open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping duckdb: %w", err)
	}
	return db, nil
}

// Store is the execution ledger facade.
type Store struct {
	db *sql.DB
}

// NewStore wraps an already-migrated DuckDB handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordExecuted appends a successful execution to the ledger.
func (s *Store) RecordExecuted(ctx context.Context, kind string, submittedAt, resolvedAt time.Time) error {
	return s.insert(ctx, Record{
		ID:          uuid.NewString(),
		Kind:        kind,
		SubmittedAt: submittedAt,
		ResolvedAt:  resolvedAt,
		Outcome:     OutcomeExecuted,
	})
}

// RecordFailed appends an execution whose task.Execute observably failed
// (internal/demo's failTask path) to the ledger.
func (s *Store) RecordFailed(ctx context.Context, kind string, submittedAt, resolvedAt time.Time, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.insert(ctx, Record{
		ID:          uuid.NewString(),
		Kind:        kind,
		SubmittedAt: submittedAt,
		ResolvedAt:  resolvedAt,
		Outcome:     OutcomeFailed,
		Error:       msg,
	})
}

// RecordAbandoned appends an abandoned task (never executed) to the ledger.
func (s *Store) RecordAbandoned(ctx context.Context, kind string, submittedAt, resolvedAt time.Time) error {
	return s.insert(ctx, Record{
		ID:          uuid.NewString(),
		Kind:        kind,
		SubmittedAt: submittedAt,
		ResolvedAt:  resolvedAt,
		Outcome:     OutcomeAbandoned,
	})
}

func (s *Store) insert(ctx context.Context, r Record) error {
	var errVal any
	if r.Error != "" {
		errVal = r.Error
	}
	_, err := s.db.ExecContext(ctx, queryInsertExecution,
		r.ID, r.Kind, r.SubmittedAt, r.ResolvedAt, string(r.Outcome), errVal)
	return err
}

// ListOption narrows a List query.
type ListOption func(sq.SelectBuilder) sq.SelectBuilder

// ByOutcome restricts to one or more outcomes.
func ByOutcome(outcomes ...Outcome) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(outcomes) == 0 {
			return b
		}
		return b.Where(sq.Eq{"outcome": outcomes})
	}
}

// ByKind restricts to one or more task kinds.
func ByKind(kinds ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(kinds) == 0 {
			return b
		}
		return b.Where(sq.Eq{"kind": kinds})
	}
}

// WithLimit caps the number of rows returned.
func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit)
	}
}

// WithOffset skips the first offset rows, for pagination alongside WithLimit.
func WithOffset(offset uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Offset(offset)
	}
}

// List returns ledger rows newest-first, narrowed by opts.
func (s *Store) List(ctx context.Context, opts ...ListOption) ([]Record, error) {
	builder := sq.Select("id", "kind", "submitted_at", "resolved_at", "outcome", "error").
		From("executions").
		OrderBy("submitted_at DESC")

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("store: build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var outcome string
		var errVal sql.NullString
		if err := rows.Scan(&r.ID, &r.Kind, &r.SubmittedAt, &r.ResolvedAt, &outcome, &errVal); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		r.Outcome = Outcome(outcome)
		r.Error = errVal.String
		records = append(records, r)
	}
	return records, rows.Err()
}
