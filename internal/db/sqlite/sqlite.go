// Package sqlite persists student snapshots to an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ukane-philemon/srms/internal/student"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS students (
	id     INTEGER PRIMARY KEY,
	name   TEXT NOT NULL,
	email  TEXT NOT NULL DEFAULT '',
	course TEXT NOT NULL,
	score  REAL NOT NULL
)`

// Check that *SQLite implements student.Persister.
var _ student.Persister = (*SQLite)(nil)

// SQLite implements student.Persister.
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
}

// New opens (creating if needed) the database at path and returns a new
// instance of *SQLite.
func New(ctx context.Context, path string, logger *zap.Logger) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite database path is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open error: %w", err)
	}

	// A single connection keeps in-memory databases and transactions on the
	// same handle.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema error: %w", err)
	}

	return &SQLite{
		db:  db,
		log: logger.Named("sqlite"),
	}, nil
}

// Load implements student.Persister. Rows that fail validation or repeat an
// id already in repo are skipped and logged.
func (s *SQLite) Load(ctx context.Context, repo student.Repository) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, course, score FROM students ORDER BY id`)
	if err != nil {
		return fmt.Errorf("db.QueryContext error: %w", err)
	}
	defer rows.Close()

	var loaded, skipped int
	for rows.Next() {
		var r student.Record
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Course, &r.Score); err != nil {
			return fmt.Errorf("rows.Scan error: %w", err)
		}

		st, err := student.FromRecord(r)
		if err == nil {
			err = repo.Add(st)
		}
		if err != nil {
			skipped++
			s.log.Warn("Skipping invalid record", zap.Int("id", r.ID), zap.Error(err))
			continue
		}
		loaded++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows.Err error: %w", err)
	}

	s.log.Debug("Load completed", zap.Int("records", loaded), zap.Int("skipped", skipped))
	return nil
}

// Save implements student.Persister. The table is replaced in a single
// transaction.
func (s *SQLite) Save(ctx context.Context, repo student.Repository) error {
	students := repo.Students()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.BeginTx error: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM students`); err != nil {
		return fmt.Errorf("delete students error: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO students (id, name, email, course, score) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("tx.PrepareContext error: %w", err)
	}
	defer stmt.Close()

	for _, st := range students {
		r := st.Record()
		if _, err := stmt.ExecContext(ctx, r.ID, r.Name, r.Email, r.Course, r.Score); err != nil {
			return fmt.Errorf("insert student %d error: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tx.Commit error: %w", err)
	}

	s.log.Debug("Save completed", zap.Int("records", len(students)))
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
