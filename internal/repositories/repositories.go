// package repositories provides the sqlite-backed persistence layer for
// jobs, tasks and the enrichment targets they operate on.
//
// The scheduler and the enrichment task bodies depend on interfaces; this
// package is the concrete store behind them. All batch writes happen inside
// scoped transactions.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	kind TEXT NOT NULL,
	schedule TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	job_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL,
	status TEXT NOT NULL,
	scheduled_at TIMESTAMP NOT NULL,
	started_at TIMESTAMP,
	ended_at TIMESTAMP,
	error TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (job_id) REFERENCES jobs (id)
);

CREATE TABLE IF NOT EXISTS task_deps (
	parent_task TEXT NOT NULL,
	child_task TEXT NOT NULL,
	PRIMARY KEY (parent_task, child_task),
	FOREIGN KEY (parent_task) REFERENCES tasks (id),
	FOREIGN KEY (child_task) REFERENCES tasks (id)
);

CREATE TABLE IF NOT EXISTS artists (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS scrobbles (
	id TEXT PRIMARY KEY,
	track TEXT NOT NULL,
	artist TEXT NOT NULL,
	album TEXT NOT NULL DEFAULT '',
	listened_at TIMESTAMP NOT NULL,
	UNIQUE (track, artist, listened_at)
);
`

// Store wraps the database handle shared by all repositories.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store and ensures the schema exists.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
