package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// SaveJob inserts or updates a job row.
func (s *Store) SaveJob(ctx context.Context, job models.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, title, kind, schedule) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET title = excluded.title, kind = excluded.kind, schedule = excluded.schedule`,
		job.ID, job.Title, job.Kind, job.Schedule)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// CreateTasks inserts a task batch with its dependency edges in one
// transaction; a failure on any row leaves nothing behind.
func (s *Store) CreateTasks(ctx context.Context, tasks []models.Task) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, task := range tasks {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO tasks (id, job_id, kind, payload, status, scheduled_at) VALUES (?, ?, ?, ?, ?, ?)`,
				task.ID, task.JobID, task.Kind, string(task.Payload), string(task.Status), task.ScheduledAt)
			if err != nil {
				return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
			}
			for _, parent := range task.Parents {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO task_deps (parent_task, child_task) VALUES (?, ?)`, parent, task.ID)
				if err != nil {
					return fmt.Errorf("failed to insert dependency %s -> %s: %w", parent, task.ID, err)
				}
			}
		}
		return nil
	})
}

// MarkTaskStarted records the scheduled → started transition.
func (s *Store) MarkTaskStarted(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, started_at = ? WHERE id = ?`,
		string(models.TaskStarted), at, id)
	if err != nil {
		return fmt.Errorf("failed to mark task started: %w", err)
	}
	return requireRow(result, id)
}

// MarkTaskEnded records the terminal transition. Rows that already ended are
// left untouched: a task is immutable once ended.
func (s *Store) MarkTaskEnded(ctx context.Context, id string, status models.TaskStatus, errMsg string, at time.Time) error {
	if !status.Ended() {
		return fmt.Errorf("%w: %q is not a terminal status", shared.ErrInvalidArgument, status)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, error = ?, ended_at = ? WHERE id = ? AND status NOT IN (?, ?)`,
		string(status), errMsg, at, id, string(models.TaskSucceeded), string(models.TaskFailed))
	if err != nil {
		return fmt.Errorf("failed to mark task ended: %w", err)
	}
	return requireRow(result, id)
}

// GetTask retrieves a task with its parent edges.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, job_id, kind, payload, status, scheduled_at, started_at, ended_at, error FROM tasks WHERE id = ?`, id)

	var task models.Task
	var payload, status string
	var startedAt, endedAt sql.NullTime
	err := row.Scan(&task.ID, &task.JobID, &task.Kind, &payload, &status, &task.ScheduledAt, &startedAt, &endedAt, &task.Error)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	task.Payload = []byte(payload)
	task.Status = models.TaskStatus(status)
	if startedAt.Valid {
		task.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		task.EndedAt = endedAt.Time
	}

	rows, err := s.db.QueryContext(ctx, `SELECT parent_task FROM task_deps WHERE child_task = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task dependencies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var parent string
		if err := rows.Scan(&parent); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		task.Parents = append(task.Parents, parent)
	}
	return &task, rows.Err()
}

func requireRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	return nil
}
