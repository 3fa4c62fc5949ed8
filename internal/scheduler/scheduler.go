package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/robfig/cron/v3"
)

// Store is the persistence collaborator the scheduler materializes tasks
// through. CreateTasks must be atomic: either the whole batch with its
// dependency edges is recorded, or none of it.
type Store interface {
	SaveJob(ctx context.Context, job models.Job) error
	CreateTasks(ctx context.Context, tasks []models.Task) error
	MarkTaskStarted(ctx context.Context, id string, at time.Time) error
	MarkTaskEnded(ctx context.Context, id string, status models.TaskStatus, errMsg string, at time.Time) error
}

// TaskSpec describes one task to materialize when a job fires. DependsOn
// holds indices of earlier specs in the same batch, which keeps batches
// acyclic by construction.
type TaskSpec struct {
	Kind      string
	Payload   any
	Duration  time.Duration
	DependsOn []int
}

// EnumerateFunc produces the task specs for one firing of a job, one per
// affected domain entity.
type EnumerateFunc func(ctx context.Context) ([]TaskSpec, error)

type registeredJob struct {
	job       models.Job
	enumerate EnumerateFunc
}

// Scheduler evaluates recurring job schedules and materializes tasks into
// the [Store] and the worker [Pool].
type Scheduler struct {
	cron   *cron.Cron
	pool   *Pool
	store  Store
	logger *log.Logger
}

// NewScheduler creates a scheduler backed by the given store and pool.
// Schedule expressions use six cron fields, seconds first.
func NewScheduler(store Store, pool *Pool, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		pool:   pool,
		store:  store,
		logger: shared.WithLogger(logger, "component", "scheduler"),
	}
}

// RegisterJob binds a recurring job to its enumerate function. A malformed
// schedule expression fails this registration only; other jobs keep
// running.
func (s *Scheduler) RegisterJob(job models.Job, enumerate EnumerateFunc) error {
	if job.Schedule == "" {
		return fmt.Errorf("%w: job %q has no schedule", shared.ErrInvalidSchedule, job.Kind)
	}
	if job.ID == "" {
		job.ID = shared.GenerateID()
	}

	registered := registeredJob{job: job, enumerate: enumerate}
	_, err := s.cron.AddFunc(job.Schedule, func() {
		if err := s.Trigger(context.Background(), registered.job, registered.enumerate); err != nil {
			s.logger.Warn("could not schedule tasks for recurring job", "job", job.Kind, "err", err)
			return
		}
		s.logger.Info("scheduled tasks for recurring job", "job", job.Kind)
	})
	if err != nil {
		return fmt.Errorf("%w: %q for job %q: %v", shared.ErrInvalidSchedule, job.Schedule, job.Kind, err)
	}

	if err := s.store.SaveJob(context.Background(), job); err != nil {
		return fmt.Errorf("failed to persist job %q: %w", job.Kind, err)
	}
	return nil
}

// Trigger fires a job immediately: enumerates its task specs, persists the
// batch atomically, and submits it to the worker pool. Exposed for one-shot
// runs next to the cron path.
func (s *Scheduler) Trigger(ctx context.Context, job models.Job, enumerate EnumerateFunc) error {
	specs, err := enumerate(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate entities for job %q: %w", job.Kind, err)
	}
	if len(specs) == 0 {
		return nil
	}

	tasks, err := materialize(job, specs)
	if err != nil {
		return err
	}

	if err := s.store.CreateTasks(ctx, tasks); err != nil {
		return fmt.Errorf("failed to persist task batch for job %q: %w", job.Kind, err)
	}
	if err := s.pool.Submit(tasks); err != nil {
		return fmt.Errorf("failed to queue task batch for job %q: %w", job.Kind, err)
	}
	return nil
}

// materialize turns specs into persisted task records, resolving batch-local
// dependency indices to task ids.
func materialize(job models.Job, specs []TaskSpec) ([]models.Task, error) {
	now := time.Now().UTC()
	tasks := make([]models.Task, len(specs))
	for i, spec := range specs {
		payload, err := json.Marshal(spec.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload for %q: %w", spec.Kind, err)
		}
		tasks[i] = models.Task{
			ID:          shared.GenerateID(),
			JobID:       job.ID,
			Kind:        spec.Kind,
			Payload:     payload,
			Status:      models.TaskScheduled,
			ScheduledAt: now,
			Duration:    spec.Duration,
		}
	}
	for i, spec := range specs {
		for _, dep := range spec.DependsOn {
			if dep < 0 || dep >= i {
				return nil, fmt.Errorf("%w: spec %d depends on %d", shared.ErrCyclicDependency, i, dep)
			}
			tasks[i].Parents = append(tasks[i].Parents, tasks[dep].ID)
		}
	}
	return tasks, nil
}

// Start begins evaluating schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("schedule evaluation started", "jobs", len(s.cron.Entries()))
}

// Stop halts schedule evaluation and stops the pool, draining queued tasks
// without corrupting in-flight ones.
func (s *Scheduler) Stop() {
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.pool.Stop()
}
