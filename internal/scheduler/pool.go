package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// taskState tracks a submitted task and how many of its parents have not yet
// succeeded.
type taskState struct {
	task    models.Task
	waiting int
}

// Pool is a fixed-size worker pool drawing from one shared, unordered queue.
// A task becomes runnable when every parent has succeeded; a failed parent
// marks its descendants as skipped failures instead of running them. One
// task's failure never stops the other workers.
type Pool struct {
	size     int
	store    Store
	registry *Registry
	logger   *log.Logger
	graph    *dag

	mu      sync.Mutex
	cond    *sync.Cond
	pending []string
	states  map[string]*taskState
	closed  bool
	wg      sync.WaitGroup
}

// NewPool creates a worker pool. Size is clamped to at least one worker.
func NewPool(size int, store Store, registry *Registry, logger *log.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	p := &Pool{
		size:     size,
		store:    store,
		registry: registry,
		logger:   shared.WithLogger(logger, "component", "pool"),
		graph:    newDAG(),
		states:   make(map[string]*taskState),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Start launches the workers. They run until [Pool.Stop] is called or ctx is
// canceled; the queued backlog is drained before Stop returns.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	go func() {
		<-ctx.Done()
		p.Stop()
	}()
}

// Stop ceases acceptance of new tasks and blocks until the workers have
// drained the queue. In-flight tasks finish normally. Safe to call twice.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit registers a batch of tasks and their dependency edges, then queues
// every task whose parents are already satisfied. Edges that would close a
// cycle reject the whole batch before anything is queued.
func (p *Pool) Submit(tasks []models.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return shared.ErrSchedulerStopped
	}

	for _, task := range tasks {
		p.graph.add(task.ID)
		for _, parent := range task.Parents {
			if err := p.graph.addEdge(parent, task.ID); err != nil {
				return err
			}
		}
	}

	for _, task := range tasks {
		state := &taskState{task: task}
		for _, parent := range task.Parents {
			ps, known := p.states[parent]
			if !known || !ps.task.Status.Ended() {
				state.waiting++
			} else if ps.task.Status == models.TaskFailed {
				// Parent already failed; the child will be skipped when the
				// failure propagates, but it was submitted afterwards, so
				// skip it here.
				state.waiting = -1
				break
			}
		}
		p.states[task.ID] = state

		if state.waiting == 0 {
			p.pending = append(p.pending, task.ID)
			p.cond.Signal()
		}
	}

	for _, task := range tasks {
		if state := p.states[task.ID]; state.waiting < 0 {
			p.skipLocked(task.ID, "parent task failed")
		}
	}
	return nil
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.pending) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		taskID := p.pending[0]
		p.pending = p.pending[1:]
		p.mu.Unlock()

		p.execute(ctx, id, taskID)
	}
}

// execute runs one task body and reports the outcome. Failures are isolated
// to the task and its descendants.
func (p *Pool) execute(ctx context.Context, worker int, taskID string) {
	p.mu.Lock()
	state, ok := p.states[taskID]
	p.mu.Unlock()
	if !ok {
		p.logger.Error("queued task has no state", "task", taskID)
		return
	}
	task := state.task

	logger := shared.WithLogger(p.logger, "worker", worker, "task", task.ID, "kind", task.Kind)

	task.Status = models.TaskStarted
	task.StartedAt = time.Now().UTC()
	if err := p.store.MarkTaskStarted(ctx, task.ID, task.StartedAt); err != nil {
		logger.Error("could not record task start", "err", err)
	}

	err := p.run(ctx, task)

	task.EndedAt = time.Now().UTC()
	if err != nil {
		task.Status = models.TaskFailed
		task.Error = err.Error()
		logger.Warn("task failed", "err", err, "elapsed", task.EndedAt.Sub(task.StartedAt))
	} else {
		task.Status = models.TaskSucceeded
		logger.Info("task completed", "elapsed", task.EndedAt.Sub(task.StartedAt))
	}
	if storeErr := p.store.MarkTaskEnded(ctx, task.ID, task.Status, task.Error, task.EndedAt); storeErr != nil {
		logger.Error("could not record task end", "err", storeErr)
	}

	p.mu.Lock()
	state.task = task
	if err != nil {
		for _, child := range p.graph.children(task.ID) {
			p.skipLocked(child, "parent task failed")
		}
	} else {
		p.releaseChildrenLocked(task.ID)
	}
	p.mu.Unlock()
}

// run resolves the handler and invokes it under the task's duration hint.
func (p *Pool) run(ctx context.Context, task models.Task) error {
	handler, err := p.registry.Lookup(task.Kind)
	if err != nil {
		return err
	}
	if task.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Duration)
		defer cancel()
	}
	return handler(ctx, task)
}

// releaseChildrenLocked decrements the wait count of id's children and
// queues the ones that became runnable. Caller holds the lock.
func (p *Pool) releaseChildrenLocked(id string) {
	for _, child := range p.graph.children(id) {
		state, ok := p.states[child]
		if !ok || state.task.Status.Ended() {
			continue
		}
		state.waiting--
		if state.waiting == 0 {
			p.pending = append(p.pending, child)
			p.cond.Signal()
		}
	}
}

// skipLocked marks id and every unfinished descendant as a skipped failure.
// Caller holds the lock.
func (p *Pool) skipLocked(id string, reason string) {
	state, ok := p.states[id]
	if !ok || state.task.Status.Ended() {
		return
	}
	now := time.Now().UTC()
	state.task.Status = models.TaskFailed
	state.task.Error = fmt.Sprintf("skipped: %s", reason)
	state.task.EndedAt = now
	if err := p.store.MarkTaskEnded(context.Background(), id, models.TaskFailed, state.task.Error, now); err != nil {
		p.logger.Error("could not record skipped task", "task", id, "err", err)
	}
	p.logger.Warn("task skipped", "task", id, "reason", reason)
	for _, child := range p.graph.children(id) {
		p.skipLocked(child, reason)
	}
}
