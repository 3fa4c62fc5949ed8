// package scheduler implements the recurring job scheduler, the task
// dependency graph and the worker pool that executes enrichment tasks.
//
// A [models.Job] holds a cron schedule; when it fires, an enumerate function
// materializes one task per affected entity. Tasks are persisted through the
// [Store] collaborator, wired into a DAG, and handed to a fixed-size worker
// pool. A task runs only after all of its parents ended successfully.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// Handler executes one task body. The payload arrives as the task's raw
// JSON; handlers decode it themselves.
type Handler func(ctx context.Context, task models.Task) error

// Registry maps task kinds to handlers. New task kinds register a handler
// once at startup; execution of an unregistered kind fails that task.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to a task kind. Registering the same kind twice
// is a programming error and is rejected.
func (r *Registry) Register(kind string, handler Handler) error {
	if kind == "" || handler == nil {
		return fmt.Errorf("%w: task kind and handler are required", shared.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[kind]; exists {
		return fmt.Errorf("%w: handler for %q already registered", shared.ErrInvalidArgument, kind)
	}
	r.handlers[kind] = handler
	return nil
}

// Lookup returns the handler for a kind.
func (r *Registry) Lookup(kind string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownTaskKind, kind)
	}
	return handler, nil
}
