package scheduler

import (
	"fmt"
	"sync"

	"github.com/desertthunder/tunesmith/internal/shared"
)

// node is one task in the dependency arena, indexed by id with parent and
// child adjacency lists.
type node struct {
	parents  []string
	children []string
}

// dag is the task dependency graph. Acyclicity is enforced when an edge is
// inserted, not at execution time: an edge parent→child is rejected if the
// parent is already reachable from the child.
type dag struct {
	mu    sync.Mutex
	nodes map[string]*node
}

func newDAG() *dag {
	return &dag{nodes: make(map[string]*node)}
}

// add registers a task id. Adding an existing id is a no-op.
func (d *dag) add(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ensure(id)
}

func (d *dag) ensure(id string) *node {
	n, ok := d.nodes[id]
	if !ok {
		n = &node{}
		d.nodes[id] = n
	}
	return n
}

// addEdge inserts a dependency edge: child must not start before parent has
// ended successfully. Returns [shared.ErrCyclicDependency] if the edge would
// close a cycle.
func (d *dag) addEdge(parent, child string) error {
	if parent == child {
		return fmt.Errorf("%w: %s depends on itself", shared.ErrCyclicDependency, child)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reachable(parent, child) {
		return fmt.Errorf("%w: %s already reaches %s", shared.ErrCyclicDependency, child, parent)
	}

	p := d.ensure(parent)
	c := d.ensure(child)
	p.children = append(p.children, child)
	c.parents = append(c.parents, parent)
	return nil
}

// reachable reports whether target can be reached from start by following
// child edges. Caller holds the lock.
func (d *dag) reachable(target, start string) bool {
	if start == target {
		return true
	}
	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := d.nodes[id]
		if !ok {
			continue
		}
		for _, child := range n.children {
			if child == target {
				return true
			}
			if !seen[child] {
				seen[child] = true
				stack = append(stack, child)
			}
		}
	}
	return false
}

// children returns a copy of the child list for id.
func (d *dag) children(id string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[id]
	if !ok {
		return nil
	}
	out := make([]string, len(n.children))
	copy(out, n.children)
	return out
}

// parents returns a copy of the parent list for id.
func (d *dag) parents(id string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[id]
	if !ok {
		return nil
	}
	out := make([]string, len(n.parents))
	copy(out, n.parents)
	return out
}
