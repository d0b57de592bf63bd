// Package mesh stores the live refinement mesh as a shared graph: one node
// per element, one adjacency edge per shared geometric edge. Concurrent
// tasks claim exclusive per-node ownership through a non-blocking try-lock;
// contention surfaces as ErrConflict so the caller can abort and retry
// instead of blocking.
package mesh

import (
	"errors"
	"sync"
	"sync/atomic"

	"meshforge/internal/geom"
)

var (
	// ErrConflict is returned when a node is owned by another in-flight
	// task. It is transient: the task should release everything it holds
	// and restart from its seed.
	ErrConflict = errors.New("mesh: node locked by concurrent task")

	// ErrCorrupt is returned on structural invariant violations. It is
	// fatal: the whole refinement run must stop.
	ErrCorrupt = errors.New("mesh: structural invariant violated")
)

// Node identifies one live element in the shared mesh. The owner field is
// the id of the task currently holding the node, or zero when free.
type Node struct {
	el    *geom.Element
	owner atomic.Int64
}

// Data returns the node's element without acquiring ownership. Reserved
// for single-threaded phases (loading, scanning, verification) and for
// committer steps that already hold the node.
func (n *Node) Data() *geom.Element { return n.el }

// Graph is the shared mesh graph. The topology maps are guarded by mu;
// logical isolation between refinement tasks comes from per-node ownership,
// not from mu.
type Graph struct {
	mu    sync.RWMutex
	nodes map[*Node]struct{}
	adj   map[*Node]map[*Node]struct{}

	taskSeq atomic.Int64
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[*Node]struct{}),
		adj:   make(map[*Node]map[*Node]struct{}),
	}
}

// AddNode inserts a detached node into the live graph.
func (g *Graph) AddNode(n *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[n] = struct{}{}
	if g.adj[n] == nil {
		g.adj[n] = make(map[*Node]struct{})
	}
}

// RemoveNode deletes a node and all adjacency touching it.
func (g *Graph) RemoveNode(n *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for nb := range g.adj[n] {
		delete(g.adj[nb], n)
	}
	delete(g.adj, n)
	delete(g.nodes, n)
}

// AddEdge records adjacency between a and b in both directions.
func (g *Graph) AddEdge(a, b *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.adj[a] == nil {
		g.adj[a] = make(map[*Node]struct{})
	}
	if g.adj[b] == nil {
		g.adj[b] = make(map[*Node]struct{})
	}
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
}

// Contains reports whether n is currently part of the live graph.
func (g *Graph) Contains(n *Node) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[n]
	return ok
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Nodes returns a snapshot of the live node set.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Degree returns the number of neighbors of n without acquiring ownership.
func (g *Graph) Degree(n *Node) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.adj[n])
}

// Task is the per-task view of the graph. Every locked accessor records
// the nodes it claimed so Release can drop them all at once, on success
// and on abort alike.
type Task struct {
	g    *Graph
	id   int64
	held []*Node
}

// BeginTask opens a new task-scoped view with a fresh ownership id.
func (g *Graph) BeginTask() *Task {
	return &Task{g: g, id: g.taskSeq.Add(1)}
}

// lock claims exclusive ownership of n. Reentrant within the same task.
func (t *Task) lock(n *Node) error {
	if n.owner.Load() == t.id {
		return nil
	}
	if !n.owner.CompareAndSwap(0, t.id) {
		return ErrConflict
	}
	t.held = append(t.held, n)
	return nil
}

// Release drops every node ownership the task accumulated.
func (t *Task) Release() {
	for _, n := range t.held {
		n.owner.Store(0)
	}
	t.held = nil
}

// Held returns how many nodes the task currently owns.
func (t *Task) Held() int { return len(t.held) }

// NewNode creates a detached node owned by this task. The node becomes
// visible to other tasks only after AddNode, and stays owned until Release.
func (t *Task) NewNode(el *geom.Element) *Node {
	n := &Node{el: el}
	n.owner.Store(t.id)
	t.held = append(t.held, n)
	return n
}

// Element claims n and returns its element.
func (t *Task) Element(n *Node) (*geom.Element, error) {
	if err := t.lock(n); err != nil {
		return nil, err
	}
	return n.el, nil
}

// Contains claims n and reports whether it is still in the live graph.
// A vanished node is a normal outcome under concurrent refinement, not an
// error.
func (t *Task) Contains(n *Node) (bool, error) {
	if err := t.lock(n); err != nil {
		return false, err
	}
	return t.g.Contains(n), nil
}

// Neighbors claims n and returns a snapshot of its adjacency.
func (t *Task) Neighbors(n *Node) ([]*Node, error) {
	if err := t.lock(n); err != nil {
		return nil, err
	}
	t.g.mu.RLock()
	defer t.g.mu.RUnlock()
	out := make([]*Node, 0, len(t.g.adj[n]))
	for nb := range t.g.adj[n] {
		out = append(out, nb)
	}
	return out, nil
}

// The committer variants below reuse ownership acquired earlier in the
// task and do not re-validate it; conflict freedom is the try-lock's job.

// RemoveNode removes an owned node from the live graph.
func (t *Task) RemoveNode(n *Node) { t.g.RemoveNode(n) }

// AddNode publishes an owned node into the live graph.
func (t *Task) AddNode(n *Node) { t.g.AddNode(n) }

// AddEdge records adjacency between two owned nodes.
func (t *Task) AddEdge(a, b *Node) { t.g.AddEdge(a, b) }
