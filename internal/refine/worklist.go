package refine

import (
	"sync"

	"meshforge/internal/mesh"
)

// workList is the dynamic bad-element work list. Workers pop LIFO and
// in-flight tasks push newly created bad elements back, so emptiness alone
// does not mean the run is over: the list tracks outstanding work (queued
// plus in-flight) and Pop only reports exhaustion once that reaches zero.
type workList struct {
	mu          sync.Mutex
	cond        *sync.Cond
	items       []*mesh.Node
	outstanding int
	closed      bool
}

func newWorkList() *workList {
	w := &workList{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Push enqueues a seed. Safe to call from in-flight tasks.
func (w *workList) Push(n *mesh.Node) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.items = append(w.items, n)
	w.outstanding++
	w.cond.Signal()
}

// Pop blocks until a seed is available, returning false when the list is
// closed or all outstanding work has drained. Every true return must be
// balanced by a Done call.
func (w *workList) Pop() (*mesh.Node, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.items) == 0 && w.outstanding > 0 && !w.closed {
		w.cond.Wait()
	}
	if w.closed || len(w.items) == 0 {
		return nil, false
	}
	n := w.items[len(w.items)-1]
	w.items = w.items[:len(w.items)-1]
	return n, true
}

// Done marks one popped seed as fully processed, including any pushes the
// task made while running.
func (w *workList) Done() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.outstanding--
	if w.outstanding <= 0 {
		w.cond.Broadcast()
	}
}

// Close wakes all waiters and makes every subsequent Pop return false.
func (w *workList) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.cond.Broadcast()
}

// Len returns the number of queued (not in-flight) seeds.
func (w *workList) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}
