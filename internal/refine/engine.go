// Package refine drives concurrent Delaunay mesh refinement: a fixed pool
// of workers pulls bad-element seeds from a dynamic work list, carves and
// retriangulates a cavity per seed, and commits the replacement under
// optimistic per-node locking. Lock conflicts abort the task and retry it
// from scratch with the same seed; only structural corruption stops a run.
package refine

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"meshforge/internal/cavity"
	"meshforge/internal/geom"
	"meshforge/internal/logging"
	"meshforge/internal/mesh"
)

// ErrTaskBudget is returned when a run exceeds its configured task budget,
// a safety valve against runaway refinement on degenerate input.
var ErrTaskBudget = errors.New("refine: task budget exhausted")

// Config configures a refinement run.
type Config struct {
	Workers  int     // parallel workers; zero means GOMAXPROCS
	MinAngle float64 // quality threshold in degrees; zero means the default
	MaxTasks int64   // max tasks per run; zero means unlimited
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MinAngle <= 0 {
		c.MinAngle = geom.DefaultMinAngle
	}
	return c
}

// Metrics is a snapshot of run counters.
type Metrics struct {
	Tasks        int64 // seeds processed, including no-ops
	Committed    int64 // cavities actually swapped into the graph
	Conflicts    int64 // aborted attempts due to lock contention
	NodesRemoved int64
	NodesAdded   int64
	Rescheduled  int64 // nodes pushed back to the work list by commits
	Duration     time.Duration
}

// Engine runs refinement over one shared mesh graph.
type Engine struct {
	g   *mesh.Graph
	cfg Config
	wl  *workList

	// Cavity scratch is pooled: each task takes one cavity, resets it,
	// and returns it, standing in for a per-task arena.
	pool sync.Pool

	tasks        atomic.Int64
	committed    atomic.Int64
	conflicts    atomic.Int64
	nodesRemoved atomic.Int64
	nodesAdded   atomic.Int64
	rescheduled  atomic.Int64
}

// New builds an engine for the given graph.
func New(g *mesh.Graph, cfg Config) *Engine {
	e := &Engine{
		g:   g,
		cfg: cfg.withDefaults(),
		wl:  newWorkList(),
	}
	e.pool.New = func() interface{} { return cavity.New() }
	return e
}

// Push enqueues a bad-element seed. Exposed for the committer's dynamic
// work generation; Run seeds the list itself by scanning the graph.
func (e *Engine) Push(n *mesh.Node) {
	e.rescheduled.Add(1)
	e.wl.Push(n)
}

// Run refines the mesh until no bad elements remain, the context is
// canceled, or the task budget runs out. It returns the final metrics.
func (e *Engine) Run(ctx context.Context) (Metrics, error) {
	start := time.Now()
	runID := uuid.NewString()[:8]

	seeds := mesh.BadNodes(e.g, e.cfg.MinAngle)
	for _, n := range seeds {
		e.wl.Push(n)
	}
	logging.Refine("run %s: %d seeds, %d workers, min angle %g",
		runID, len(seeds), e.cfg.Workers, e.cfg.MinAngle)

	grp, grpCtx := errgroup.WithContext(ctx)

	// The watcher converts context cancellation (parent cancel or a
	// fatal worker error) into a work list close so that blocked Pops
	// wake up. errgroup cancels grpCtx when Wait returns, so the watcher
	// always exits.
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		<-grpCtx.Done()
		e.wl.Close()
	}()

	for i := 0; i < e.cfg.Workers; i++ {
		grp.Go(func() error { return e.worker(grpCtx) })
	}
	err := grp.Wait()
	<-watcherDone

	m := e.Snapshot()
	m.Duration = time.Since(start)
	if err != nil {
		logging.RefineWarn("run %s failed after %d tasks: %v", runID, m.Tasks, err)
		return m, err
	}
	logging.Refine("run %s done: %d tasks, %d committed, %d conflicts in %v",
		runID, m.Tasks, m.Committed, m.Conflicts, m.Duration)
	return m, nil
}

// Snapshot returns the current counter values.
func (e *Engine) Snapshot() Metrics {
	return Metrics{
		Tasks:        e.tasks.Load(),
		Committed:    e.committed.Load(),
		Conflicts:    e.conflicts.Load(),
		NodesRemoved: e.nodesRemoved.Load(),
		NodesAdded:   e.nodesAdded.Load(),
		Rescheduled:  e.rescheduled.Load(),
	}
}

func (e *Engine) worker(ctx context.Context) error {
	for {
		seed, ok := e.wl.Pop()
		if !ok {
			return ctx.Err()
		}
		err := e.process(seed)
		e.wl.Done()
		if err != nil {
			return err
		}
	}
}

// process runs one seed to completion, transparently retrying aborted
// attempts. Conflicts are invisible above this point.
func (e *Engine) process(seed *mesh.Node) error {
	n := e.tasks.Add(1)
	if e.cfg.MaxTasks > 0 && n > e.cfg.MaxTasks {
		return ErrTaskBudget
	}

	cav := e.pool.Get().(*cavity.Cavity)
	defer e.pool.Put(cav)

	for {
		t := e.g.BeginTask()
		committed, err := e.attempt(cav, t, seed)
		t.Release()
		if err == nil {
			if committed {
				e.committed.Add(1)
			}
			return nil
		}
		if errors.Is(err, mesh.ErrConflict) {
			e.conflicts.Add(1)
			runtime.Gosched()
			continue
		}
		return err
	}
}

// attempt runs the full cavity pipeline once under a fresh task. A false
// return with nil error means the seed no longer needs refining.
func (e *Engine) attempt(cav *cavity.Cavity, t *mesh.Task, seed *mesh.Node) (bool, error) {
	// Seeds are re-pushed defensively and may have been refined away or
	// replaced since they were queued.
	live, err := t.Contains(seed)
	if err != nil {
		return false, err
	}
	if !live {
		return false, nil
	}
	el, err := t.Element(seed)
	if err != nil {
		return false, err
	}
	if !el.BadBelow(e.cfg.MinAngle) {
		return false, nil
	}

	cav.Reset(e.g, t, e.cfg.MinAngle)
	if err := cav.Initialize(seed); err != nil {
		return false, err
	}
	if err := cav.Build(); err != nil {
		return false, err
	}
	if err := cav.ComputePost(); err != nil {
		return false, err
	}
	cav.Update(seed, e.Push)

	e.nodesRemoved.Add(int64(cav.PreCount()))
	e.nodesAdded.Add(int64(cav.PostCount()))
	logging.CommitDebug("cavity committed: dim=%d pre=%d post=%d connections=%d",
		cav.Dim(), cav.PreCount(), cav.PostCount(), len(cav.Connections()))
	return true, nil
}
