package engine

import (
	"context"
	"errors"
	"sync"
)

// Exec is called once per PlannedAction that isn't a noop or a warned
// orphan. The caller is responsible for resolving references, invoking
// the right capability method, and checkpointing the mirror; Run only
// owns the scheduling of when each node is allowed to start.
type Exec func(ctx context.Context, action PlannedAction) error

// RunOptions controls how many nodes Run lets execute at once.
type RunOptions struct {
	// MaxConcurrency bounds how many nodes run at the same time.
	// A value <= 1 runs the schedule strictly sequentially.
	MaxConcurrency int
}

// ErrDependencyDeadlock is returned if nodes remain that can never
// become ready because each waits on another scheduled node that has
// not completed, as in a dependency cycle. A dependency key outside the
// executing schedule never blocks: it counts as satisfied. Validation
// before Run is called should catch cycles first; this exists as a
// backstop so Run never hangs.
var ErrDependencyDeadlock = errors.New("engine: schedule deadlocked on an unsatisfiable dependency")

// Run executes every non-noop, non-orphan action in sch, honoring each
// action's DependsOn edges: a node does not start until every key it
// depends on has finished successfully. This generalizes the teacher's
// two-wave (creates-then-deletes) semaphore-and-condition-variable
// pattern to arbitrary per-node dependency edges, since a Recreate node
// sits between a plain Create and a plain Destroy in the ordering.
//
// On the first node failure, Run stops starting new nodes, waits for
// in-flight nodes to finish, and returns that failure — no rollback and
// no automatic retry, matching the engine's fail-fast contract.
func Run(ctx context.Context, sch *Schedule, opts RunOptions, exec Exec) error {
	concurrency := opts.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	remaining := make(map[string]PlannedAction)
	for _, a := range sch.Actions {
		if a.Action == ActionNoop || a.Action == ActionWarnOrphan {
			continue
		}
		remaining[a.nodeID()] = a
	}
	if len(remaining) == 0 {
		return nil
	}

	// scheduled is the fixed set of node IDs Run is responsible for, captured
	// once up front. A dependency not in this set (e.g. a noop or an orphan
	// warning) is trivially satisfied; a dependency that is in it blocks its
	// dependent until completed records it done — remaining only tracks "not
	// yet launched," so checking remaining instead of completed would let a
	// still-running or already-launched dependency look satisfied.
	scheduled := make(map[string]bool, len(remaining))
	for k := range remaining {
		scheduled[k] = true
	}

	var (
		mu        sync.Mutex
		cond      = sync.NewCond(&mu)
		completed = make(map[string]bool, len(remaining))
		failed    error
		running   = 0
		sem       = make(chan struct{}, concurrency)
		wg        sync.WaitGroup
	)

	ready := func(a PlannedAction) bool {
		for _, dep := range a.DependsOn {
			if scheduled[dep] && !completed[dep] {
				return false
			}
		}
		return true
	}

	launch := func(a PlannedAction) {
		running++
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Acquire the concurrency token inside the goroutine, never while
			// mu is held by the scheduling loop below. A batch of startable
			// nodes wider than concurrency would otherwise block the
			// (concurrency+1)-th launch on a full sem buffer with mu still
			// locked, and the goroutines already running can never drain sem
			// because their own mu.Lock() below would block forever too.
			sem <- struct{}{}
			defer func() { <-sem }()

			err := ctx.Err()
			if err == nil {
				err = exec(ctx, a)
			}

			mu.Lock()
			running--
			if err != nil {
				if failed == nil {
					failed = err
				}
			} else {
				completed[a.nodeID()] = true
			}
			cond.Broadcast()
			mu.Unlock()
		}()
	}

	mu.Lock()
	for len(remaining) > 0 || running > 0 {
		if failed == nil {
			var startable []PlannedAction
			for k, a := range remaining {
				if ready(a) {
					startable = append(startable, a)
					delete(remaining, k)
				}
			}
			if len(startable) == 0 && running == 0 && len(remaining) > 0 {
				failed = ErrDependencyDeadlock
				break
			}
			for _, a := range startable {
				launch(a)
			}
		}
		if len(remaining) == 0 && running == 0 {
			break
		}
		if running > 0 {
			cond.Wait()
		} else {
			break
		}
	}
	mu.Unlock()

	wg.Wait()

	if failed != nil {
		return failed
	}
	return ctx.Err()
}
