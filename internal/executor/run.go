package executor

import (
	"context"

	"github.com/me/taskdag/internal/contracts"
)

// Enqueue accepts spec for execution under handleID. It returns as soon as
// the task is scheduled; the task itself runs on its own goroutine once
// every dependency in spec.Options.SyncDeps has completed.
func (e *Executor) Enqueue(ctx context.Context, handleID string, spec contracts.TaskSpec) error {
	own := e.chanFor(handleID)
	deps := make([]chan struct{}, 0, len(spec.Options.SyncDeps))
	for dep := range spec.Options.SyncDeps {
		deps = append(deps, e.chanFor(dep))
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(own)

		for _, d := range deps {
			select {
			case <-d:
			case <-ctx.Done():
				e.recordErr(handleID, ctx.Err())
				return
			}
		}

		e.logger.Debug("task starting", "handle", handleID, "task", spec.Name)
		result, err := invoke(ctx, e, spec)
		if err != nil {
			e.recordErr(handleID, err)
			return
		}
		e.recordResult(handleID, result)
		e.logger.Debug("task finished", "handle", handleID, "task", spec.Name)
	}()
	return nil
}

// Wait blocks until every enqueued task has run, returning the first
// failure observed (others are logged and suppressed).
func (e *Executor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.firstErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result returns the value handleID's task finished with, if any.
func (e *Executor) Result(handleID string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.results[handleID]
	return v, ok
}
