package planner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/me/taskdag/internal/access"
	"github.com/me/taskdag/internal/contracts"
	"github.com/me/taskdag/internal/depgraph"
	"github.com/me/taskdag/internal/topology"
)

// copyTask is the function value given to the executor for a synthesised
// copy-in/copy-out task: copy the current contents of src into dst.
//
// handleID is set when value was originally a task handle at synthesis
// time: by the time Run executes (after SyncDeps has been satisfied), the
// producing task has materialised its result, so Run resolves the actual
// value through the executor rather than moving the bare handle pointer.
type copyTask struct {
	mover    contracts.Mover
	executor contracts.Executor
	dst      topology.SpaceID
	src      topology.SpaceID
	value    any
	handleID string
}

func (c copyTask) Run(ctx context.Context) (any, error) {
	value := c.value
	if c.handleID != "" {
		if res, ok := c.executor.Result(c.handleID); ok {
			value = res
		}
	}
	if err := c.mover.CopyTo(ctx, c.dst, c.src, value); err != nil {
		return nil, err
	}
	return value, nil
}

// handleIDOf returns the task handle ID backing v, if v is a task handle.
func handleIDOf(v any) string {
	if h, ok := v.(*access.TaskHandle); ok {
		return h.ID
	}
	return ""
}

// copyIn synthesises and enqueues a copy-in task that brings the current
// contents of pa's value into ourProc's space, ahead of consumer running
// there (spec §4.4(d)+(f) step 2).
func (p *Planner) copyIn(ctx context.Context, pa positionArg, consumer *depgraph.Vertex, ourProc topology.Processor, src topology.SpaceID, result *Result) error {
	// Slot allocation (spec §4.4(d)): if the destination space has no slot
	// for this value yet, the one synchronous suspension point in the
	// planner creates it via Move before the asynchronous copy is
	// scheduled. Folded in here rather than as an eager up-front pass over
	// every (space, value) pair — see DESIGN.md.
	srcProcs := p.topo.Processors(src)
	if len(srcProcs) == 0 {
		return fmt.Errorf("taskdag: no processor attached to space %s", src)
	}
	if _, err := p.mover.Move(ctx, srcProcs[0], ourProc, pa.RawValue); err != nil {
		return fmt.Errorf("taskdag: allocate slot for arg %d in %s: %w", pa.Position, ourProc.Space, err)
	}

	deps := p.writeDeps(pa.Key)
	syncdeps := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		syncdeps[d.Handle.ID] = struct{}{}
	}

	handle := access.NewTaskHandle("copy_" + uuid.New().String())
	spec := contracts.TaskSpec{
		Name: "copy-in:" + consumer.Name,
		Func: copyTask{mover: p.mover, executor: p.executor, dst: ourProc.Space, src: src, value: pa.RawValue, handleID: handleIDOf(pa.RawValue)},
		Args: []contracts.Arg{contracts.NewArg(0, pa.RawValue)},
		Options: contracts.Options{
			SyncDeps: syncdeps,
			Scope:    topology.NewScope(ourProc.ID),
		},
	}
	if err := p.executor.Enqueue(ctx, handle.ID, spec); err != nil {
		return err
	}

	// C becomes the new owner of A's spans; readers are cleared (spec
	// §4.4(f) step 2 — the copy itself doesn't count as a reader).
	copyVertex := &depgraph.Vertex{ID: p.nextSyntheticID(), Handle: handle, Name: spec.Name}
	p.registerOwner(pa.Key, copyVertex, false)
	p.current[pa.Key] = ourProc.Space
	result.CopyInCount++
	return nil
}

// writeback synthesises a copy-out task sending a written value back to
// its origin space, if it's no longer there at region close (spec
// §4.4(g)).
func (p *Planner) writeback(ctx context.Context, key uintptr, result *Result) error {
	origin, hasOrigin := p.origin[key]
	current, hasCurrent := p.current[key]
	if !hasOrigin || !hasCurrent || origin == current {
		return nil
	}

	val, ok := p.valueForKey(key)
	if !ok {
		return fmt.Errorf("taskdag: writeback: no tracked value for key")
	}

	dstProcs := p.topo.Processors(origin)
	if len(dstProcs) == 0 {
		return fmt.Errorf("taskdag: no processor attached to origin space %s", origin)
	}

	deps := p.writeDeps(key)
	syncdeps := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		syncdeps[d.Handle.ID] = struct{}{}
	}

	handle := access.NewTaskHandle("copyout_" + uuid.New().String())
	spec := contracts.TaskSpec{
		Name: "copy-out",
		Func: copyTask{mover: p.mover, executor: p.executor, dst: origin, src: current, value: val, handleID: handleIDOf(val)},
		Args: []contracts.Arg{contracts.NewArg(0, val)},
		Options: contracts.Options{
			SyncDeps: syncdeps,
			Scope:    topology.NewScope(dstProcs[0].ID),
		},
	}
	if err := p.executor.Enqueue(ctx, handle.ID, spec); err != nil {
		return err
	}

	copyVertex := &depgraph.Vertex{ID: p.nextSyntheticID(), Handle: handle, Name: spec.Name}
	p.registerOwner(key, copyVertex, false)
	p.current[key] = origin
	result.CopyOutCount++
	return nil
}

// valueForKey recovers a representative value for a planner-internal key.
// Planner keys are always values also tracked by the recorder that
// produced them, so this is just a thin lookup table built alongside
// origin/current.
func (p *Planner) valueForKey(key uintptr) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}
