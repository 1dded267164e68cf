// Package contracts defines the narrow interfaces the core reaches the
// outside world through (spec §6): the executor contract and the
// transfer-relevant half of the data-move contract. (The alias-relevant
// half, MemorySpans/MayAlias, lives in internal/alias as alias.Oracle.)
package contracts

import (
	"context"

	"github.com/me/taskdag/internal/access"
	"github.com/me/taskdag/internal/topology"
)

// Arg is one positional argument of a task, after C1/C3 have rewritten it
// to point at its placed location (spec §4.4(f) step 2: "Rewrite A in T's
// argument list to refer to remote[our_space][A]").
//
// HandleID is set when the argument was originally a task handle (spec
// §3: "Task handles are themselves values and may appear as arguments to
// later tasks"). Value still holds the raw handle pointer as a fallback,
// but the executor resolves HandleID to that task's materialised result
// immediately before invoking the consumer — safe because SyncDeps
// guarantees the producing task has already finished by then.
type Arg struct {
	Position int
	Value    any
	HandleID string
}

// NewArg builds an Arg for raw, tagging it with the producing task's
// handle ID when raw is a *access.TaskHandle.
func NewArg(position int, raw any) Arg {
	if h, ok := raw.(*access.TaskHandle); ok {
		return Arg{Position: position, Value: raw, HandleID: h.ID}
	}
	return Arg{Position: position, Value: raw}
}

// Options carries the scheduling knobs a TaskSpec is submitted with (spec
// §6 "Executor contract").
type Options struct {
	SyncDeps map[string]struct{} // keys are task handle IDs
	Scope    topology.Scope
}

// TaskSpec describes one computation handed to the executor: its
// function, its (already rewritten) arguments, and its options.
type TaskSpec struct {
	Name    string
	Func    any
	Args    []Arg
	Options Options
}

// Runner is implemented by synthesised copy-in/copy-out tasks so the
// executor can invoke them directly instead of reflecting over user
// function signatures (spec §4.4(f)/(g): "Body: copy remote[src][A] ->
// remote[our_space][A]").
type Runner interface {
	Run(ctx context.Context) (any, error)
}

// Executor is the "external task executor" spec.md §1 explicitly excludes
// from the core: it actually runs tasks and honours the syncdeps set as a
// happens-before constraint.
type Executor interface {
	// Enqueue submits spec for execution under handleID (used to report
	// completion back to whoever is waiting on it). It must not block
	// until the task finishes — only until it's accepted.
	Enqueue(ctx context.Context, handleID string, spec TaskSpec) error

	// Wait blocks until every enqueued task has finished, returning the
	// first failure encountered (spec §7 UserTaskFailure policy: "the
	// first is rethrown, others are suppressed").
	Wait(ctx context.Context) error

	// Result returns the value a completed task finished with. ok is
	// false if handleID never completed successfully (still running,
	// never enqueued, or failed).
	Result(handleID string) (any, bool)
}

// Mover is the transfer-relevant half of the "data-move contract": moving
// a value's backing storage between processors, and copying between two
// already-allocated slots.
type Mover interface {
	// Move synchronously transfers value from one processor to another,
	// returning the (possibly new) value handle now backed by the
	// destination's space. Used during slot allocation (spec §4.4(d));
	// this is the one synchronous suspension point in the planner (§5).
	Move(ctx context.Context, from, to topology.Processor, value any) (any, error)

	// CopyTo is the body of a synthesised copy task: copy src (backed by
	// srcSpace) into dst (backed by dstSpace).
	CopyTo(ctx context.Context, dstSpace, srcSpace topology.SpaceID, value any) error
}
