// Package depgraph implements the dependency recorder (C3): per submitted
// task, it computes predecessor edges against every previously recorded
// access, expanding compound (Deps) accesses into per-selector entries so
// aliasing can be checked per sub-region.
package depgraph

import (
	"context"
	"fmt"

	"github.com/me/taskdag/internal/access"
	"github.com/me/taskdag/internal/alias"
	"github.com/me/taskdag/internal/contracts"
	"github.com/me/taskdag/internal/topology"
)

// ArgRecord is one argument's contribution to a task's dependency record
// (spec §3: "an ordered list of (read, write, spans[]) entries, one per
// argument"). Compound (Deps) arguments contribute one ArgRecord per
// sub-access, all sharing Position and RawValue but differing by
// Selector/Tag/Spans.
type ArgRecord struct {
	Position    int
	RawValue    any
	ResolvedKey uintptr
	Selector    string
	Tag         access.Tag
	Spans       []alias.Span
	SpansOK     bool
}

// Vertex is a recorded task: its function, its recorded arguments, and the dependency-relevant metadata needed by the placement
// planner (C4).
type Vertex struct {
	ID     int
	Handle *access.TaskHandle
	Name   string
	Func   any
	Args   []ArgRecord
}

type logEntry struct {
	tag      access.Tag
	selector string
	spans    []alias.Span
	spansOK  bool
	vertexID int // 0 in dynamic mode
	handle   *access.TaskHandle
}

// Mode selects how the recorder hands tasks onward (spec §4.3).
type Mode int

const (
	// Static buffers tasks into an integer-indexed DAG; nothing is
	// forwarded to the executor until the region closes.
	Static Mode = iota
	// Dynamic materialises syncdeps immediately and forwards the task to
	// the executor right away.
	Dynamic
)

// Recorder is C3: it owns the per-value access log and, in static mode,
// the task DAG.
type Recorder struct {
	oracle alias.Oracle
	mode   Mode

	vertices []*Vertex
	preds    []map[int]struct{} // preds[i] = predecessor vertex IDs of vertex i+1
	succs    []map[int]struct{}

	log    map[uintptr][]logEntry
	values map[uintptr]any // representative resolved value per key, for C4 locality lookups

	executor   contracts.Executor
	localScope topology.Scope
}

// New creates a Recorder. For Dynamic mode, executor and localScope must
// be supplied; localScope is intersected with each task's configured
// scope (spec §4.3 "scope constraint").
func New(oracle alias.Oracle, mode Mode, executor contracts.Executor, localScope topology.Scope) *Recorder {
	return &Recorder{
		oracle:     oracle,
		mode:       mode,
		log:        make(map[uintptr][]logEntry),
		values:     make(map[uintptr]any),
		executor:   executor,
		localScope: localScope,
	}
}

// Vertices returns the recorded DAG vertices in submission order (static
// mode only).
func (r *Recorder) Vertices() []*Vertex { return r.vertices }

// Preds returns the predecessor vertex IDs for vertex id (1-indexed).
func (r *Recorder) Preds(id int) map[int]struct{} { return r.preds[id-1] }

// Succs returns the successor vertex IDs for vertex id (1-indexed).
func (r *Recorder) Succs(id int) map[int]struct{} { return r.succs[id-1] }

// ScopeError is returned when a dynamic-mode task's configured
// scope cannot be intersected with the local worker scope (spec §7
// IncompatibleScope).
type ScopeError struct {
	Task string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("taskdag: task %s scope incompatible with local worker", e.Task)
}

// InvalidAccessError wraps access.ErrInvalidAccess with the offending task
// name (spec §7 InvalidAccess).
type InvalidAccessError struct {
	Task string
	Err  error
}

func (e *InvalidAccessError) Error() string {
	return fmt.Sprintf("taskdag: task %s: %v", e.Task, e.Err)
}
func (e *InvalidAccessError) Unwrap() error { return e.Err }

// Enqueue records one task's dependency edges and, depending on mode,
// either buffers it (static) or forwards it to the executor with its
// syncdeps materialised (dynamic). Returns the assigned vertex ID
// (static mode only; 0 in dynamic mode).
func (r *Recorder) Enqueue(ctx context.Context, name string, fn any, rawArgs []access.Access, scope topology.Scope, handle *access.TaskHandle) (int, error) {
	expanded := expand(rawArgs)

	args := make([]ArgRecord, 0, len(expanded))
	var preds map[int]struct{}
	var syncDeps map[string]struct{}
	if r.mode == Static {
		preds = make(map[int]struct{})
	} else {
		syncDeps = make(map[string]struct{})
	}

	for _, e := range expanded {
		resolved := access.ResolveKey(e.rawValue)
		var spans []alias.Span
		spansOK := false
		if _, unstarted := resolved.(*access.TaskHandle); !unstarted {
			spans, spansOK = r.oracle.MemorySpans(resolved, e.selector)
		}
		key := alias.IdentityOf(resolved)
		if _, seen := r.values[key]; !seen {
			r.values[key] = resolved
		}

		for _, prior := range r.log[key] {
			if !edgeNeeded(e.tag, prior.tag) {
				continue
			}
			if !alias.MayAliasAny(r.oracle, spans, prior.spans, spansOK, prior.spansOK) {
				continue
			}
			if r.mode == Static {
				preds[prior.vertexID] = struct{}{}
			} else if prior.handle != nil {
				syncDeps[prior.handle.ID] = struct{}{}
			}
		}

		args = append(args, ArgRecord{
			Position:    e.position,
			RawValue:    e.rawValue,
			ResolvedKey: key,
			Selector:    e.selector,
			Tag:         e.tag,
			Spans:       spans,
			SpansOK:     spansOK,
		})

		entry := logEntry{tag: e.tag, selector: e.selector, spans: spans, spansOK: spansOK, handle: handle}
		if r.mode == Static {
			entry.vertexID = len(r.vertices) + 1
		}
		r.log[key] = append(r.log[key], entry)
	}

	// Synthetic self-entry for the task's own result (spec §4.3 step 7,
	// §9 open question: spans are deliberately not recorded here — see
	// DESIGN.md — so future aliasing checks against it fall back to the
	// conservative "unresolved spans" path and sync purely on ownership).
	selfKey := alias.IdentityOf(access.ResolveKey(handle))
	if _, seen := r.values[selfKey]; !seen {
		r.values[selfKey] = access.ResolveKey(handle)
	}
	r.log[selfKey] = append(r.log[selfKey], logEntry{
		tag:      access.TagInOut,
		spansOK:  false,
		vertexID: len(r.vertices) + 1,
		handle:   handle,
	})

	if r.mode == Static {
		id := len(r.vertices) + 1
		r.vertices = append(r.vertices, &Vertex{ID: id, Handle: handle, Name: name, Func: fn, Args: args})
		r.preds = append(r.preds, preds)
		r.succs = append(r.succs, map[int]struct{}{})
		for p := range preds {
			r.succs[p-1][id] = struct{}{}
		}
		return id, nil
	}

	finalScope, ok := topology.Intersect(scope, r.localScope)
	if !ok {
		return 0, &ScopeError{Task: name}
	}
	spec := contracts.TaskSpec{
		Name: name,
		Func: fn,
		Args: toContractArgs(args),
		Options: contracts.Options{
			SyncDeps: syncDeps,
			Scope:    finalScope,
		},
	}
	if err := r.executor.Enqueue(ctx, handle.ID, spec); err != nil {
		return 0, err
	}
	return 0, nil
}

func toContractArgs(args []ArgRecord) []contracts.Arg {
	seen := make(map[int]bool)
	out := make([]contracts.Arg, 0, len(args))
	for _, a := range args {
		if seen[a.Position] {
			continue
		}
		seen[a.Position] = true
		out = append(out, contracts.NewArg(a.Position, a.RawValue))
	}
	return out
}

// edgeNeeded implements spec §4.3 step 5's read/write rule: a read adds a
// predecessor edge against prior writers only; a write adds one against
// every prior entry (reader or writer).
func edgeNeeded(cur, prior access.Tag) bool {
	if cur.Write {
		return true
	}
	if cur.Read {
		return prior.Write
	}
	return false
}

type expandedArg struct {
	position int
	rawValue any
	selector string
	tag      access.Tag
}

// expand flattens compound (Deps) accesses into one expandedArg per
// sub-access, so each sub-region gets its own log entry and can be
// alias-checked independently (spec §8 scenario 3).
func expand(rawArgs []access.Access) []expandedArg {
	out := make([]expandedArg, 0, len(rawArgs))
	for i, a := range rawArgs {
		if len(a.Subs) == 0 {
			out = append(out, expandedArg{position: i, rawValue: a.Value, tag: a.Tag})
			continue
		}
		for _, sub := range a.Subs {
			out = append(out, expandedArg{position: i, rawValue: a.Value, selector: sub.Selector, tag: sub.Tag})
		}
	}
	return out
}
