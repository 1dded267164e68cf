package access

import "sync"

// TaskHandle is an opaque, equality-comparable identity for a submitted
// computation (spec §3 "Task handle"). It may be unstarted (no
// materialised result yet) or started (its result is addressable and can
// serve as a dependency key for later tasks).
//
// TaskHandle is always used via pointer, which is what gives it pointer
// identity for the per-value access log (spec §9: identity-keyed maps key
// by pointer identity, not structural equality).
type TaskHandle struct {
	ID string

	mu      sync.Mutex
	started bool
	result  any
}

// NewTaskHandle creates an unstarted handle with the given id. The access
// log keys on the handle pointer, not the id; the executor and syncdeps
// sets key on the id, so ids must be unique within one executor.
func NewTaskHandle(id string) *TaskHandle {
	return &TaskHandle{ID: id}
}

// Start marks the handle as started, recording its result object. Called
// by the executor once a task has actually produced a value.
func (h *TaskHandle) Start(result any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = true
	h.result = result
}

// Started reports whether the handle's output has materialised.
func (h *TaskHandle) Started() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}

// Result returns the handle's underlying data object and whether it has
// started. Safe to call regardless of start state.
func (h *TaskHandle) Result() (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return nil, false
	}
	return h.result, true
}

// ResolveKey returns the dependency-log key for this handle: the handle
// itself while unstarted, or its resolved data object once started (spec
// §4.3 step 2).
func ResolveKey(v any) any {
	if h, ok := v.(*TaskHandle); ok {
		if res, started := h.Result(); started {
			return res
		}
		return h
	}
	return v
}
