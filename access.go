// Package taskdag schedules tasks by the data they read and write rather
// than by the order they're submitted in: independent tasks run in
// parallel, dependent ones are ordered automatically from the access tags
// on their arguments.
package taskdag

import "github.com/me/taskdag/internal/access"

// Access is the result of applying In, Out, InOut or Deps to an argument.
type Access = access.Access

// unwrapHandle lets a *Handle stand in for the value it will eventually
// produce: the dependency recorder keys on the underlying
// *access.TaskHandle, not this package's wrapper.
func unwrapHandle(x any) any {
	if h, ok := x.(*Handle); ok {
		return h.h
	}
	return x
}

// In marks x as read-only for the task it's passed to.
func In(x any) Access { return access.In(unwrapHandle(x)) }

// Out marks x as write-only.
func Out(x any) Access { return access.Out(unwrapHandle(x)) }

// InOut marks x as read-write.
func InOut(x any) Access { return access.InOut(unwrapHandle(x)) }

// Deps builds a compound access over named sub-regions of x: each d must
// be In/Out/InOut applied to a string selector (a field name, slice index,
// or other sub-region identifier meaningful to the alias oracle in use).
func Deps(x any, ds ...Access) (Access, error) { return access.Deps(unwrapHandle(x), ds...) }

// ErrInvalidAccess is returned by Deps when a sub-access isn't itself a
// tag constructor applied to a string selector.
var ErrInvalidAccess = access.ErrInvalidAccess

// Handle is an opaque reference to a spawned task's eventual result. It
// can be passed as (or inside) a later Access: the consumer automatically
// depends on the task that produces it.
type Handle struct {
	h *access.TaskHandle
}

// Result returns the task's return value, and whether it has finished.
// Only meaningful after the owning Region's body has returned and
// WithRegion has finished waiting.
func (h *Handle) Result() (any, bool) {
	return h.h.Result()
}
