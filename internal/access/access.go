// Package access implements the access model (C1): wrapping raw task
// arguments with read/write intent and describing compound accesses over
// named sub-regions.
package access

import (
	"errors"
	"fmt"
)

// Tag is a (read, write) pair. The four tags are named in spec.md §3:
// Ignored (F,F), In (T,F), Out (F,T), InOut (T,T).
type Tag struct {
	Read  bool
	Write bool
}

var (
	Ignored  = Tag{Read: false, Write: false}
	TagIn    = Tag{Read: true, Write: false}
	TagOut   = Tag{Read: false, Write: true}
	TagInOut = Tag{Read: true, Write: true}
)

// SubAccess pairs a sub-selector with the tag applied to it, used inside a
// compound Deps() access.
type SubAccess struct {
	Selector string
	Tag      Tag
}

// Access is the result of applying a tag constructor to a value. A plain
// In/Out/InOut access has no Subs; a Deps access carries the ordered list
// of sub-accesses alongside the base value.
type Access struct {
	Value any
	Tag   Tag
	Subs  []SubAccess
}

// ErrInvalidAccess is returned when a Deps() sub-access is not itself a tag
// constructor result (spec §4.1, kind InvalidAccess).
var ErrInvalidAccess = errors.New("taskdag: invalid access")

// In wraps x as a read-only argument. Unwrapping an untagged argument also
// produces this tag (spec §4.1: "Inputs without a tag produce (x, (T,F))").
func In(x any) Access { return Access{Value: x, Tag: TagIn} }

// Out wraps x as a write-only argument.
func Out(x any) Access { return Access{Value: x, Tag: TagOut} }

// InOut wraps x as a read-write argument.
func InOut(x any) Access { return Access{Value: x, Tag: TagInOut} }

// Deps builds a compound access: a base value x paired with an ordered
// list of (sub-selector, tag) pairs. Each d must be the result of In, Out
// or InOut applied to a sub-selector (a string naming a field or slice);
// passing anything else is a usage error.
//
// The compound's own top-level tag is the union (OR) of its sub-access
// tags: it reads if any sub-access reads, writes if any sub-access writes.
// This is what the write-dep summary (C4) and non-aliasing mode (which
// ignores selectors entirely) fall back to.
func Deps(x any, ds ...Access) (Access, error) {
	subs := make([]SubAccess, 0, len(ds))
	var tag Tag
	for i, d := range ds {
		sel, ok := d.Value.(string)
		if !ok || d.Subs != nil {
			return Access{}, fmt.Errorf("%w: Deps() element %d is not a tag constructor applied to a sub-selector", ErrInvalidAccess, i)
		}
		subs = append(subs, SubAccess{Selector: sel, Tag: d.Tag})
		tag.Read = tag.Read || d.Tag.Read
		tag.Write = tag.Write || d.Tag.Write
	}
	return Access{Value: x, Tag: tag, Subs: subs}, nil
}

// Unwrap returns the underlying value and access tag for any value,
// applying the default-to-In rule for untagged arguments (spec §4.1).
func Unwrap(v any) Access {
	if a, ok := v.(Access); ok {
		return a
	}
	return Access{Value: v, Tag: TagIn}
}
