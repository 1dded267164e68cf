// Package datamove is the concrete, in-process "data-move contract" (spec
// §6): a per-space value store standing in for real inter-worker transfer,
// and the alias oracle backing it, simulating sub-selector byte-range
// overlap so aliasing=true mode has something real to check against.
package datamove

import (
	"github.com/me/taskdag/internal/access"
	"github.com/me/taskdag/internal/alias"
)

// RangeOracle treats two spans as aliasing when they share a root and
// either side addresses the whole value ("") or both name the same
// sub-selector. Distinct named sub-selectors (e.g. two different struct
// fields) are assumed disjoint (spec §8 scenario 3).
type RangeOracle struct{}

func (RangeOracle) MemorySpans(value any, selector string) ([]alias.Span, bool) {
	if _, unstarted := value.(*access.TaskHandle); unstarted {
		return nil, false
	}
	return []alias.Span{{Root: alias.IdentityOf(value), Selector: selector}}, true
}

func (RangeOracle) MayAlias(a, b alias.Span) bool {
	if a.Root != b.Root {
		return false
	}
	if a.Selector == "" || b.Selector == "" {
		return true
	}
	return a.Selector == b.Selector
}
