// Package alias implements the alias oracle (C2): enumerating the memory
// spans backing a value and deciding whether two spans may overlap. It
// also serves as the aliasing-relevant half of the external "data-move
// contract" (spec §6): MemorySpans and MayAlias are consumed by the core.
// IdentityOracle (aliasing=false) is defined here; the selector-aware
// RangeOracle lives in internal/datamove.
package alias

// Span is an abstract identifier for a contiguous region of storage
// within one memory space (spec §3 "Memory span"). Root identifies the
// backing value; Selector narrows it to a named sub-region ("" = whole
// value).
type Span struct {
	Root     uintptr
	Selector string
}

// Oracle is the data-move contract's alias-relevant surface.
type Oracle interface {
	// MemorySpans enumerates the spans for a value, optionally restricted
	// to a sub-selector. ok is false when the spans cannot be determined
	// (an unstarted task handle argument) — callers must not probe
	// further in that case (spec §4.2).
	MemorySpans(value any, selector string) (spans []Span, ok bool)

	// MayAlias is a conservative overlap test. It must be symmetric and
	// must never produce a false negative; false positives are allowed
	// (they only degrade parallelism).
	MayAlias(a, b Span) bool
}

// IdentityOracle backs aliasing=false mode (spec §4.2 "When aliasing mode
// is disabled, C2 is bypassed: identity of the value itself plays the
// role of a single span").
type IdentityOracle struct{}

func (IdentityOracle) MemorySpans(value any, _ string) ([]Span, bool) {
	return []Span{{Root: identityOf(value)}}, true
}

func (IdentityOracle) MayAlias(a, b Span) bool {
	return a.Root == b.Root
}

// MayAliasAny reports whether any span in a may alias any span in b. If
// either side's spans could not be determined (aOK or bOK is false), the
// result is "may alias" conservatively — false negatives are forbidden.
func MayAliasAny(o Oracle, a, b []Span, aOK, bOK bool) bool {
	if !aOK || !bOK {
		return true
	}
	for _, sa := range a {
		for _, sb := range b {
			if o.MayAlias(sa, sb) {
				return true
			}
		}
	}
	return false
}
