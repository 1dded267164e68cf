package alias

import (
	"reflect"
	"sync"
)

// identityOf returns a pointer-identity key for v (spec §9: identity-keyed
// maps must use pointer identity, not structural equality — two
// independently constructed but structurally-equal arguments must never
// collapse onto the same tracked identity). Pointers, maps, channels and
// funcs carry native identity via their backing address. Anything else
// (value types passed by value, which have no address Go lets us observe)
// gets a fresh synthetic identity on every occurrence: per spec §9, a
// caller who needs a value-type argument to alias itself across calls
// must wrap it in an identity-preserving handle (e.g. a pointer) rather
// than rely on equality-based lookup here.
func IdentityOf(v any) uintptr {
	return identityOf(v)
}

func identityOf(v any) uintptr {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return rv.Pointer()
	case reflect.Slice:
		if rv.Len() == 0 && rv.IsNil() {
			return 0
		}
		return rv.Pointer()
	case reflect.Func:
		return rv.Pointer()
	default:
		return valueIdentity.next()
	}
}

// identityTable mints a fresh synthetic identity for every non-reference
// occurrence it sees. It deliberately does not deduplicate by equality:
// two value-type arguments that happen to be == must still be tracked as
// distinct occurrences.
type identityTable struct {
	mu  sync.Mutex
	ctr uintptr
}

var valueIdentity = &identityTable{ctr: 1 << 62}

func (t *identityTable) next() uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctr++
	return t.ctr
}
