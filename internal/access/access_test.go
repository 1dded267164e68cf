package access

import (
	"errors"
	"testing"
)

func TestInOutInOutTags(t *testing.T) {
	if a := In(1); a.Tag != TagIn {
		t.Errorf("In: got tag %v, want %v", a.Tag, TagIn)
	}
	if a := Out(1); a.Tag != TagOut {
		t.Errorf("Out: got tag %v, want %v", a.Tag, TagOut)
	}
	if a := InOut(1); a.Tag != TagInOut {
		t.Errorf("InOut: got tag %v, want %v", a.Tag, TagInOut)
	}
}

func TestUnwrapDefaultsToIn(t *testing.T) {
	a := Unwrap(42)
	if a.Value != 42 || a.Tag != TagIn {
		t.Errorf("Unwrap(42) = %+v, want value 42 tag In", a)
	}

	tagged := Out("x")
	a = Unwrap(tagged)
	if a.Tag != TagOut {
		t.Errorf("Unwrap of already-tagged value should pass through, got %+v", a)
	}
}

func TestDepsUnionsTags(t *testing.T) {
	d, err := Deps(struct{}{}, In("a"), Out("b"))
	if err != nil {
		t.Fatalf("Deps: %v", err)
	}
	if !d.Tag.Read || !d.Tag.Write {
		t.Errorf("Deps tag = %+v, want read and write both set", d.Tag)
	}
	if len(d.Subs) != 2 {
		t.Fatalf("Subs = %v, want 2 entries", d.Subs)
	}
	if d.Subs[0].Selector != "a" || d.Subs[1].Selector != "b" {
		t.Errorf("Subs selectors = %+v, want [a b]", d.Subs)
	}
}

func TestDepsRejectsNonSelectorSubAccess(t *testing.T) {
	_, err := Deps(struct{}{}, In(123))
	if !errors.Is(err, ErrInvalidAccess) {
		t.Errorf("Deps with non-string sub-value: got %v, want ErrInvalidAccess", err)
	}
}

func TestDepsRejectsNestedCompoundSubAccess(t *testing.T) {
	nested, _ := Deps(struct{}{}, In("x"))
	_, err := Deps(struct{}{}, nested)
	if !errors.Is(err, ErrInvalidAccess) {
		t.Errorf("Deps with nested compound sub-access: got %v, want ErrInvalidAccess", err)
	}
}
