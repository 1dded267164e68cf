package alias

import "testing"

func TestIdentityOraclePointerIdentity(t *testing.T) {
	type T struct{ X int }
	a := &T{X: 1}
	b := &T{X: 1}

	o := IdentityOracle{}
	spansA, ok := o.MemorySpans(a, "")
	if !ok || len(spansA) != 1 {
		t.Fatalf("MemorySpans(a) = %v, %v", spansA, ok)
	}
	spansB, _ := o.MemorySpans(b, "")
	spansA2, _ := o.MemorySpans(a, "")

	if o.MayAlias(spansA[0], spansB[0]) {
		t.Error("two distinct pointers with equal contents should not alias under identity oracle")
	}
	if !o.MayAlias(spansA[0], spansA2[0]) {
		t.Error("the same pointer observed twice should alias itself")
	}
}

func TestMayAliasAnyConservativeWhenUnresolved(t *testing.T) {
	o := IdentityOracle{}
	if !MayAliasAny(o, nil, nil, false, true) {
		t.Error("unresolved spans on either side must be treated as aliasing")
	}
	if !MayAliasAny(o, nil, nil, true, false) {
		t.Error("unresolved spans on either side must be treated as aliasing")
	}
}

func TestMayAliasAnyChecksEveryPair(t *testing.T) {
	o := IdentityOracle{}
	a := []Span{{Root: 1}, {Root: 2}}
	b := []Span{{Root: 3}, {Root: 2}}
	if !MayAliasAny(o, a, b, true, true) {
		t.Error("shared root 2 should make MayAliasAny true")
	}
	c := []Span{{Root: 9}}
	if MayAliasAny(o, a, c, true, true) {
		t.Error("disjoint roots should not alias")
	}
}

func TestIdentityOfReferenceKindsUsePointer(t *testing.T) {
	m1 := map[string]int{"a": 1}
	m2 := map[string]int{"a": 1}
	if IdentityOf(m1) == IdentityOf(m2) {
		t.Error("distinct maps with equal contents should have distinct identity")
	}
	if IdentityOf(m1) != IdentityOf(m1) {
		t.Error("the same map should have stable identity across calls")
	}
}

func TestIdentityOfValueTypesAreNeverSharedAcrossOccurrences(t *testing.T) {
	if IdentityOf(5) == IdentityOf(5) {
		t.Error("two independent occurrences of an equal value-type argument must not collapse onto the same identity")
	}
	if IdentityOf(5) == IdentityOf(6) {
		t.Error("different comparable values should resolve to different synthetic identities")
	}
}
