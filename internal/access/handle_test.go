package access

import "testing"

func TestTaskHandleLifecycle(t *testing.T) {
	h := NewTaskHandle("t1")
	if h.Started() {
		t.Fatal("new handle should not be started")
	}
	if _, ok := h.Result(); ok {
		t.Fatal("unstarted handle should have no result")
	}

	h.Start(42)
	if !h.Started() {
		t.Fatal("handle should be started after Start")
	}
	res, ok := h.Result()
	if !ok || res != 42 {
		t.Fatalf("Result() = (%v, %v), want (42, true)", res, ok)
	}
}

func TestResolveKeyUnstartedHandleReturnsHandle(t *testing.T) {
	h := NewTaskHandle("t1")
	if ResolveKey(h) != any(h) {
		t.Error("ResolveKey on unstarted handle should return the handle itself")
	}
}

func TestResolveKeyStartedHandleReturnsResult(t *testing.T) {
	h := NewTaskHandle("t1")
	h.Start("done")
	if ResolveKey(h) != "done" {
		t.Errorf("ResolveKey on started handle = %v, want %q", ResolveKey(h), "done")
	}
}

func TestResolveKeyPassesThroughPlainValues(t *testing.T) {
	if ResolveKey(7) != 7 {
		t.Error("ResolveKey on a non-handle value should pass through unchanged")
	}
}
