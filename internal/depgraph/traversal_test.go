package depgraph

import (
	"reflect"
	"testing"

	"github.com/me/taskdag/internal/access"
)

// buildDiamond builds the 4-vertex diamond graph used by the worked
// traversal examples: 1->2, 1->3, 2->4, 3->4.
func buildDiamond(t *testing.T) *Recorder {
	t.Helper()
	r := newStaticRecorder()

	root := &struct{ X int }{}
	left := &struct{ X int }{}
	right := &struct{ X int }{}

	enqueue(t, r, "v1", []access.Access{access.Out(root)})
	enqueue(t, r, "v2", []access.Access{access.In(root), access.Out(left)})
	enqueue(t, r, "v3", []access.Access{access.In(root), access.Out(right)})
	enqueue(t, r, "v4", []access.Access{access.In(left), access.In(right)})

	return r
}

func TestTraversalInorderIsSubmissionOrder(t *testing.T) {
	r := buildDiamond(t)
	order, err := r.Traversal("inorder")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 3, 4}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("inorder = %v, want %v", order, want)
	}
}

func TestTraversalBFSTopologicallySorts(t *testing.T) {
	r := buildDiamond(t)
	order, err := r.Traversal("bfs")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 3, 4}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("bfs = %v, want %v", order, want)
	}
}

func TestTraversalDFSWalksPreorder(t *testing.T) {
	r := buildDiamond(t)
	order, err := r.Traversal("dfs")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 4, 3}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("dfs = %v, want %v", order, want)
	}
}

func TestTraversalInvalidOrderErrors(t *testing.T) {
	r := buildDiamond(t)
	_, err := r.Traversal("sideways")
	if err == nil {
		t.Fatal("expected an error for an unrecognised traversal order")
	}
	if _, ok := err.(*InvalidTraversalError); !ok {
		t.Errorf("got %T, want *InvalidTraversalError", err)
	}
}

func TestTraversalEmptyOrderMeansInorder(t *testing.T) {
	r := buildDiamond(t)
	a, _ := r.Traversal("")
	b, _ := r.Traversal("inorder")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("empty order = %v, want same as inorder %v", a, b)
	}
}
