package taskdag_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/me/taskdag"
	"github.com/me/taskdag/internal/config"
	"github.com/me/taskdag/internal/logging"
	"github.com/me/taskdag/internal/store"
)

func newTestRuntime() *taskdag.Runtime {
	logger := logging.New(logging.ParseLevel("error"), "text")
	return taskdag.NewRuntime(logger, 2)
}

type counter struct{ v int }

func increment(ctx context.Context, c *counter, by int) (int, error) {
	c.v += by
	return c.v, nil
}

func TestWithRegionOrdersDependentTasks(t *testing.T) {
	rt := newTestRuntime()
	c := &counter{}

	var h1, h2 *taskdag.Handle
	err := rt.WithRegion(context.Background(), func(r *taskdag.Region) error {
		var err error
		h1, err = r.Spawn("inc1", increment, taskdag.InOut(c), taskdag.In(1))
		if err != nil {
			return err
		}
		h2, err = r.Spawn("inc2", increment, taskdag.InOut(c), taskdag.In(2))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	r1, ok1 := h1.Result()
	r2, ok2 := h2.Result()
	if !ok1 || !ok2 {
		t.Fatal("both handles should have results after WithRegion returns")
	}
	if r1 != 1 || r2 != 3 {
		t.Errorf("sequential increments on the same counter = %v, %v, want 1, 3", r1, r2)
	}
}

func TestWithRegionDynamicMode(t *testing.T) {
	rt := newTestRuntime()
	c := &counter{}

	var h *taskdag.Handle
	err := rt.WithRegion(context.Background(), func(r *taskdag.Region) error {
		var err error
		h, err = r.Spawn("inc", increment, taskdag.InOut(c), taskdag.In(5))
		return err
	}, taskdag.WithStatic(false))
	if err != nil {
		t.Fatal(err)
	}

	res, ok := h.Result()
	if !ok || res != 5 {
		t.Errorf("Result() = %v, %v, want 5, true", res, ok)
	}
}

func TestWithRegionHandleChaining(t *testing.T) {
	rt := newTestRuntime()

	var final *taskdag.Handle
	err := rt.WithRegion(context.Background(), func(r *taskdag.Region) error {
		produce, err := r.Spawn("produce", func(ctx context.Context) (int, error) { return 10, nil })
		if err != nil {
			return err
		}
		final, err = r.Spawn("double", func(ctx context.Context, n int) (int, error) { return n * 2, nil }, taskdag.In(produce))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	res, ok := final.Result()
	if !ok || res != 20 {
		t.Errorf("Result() = %v, %v, want 20, true", res, ok)
	}
}

func TestDepsRejectsBadSubAccess(t *testing.T) {
	_, err := taskdag.Deps(struct{}{}, taskdag.In(123))
	if err == nil {
		t.Fatal("expected ErrInvalidAccess for a non-selector sub-access")
	}
}

func TestDefaultRegionConfigIsStaticInorderAliasing(t *testing.T) {
	cfg := config.DefaultRegionConfig()
	if !cfg.Static || cfg.Traversal != config.TraversalInorder || !cfg.Aliasing {
		t.Errorf("unexpected default region config: %+v", cfg)
	}
}

func TestWithRegionRecordsHistory(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "taskdag.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	logger := logging.New(logging.ParseLevel("error"), "text")
	rt := taskdag.NewRuntime(logger, 2).UseHistoryStore(st)
	c := &counter{}

	err = rt.WithRegion(context.Background(), func(r *taskdag.Region) error {
		_, err := r.Spawn("inc", increment, taskdag.InOut(c), taskdag.In(1))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	regions, err := st.ListRegions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 1 {
		t.Fatalf("ListRegions() returned %d regions, want 1", len(regions))
	}
	if regions[0].TaskCount != 1 || regions[0].Error != "" {
		t.Errorf("recorded region = %+v, want TaskCount 1 and no error", regions[0])
	}
}

func TestWithRegionWithoutHistoryStoreSkipsRecording(t *testing.T) {
	rt := newTestRuntime()
	c := &counter{}
	err := rt.WithRegion(context.Background(), func(r *taskdag.Region) error {
		_, err := r.Spawn("inc", increment, taskdag.InOut(c), taskdag.In(1))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
}
