package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndListRegions(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "taskdag.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	rec := RegionRecord{
		ID:           "r1",
		StartedAt:    time.Now().Add(-time.Second),
		FinishedAt:   time.Now(),
		TaskCount:    3,
		CopyInCount:  1,
		CopyOutCount: 1,
		Traversal:    "inorder",
		Static:       true,
		Aliasing:     true,
	}
	if err := s.RecordRegion(ctx, rec); err != nil {
		t.Fatal(err)
	}

	regions, err := s.ListRegions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 1 || regions[0].ID != "r1" || regions[0].TaskCount != 3 {
		t.Fatalf("ListRegions() = %+v, want one region r1 with 3 tasks", regions)
	}

	got, ok, err := s.GetRegion(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got.ID != "r1" {
		t.Fatalf("GetRegion(r1) = %+v, %v, want found", got, ok)
	}

	_, ok, err = s.GetRegion(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("GetRegion(missing) should report not-found")
	}
}
