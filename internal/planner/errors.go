package planner

import "fmt"

// PlacementAssertionError fires when, after rewriting, an argument a task
// writes does not reside in the space the task was placed on (spec §4.4(f)
// step 3, §7 PlacementAssertion — a fatal internal invariant violation).
type PlacementAssertionError struct {
	Task string
	Arg  int
}

func (e *PlacementAssertionError) Error() string {
	return fmt.Sprintf("taskdag: placement assertion failed for task %s arg %d", e.Task, e.Arg)
}

// NoProcessorsError is returned when scope + topology filtering leaves no
// CPU-class processor to place tasks on.
type NoProcessorsError struct{}

func (NoProcessorsError) Error() string {
	return "taskdag: no CPU-class processors available for placement"
}
