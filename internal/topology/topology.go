// Package topology implements the "Topology contract" consumed by the
// core (spec §6): enumerating workers, processors and memory spaces, and
// resolving which space currently backs a value. The core never discovers
// topology itself — this package is the external collaborator spec.md §1
// excludes from the core, provided here as a simulated in-process
// implementation so the planner is runnable end to end.
package topology

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/me/taskdag/internal/alias"
)

// Kind identifies a processor's capability class. Only CPU is placeable
// (spec §4.4(b)); others are filtered out with a one-shot warning.
type Kind string

const (
	KindCPU   Kind = "cpu"
	KindOther Kind = "other"
)

type WorkerID string
type ProcessorID string
type SpaceID string

// Processor is a single execution unit attached to one memory space.
type Processor struct {
	ID     ProcessorID
	Worker WorkerID
	Kind   Kind
	Space  SpaceID
}

// Space is a memory space exposing the processors that can directly
// access it (spec §3 "Memory space").
type Space struct {
	ID SpaceID
}

// Scope restricts execution to a set of processors. A nil Scope is
// unconstrained (matches every processor).
type Scope struct {
	procs map[ProcessorID]struct{} // nil means unconstrained
}

// NewScope builds a scope containing exactly the given processors.
func NewScope(ids ...ProcessorID) Scope {
	m := make(map[ProcessorID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return Scope{procs: m}
}

// Unconstrained returns a scope matching every processor.
func Unconstrained() Scope { return Scope{procs: nil} }

// Contains reports whether p is in scope.
func (s Scope) Contains(p ProcessorID) bool {
	if s.procs == nil {
		return true
	}
	_, ok := s.procs[p]
	return ok
}

// Intersect computes the refined scope containing processors in both a
// and b. ok is false when the intersection is empty (spec §6 "constrain"
// returning an invalid marker).
func Intersect(a, b Scope) (Scope, bool) {
	if a.procs == nil {
		return b, true
	}
	if b.procs == nil {
		return a, true
	}
	out := make(map[ProcessorID]struct{})
	for id := range a.procs {
		if _, ok := b.procs[id]; ok {
			out[id] = struct{}{}
		}
	}
	if len(out) == 0 {
		return Scope{}, false
	}
	return Scope{procs: out}, true
}

// Topology is the topology contract surface; Registry implements it. The
// placement planner (C4) holds a *Registry directly, and the dependency
// recorder (C3) uses only the package-level Intersect for dynamic-mode
// scope intersection.
type Topology interface {
	Procs() []WorkerID
	GetProcessors(w WorkerID) []Processor
	MemorySpaces(p Processor) []SpaceID
	Processors(s SpaceID) []Processor
	MemorySpace(value any) (SpaceID, bool)
}

// Registry is a fixed, in-process simulated topology: each worker exposes
// one CPU processor (placeable) and one "other"-kind processor (silently
// filtered, spec §4.4(b)/§7), grounded on the teacher's executor.Registry
// registration pattern.
type Registry struct {
	logger     *slog.Logger
	workers    []WorkerID
	procs      map[WorkerID][]Processor
	spaceProcs map[SpaceID][]Processor
	locality   sync.Map // value identity -> SpaceID, set by whoever owns the value
}

// nonCPUWarnOnce is package-level, not per-Registry: spec §7 calls for the
// non-CPU-processor warning to be deduplicated across the whole process,
// and multiple Registry instances (e.g. several Runtimes) must still only
// log it once between them.
var nonCPUWarnOnce sync.Once

// NewRegistry builds a Registry with n simulated workers, each exposing a
// CPU processor and a non-placeable "other" processor, both attached to
// the worker's memory space "<worker>-mem".
func NewRegistry(n int, logger *slog.Logger) *Registry {
	r := &Registry{
		logger:     logger.With("component", "topology"),
		procs:      make(map[WorkerID][]Processor),
		spaceProcs: make(map[SpaceID][]Processor),
	}
	for i := 0; i < n; i++ {
		w := WorkerID(workerName(i))
		space := SpaceID(workerName(i) + "-mem")
		cpu := Processor{ID: ProcessorID(workerName(i) + "-cpu"), Worker: w, Kind: KindCPU, Space: space}
		other := Processor{ID: ProcessorID(workerName(i) + "-acc"), Worker: w, Kind: KindOther, Space: space}
		r.workers = append(r.workers, w)
		r.procs[w] = []Processor{cpu, other}
		r.spaceProcs[space] = []Processor{cpu, other}
	}
	return r
}

func workerName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return "w" + string(letters[i%len(letters)]) + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

func (r *Registry) Procs() []WorkerID {
	out := append([]WorkerID(nil), r.workers...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) GetProcessors(w WorkerID) []Processor {
	return append([]Processor(nil), r.procs[w]...)
}

func (r *Registry) MemorySpaces(p Processor) []SpaceID {
	return []SpaceID{p.Space}
}

func (r *Registry) Processors(s SpaceID) []Processor {
	return append([]Processor(nil), r.spaceProcs[s]...)
}

// MemorySpace resolves the space currently backing a value, consulting
// the locality map populated by SetMemorySpace (called by Runtime.Place
// when a caller records where a value starts).
func (r *Registry) MemorySpace(value any) (SpaceID, bool) {
	v, ok := r.locality.Load(alias.IdentityOf(value))
	if !ok {
		return "", false
	}
	return v.(SpaceID), true
}

// SetMemorySpace records where a value currently lives.
func (r *Registry) SetMemorySpace(value any, space SpaceID) {
	r.locality.Store(alias.IdentityOf(value), space)
}

// CPUProcessors returns all CPU-class processors across all workers,
// filtered by scope, with distinct memory spaces (spec §4.4(b)). Non-CPU
// processors are dropped with a one-shot warning.
func (r *Registry) CPUProcessors(scope Scope) []Processor {
	var out []Processor
	sawOther := false
	for _, w := range r.Procs() {
		for _, p := range r.GetProcessors(w) {
			if !scope.Contains(p.ID) {
				continue
			}
			if p.Kind != KindCPU {
				sawOther = true
				continue
			}
			out = append(out, p)
		}
	}
	if sawOther {
		nonCPUWarnOnce.Do(func() {
			r.logger.Warn("non-CPU processors present in topology; filtered out of placement", "reason", "heterogeneous scheduling is out of scope")
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
