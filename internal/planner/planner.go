// Package planner implements the placement & copy planner (C4): it walks
// the static DAG built by depgraph, assigns each task a processor
// round-robin, synthesises copy-in/copy-out tasks for values that aren't
// already where a task needs them, and rewrites each task's syncdeps from
// the ownership map it maintains along the way.
package planner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/me/taskdag/internal/access"
	"github.com/me/taskdag/internal/alias"
	"github.com/me/taskdag/internal/contracts"
	"github.com/me/taskdag/internal/depgraph"
	"github.com/me/taskdag/internal/topology"
)

// ownerEntry is the ownership-map record for one tracked value (spec
// §4.4(f): "current owner task, and the set of tasks that have read it
// since"). Tracked per value identity rather than per memory span — a
// deliberate coarsening recorded in DESIGN.md: it can only add syncdeps a
// finer-grained span-level table would have omitted, never drop one, so it
// stays within the oracle's "false positives allowed, false negatives
// forbidden" contract.
type ownerEntry struct {
	owner   *depgraph.Vertex
	readers map[int]*depgraph.Vertex
}

// Result summarises one planning pass, mostly for tests and the demo CLI.
type Result struct {
	TaskCount     int
	CopyInCount   int
	CopyOutCount  int
	ProcessorUsed []topology.ProcessorID
}

// Planner is C4.
type Planner struct {
	logger   *slog.Logger
	oracle   alias.Oracle
	topo     *topology.Registry
	mover    contracts.Mover
	executor contracts.Executor

	origin  map[uintptr]topology.SpaceID
	current map[uintptr]topology.SpaceID
	owner   map[uintptr]*ownerEntry
	values  map[uintptr]any // representative value per key, for writeback lookups

	syntheticID int
}

// New builds a Planner over the given collaborators. topo and mover are
// the external Topology/Mover contracts (spec §6); executor is the
// external task executor.
func New(logger *slog.Logger, oracle alias.Oracle, topo *topology.Registry, mover contracts.Mover, executor contracts.Executor) *Planner {
	return &Planner{
		logger:   logger.With("component", "planner"),
		oracle:   oracle,
		topo:     topo,
		mover:    mover,
		executor: executor,
		origin:   make(map[uintptr]topology.SpaceID),
		current:  make(map[uintptr]topology.SpaceID),
		owner:    make(map[uintptr]*ownerEntry),
		values:   make(map[uintptr]any),
	}
}

// positionArg groups a vertex's ArgRecords that share one original
// argument position — a compound (Deps) access contributes several
// ArgRecords at the same position, one per sub-selector.
type positionArg struct {
	Position int
	RawValue any
	Key      uintptr
	Tag      access.Tag
}

func groupByPosition(args []depgraph.ArgRecord) []positionArg {
	byPos := make(map[int]*positionArg)
	order := make([]int, 0, len(args))
	for _, a := range args {
		pa, ok := byPos[a.Position]
		if !ok {
			pa = &positionArg{Position: a.Position, RawValue: a.RawValue, Key: a.ResolvedKey}
			byPos[a.Position] = pa
			order = append(order, a.Position)
		}
		pa.Tag.Read = pa.Tag.Read || a.Tag.Read
		pa.Tag.Write = pa.Tag.Write || a.Tag.Write
	}
	out := make([]positionArg, 0, len(order))
	for _, pos := range order {
		out = append(out, *byPos[pos])
	}
	return out
}

// Plan runs the full placement pass over a closed static recorder (spec
// §4.4 steps a-g) and enqueues every task (plus any synthesised copy
// tasks) onto the executor. Call Wait on the executor afterwards to block
// for completion.
func (p *Planner) Plan(ctx context.Context, rec *depgraph.Recorder, traversalOrder string, regionScope topology.Scope) (*Result, error) {
	order, err := rec.Traversal(traversalOrder)
	if err != nil {
		return nil, err
	}

	procs := p.topo.CPUProcessors(regionScope)
	if len(procs) == 0 {
		return nil, NoProcessorsError{}
	}

	// (c) initial locality: record where every already-materialised
	// tracked value currently lives. Unstarted task handles have no space
	// yet and are skipped, per spec §4.4(c).
	for _, key := range rec.TrackedKeys() {
		val, ok := rec.ValueFor(key)
		if !ok {
			continue
		}
		if _, isHandle := val.(*access.TaskHandle); isHandle {
			continue
		}
		p.values[key] = val
		if space, ok := p.topo.MemorySpace(val); ok {
			p.origin[key] = space
			p.current[key] = space
		}
	}

	vertexByID := make(map[int]*depgraph.Vertex, len(rec.Vertices()))
	for _, v := range rec.Vertices() {
		vertexByID[v.ID] = v
	}

	result := &Result{}
	writtenKeys := make(map[uintptr]struct{})

	for i, id := range order {
		v, ok := vertexByID[id]
		if !ok {
			return nil, fmt.Errorf("taskdag: traversal produced unknown vertex id %d", id)
		}

		// (b)+(f) round-robin processor assignment.
		ourProc := procs[i%len(procs)]
		result.ProcessorUsed = append(result.ProcessorUsed, ourProc.ID)

		positions := groupByPosition(v.Args)

		for _, pa := range positions {
			hasWD, err := rec.HasWriteDepAt(pa.Key, v.ID)
			if err != nil {
				return nil, err
			}
			if !hasWD {
				continue
			}
			writtenKeys[pa.Key] = struct{}{}
			p.values[pa.Key] = pa.RawValue

			src, known := p.current[pa.Key]
			if known && src != ourProc.Space {
				if err := p.copyIn(ctx, pa, v, ourProc, src, result); err != nil {
					return nil, err
				}
			}
			if !known {
				p.origin[pa.Key] = ourProc.Space
			}
			p.current[pa.Key] = ourProc.Space
		}

		// (f) step 3: placement assertion — every value T writes must now
		// be current in our_space.
		for idx, pa := range positions {
			hasWD, _ := rec.HasWriteDepAt(pa.Key, v.ID)
			if hasWD && p.current[pa.Key] != ourProc.Space {
				return nil, &PlacementAssertionError{Task: v.Name, Arg: idx}
			}
		}

		// (f) step 4: T's own syncdeps, from the ownership map.
		syncdeps := make(map[string]struct{})
		for _, pa := range positions {
			var deps []*depgraph.Vertex
			if pa.Tag.Write {
				deps = p.writeDeps(pa.Key)
			} else {
				deps = p.readDeps(pa.Key)
			}
			for _, d := range deps {
				syncdeps[d.Handle.ID] = struct{}{}
			}
		}

		spec := contracts.TaskSpec{
			Name: v.Name,
			Func: v.Func,
			Args: positionsToArgs(positions),
			Options: contracts.Options{
				SyncDeps: syncdeps,
				Scope:    topology.NewScope(ourProc.ID),
			},
		}
		if err := p.executor.Enqueue(ctx, v.Handle.ID, spec); err != nil {
			return nil, err
		}

		// (f) step 7: ownership update.
		for _, pa := range positions {
			hasWD, _ := rec.HasWriteDepAt(pa.Key, v.ID)
			if hasWD {
				p.registerOwner(pa.Key, v, true)
			} else {
				p.addReader(pa.Key, v)
			}
		}

		// The task's own result becomes a newly-owned, newly-originated
		// value in our_space (spec §4.3 step 7 / §4.4(f) final bullet).
		resultKey := alias.IdentityOf(access.ResolveKey(v.Handle))
		p.values[resultKey] = access.ResolveKey(v.Handle)
		p.origin[resultKey] = ourProc.Space
		p.current[resultKey] = ourProc.Space
		p.registerOwner(resultKey, v, true)
		writtenKeys[resultKey] = struct{}{}

		result.TaskCount++
	}

	// (g) writeback: every value written anywhere in the region goes back
	// to its origin space if it ended up somewhere else.
	for key := range writtenKeys {
		if err := p.writeback(ctx, key, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func positionsToArgs(positions []positionArg) []contracts.Arg {
	out := make([]contracts.Arg, 0, len(positions))
	for _, pa := range positions {
		out = append(out, contracts.NewArg(pa.Position, pa.RawValue))
	}
	return out
}

func (p *Planner) entry(key uintptr) *ownerEntry {
	e, ok := p.owner[key]
	if !ok {
		e = &ownerEntry{readers: make(map[int]*depgraph.Vertex)}
		p.owner[key] = e
	}
	return e
}

func (p *Planner) registerOwner(key uintptr, v *depgraph.Vertex, selfReads bool) {
	e := p.entry(key)
	e.owner = v
	if selfReads {
		e.readers = map[int]*depgraph.Vertex{v.ID: v}
	} else {
		e.readers = make(map[int]*depgraph.Vertex)
	}
}

func (p *Planner) addReader(key uintptr, v *depgraph.Vertex) {
	e := p.entry(key)
	e.readers[v.ID] = v
}

// writeDeps is get_write_deps: the current owner plus every reader since.
func (p *Planner) writeDeps(key uintptr) []*depgraph.Vertex {
	e, ok := p.owner[key]
	if !ok {
		return nil
	}
	out := make([]*depgraph.Vertex, 0, len(e.readers)+1)
	if e.owner != nil {
		out = append(out, e.owner)
	}
	for id, r := range e.readers {
		if e.owner != nil && id == e.owner.ID {
			continue
		}
		out = append(out, r)
	}
	return out
}

// readDeps is get_read_deps: the current owner only (RAW hazard).
func (p *Planner) readDeps(key uintptr) []*depgraph.Vertex {
	e, ok := p.owner[key]
	if !ok || e.owner == nil {
		return nil
	}
	return []*depgraph.Vertex{e.owner}
}

// nextSyntheticID hands out distinct negative IDs for synthesised
// copy-in/copy-out tasks, which never become DAG vertices but still need a
// unique key in the readers map (spec invariant 5: copy tasks never appear
// as source tasks in a dependency record).
func (p *Planner) nextSyntheticID() int {
	p.syntheticID--
	return p.syntheticID
}
