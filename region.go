package taskdag

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/me/taskdag/internal/access"
	"github.com/me/taskdag/internal/alias"
	"github.com/me/taskdag/internal/config"
	"github.com/me/taskdag/internal/datamove"
	"github.com/me/taskdag/internal/depgraph"
	"github.com/me/taskdag/internal/executor"
	"github.com/me/taskdag/internal/planner"
	"github.com/me/taskdag/internal/store"
	"github.com/me/taskdag/internal/topology"
)

// Runtime bundles the external collaborators the core reaches through the
// contracts package (spec §6): a simulated topology, an in-process data
// mover, and an in-process executor. One Runtime can host many
// sequential or concurrent regions.
type Runtime struct {
	logger   *slog.Logger
	topo     *topology.Registry
	mover    *datamove.Store
	executor *executor.Executor
	history  *store.Store
}

// NewRuntime builds a Runtime with n simulated CPU workers.
func NewRuntime(logger *slog.Logger, workers int) *Runtime {
	return &Runtime{
		logger:   logger,
		topo:     topology.NewRegistry(workers, logger),
		mover:    datamove.NewStore(logger),
		executor: executor.New(logger),
	}
}

// UseHistoryStore attaches a region-history store: every WithRegion call
// afterwards records a summary (task/copy counts, traversal, outcome) for
// the introspection server to read back. Returns rt so it can be chained
// onto NewRuntime. A Runtime with no history store skips recording
// entirely — spec §6 lists no persisted state for the core itself, so
// this is purely the ambient audit trail cmd/taskdag-server exposes.
func (rt *Runtime) UseHistoryStore(st *store.Store) *Runtime {
	rt.history = st
	return rt
}

// Place records the memory space a raw value starts in, before any region
// touches it — the runtime otherwise has no way to know where
// caller-supplied data already lives (spec §4.4(c) "initial locality").
// worker selects one of the CPU workers created by NewRuntime.
func (rt *Runtime) Place(value any, worker int) {
	workers := rt.topo.Procs()
	if worker < 0 || worker >= len(workers) {
		return
	}
	for _, p := range rt.topo.GetProcessors(workers[worker]) {
		if p.Kind == topology.KindCPU {
			rt.topo.SetMemorySpace(value, p.Space)
			return
		}
	}
}

// Option configures a region's planning policy (spec §6 with_region
// options).
type Option func(*config.RegionConfig)

// WithStatic selects static (true, default) or dynamic (false) planning.
func WithStatic(static bool) Option {
	return func(c *config.RegionConfig) { c.Static = static }
}

// WithTraversal selects the static planner's DAG walk order.
func WithTraversal(order config.Traversal) Option {
	return func(c *config.RegionConfig) { c.Traversal = order }
}

// WithAliasing toggles whether the alias oracle inspects sub-selector
// spans (true, default) or falls back to whole-value identity (false).
func WithAliasing(enabled bool) Option {
	return func(c *config.RegionConfig) { c.Aliasing = enabled }
}

// Region is the active submission sink handed to a WithRegion body: every
// task spawned through it is recorded against the region's dependency
// graph (spec §5 "region"). A Region must not be used after its body
// returns.
type Region struct {
	ctx   context.Context
	rt    *Runtime
	rec   *depgraph.Recorder
	cfg   config.RegionConfig
	scope topology.Scope

	handles []*access.TaskHandle
}

// Spawn submits fn for execution once its recorded dependencies are
// satisfied. fn's parameters correspond positionally to args; a leading
// context.Context parameter, if present, receives the region's context.
func (r *Region) Spawn(name string, fn any, args ...Access) (*Handle, error) {
	handle := access.NewTaskHandle(name + "_" + uuid.New().String())
	if _, err := r.rec.Enqueue(r.ctx, name, fn, args, r.scope, handle); err != nil {
		return nil, err
	}
	r.handles = append(r.handles, handle)
	return &Handle{h: handle}, nil
}

// WithRegion opens a region, runs body against it, plans and waits for
// every spawned task, then returns body's result (spec §5). If body
// returns an error, no planning happens and that error is returned after
// the wait. Otherwise the first plan or wait failure is returned: a body
// that completes without error but whose tasks then fail has still failed
// the region as a whole.
func (rt *Runtime) WithRegion(ctx context.Context, body func(r *Region) error, opts ...Option) error {
	cfg := config.DefaultRegionConfig()
	for _, o := range opts {
		o(&cfg)
	}

	var oracle alias.Oracle = alias.IdentityOracle{}
	if cfg.Aliasing {
		oracle = datamove.RangeOracle{}
	}

	mode := depgraph.Dynamic
	if cfg.Static {
		mode = depgraph.Static
	}

	started := time.Now()
	regionID := uuid.New().String()

	scope := topology.Unconstrained()
	rec := depgraph.New(oracle, mode, rt.executor, scope)
	region := &Region{ctx: ctx, rt: rt, rec: rec, cfg: cfg, scope: scope}

	bodyErr := body(region)

	var planResult *planner.Result
	regionErr := bodyErr
	if cfg.Static && regionErr == nil {
		pl := planner.New(rt.logger, oracle, rt.topo, rt.mover, rt.executor)
		res, err := pl.Plan(ctx, rec, string(cfg.Traversal), scope)
		planResult = res
		if err != nil {
			regionErr = err
		}
	}

	if waitErr := rt.executor.Wait(ctx); waitErr != nil && regionErr == nil {
		regionErr = waitErr
	}

	for _, h := range region.handles {
		if res, ok := rt.executor.Result(h.ID); ok {
			h.Start(res)
		}
	}

	rt.recordHistory(ctx, regionID, started, cfg, planResult, regionErr)

	if regionErr != nil {
		return regionErr
	}
	return bodyErr
}

// recordHistory writes one region's summary to the attached history
// store, if any (see UseHistoryStore). Recording failures are logged, not
// propagated: the audit trail is best-effort and must never turn a
// successful region into a failed one.
func (rt *Runtime) recordHistory(ctx context.Context, regionID string, started time.Time, cfg config.RegionConfig, res *planner.Result, regionErr error) {
	if rt.history == nil {
		return
	}
	rec := store.RegionRecord{
		ID:         regionID,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Traversal:  string(cfg.Traversal),
		Static:     cfg.Static,
		Aliasing:   cfg.Aliasing,
	}
	if res != nil {
		rec.TaskCount = res.TaskCount
		rec.CopyInCount = res.CopyInCount
		rec.CopyOutCount = res.CopyOutCount
	}
	if regionErr != nil {
		rec.Error = regionErr.Error()
	}
	if err := rt.history.RecordRegion(ctx, rec); err != nil {
		rt.logger.Error("record region history", "region", regionID, "error", err)
	}
}
