// Package pipeline implements the module pipeline (spec.md §4.7): ordered
// filter transformers and mutation transformers applied before compilation,
// and lifecycle observers notified at well-defined phases. The pipeline is
// stateless across requests — registries are built once at startup and
// never mutated afterward; all per-request state lives on the transient
// query tree the caller passes in.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/brightloom/sqlgraph/internal/catalog"
	"github.com/brightloom/sqlgraph/internal/filter"
)

// Phase identifies one of the four lifecycle points QueryObservers are
// notified at.
type Phase int

const (
	PhaseParsed Phase = iota
	PhaseTransformed
	PhaseBeforeExecute
	PhaseAfterExecute
)

func (p Phase) String() string {
	switch p {
	case PhaseParsed:
		return "Parsed"
	case PhaseTransformed:
		return "Transformed"
	case PhaseBeforeExecute:
		return "BeforeExecute"
	case PhaseAfterExecute:
		return "AfterExecute"
	default:
		return "Unknown"
	}
}

// FilterTransformer rewrites the filter attached to every selection of the
// named table, in increasing Priority order. Recommended ranges: 0-99
// security/tenant, 100-199 data filtering, 200+ application. A transformer
// may AND-compose onto the existing filter (filter.AndWith) or return an
// error — conventionally a *gqlerr.Error built with gqlerr.UserVisible — to
// abort the request (e.g. a missing tenant id).
type FilterTransformer interface {
	Priority() int
	Transform(ctx context.Context, table *catalog.Table, current *filter.Filter, userCtx interface{}) (*filter.Filter, error)
}

// MutationTransformer rewrites a mutation's operation and data before the
// mutation engine (internal/mutate) compiles it — e.g. turning a `delete`
// into an `update {deletedAt: now()}` for soft-delete tables.
type MutationTransformer interface {
	Priority() int
	Transform(ctx context.Context, op string, data map[string]interface{}, table *catalog.Table, userCtx interface{}) (string, map[string]interface{}, error)
}

// QueryObserver is notified at each lifecycle phase transition. Observers
// are side-effect only: a panicking observer must never change query
// output, so Pipeline.Notify recovers and logs instead of propagating.
type QueryObserver interface {
	Name() string
	Observe(ctx context.Context, phase Phase, info ObserveInfo)
}

// ObserveInfo carries whatever context is available at a given phase;
// fields not meaningful at a phase are left zero.
type ObserveInfo struct {
	Table *catalog.Table
	Err   error
}

// FuncObserver adapts a plain function to QueryObserver, the common case
// for ad hoc logging/metrics hooks.
type FuncObserver struct {
	ObserverName string
	Fn           func(ctx context.Context, phase Phase, info ObserveInfo)
}

func (f FuncObserver) Name() string { return f.ObserverName }
func (f FuncObserver) Observe(ctx context.Context, phase Phase, info ObserveInfo) {
	f.Fn(ctx, phase, info)
}

// Pipeline holds the three immutable registries. It is safe to share
// across concurrent requests; Register* calls are only valid at
// construction time, before any request uses the pipeline.
type Pipeline struct {
	log                  *zap.Logger
	filterTransformers   []FilterTransformer
	mutationTransformers []MutationTransformer
	observers            []QueryObserver
}

// New returns an empty pipeline. log may be nil, in which case a no-op
// logger is used (matching the teacher's convention of always having a
// usable *zap.Logger on hand rather than nil-checking at every call site).
func New(log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{log: log}
}

// RegisterFilterTransformer adds t to the registry, keeping the slice
// sorted by ascending Priority so Apply always runs transformers in order.
func (p *Pipeline) RegisterFilterTransformer(t FilterTransformer) {
	p.filterTransformers = append(p.filterTransformers, t)
	sortFilterTransformers(p.filterTransformers)
}

// RegisterMutationTransformer adds t to the registry in ascending Priority
// order.
func (p *Pipeline) RegisterMutationTransformer(t MutationTransformer) {
	p.mutationTransformers = append(p.mutationTransformers, t)
	sortMutationTransformers(p.mutationTransformers)
}

// RegisterObserver adds an observer; observers have no ordering contract
// beyond registration order.
func (p *Pipeline) RegisterObserver(o QueryObserver) {
	p.observers = append(p.observers, o)
}

// ApplyFilters runs every registered FilterTransformer over f in priority
// order, passing each transformer's returned filter to the next; composing
// onto the current filter (filter.AndWith) is the transformer's own job.
// The pipeline keeps no marker or metadata of its own: a second pass is a
// no-op only for transformers that detect their own earlier predicate in
// the filter they receive and return it unchanged.
func (p *Pipeline) ApplyFilters(ctx context.Context, table *catalog.Table, f *filter.Filter, userCtx interface{}) (*filter.Filter, error) {
	current := f
	for _, t := range p.filterTransformers {
		next, err := t.Transform(ctx, table, current, userCtx)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// ApplyMutation runs every registered MutationTransformer over (op, data)
// in priority order, threading the possibly-rewritten operation and data
// through each transformer in turn.
func (p *Pipeline) ApplyMutation(ctx context.Context, op string, data map[string]interface{}, table *catalog.Table, userCtx interface{}) (string, map[string]interface{}, error) {
	for _, t := range p.mutationTransformers {
		var err error
		op, data, err = t.Transform(ctx, op, data, table, userCtx)
		if err != nil {
			return "", nil, err
		}
	}
	return op, data, nil
}

// Notify runs every observer in a guarded wrapper: a panic is recovered,
// logged through zap ("observer panicked") and swallowed — observers must
// never abort a request or change its output.
func (p *Pipeline) Notify(ctx context.Context, phase Phase, info ObserveInfo) {
	for _, o := range p.observers {
		p.notifyOne(ctx, o, phase, info)
	}
}

func (p *Pipeline) notifyOne(ctx context.Context, o QueryObserver, phase Phase, info ObserveInfo) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("observer panicked", zap.String("observer", o.Name()), zap.String("phase", phase.String()), zap.Any("recover", r))
		}
	}()
	o.Observe(ctx, phase, info)
}

func sortFilterTransformers(ts []FilterTransformer) {
	// Insertion sort: registries are small (single-digit transformer
	// counts in practice) and this keeps Register* allocation-free beyond
	// the append itself.
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j].Priority() < ts[j-1].Priority(); j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}

func sortMutationTransformers(ts []MutationTransformer) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j].Priority() < ts[j-1].Priority(); j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}
