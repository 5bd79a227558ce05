// Package live folds the push stream of price ticks into the asset
// collection between full aggregation cycles.
package live

import (
	"context"
	"sync"

	"marketboard/logger"
	"marketboard/models"
)

// UpdateFunc receives the collection after each applied tick-batch fold.
type UpdateFunc func([]*models.AssetSnapshot)

// Reconciler owns the shared asset collection. It has exactly two writer
// operations, a full replacement and a tick-batch fold, which are mutually
// exclusive; readers see either the previous or the next generation, never a
// partially updated one.
type Reconciler struct {
	mu      sync.RWMutex
	assets  []*models.AssetSnapshot
	index   map[string]int
	subs    map[int]UpdateFunc
	nextSub int
	log     *logger.Log

	ticksApplied  int64
	ticksSkipped  int64
	batchesFolded int64
}

func NewReconciler() *Reconciler {
	return &Reconciler{
		index: make(map[string]int),
		subs:  make(map[int]UpdateFunc),
		log:   logger.GetLogger(),
	}
}

// ReplaceAll installs a freshly aggregated collection, superseding any
// previously folded ticks.
func (r *Reconciler) ReplaceAll(assets []*models.AssetSnapshot) {
	index := make(map[string]int, len(assets))
	for i, a := range assets {
		index[a.ID] = i
	}

	r.mu.Lock()
	r.assets = assets
	r.index = index
	r.mu.Unlock()
}

// Assets returns the current collection generation. Callers must treat the
// returned slice and its snapshots as read-only.
func (r *Reconciler) Assets() []*models.AssetSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.assets
}

// ApplyBatch folds one push message into the collection as a single state
// transition. Ticks whose price equals the stored price are skipped, and
// untouched snapshots keep their identity so callers doing reference
// comparisons see exactly which entries changed. Only the price field is
// ever written by this path. Subscribers are notified once per applied
// batch.
func (r *Reconciler) ApplyBatch(batch models.TickBatch) {
	r.mu.Lock()

	var next []*models.AssetSnapshot
	for _, tick := range batch.Ticks {
		i, ok := r.index[tick.Symbol]
		if !ok {
			continue
		}

		current := r.assets[i]
		if next != nil {
			current = next[i]
		}
		if current.Price != nil && *current.Price == tick.Price {
			r.ticksSkipped++
			continue
		}

		if next == nil {
			next = make([]*models.AssetSnapshot, len(r.assets))
			copy(next, r.assets)
		}

		updated := *current
		price := tick.Price
		updated.Price = &price
		next[i] = &updated
		r.ticksApplied++
	}

	if next == nil {
		r.mu.Unlock()
		return
	}

	r.assets = next
	r.batchesFolded++

	subs := make([]UpdateFunc, 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// Subscribe registers an update callback and returns its cancel function.
func (r *Reconciler) Subscribe(fn UpdateFunc) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Run consumes tick batches until the channel closes or the context is
// cancelled. Each batch is folded in bounded time with no blocking I/O so
// the producer is never held up.
func (r *Reconciler) Run(ctx context.Context, batches <-chan models.TickBatch) {
	log := r.log.WithComponent("live_reconciler")
	log.Info("live reconciler running")

	for {
		select {
		case <-ctx.Done():
			log.Info("live reconciler stopped due to context cancellation")
			return
		case batch, ok := <-batches:
			if !ok {
				log.Info("tick channel closed, live reconciler stopping")
				return
			}
			r.ApplyBatch(batch)
		}
	}
}

// Stats returns the tick counters accumulated since start.
func (r *Reconciler) Stats() (applied, skipped, batches int64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ticksApplied, r.ticksSkipped, r.batchesFolded
}
