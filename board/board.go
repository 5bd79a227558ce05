// Package board is the top-level facade a dashboard frontend talks to. It
// coordinates aggregation cycles, order-book loads and the live price feed.
package board

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"marketboard/aggregator"
	appconfig "marketboard/config"
	"marketboard/live"
	"marketboard/logger"
	"marketboard/models"
	"marketboard/orderbook"
)

// Source is the upstream surface the board needs: the aggregation listings
// plus per-symbol depth.
type Source interface {
	aggregator.Source
	FetchDepth(ctx context.Context, symbol string, limit int) (*models.DepthResponse, error)
}

// Service ties the aggregator and the live reconciler together behind one
// API. Snapshot cycles are serialized; order-book loads are sequenced so a
// response that arrives after a newer request started is discarded.
type Service struct {
	config *appconfig.Config
	source Source
	agg    *aggregator.Aggregator
	recon  *live.Reconciler
	log    *logger.Log

	cycleRunning atomic.Bool
	depthSeq     atomic.Int64
}

func NewService(cfg *appconfig.Config, source Source, recon *live.Reconciler) *Service {
	return &Service{
		config: cfg,
		source: source,
		agg:    aggregator.New(cfg, source),
		recon:  recon,
		log:    logger.GetLogger(),
	}
}

// Snapshot runs one aggregation cycle and installs its result as the new
// live collection. Cycles are mutually exclusive with each other; a call
// while one is in flight returns ErrCycleInFlight so the poll loop can skip
// instead of queueing behind a slow upstream.
func (s *Service) Snapshot(ctx context.Context) (models.AggregateMetrics, []*models.AssetSnapshot, error) {
	if !s.cycleRunning.CompareAndSwap(false, true) {
		return models.AggregateMetrics{}, nil, ErrCycleInFlight
	}
	defer s.cycleRunning.Store(false)

	metrics, assets, err := s.agg.Snapshot(ctx)
	if err != nil {
		return models.AggregateMetrics{}, nil, err
	}

	s.recon.ReplaceAll(assets)
	return metrics, assets, nil
}

// ErrCycleInFlight reports that an aggregation cycle was skipped because the
// previous one had not finished.
var ErrCycleInFlight = fmt.Errorf("aggregation cycle already in flight")

// Assets returns the current live collection.
func (s *Service) Assets() []*models.AssetSnapshot {
	return s.recon.Assets()
}

// SortedAssets returns a copy of the live collection ordered by the given
// field. The live collection itself keeps its aggregation order.
func (s *Service) SortedAssets(field models.SortField, descending bool) []*models.AssetSnapshot {
	assets := s.recon.Assets()
	out := make([]*models.AssetSnapshot, len(assets))
	copy(out, assets)
	models.SortAssets(out, field, descending)
	return out
}

// OrderBook loads and normalizes the depth ladder for one symbol. Each call
// supersedes any earlier in-flight call; a response belonging to a
// superseded call returns models.ErrSuperseded instead of stale data.
func (s *Service) OrderBook(ctx context.Context, symbol string) (*models.OrderBookView, error) {
	seq := s.depthSeq.Add(1)

	depth, err := s.source.FetchDepth(ctx, symbol, s.config.Aggregator.DepthLimit)
	if err != nil {
		return nil, err
	}
	if s.depthSeq.Load() != seq {
		return nil, fmt.Errorf("depth for %s: %w", symbol, models.ErrSuperseded)
	}

	return orderbook.BuildView(symbol, depth), nil
}

// SubscribeLivePrices registers a callback invoked after every applied tick
// batch and returns its cancel function.
func (s *Service) SubscribeLivePrices(fn live.UpdateFunc) func() {
	return s.recon.Subscribe(fn)
}

// RunPolling drives aggregation cycles at the configured interval until the
// context is cancelled. The first cycle runs immediately. A cycle that is
// still running when the next interval fires is skipped, not stacked.
func (s *Service) RunPolling(ctx context.Context) {
	log := s.log.WithComponent("board").WithFields(logger.Fields{"worker": "poll_loop"})
	interval := s.config.Aggregator.PollInterval.Std()
	log.WithFields(logger.Fields{"interval": interval.String()}).Info("poll loop running")

	s.runCycle(ctx, log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("poll loop stopped due to context cancellation")
			return
		case <-ticker.C:
			s.runCycle(ctx, log)
		}
	}
}

func (s *Service) runCycle(ctx context.Context, log *logger.Entry) {
	metrics, assets, err := s.Snapshot(ctx)
	switch {
	case err == ErrCycleInFlight:
		log.Warn("previous aggregation cycle still in flight, skipping")
	case err != nil:
		log.WithError(err).Error("aggregation cycle failed")
	default:
		log.WithFields(logger.Fields{
			"symbols":            len(assets),
			"total_quote_volume": metrics.TotalDailyVolumeQuote,
			"total_trades":       metrics.TotalDailyTrades,
		}).Info("aggregation cycle complete")
	}
}
