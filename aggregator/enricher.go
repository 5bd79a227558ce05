package aggregator

import (
	"context"
	"sort"
	"time"

	"marketboard/logger"
	"marketboard/models"
	"marketboard/numeric"

	"golang.org/x/time/rate"
)

// FetchFunc fetches one supplementary per-symbol value.
type FetchFunc func(ctx context.Context, symbol string) (float64, error)

// Enricher fetches a supplementary metric for the top-K symbols by quote
// volume, strictly one request at a time, paced by a shared limiter so one
// aggregation cycle cannot trip the upstream per-second budget.
type Enricher struct {
	topK    int
	limiter *rate.Limiter
	log     *logger.Log
}

// NewEnricher creates an enricher pacing requests at one per delay. The
// limiter is shared across cycles.
func NewEnricher(topK int, delay time.Duration) *Enricher {
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	return &Enricher{
		topK:    topK,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		log:     logger.GetLogger(),
	}
}

// TopByQuoteVolume returns the topK tickers ranked descending by quote
// volume. The sort is stable so ties keep their input order.
func TopByQuoteVolume(tickers []models.Ticker24h, topK int) []models.Ticker24h {
	ranked := make([]models.Ticker24h, len(tickers))
	copy(ranked, tickers)
	sort.SliceStable(ranked, func(i, j int) bool {
		return numeric.FloatOrZero(ranked[i].QuoteVolume.String()) > numeric.FloatOrZero(ranked[j].QuoteVolume.String())
	})
	if topK < len(ranked) {
		ranked = ranked[:topK]
	}
	return ranked
}

// Enrich fetches the metric for exactly the top-K symbols, sequentially. A
// failed fetch records nil for that symbol and the sequence continues;
// symbols outside the top-K are absent from the result, which callers must
// treat differently from present-with-nil.
func (e *Enricher) Enrich(ctx context.Context, tickers []models.Ticker24h, fetch FetchFunc) map[string]*float64 {
	ranked := TopByQuoteVolume(tickers, e.topK)
	out := make(map[string]*float64, len(ranked))
	log := e.log.WithComponent("oi_enricher")

	for _, t := range ranked {
		if err := e.limiter.Wait(ctx); err != nil {
			// Cancelled; the remaining symbols were never attempted.
			return out
		}

		value, err := fetch(ctx, t.Symbol)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"symbol": t.Symbol}).Debug("enrichment fetch failed")
			out[t.Symbol] = nil
			continue
		}
		v := value
		out[t.Symbol] = &v
	}

	log.WithFields(logger.Fields{"symbols": len(ranked)}).Debug("enrichment pass complete")
	return out
}
