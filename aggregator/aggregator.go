package aggregator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appconfig "marketboard/config"
	"marketboard/logger"
	"marketboard/models"
	"marketboard/numeric"
)

// Source abstracts the upstream REST listings one aggregation cycle reads.
type Source interface {
	FetchSymbols(ctx context.Context) ([]models.SymbolMeta, error)
	FetchTickers(ctx context.Context) ([]models.Ticker24h, error)
	FetchPremiumIndex(ctx context.Context) ([]models.PremiumIndex, error)
	FetchOpenInterest(ctx context.Context, symbol string) (float64, error)
}

// Aggregator builds the per-symbol asset collection from the three polled
// listings plus the rate-limited open-interest enrichment.
type Aggregator struct {
	config   *appconfig.Config
	source   Source
	enricher *Enricher
	log      *logger.Log
}

func New(cfg *appconfig.Config, source Source) *Aggregator {
	return &Aggregator{
		config:   cfg,
		source:   source,
		enricher: NewEnricher(cfg.Aggregator.TopK, cfg.Aggregator.EnrichDelay.Std()),
		log:      logger.GetLogger(),
	}
}

// Snapshot runs one full aggregation cycle. The three source fetches run
// concurrently; enrichment follows once tickers are available because it
// depends on the volume ranking. Unavailable sources degrade (to an empty
// collection when mandatory, to absent fields when optional); only hard
// failures such as malformed payloads from a mandatory source propagate.
func (a *Aggregator) Snapshot(ctx context.Context) (models.AggregateMetrics, []*models.AssetSnapshot, error) {
	log := a.log.WithComponent("aggregator").WithFields(logger.Fields{
		"cycle_id": uuid.New().String(),
	})
	start := time.Now()

	var (
		meta      []models.SymbolMeta
		tickers   []models.Ticker24h
		marks     []models.PremiumIndex
		metaErr   error
		tickerErr error
		markErr   error
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		meta, metaErr = a.source.FetchSymbols(ctx)
	}()
	go func() {
		defer wg.Done()
		tickers, tickerErr = a.source.FetchTickers(ctx)
	}()
	go func() {
		defer wg.Done()
		marks, markErr = a.source.FetchPremiumIndex(ctx)
	}()
	wg.Wait()

	if metaErr != nil && !models.Unavailable(metaErr) {
		return models.AggregateMetrics{}, nil, metaErr
	}
	if tickerErr != nil && !models.Unavailable(tickerErr) {
		return models.AggregateMetrics{}, nil, tickerErr
	}
	if metaErr != nil {
		log.WithError(metaErr).Warn("symbol metadata unavailable, degrading to empty snapshot")
		meta = nil
	}
	if tickerErr != nil {
		log.WithError(tickerErr).Warn("tickers unavailable, degrading to empty snapshot")
		tickers = nil
	}
	if markErr != nil {
		log.WithError(markErr).Warn("mark data unavailable, funding fields will be null")
		marks = nil
	}

	var openInterest map[string]*float64
	if len(meta) > 0 && len(tickers) > 0 {
		openInterest = a.enricher.Enrich(ctx, tickers, a.source.FetchOpenInterest)
	}

	metrics, assets := Aggregate(meta, tickers, marks, openInterest)

	logger.LogPerformanceEntry(log, "aggregator", "aggregation_cycle", time.Since(start), logger.Fields{
		"symbols": len(assets),
	})
	logger.LogDataFlowEntry(log, "binance_rest", "asset_collection", len(assets), "asset_snapshots")

	return metrics, assets, nil
}

// Aggregate merges the three listings keyed by symbol id into one
// denormalized record per symbol. The contract listing is authoritative for
// which symbols exist; a symbol without a ticker is dropped, mark/funding
// data is optional per symbol. The output is ordered descending by daily
// quote volume with ties preserving join order, and the totals are summed
// over the output collection, not the raw inputs.
func Aggregate(meta []models.SymbolMeta, tickers []models.Ticker24h, marks []models.PremiumIndex, openInterest map[string]*float64) (models.AggregateMetrics, []*models.AssetSnapshot) {
	if len(meta) == 0 || len(tickers) == 0 {
		return models.AggregateMetrics{}, []*models.AssetSnapshot{}
	}

	tickerByID := make(map[string]models.Ticker24h, len(tickers))
	for _, t := range tickers {
		tickerByID[t.Symbol] = t
	}
	markByID := make(map[string]models.PremiumIndex, len(marks))
	for _, m := range marks {
		markByID[m.Symbol] = m
	}

	assets := make([]*models.AssetSnapshot, 0, len(meta))
	for _, m := range meta {
		ticker, ok := tickerByID[m.Symbol]
		if !ok {
			continue
		}
		assets = append(assets, buildAsset(m, ticker, markByID, openInterest))
	}

	models.SortAssets(assets, models.SortByDailyVolumeQuote, true)

	var totals models.AggregateMetrics
	for _, a := range assets {
		totals.TotalDailyVolumeQuote += a.DailyVolumeQuote
		if a.OpenInterestQuote != nil {
			totals.TotalOpenInterestQuote += *a.OpenInterestQuote
		}
		totals.TotalDailyTrades += a.DailyTrades
	}

	return totals, assets
}

func buildAsset(meta models.SymbolMeta, ticker models.Ticker24h, markByID map[string]models.PremiumIndex, openInterest map[string]*float64) *models.AssetSnapshot {
	asset := &models.AssetSnapshot{
		ID:                    meta.Symbol,
		Symbol:                meta.Symbol,
		Price:                 numeric.Float(ticker.LastPrice.String(), numeric.Null),
		High24h:               numeric.Float(ticker.HighPrice.String(), numeric.Null),
		Low24h:                numeric.Float(ticker.LowPrice.String(), numeric.Null),
		PriceChangePercent24h: numeric.Float(ticker.PriceChangePercent.String(), numeric.Null),
		DailyVolumeQuote:      numeric.FloatOrZero(ticker.QuoteVolume.String()),
		DailyVolumeBase:       numeric.FloatOrZero(ticker.Volume.String()),
		DailyTrades:           numeric.IntOrZero(ticker.Count.String()),
		IconRef:               iconRef(meta.BaseAsset),
	}

	if mark, ok := markByID[meta.Symbol]; ok {
		asset.MarkPrice = numeric.Float(mark.MarkPrice.String(), numeric.Null)
		asset.IndexPrice = numeric.Float(mark.IndexPrice.String(), numeric.Null)
		asset.OraclePrice = numeric.Float(mark.EstimatedSettlePrice.String(), numeric.Null)
		asset.FundingRate = numeric.Float(mark.LastFundingRate.String(), numeric.Null)
		if mark.NextFundingTime > 0 {
			next := mark.NextFundingTime
			asset.NextFundingTimestamp = &next
		}
	}

	if base, attempted := openInterest[meta.Symbol]; attempted {
		// The quote value prices the base reading at the current last
		// price, which may lag or lead the open-interest timestamp.
		quote := 0.0
		if base != nil && asset.Price != nil {
			quote = *base * *asset.Price
		}
		asset.OpenInterestQuote = &quote
	}

	return asset
}

func iconRef(baseAsset string) string {
	if baseAsset == "" {
		return ""
	}
	return "icons/" + strings.ToLower(baseAsset) + ".svg"
}
