package board

import (
	"context"
	"errors"
	"sync"
	"testing"

	appconfig "marketboard/config"
	"marketboard/live"
	"marketboard/models"
	"marketboard/numeric"
)

type fakeSource struct {
	mu         sync.Mutex
	depthCalls int
	depthFn    func(call int, symbol string) (*models.DepthResponse, error)
}

func (f *fakeSource) FetchSymbols(ctx context.Context) ([]models.SymbolMeta, error) {
	return []models.SymbolMeta{
		{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT", Status: "TRADING"},
	}, nil
}

func (f *fakeSource) FetchTickers(ctx context.Context) ([]models.Ticker24h, error) {
	return []models.Ticker24h{{
		Symbol:      "BTCUSDT",
		LastPrice:   numeric.Value("50000"),
		QuoteVolume: numeric.Value("1000"),
		Count:       numeric.Value("10"),
	}}, nil
}

func (f *fakeSource) FetchPremiumIndex(ctx context.Context) ([]models.PremiumIndex, error) {
	return nil, nil
}

func (f *fakeSource) FetchOpenInterest(ctx context.Context, symbol string) (float64, error) {
	return 2, nil
}

func (f *fakeSource) FetchDepth(ctx context.Context, symbol string, limit int) (*models.DepthResponse, error) {
	f.mu.Lock()
	f.depthCalls++
	call := f.depthCalls
	f.mu.Unlock()
	return f.depthFn(call, symbol)
}

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		Aggregator: appconfig.AggregatorConfig{
			TopK:        1,
			EnrichDelay: appconfig.Duration(1),
			DepthLimit:  50,
		},
	}
}

func TestSnapshotInstallsLiveCollection(t *testing.T) {
	recon := live.NewReconciler()
	svc := NewService(testConfig(), &fakeSource{}, recon)

	metrics, assets, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(assets) != 1 || assets[0].Symbol != "BTCUSDT" {
		t.Fatalf("unexpected collection: %+v", assets)
	}
	if metrics.TotalOpenInterestQuote != 100000 {
		t.Fatalf("total oi = %v, want 100000 (2 base * 50000 last)", metrics.TotalOpenInterestQuote)
	}

	liveAssets := svc.Assets()
	if len(liveAssets) != 1 || liveAssets[0] != assets[0] {
		t.Fatalf("snapshot result must become the live collection")
	}
}

func TestOrderBookNormalizesDepth(t *testing.T) {
	src := &fakeSource{
		depthFn: func(call int, symbol string) (*models.DepthResponse, error) {
			return &models.DepthResponse{
				LastUpdateID: 5,
				Bids:         [][]numeric.Value{{"100", "1"}, {"99", "2"}},
				Asks:         [][]numeric.Value{{"102", "3"}, {"101", "1"}},
			}, nil
		},
	}
	svc := NewService(testConfig(), src, live.NewReconciler())

	view, err := svc.OrderBook(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("order book: %v", err)
	}
	if view.LastUpdateID != 5 {
		t.Fatalf("last update id = %d", view.LastUpdateID)
	}
	if view.Asks[0].Price != 101 || view.Asks[1].CumulativeQuantity != 4 {
		t.Fatalf("asks not normalized: %+v", view.Asks)
	}
	if view.Bids[1].CumulativeQuantity != 3 {
		t.Fatalf("bids not accumulated: %+v", view.Bids)
	}
}

func TestOrderBookSupersededBySubsequentRequest(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	src := &fakeSource{
		depthFn: func(call int, symbol string) (*models.DepthResponse, error) {
			if call == 1 {
				close(firstStarted)
				<-releaseFirst
			}
			return &models.DepthResponse{LastUpdateID: int64(call)}, nil
		},
	}
	svc := NewService(testConfig(), src, live.NewReconciler())

	var firstErr error
	done := make(chan struct{})
	go func() {
		_, firstErr = svc.OrderBook(context.Background(), "BTCUSDT")
		close(done)
	}()

	<-firstStarted
	view, err := svc.OrderBook(context.Background(), "ETHUSDT")
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if view.LastUpdateID != 2 {
		t.Fatalf("second response id = %d", view.LastUpdateID)
	}

	close(releaseFirst)
	<-done
	if !errors.Is(firstErr, models.ErrSuperseded) {
		t.Fatalf("first request should be superseded, got %v", firstErr)
	}
}

func TestSnapshotSkipsWhenCycleInFlight(t *testing.T) {
	recon := live.NewReconciler()
	svc := NewService(testConfig(), &fakeSource{}, recon)

	svc.cycleRunning.Store(true)
	_, _, err := svc.Snapshot(context.Background())
	if !errors.Is(err, ErrCycleInFlight) {
		t.Fatalf("want ErrCycleInFlight, got %v", err)
	}
	svc.cycleRunning.Store(false)

	if _, _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatalf("snapshot after release: %v", err)
	}
}

func TestSortedAssetsDoesNotReorderLiveCollection(t *testing.T) {
	recon := live.NewReconciler()
	low, high := 1.0, 2.0
	recon.ReplaceAll([]*models.AssetSnapshot{
		{ID: "LOW", Symbol: "LOW", Price: &low},
		{ID: "HIGH", Symbol: "HIGH", Price: &high},
	})
	svc := NewService(testConfig(), &fakeSource{}, recon)

	sorted := svc.SortedAssets(models.SortByPrice, true)
	if sorted[0].Symbol != "HIGH" {
		t.Fatalf("unexpected sorted order: %s", sorted[0].Symbol)
	}
	if svc.Assets()[0].Symbol != "LOW" {
		t.Fatalf("live collection must keep its order")
	}
}

func TestSnapshotIdempotentAcrossCycles(t *testing.T) {
	recon := live.NewReconciler()
	svc := NewService(testConfig(), &fakeSource{}, recon)

	m1, _, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("first snapshot: %v", err)
	}
	m2, _, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	if m1 != m2 {
		t.Fatalf("identical upstream data must yield identical totals: %+v vs %+v", m1, m2)
	}
}
