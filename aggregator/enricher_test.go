package aggregator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"marketboard/models"
	"marketboard/numeric"
)

func volTicker(symbol, quoteVol string) models.Ticker24h {
	return models.Ticker24h{Symbol: symbol, QuoteVolume: numeric.Value(quoteVol)}
}

func TestTopByQuoteVolume(t *testing.T) {
	tickers := []models.Ticker24h{
		volTicker("LOW", "10"),
		volTicker("HIGH", "1000"),
		volTicker("MID", "100"),
	}
	top := TopByQuoteVolume(tickers, 2)
	if len(top) != 2 || top[0].Symbol != "HIGH" || top[1].Symbol != "MID" {
		t.Fatalf("unexpected ranking: %+v", top)
	}
	// Input slice must not be reordered.
	if tickers[0].Symbol != "LOW" {
		t.Fatalf("input mutated: %+v", tickers)
	}
}

func TestTopByQuoteVolumeTopKExceedsInput(t *testing.T) {
	top := TopByQuoteVolume([]models.Ticker24h{volTicker("ONLY", "1")}, 20)
	if len(top) != 1 {
		t.Fatalf("want 1, got %d", len(top))
	}
}

func TestEnrichRecordsFailuresAsNil(t *testing.T) {
	e := NewEnricher(3, time.Nanosecond)
	tickers := []models.Ticker24h{
		volTicker("OK", "300"),
		volTicker("FAIL", "200"),
		volTicker("ALSO", "100"),
	}

	out := e.Enrich(context.Background(), tickers, func(ctx context.Context, symbol string) (float64, error) {
		if symbol == "FAIL" {
			return 0, fmt.Errorf("status 503: %w", models.ErrSourceUnavailable)
		}
		return 7, nil
	})

	if len(out) != 3 {
		t.Fatalf("want 3 entries, got %d", len(out))
	}
	if out["OK"] == nil || *out["OK"] != 7 {
		t.Fatalf("OK = %v", out["OK"])
	}
	if v, ok := out["FAIL"]; !ok || v != nil {
		t.Fatalf("FAIL should be present with nil, got %v present=%v", v, ok)
	}
	if out["ALSO"] == nil {
		t.Fatalf("failure must not abort the sequence")
	}
}

func TestEnrichOnlyTopK(t *testing.T) {
	e := NewEnricher(1, time.Nanosecond)
	tickers := []models.Ticker24h{
		volTicker("BIG", "1000"),
		volTicker("SMALL", "1"),
	}

	var calls []string
	out := e.Enrich(context.Background(), tickers, func(ctx context.Context, symbol string) (float64, error) {
		calls = append(calls, symbol)
		return 1, nil
	})

	if len(calls) != 1 || calls[0] != "BIG" {
		t.Fatalf("calls = %v, want [BIG]", calls)
	}
	if _, ok := out["SMALL"]; ok {
		t.Fatalf("SMALL is outside the window and must be absent")
	}
}

func TestEnrichStopsOnCancel(t *testing.T) {
	// Burst 1 with a long refill means only the first wait can succeed
	// before the deadline trips.
	e := NewEnricher(5, time.Hour)
	tickers := []models.Ticker24h{
		volTicker("A", "500"),
		volTicker("B", "400"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out := e.Enrich(ctx, tickers, func(ctx context.Context, symbol string) (float64, error) {
		return 1, nil
	})

	if len(out) >= 2 {
		t.Fatalf("cancelled enrichment should return a partial map, got %v", out)
	}
}
