package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	appconfig "marketboard/config"
	"marketboard/internal/metrics"
	"marketboard/logger"
	"marketboard/models"
	"marketboard/numeric"

	futures "github.com/adshao/go-binance/v2/futures"
)

// Client fetches the polled REST listings from the Binance futures API:
// contract metadata, 24h ticker stats, mark/funding data, per-symbol open
// interest and depth.
type Client struct {
	config      *appconfig.Config
	http        *http.Client
	futures     *futures.Client
	creds       Credentials
	baseURL     string
	log         *logger.Log
	weightLimit atomic.Int64
}

// NewClient creates a REST client using the configured connection pool and
// timeout. Credentials may be zero for the public endpoints; when set they
// are used to sign eligible requests.
func NewClient(cfg *appconfig.Config, creds Credentials) *Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Source.Binance.ConnectionPool.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Source.Binance.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:     cfg.Source.Binance.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:     cfg.Source.Binance.ConnectionPool.IdleConnTimeout.Std(),
		DisableCompression:  false,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.Source.Binance.Timeout.Std(),
	}

	client := futures.NewClient(creds.APIKey, creds.APISecret)
	client.HTTPClient = httpClient
	client.SetApiEndpoint(cfg.Source.Binance.RestURL)

	c := &Client{
		config:  cfg,
		http:    httpClient,
		futures: client,
		creds:   creds,
		baseURL: cfg.Source.Binance.RestURL,
		log:     logger.GetLogger(),
	}

	c.log.WithComponent("binance_rest").WithFields(logger.Fields{
		"base_url":           c.baseURL,
		"max_idle_conns":     cfg.Source.Binance.ConnectionPool.MaxIdleConns,
		"max_conns_per_host": cfg.Source.Binance.ConnectionPool.MaxConnsPerHost,
		"timeout":            cfg.Source.Binance.Timeout.Std().String(),
	}).Info("binance rest client initialized")

	return c
}

// FetchSymbols returns the tradable contract listing from exchange info. It
// also records the per-minute request weight limit for used-weight metrics.
func (c *Client) FetchSymbols(ctx context.Context) ([]models.SymbolMeta, error) {
	info, err := c.futures.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch exchange info: %v: %w", err, models.ErrSourceUnavailable)
	}

	for _, rl := range info.RateLimits {
		if rl.RateLimitType == "REQUEST_WEIGHT" && rl.Interval == "MINUTE" {
			c.weightLimit.Store(rl.Limit)
		}
	}

	metas := make([]models.SymbolMeta, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		metas = append(metas, models.SymbolMeta{
			Symbol:       s.Symbol,
			Pair:         s.Pair,
			BaseAsset:    s.BaseAsset,
			QuoteAsset:   s.QuoteAsset,
			ContractType: string(s.ContractType),
			Status:       s.Status,
		})
	}
	return metas, nil
}

// FetchTickers returns the full 24h ticker statistics array.
func (c *Client) FetchTickers(ctx context.Context) ([]models.Ticker24h, error) {
	var tickers []models.Ticker24h
	if err := c.get(ctx, "/fapi/v1/ticker/24hr", url.Values{}, false, &tickers); err != nil {
		return nil, err
	}
	return tickers, nil
}

// FetchPremiumIndex returns the mark-price/funding array for all symbols.
func (c *Client) FetchPremiumIndex(ctx context.Context) ([]models.PremiumIndex, error) {
	var marks []models.PremiumIndex
	if err := c.get(ctx, "/fapi/v1/premiumIndex", url.Values{}, false, &marks); err != nil {
		return nil, err
	}
	return marks, nil
}

// FetchOpenInterest returns the current open interest for one symbol in base
// units.
func (c *Client) FetchOpenInterest(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var payload models.OpenInterestResponse
	if err := c.get(ctx, "/fapi/v1/openInterest", q, true, &payload); err != nil {
		return 0, err
	}

	oi := numeric.Float(payload.OpenInterest.String(), numeric.Null)
	if oi == nil {
		return 0, fmt.Errorf("open interest for %s: empty value: %w", symbol, models.ErrSourceUnavailable)
	}
	return *oi, nil
}

// FetchDepth returns the raw depth listing for one symbol.
func (c *Client) FetchDepth(ctx context.Context, symbol string, limit int) (*models.DepthResponse, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("limit", strconv.Itoa(limit))

	var depth models.DepthResponse
	if err := c.get(ctx, "/fapi/v1/depth", q, false, &depth); err != nil {
		return nil, err
	}
	return &depth, nil
}

// get performs one GET request. Availability failures (transport errors,
// non-2xx statuses) come back wrapped in the models error taxonomy so
// callers can degrade; a body that fails to decode is a hard error.
func (c *Client) get(ctx context.Context, path string, q url.Values, signed bool, out interface{}) error {
	query := q.Encode()
	if signed && c.creds.Configured() {
		if query != "" {
			query += "&"
		}
		query += "timestamp=" + strconv.FormatInt(time.Now().UnixMilli(), 10)
		// The signature covers the exact query bytes sent, so it is
		// appended after signing rather than re-encoded.
		query += "&signature=" + c.creds.Sign(query)
	}

	reqURL := c.baseURL + path
	if query != "" {
		reqURL += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	if c.creds.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.creds.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, models.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	log := c.log.WithComponent("binance_rest").WithFields(logger.Fields{"path": path})
	logger.LogPerformanceEntry(log, "binance_rest", "api_request", time.Since(start), logger.Fields{
		"status": resp.StatusCode,
	})

	if c.config.Metrics.UsedWeight {
		metrics.ReportUsedWeight(c.log, resp.Header, c.weightLimit.Load())
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 418:
		return fmt.Errorf("%s: status %s: %w", path, resp.Status, models.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s: unexpected status %s: %w", path, resp.Status, models.ErrSourceUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
