package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	appconfig "marketboard/config"
	"marketboard/internal/channel"
	"marketboard/internal/metrics"
	"marketboard/logger"
	"marketboard/models"
	"marketboard/numeric"

	"github.com/gorilla/websocket"
)

// TickerStream consumes the batched mini-ticker websocket stream and
// forwards price-only tick batches to the tick channel. Each push message
// becomes exactly one TickBatch.
type TickerStream struct {
	config   *appconfig.Config
	channels *channel.Channels
	ctx      context.Context
	wg       *sync.WaitGroup
	mu       sync.RWMutex
	running  bool
	log      *logger.Log
}

// NewTickerStream creates a new stream reader.
func NewTickerStream(cfg *appconfig.Config, ch *channel.Channels) *TickerStream {
	return &TickerStream{
		config:   cfg,
		channels: ch,
		wg:       &sync.WaitGroup{},
		log:      logger.GetLogger(),
	}
}

// Start begins the read loop. It reconnects with a fixed delay when the
// transport drops and returns once the loop goroutine is launched.
func (s *TickerStream) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("ticker stream already running")
	}
	s.running = true
	s.ctx = ctx
	s.mu.Unlock()

	log := s.log.WithComponent("ticker_stream").WithFields(logger.Fields{"operation": "start"})
	log.WithFields(logger.Fields{"url": s.config.Source.Binance.StreamURL}).Info("starting ticker stream")

	s.wg.Add(1)
	go s.run()

	log.Info("ticker stream started successfully")
	return nil
}

// Stop terminates the stream and waits for the read loop to exit.
func (s *TickerStream) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.log.WithComponent("ticker_stream").Info("stopping ticker stream")
	s.wg.Wait()
	s.log.WithComponent("ticker_stream").Info("ticker stream stopped")
}

func (s *TickerStream) run() {
	defer s.wg.Done()

	log := s.log.WithComponent("ticker_stream").WithFields(logger.Fields{"worker": "stream_reader"})
	reconnectDelay := s.config.Source.Binance.ReconnectDelay.Std()

	for {
		if s.ctx.Err() != nil {
			log.Info("stream reader stopped due to context cancellation")
			return
		}

		if err := s.readLoop(log); err != nil {
			log.WithError(err).Warn("stream connection lost")
		}

		select {
		case <-s.ctx.Done():
			log.Info("stream reader stopped due to context cancellation")
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *TickerStream) readLoop(log *logger.Entry) error {
	conn, _, err := websocket.DefaultDialer.DialContext(s.ctx, s.config.Source.Binance.StreamURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.config.Source.Binance.StreamURL, err)
	}
	defer conn.Close()

	log.Info("ticker stream connected")

	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		s.handleMessage(log, payload)
	}
}

func (s *TickerStream) handleMessage(log *logger.Entry, payload []byte) {
	var events []models.WsMiniTicker
	if err := json.Unmarshal(payload, &events); err != nil {
		log.WithError(err).Warn("failed to unmarshal ticker array")
		return
	}
	if len(events) == 0 {
		return
	}

	batch := models.TickBatch{
		Ticks:    make([]models.PriceTick, 0, len(events)),
		Received: time.Now().UTC(),
	}
	for _, ev := range events {
		price := numeric.Float(ev.ClosePrice.String(), numeric.Null)
		if ev.Symbol == "" || price == nil {
			continue
		}
		batch.Ticks = append(batch.Ticks, models.PriceTick{Symbol: ev.Symbol, Price: *price})
	}
	if len(batch.Ticks) == 0 {
		return
	}

	if s.channels.SendTicks(s.ctx, batch) {
		logger.LogDataFlowEntry(log, "binance_ws", "tick_channel", len(batch.Ticks), "price_ticks")
	} else if s.ctx.Err() == nil {
		metrics.EmitDropMetric(s.log, metrics.DropMetricTickBatch, "binance", "", "raw")
	}
}
