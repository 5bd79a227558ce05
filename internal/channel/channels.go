package channel

import (
	"context"
	"sync"
	"time"

	"marketboard/logger"
	"marketboard/models"
)

type Stats struct {
	TicksSent    int64
	TicksDropped int64
}

// Channels carries tick batches from the stream reader to the live
// reconciler. Sends never block the producer; a full buffer drops the batch
// and counts it.
type Channels struct {
	Ticks chan models.TickBatch

	stats      Stats
	statsMutex sync.RWMutex
	log        *logger.Log
}

func NewChannels(tickBufferSize int) *Channels {
	log := logger.GetLogger()
	c := &Channels{
		Ticks: make(chan models.TickBatch, tickBufferSize),
		log:   log,
	}

	log.WithComponent("tick_channels").WithFields(logger.Fields{
		"tick_buffer_size": tickBufferSize,
	}).Info("tick channels initialized")

	return c
}

func (c *Channels) Close() {
	close(c.Ticks)
	c.log.WithComponent("tick_channels").Info("tick channels closed")
}

func (c *Channels) IncrementTicksSent() {
	c.statsMutex.Lock()
	c.stats.TicksSent++
	c.statsMutex.Unlock()
}

func (c *Channels) IncrementTicksDropped() {
	c.statsMutex.Lock()
	c.stats.TicksDropped++
	c.statsMutex.Unlock()
}

func (c *Channels) SendTicks(ctx context.Context, batch models.TickBatch) bool {
	select {
	case c.Ticks <- batch:
		c.IncrementTicksSent()
		return true
	case <-ctx.Done():
		return false
	default:
		c.IncrementTicksDropped()
		return false
	}
}

func (c *Channels) GetStats() Stats {
	c.statsMutex.RLock()
	defer c.statsMutex.RUnlock()
	return c.stats
}

// StartMetricsReporting periodically emits channel occupancy metrics until
// the context is cancelled.
func (c *Channels) StartMetricsReporting(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := c.GetStats()
			c.log.LogMetric("tick_channels", "tick_channel_len", len(c.Ticks), "gauge", logger.Fields{})
			c.log.LogMetric("tick_channels", "ticks_sent", stats.TicksSent, "counter", logger.Fields{})
			c.log.LogMetric("tick_channels", "ticks_dropped", stats.TicksDropped, "counter", logger.Fields{})
		}
	}
}
