// Package metrics emits operational counters and gauges through the logger's
// metric path, which mirrors them to CloudWatch when configured.
package metrics

import (
	"net/http"
	"strconv"

	"marketboard/logger"
)

// DropMetric identifies the metric name emitted when channel messages are dropped.
type DropMetric string

const (
	// DropMetricTickBatch records dropped live ticker batches.
	DropMetricTickBatch DropMetric = "tick_batches_dropped"
)

// EmitDropMetric logs and emits a metric representing a dropped channel
// message. The metric value is always incremented by one so callers invoke
// this helper for each dropped message.
func EmitDropMetric(log *logger.Log, metric DropMetric, exchange, symbol, stage string) {
	fields := logger.Fields{}
	if exchange != "" {
		fields["exchange"] = exchange
	}
	if symbol != "" {
		fields["symbol"] = symbol
	}
	if stage != "" {
		fields["stage"] = stage
	}

	log.LogMetric("channel_drops", string(metric), int64(1), "counter", fields)
}

// ReportUsedWeight parses the used request weight from the upstream response
// headers and emits a gauge against the discovered per-minute limit.
func ReportUsedWeight(log *logger.Log, header http.Header, weightLimit int64) {
	usedStr := header.Get("X-MBX-USED-WEIGHT-1m")
	if usedStr == "" {
		return
	}
	used, err := strconv.ParseInt(usedStr, 10, 64)
	if err != nil {
		return
	}

	fields := logger.Fields{}
	if weightLimit > 0 {
		fields["weight_limit"] = strconv.FormatInt(weightLimit, 10)
	}
	log.LogMetric("binance_rest", "used_weight", used, "gauge", fields)
}
