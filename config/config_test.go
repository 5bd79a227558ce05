package config

import (
	"os"
	"testing"
	"time"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, `marketboard:
  name: "TestBoard"
  version: "1.0"
channels:
  tick_buffer: 64
source:
  binance:
    timeout: 5s
    reconnect_delay: 2s
aggregator:
  poll_interval: 30s
  top_k: 5
  enrich_delay: 100ms
`)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Marketboard.Name != "TestBoard" {
		t.Errorf("unexpected name: %s", cfg.Marketboard.Name)
	}
	if cfg.Source.Binance.Timeout.Std() != 5*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.Source.Binance.Timeout.Std())
	}
	if cfg.Aggregator.PollInterval.Std() != 30*time.Second {
		t.Errorf("unexpected poll interval: %s", cfg.Aggregator.PollInterval.Std())
	}
	if cfg.Aggregator.TopK != 5 {
		t.Errorf("unexpected top_k: %d", cfg.Aggregator.TopK)
	}
	if cfg.Aggregator.EnrichDelay.Std() != 100*time.Millisecond {
		t.Errorf("unexpected enrich delay: %s", cfg.Aggregator.EnrichDelay.Std())
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `marketboard:
  name: "TestBoard"
`)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Source.Binance.RestURL != "https://fapi.binance.com" {
		t.Errorf("unexpected rest url: %s", cfg.Source.Binance.RestURL)
	}
	if cfg.Source.Binance.StreamURL != "wss://fstream.binance.com/ws/!miniTicker@arr" {
		t.Errorf("unexpected stream url: %s", cfg.Source.Binance.StreamURL)
	}
	if cfg.Aggregator.TopK != 20 {
		t.Errorf("unexpected default top_k: %d", cfg.Aggregator.TopK)
	}
	if cfg.Aggregator.EnrichDelay.Std() != 250*time.Millisecond {
		t.Errorf("unexpected default enrich delay: %s", cfg.Aggregator.EnrichDelay.Std())
	}
	if cfg.Channels.TickBuffer != 256 {
		t.Errorf("unexpected default tick buffer: %d", cfg.Channels.TickBuffer)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing name", `marketboard:
  version: "1.0"
`},
		{"bad rest url", `marketboard:
  name: "TestBoard"
source:
  binance:
    rest_url: "ftp://example.com"
`},
		{"poll too fast", `marketboard:
  name: "TestBoard"
aggregator:
  poll_interval: 100ms
`},
	}
	for _, c := range cases {
		path := writeTempConfig(t, c.content)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
		os.Remove(path)
	}
}

func TestDurationUnmarshalForms(t *testing.T) {
	path := writeTempConfig(t, `marketboard:
  name: "TestBoard"
source:
  binance:
    timeout: 1500000000
    reconnect_delay: 3s
`)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Source.Binance.Timeout.Std() != 1500*time.Millisecond {
		t.Errorf("bare integer should parse as nanoseconds, got %s", cfg.Source.Binance.Timeout.Std())
	}
	if cfg.Source.Binance.ReconnectDelay.Std() != 3*time.Second {
		t.Errorf("unexpected reconnect delay: %s", cfg.Source.Binance.ReconnectDelay.Std())
	}
}

func TestResolveEnvSpecificPathFallsBack(t *testing.T) {
	// No environment override files exist in the test environment, so the
	// explicit path always wins.
	got := resolveEnvSpecificPath("custom/path.yml", defaultConfigPath, envConfigPaths)
	if got != "custom/path.yml" {
		t.Errorf("unexpected path: %s", got)
	}
	got = resolveEnvSpecificPath("", defaultConfigPath, envConfigPaths)
	if got != defaultConfigPath {
		t.Errorf("empty path should resolve to default, got %s", got)
	}
}
