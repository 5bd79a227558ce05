package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Marketboard MarketboardConfig `yaml:"marketboard"`
	Channels    ChannelsConfig    `yaml:"channels"`
	Source      SourceConfig      `yaml:"source"`
	Aggregator  AggregatorConfig  `yaml:"aggregator"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type MarketboardConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type MetricsConfig struct {
	CloudWatch  bool   `yaml:"cloudwatch"`
	Namespace   string `yaml:"namespace"`
	Region      string `yaml:"region"`
	UsedWeight  bool   `yaml:"used_weight"`
	ChannelSize bool   `yaml:"channel_size"`
}

type ChannelsConfig struct {
	TickBuffer int `yaml:"tick_buffer"`
}

type SourceConfig struct {
	Binance BinanceSourceConfig `yaml:"binance"`
}

type BinanceSourceConfig struct {
	RestURL        string               `yaml:"rest_url"`
	StreamURL      string               `yaml:"stream_url"`
	Timeout        Duration             `yaml:"timeout"`
	ReconnectDelay Duration             `yaml:"reconnect_delay"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	MaxConnsPerHost int      `yaml:"max_conns_per_host"`
	IdleConnTimeout Duration `yaml:"idle_conn_timeout"`
}

type AggregatorConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
	TopK         int      `yaml:"top_k"`
	EnrichDelay  Duration `yaml:"enrich_delay"`
	DepthLimit   int      `yaml:"depth_limit"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// LoadConfig reads and validates the yaml configuration at path. Missing
// optional values receive defaults; invalid mandatory values fail the load.
func LoadConfig(path string) (*Config, error) {
	path = resolveEnvSpecificPath(path, defaultConfigPath, envConfigPaths)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Metrics: MetricsConfig{
			UsedWeight:  true,
			ChannelSize: true,
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Source.Binance.RestURL == "" {
		cfg.Source.Binance.RestURL = "https://fapi.binance.com"
	}
	cfg.Source.Binance.RestURL = strings.TrimRight(strings.TrimSpace(cfg.Source.Binance.RestURL), "/")

	if cfg.Source.Binance.StreamURL == "" {
		cfg.Source.Binance.StreamURL = "wss://fstream.binance.com/ws/!miniTicker@arr"
	}
	if cfg.Source.Binance.Timeout <= 0 {
		cfg.Source.Binance.Timeout = Duration(10 * time.Second)
	}
	if cfg.Source.Binance.ReconnectDelay <= 0 {
		cfg.Source.Binance.ReconnectDelay = Duration(5 * time.Second)
	}
	if cfg.Source.Binance.ConnectionPool.MaxIdleConns <= 0 {
		cfg.Source.Binance.ConnectionPool.MaxIdleConns = 16
	}
	if cfg.Source.Binance.ConnectionPool.MaxConnsPerHost <= 0 {
		cfg.Source.Binance.ConnectionPool.MaxConnsPerHost = 16
	}
	if cfg.Source.Binance.ConnectionPool.IdleConnTimeout <= 0 {
		cfg.Source.Binance.ConnectionPool.IdleConnTimeout = Duration(90 * time.Second)
	}

	if cfg.Channels.TickBuffer <= 0 {
		cfg.Channels.TickBuffer = 256
	}

	if cfg.Aggregator.PollInterval <= 0 {
		cfg.Aggregator.PollInterval = Duration(time.Minute)
	}
	if cfg.Aggregator.TopK <= 0 {
		cfg.Aggregator.TopK = 20
	}
	if cfg.Aggregator.EnrichDelay <= 0 {
		cfg.Aggregator.EnrichDelay = Duration(250 * time.Millisecond)
	}
	if cfg.Aggregator.DepthLimit <= 0 {
		cfg.Aggregator.DepthLimit = 50
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Marketboard.Name == "" {
		return fmt.Errorf("marketboard.name is required")
	}
	if !strings.HasPrefix(cfg.Source.Binance.RestURL, "http") {
		return fmt.Errorf("source.binance.rest_url must be an http(s) URL, got %q", cfg.Source.Binance.RestURL)
	}
	if !strings.HasPrefix(cfg.Source.Binance.StreamURL, "ws") {
		return fmt.Errorf("source.binance.stream_url must be a ws(s) URL, got %q", cfg.Source.Binance.StreamURL)
	}
	if cfg.Aggregator.PollInterval.Std() < time.Second {
		return fmt.Errorf("aggregator.poll_interval must be at least 1s, got %s", cfg.Aggregator.PollInterval.Std())
	}
	return nil
}
