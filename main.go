package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marketboard/board"
	"marketboard/config"
	"marketboard/internal/channel"
	"marketboard/live"
	"marketboard/logger"
	"marketboard/reader/binance"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Marketboard.Name,
		"version": cfg.Marketboard.Version,
	}).Info("starting marketboard")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.CloudWatch {
		logger.InitCloudWatch(cfg.Metrics.Region, cfg.Metrics.Namespace)
	}

	channels := channel.NewChannels(cfg.Channels.TickBuffer)
	defer channels.Close()

	if cfg.Metrics.ChannelSize {
		go channels.StartMetricsReporting(ctx)
	}

	creds := binance.Credentials{
		APIKey:    os.Getenv("BINANCE_API_KEY"),
		APISecret: os.Getenv("BINANCE_API_SECRET"),
	}
	if !creds.Configured() {
		log.WithComponent("main").Warn("api credentials not set; signed endpoints will be skipped by upstream")
	}

	source := binance.NewClient(cfg, creds)
	reconciler := live.NewReconciler()
	service := board.NewService(cfg, source, reconciler)
	stream := binance.NewTickerStream(cfg, channels)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		reconciler.Run(ctx, channels.Ticks)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		service.RunPolling(ctx)
	}()

	if err := stream.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start ticker stream")
		os.Exit(1)
	}

	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()

	log.Info("stopping ticker stream")
	stream.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("marketboard stopped")
}
