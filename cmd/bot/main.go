package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nguyentantai21042004/transcript-flow/internal/bot"
	"github.com/nguyentantai21042004/transcript-flow/internal/chat"
	"github.com/nguyentantai21042004/transcript-flow/internal/config"
	"github.com/nguyentantai21042004/transcript-flow/internal/delivery"
	"github.com/nguyentantai21042004/transcript-flow/internal/logger"
	"github.com/nguyentantai21042004/transcript-flow/internal/media"
	"github.com/nguyentantai21042004/transcript-flow/internal/stats"
	"github.com/nguyentantai21042004/transcript-flow/internal/store"
	"github.com/nguyentantai21042004/transcript-flow/internal/summarize"
	"github.com/nguyentantai21042004/transcript-flow/internal/transcribe"
	"github.com/nguyentantai21042004/transcript-flow/pkg/executor"
)

const configPath = "config.yaml"

func main() {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info(ctx, "Starting transcript-flow")
	log.Info(ctx, "Page budget: %d chars, record ttl: %dh, max concurrent: %d",
		cfg.PageBudget(), cfg.Delivery.TTLHours, cfg.Performance.MaxConcurrent)

	if err := os.MkdirAll(cfg.Paths.Temp, 0755); err != nil {
		log.Error(ctx, "Failed to create temp directory: %v", err)
		os.Exit(1)
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Error(ctx, "Failed to open state store: %v", err)
		os.Exit(1)
	}
	defer st.Close()
	log.Info(ctx, "State store: %s", cfg.Store.Backend)

	var recorder stats.Recorder
	if cfg.Store.Backend == "sqlite" {
		recorder, err = stats.NewSQLite(cfg.Store.Path)
		if err != nil {
			log.Error(ctx, "Failed to open stats db: %v", err)
			os.Exit(1)
		}
	}

	exec := executor.New()
	extractor := media.New(exec, log)
	engine := transcribe.New(cfg.Whisper, cfg.Paths.Temp, exec, log)
	summarizer := summarize.New(cfg.Gemini.APIKeys, cfg.Gemini.Model, cfg.Delivery.MinSummaryWords, log)
	chatClient := chat.NewTelegram(cfg.Bot.APIEndpoint, cfg.Bot.Token, cfg.Bot.PollTimeout, log)

	controller := delivery.New(cfg, chatClient, extractor, engine, summarizer, st, recorder, log)
	dispatcher := bot.New(chatClient, controller, recorder, log, cfg.Performance.MaxConcurrent)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Hot reload so pagination budget and ttl changes apply without restart
	go func() {
		if err := config.Watch(ctx, configPath, log, controller.UpdateConfig); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn(ctx, "Config watcher exited: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()

	log.Info(ctx, "Bot is ready")

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Dispatcher error: %v", err)
	}

	cancel()
	log.Info(ctx, "transcript-flow stopped")
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
