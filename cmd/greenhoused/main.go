package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"greenhouse/internal/config"
	"greenhouse/internal/daemon"
	"greenhouse/internal/generator"
	"greenhouse/internal/logging"
	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
	"greenhouse/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return
	}
	logger.Info("queue store opened", logging.String("path", store.Path()))
	plantStore := plants.NewStore(store.DB())
	gen := generator.NewFromConfig(cfg, logger)
	sched := scheduler.New(cfg, store, plantStore, gen, logger)

	d, err := daemon.New(cfg, store, sched, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("greenhoused shutting down")
}
