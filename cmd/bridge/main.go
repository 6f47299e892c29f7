package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/pluginbridge/app/bridge"
	"github.com/dmitrymomot/pluginbridge/core/config"
	"github.com/dmitrymomot/pluginbridge/core/logger"
	"github.com/dmitrymomot/pluginbridge/middleware"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg bridge.Config
	config.MustLoad(&cfg) // panic on error

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.AppName),
		logger.WithLevel(logger.LevelFromString(cfg.LogLevel)),
		logger.WithContextExtractors(middleware.RequestIDExtractor),
	)
	logger.SetAsDefault(log)

	app, err := bridge.NewApp(bridge.WithConfig(cfg), bridge.WithLogger(log))
	if err != nil {
		log.Error("Failed to initialize application", logger.Component("app"), logger.Error(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("Application stopped with error", logger.Component("app"), logger.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped", logger.Component("app"))
}
