package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"multichat/internal/config"
	"multichat/internal/infrastructure/logger"
	"multichat/internal/infrastructure/observability"
	"multichat/internal/interfaces/httpserver"
)

type Application struct {
	httpServer    *httpserver.HTTPServer
	metricsServer *httpserver.MetricsServer
}

// loadEnvFiles reads .env files when present. Variables already set in the
// environment win.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			log := logger.GetLogger()
			log.Warn().Err(err).Str("file", name).Msg("failed to load env file")
		}
	}
}

func (application *Application) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return application.metricsServer.Run(ctx)
	})
	eg.Go(func() error {
		return application.httpServer.Run(ctx)
	})
	return eg.Wait()
}

func main() {
	loadEnvFiles()
	log := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	application, cleanup, err := CreateApplication()
	if err != nil {
		log.Fatal().Err(err).Msg("create application")
	}
	defer cleanup()

	if err := application.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("server stopped")
		return
	}
	log.Info().Msg("server stopped")
}
