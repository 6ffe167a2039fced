package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alxayo/fcast-core/internal/coordinator"
	"github.com/alxayo/fcast-core/internal/discovery"
	"github.com/alxayo/fcast-core/internal/hub"
	"github.com/alxayo/fcast-core/internal/logger"
	"github.com/alxayo/fcast-core/internal/pipeline"
	"github.com/alxayo/fcast-core/internal/server"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cfg.showVersion {
		fmt.Println(version)
		return
	}

	logger.Init()
	if err := logger.SetLevel(cfg.logLevel); err != nil {
		fmt.Printf("warning: invalid log level %q, using default\n", cfg.logLevel)
	}
	log := logger.Logger().With().Str("component", "cli").Logger()

	p := pipeline.NewNoop()
	coord := coordinator.New(p, logger.Logger().With().Str("component", "coordinator").Logger())
	h := hub.New(coord, logger.Logger().With().Str("component", "hub").Logger())
	adv := discovery.Noop{}
	srv := server.New(cfg.serverConfig(), h, coord, adv, logger.Logger().With().Str("component", "server").Logger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", version).Msg("starting fcast-receiver")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server exited with error")
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stop error")
		}
	case <-shutdownCtx.Done():
		log.Error().Msg("forced exit after timeout")
	}
}
