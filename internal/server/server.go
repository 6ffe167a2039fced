// Package server wires the TCP listener, the application hub, and the
// metrics HTTP endpoint into one process lifecycle.
package server

import (
	"context"
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alxayo/fcast-core/internal/coordinator"
	"github.com/alxayo/fcast-core/internal/discovery"
	"github.com/alxayo/fcast-core/internal/hub"
	"github.com/alxayo/fcast-core/internal/metrics"
	"github.com/alxayo/fcast-core/internal/metricsserver"
)

// Config holds the receiver's runtime configuration.
type Config struct {
	ListenAddr  string
	MetricsAddr string
	Initial     InitialInfo
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "[::]:46899"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9090"
	}
	if c.Initial.AppName == "" {
		c.Initial.AppName = "fcast-core"
	}
	if c.Initial.DisplayName == "" {
		c.Initial.DisplayName = "FCast Receiver"
	}
}

// Server owns the listener and coordinates the accept loop, the pipeline
// event pump, and the metrics HTTP server under one errgroup so that any
// one of them failing brings the others down for a clean shutdown.
type Server struct {
	cfg        Config
	hub        *hub.Hub
	coord      *coordinator.Coordinator
	advertiser discovery.Advertiser
	log        zerolog.Logger
}

func New(cfg Config, h *hub.Hub, coord *coordinator.Coordinator, advertiser discovery.Advertiser, log zerolog.Logger) *Server {
	cfg.applyDefaults()
	return &Server{cfg: cfg, hub: h, coord: coord, advertiser: advertiser, log: log}
}

// Run blocks until ctx is canceled or a component fails, then shuts
// everything down and returns the first error encountered (nil on a clean
// context cancellation).
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer ln.Close()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		return s.acceptLoop(gctx, ln)
	})
	g.Go(func() error {
		return s.pumpPipelineEvents(gctx)
	})
	g.Go(func() error {
		handler := metricsserver.New(func() bool { return true })
		return metricsserver.Serve(gctx, s.cfg.MetricsAddr, handler)
	})
	g.Go(func() error {
		return s.advertiser.Start(gctx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		metrics.ActiveSessions.Inc()
		go func() {
			defer metrics.ActiveSessions.Dec()
			serveConn(ctx, nc, s.hub, s.cfg.Initial, s.log)
		}()
	}
}

// pumpPipelineEvents drains the coordinator's pipeline events and folds
// them into the hub for as long as the server runs.
func (s *Server) pumpPipelineEvents(ctx context.Context) error {
	events := s.coord.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.hub.HandlePipelineEvent(ctx, ev); err != nil {
				s.log.Warn().Err(err).Msg("pipeline event handling failed")
			}
		}
	}
}
