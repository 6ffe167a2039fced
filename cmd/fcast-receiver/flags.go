package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/alxayo/fcast-core/internal/server"
)

var version = "dev"

type cliConfig struct {
	listenAddr  string
	metricsAddr string
	logLevel    string
	displayName string
	appName     string
	appVersion  string
	showVersion bool
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("fcast-receiver", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	cfg := &cliConfig{}
	fs.StringVar(&cfg.listenAddr, "listen", "[::]:46899", "TCP listen address for the FCast protocol")
	fs.StringVar(&cfg.metricsAddr, "metrics-listen", ":9090", "HTTP listen address for /metrics and /healthz")
	defaultLevel := "info"
	if env := os.Getenv("FCAST_LOG"); env != "" {
		defaultLevel = strings.ToLower(strings.TrimSpace(env))
	}
	fs.StringVar(&cfg.logLevel, "log-level", defaultLevel, "Log level: trace|debug|info|warn|error|off (default from FCAST_LOG)")
	fs.StringVar(&cfg.displayName, "display-name", "FCast Receiver", "Friendly name advertised to v3 senders")
	fs.StringVar(&cfg.appName, "app-name", "fcast-core", "Application identifier advertised to v3 senders")
	fs.StringVar(&cfg.appVersion, "app-version", version, "Application version advertised to v3 senders")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch cfg.logLevel {
	case "trace", "debug", "info", "warn", "error", "off":
	default:
		return nil, fmt.Errorf("invalid log-level %q", cfg.logLevel)
	}
	if cfg.listenAddr == "" {
		return nil, errors.New("listen address must not be empty")
	}

	return cfg, nil
}

func (c *cliConfig) serverConfig() server.Config {
	return server.Config{
		ListenAddr:  c.listenAddr,
		MetricsAddr: c.metricsAddr,
		Initial: server.InitialInfo{
			DisplayName: c.displayName,
			AppName:     c.appName,
			AppVersion:  c.appVersion,
		},
	}
}
