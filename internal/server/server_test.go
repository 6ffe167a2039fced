package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	require.Equal(t, "[::]:46899", cfg.ListenAddr)
	require.Equal(t, ":9090", cfg.MetricsAddr)
	require.Equal(t, "fcast-core", cfg.Initial.AppName)
}
