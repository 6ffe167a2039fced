// Package metrics declares the receiver's Prometheus collectors. Call
// sites increment these directly; registration happens implicitly via
// promauto against the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fcast_active_sessions",
		Help: "Number of currently connected sessions.",
	})

	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fcast_operations_total",
		Help: "Operations dispatched to the hub, by kind.",
	}, []string{"kind"})

	BroadcastDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fcast_broadcast_dropped_total",
		Help: "Broadcasts dropped because a session's outbound channel was full.",
	})

	SeekCoalescedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fcast_seek_coalesced_total",
		Help: "Seek requests coalesced into an already in-flight seek.",
	})

	HeartbeatTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fcast_heartbeat_timeouts_total",
		Help: "Sessions ended because no Pong arrived before the heartbeat deadline.",
	})

	SessionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fcast_session_errors_total",
		Help: "Session-fatal errors, by taxonomy kind.",
	}, []string{"kind"})
)
