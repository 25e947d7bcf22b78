package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the ocean game server.
//
// Naming convention: namespace_subsystem_name
// - namespace: ocean_game (application-level grouping)
// - subsystem: websocket, room (feature-level grouping)
// - name: specific metric (connections_active, messages_total, etc.)
//
// Metric Types:
// - Gauge: Current state (connections, rooms, players)
// - Counter: Cumulative events (messages handled, frames dropped)
// - Histogram: Latency distributions (handler time)

var (
	// ActiveWebSocketConnections tracks the current number of active WebSocket connections (Gauge - current state)
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ocean_game",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	// ActiveRooms tracks the current number of active rooms (Gauge - current state)
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ocean_game",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of active rooms",
	})

	// RoomPlayers tracks the number of players in each room (GaugeVec with
	// room_id label). A Gauge rather than a Histogram because we want the
	// current player count per room, not a distribution of historical counts.
	RoomPlayers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ocean_game",
		Subsystem: "room",
		Name:      "players_count",
		Help:      "Number of players in each room",
	}, []string{"room_id"})

	// MessagesHandled tracks the total number of inbound messages dispatched
	// by rooms (CounterVec - cumulative). Status is one of ok, dropped,
	// rejected, unknown.
	MessagesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ocean_game",
		Subsystem: "websocket",
		Name:      "messages_total",
		Help:      "Total inbound messages dispatched by rooms",
	}, []string{"message_type", "status"})

	// MessageHandlingDuration tracks the time spent inside room message
	// handlers (HistogramVec - latency distribution)
	MessageHandlingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ocean_game",
		Subsystem: "websocket",
		Name:      "message_handling_seconds",
		Help:      "Time spent handling inbound messages",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
	}, []string{"message_type"})

	// DroppedFrames counts outbound frames discarded under backpressure
	// (CounterVec - cumulative). Queue is send or priority.
	DroppedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ocean_game",
		Subsystem: "websocket",
		Name:      "dropped_frames_total",
		Help:      "Outbound frames dropped due to full client queues",
	}, []string{"queue"})

	// TickBroadcasts counts BATCH_POSITIONS broadcasts emitted by room tick
	// loops (Counter - cumulative).
	TickBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ocean_game",
		Subsystem: "room",
		Name:      "tick_broadcasts_total",
		Help:      "Total position batch broadcasts emitted by tick loops",
	})

	// RateLimitExceeded counts requests refused by the rate limiter
	// (CounterVec - cumulative). Scope is websocket_connect or http.
	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ocean_game",
		Subsystem: "websocket",
		Name:      "rate_limit_exceeded_total",
		Help:      "Requests refused because a rate limit was reached",
	}, []string{"scope"})
)

func IncConnection() {
	ActiveWebSocketConnections.Inc()
}

func DecConnection() {
	ActiveWebSocketConnections.Dec()
}
