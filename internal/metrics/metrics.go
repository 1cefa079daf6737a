// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Follower pipeline metrics
var (
	// FollowerUpdatesTotal tracks counter mutations by kind and source.
	FollowerUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "follower_updates_total",
			Help: "Total follower counter mutations by kind and source",
		},
		[]string{"kind", "source"},
	)

	// FollowerCount tracks the current authoritative follower count.
	FollowerCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "follower_count_current",
			Help: "Current authoritative follower count",
		},
	)

	// GoalAchieved is 1 when the follower goal has been reached.
	GoalAchieved = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "goal_achieved",
			Help: "Whether the follower goal has been reached (0 or 1)",
		},
	)
)

// Streamlabs socket metrics
var (
	// SocketReconnectsTotal tracks push feed reconnection attempts.
	SocketReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamlabs_socket_reconnects_total",
			Help: "Total Streamlabs socket reconnection attempts",
		},
	)

	// SocketFramesTotal tracks inbound socket frames by outcome.
	SocketFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamlabs_socket_frames_total",
			Help: "Total inbound Streamlabs socket frames by outcome (follow/unfollow/ignored)",
		},
		[]string{"outcome"},
	)

	// SocketConnected is 1 while the push feed connection is established.
	SocketConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamlabs_socket_connected",
			Help: "Whether the Streamlabs socket is currently connected (0 or 1)",
		},
	)
)

// Twitch polling metrics
var (
	// TwitchPollsTotal tracks outbound Twitch follower polls by status.
	TwitchPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twitch_polls_total",
			Help: "Total Twitch follower count polls by status (ok/error/fallback)",
		},
		[]string{"status"},
	)
)

// Widget broadcast metrics
var (
	// WidgetClients tracks the number of connected widget websocket clients.
	WidgetClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "widget_clients_connected",
			Help: "Number of connected widget WebSocket clients",
		},
	)

	// BroadcastsTotal tracks projection broadcasts pushed to widget clients.
	BroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_broadcasts_total",
			Help: "Total projection broadcasts pushed to widget clients",
		},
	)
)
