package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "ws_connections", Help: "Open websocket connections"},
	)
	wsEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ws_events_total", Help: "Handled websocket events"},
		[]string{"event", "result"},
	)
	wsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ws_dropped_frames_total", Help: "Frames dropped because a client send buffer was full"},
	)
)

func init() { prometheus.MustRegister(wsConnections, wsEvents, wsDropped) }
