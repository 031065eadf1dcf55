// Package metrics exposes the application's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recomputes counts filtered-view recomputations
	Recomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datalens_view_recomputes_total",
		Help: "Number of filtered view recomputations.",
	})

	// PlotRenders counts scatter chart renders
	PlotRenders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datalens_plot_renders_total",
		Help: "Number of scatter plot renders.",
	})

	// ActiveFilters tracks the number of active column filters
	ActiveFilters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "datalens_active_filters",
		Help: "Number of active column filters.",
	})

	// FilteredRows tracks the row count of the current filtered view
	FilteredRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "datalens_filtered_rows",
		Help: "Row count of the current filtered view.",
	})

	// WebSocketClients tracks connected WebSocket clients
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "datalens_websocket_clients",
		Help: "Number of connected WebSocket clients.",
	})

	// WebSocketMessages counts broadcast messages by outcome
	WebSocketMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datalens_websocket_messages_total",
		Help: "WebSocket messages sent, by outcome.",
	}, []string{"outcome"})
)
