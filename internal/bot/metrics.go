// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package bot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for dispatch metrics.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"
)

// CommandDispatches is the counter for slash-command dispatches.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandDispatches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "heliobot_command_dispatches_total",
		Help: "Total number of slash-command dispatches",
	},
	[]string{"command", "plugin", "status"},
)

// CommandDuration is the histogram for command action duration.
var CommandDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "heliobot_command_duration_seconds",
		Help:    "Command action execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command", "plugin"},
)

// EventDeliveries is the counter for plugin event deliveries.
var EventDeliveries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "heliobot_event_deliveries_total",
		Help: "Total number of event deliveries to plugin actions",
	},
	[]string{"event", "plugin", "status"},
)

// RegisterMetrics registers bot package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CommandDispatches)
	reg.MustRegister(CommandDuration)
	reg.MustRegister(EventDeliveries)
}

// recordDispatch increments the dispatch counter.
func recordDispatch(command, plugin, status string) {
	CommandDispatches.WithLabelValues(command, plugin, status).Inc()
}

// recordDuration records how long a command action took.
func recordDuration(command, plugin string, d time.Duration) {
	CommandDuration.WithLabelValues(command, plugin).Observe(d.Seconds())
}
