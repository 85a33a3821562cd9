// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package plugin

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for plugin discovery metrics.
const (
	StatusLoaded  = "loaded"
	StatusSkipped = "skipped"
)

// PluginLoads counts per-directory discovery outcomes.
// Use RegisterMetrics to register this with a Prometheus registry.
var PluginLoads = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "heliobot_plugin_loads_total",
		Help: "Total number of plugin directory load attempts by status",
	},
	[]string{"status"},
)

// RegisterMetrics registers plugin package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(PluginLoads)
}
