// Package config provides configuration for the metrics server.
package config

const (
	// GaugeType represents the type string for gauge metrics.
	GaugeType = "gauge"

	// CounterType represents the type string for counter metrics.
	CounterType = "counter"

	// HistogramType represents the type string for histogram metrics.
	HistogramType = "histogram"
)
