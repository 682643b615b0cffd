package metrics_test

import (
	"context"
	"fmt"

	"github.com/remindcare/metrics/internal/collector"
	models "github.com/remindcare/metrics/internal/model"
	"github.com/remindcare/metrics/internal/repository"
	"github.com/remindcare/metrics/internal/service"
)

// Example of how to aggregate metrics with the collector and export a snapshot
func Example_collector() {
	c := collector.New()

	// Count events
	c.Increment("RemindersSent")
	c.Increment("RemindersSent")

	// Track a last-known value
	c.SetGauge("QueueDepth", 4)

	// Record a distribution
	c.RecordHistogram("SendDuration", 100)
	c.RecordHistogram("SendDuration", 150)
	c.RecordHistogram("SendDuration", 200)

	snapshot := c.Export()
	stats := snapshot.Histograms["SendDuration"]
	fmt.Printf("sent=%d depth=%v p50=%v\n",
		snapshot.Counters["RemindersSent"], snapshot.Gauges["QueueDepth"], stats.P50)

	// Export started a new window: counters are zeroed, gauges survive
	depth, _ := c.Gauge("QueueDepth")
	fmt.Printf("after export: sent=%d depth=%v\n", c.Counter("RemindersSent"), depth)
	// Output:
	// sent=2 depth=4 p50=150
	// after export: sent=0 depth=4
}

// Example of how to create and use metrics with the service layer
func Example_metricsService() {
	// Create a memory storage
	storage := repository.NewMemStorage()

	// Create a metrics service with the storage
	metricService := service.NewMetricsService(storage)

	ctx := context.Background()

	// Set a gauge metric
	gaugeVal := 3.14
	err := metricService.SetMetric(ctx, "Temperature", gaugeVal, models.Gauge)
	if err != nil {
		fmt.Printf("Error setting gauge metric: %v\n", err)
		return
	}

	// Set a counter metric
	counterVal := int64(42)
	err = metricService.SetMetric(ctx, "Requests", counterVal, models.Counter)
	if err != nil {
		fmt.Printf("Error setting counter metric: %v\n", err)
		return
	}

	// Retrieve a metric by name
	temp, err := metricService.GetMetricByName(ctx, "Temperature")
	if err != nil {
		fmt.Printf("Error getting metric: %v\n", err)
		return
	}

	fmt.Printf("Temperature: %v\n", temp)
	// Output: Temperature: 3.14
}
