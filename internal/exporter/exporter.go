// Package exporter periodically drains a collector into durable storage.
//
// Each flush takes a snapshot from the collector and writes it through the
// repository as a batch. Counters arrive as deltas, which is correct because
// the export zeroes them: repeated flushes accumulate to the true total in
// storage. Histograms are flattened into derived metrics so the storage
// schema only ever sees counters and gauges.
package exporter

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/remindcare/metrics/internal/collector"
	"github.com/remindcare/metrics/internal/config"
	models "github.com/remindcare/metrics/internal/model"
	"github.com/remindcare/metrics/internal/repository"
)

// Exporter flushes collector snapshots into a repository on a fixed interval.
type Exporter struct {
	collector *collector.Collector
	repo      repository.Repository
	interval  time.Duration
	logger    *zap.SugaredLogger
}

// New creates an exporter flushing c into repo every interval.
func New(c *collector.Collector, repo repository.Repository, interval time.Duration, logger *zap.SugaredLogger) *Exporter {

	return &Exporter{
		collector: c,
		repo:      repo,
		interval:  interval,
		logger:    logger,
	}
}

// Run flushes on every interval tick until ctx is cancelled, then performs
// one final flush so no accumulated window is lost on shutdown.
func (e *Exporter) Run(ctx context.Context) {

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.Flush(ctx); err != nil {
				e.logger.Errorf("exporter: flush failed: %v", err)
			}
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := e.Flush(flushCtx); err != nil {
				e.logger.Errorf("exporter: final flush failed: %v", err)
			}
			return
		}
	}
}

// Flush exports the collector's current window and persists it.
func (e *Exporter) Flush(ctx context.Context) error {

	snapshot := e.collector.Export()
	batch := Flatten(snapshot)
	if len(batch) == 0 {
		return nil
	}
	if err := e.repo.SetMetrics(ctx, batch); err != nil {
		return err
	}
	e.logger.Infof("exporter: flushed %d metrics", len(batch))
	return nil
}

// Flatten converts a snapshot into storage metrics. Histogram stats become
// <name>_p50 and <name>_p95 gauges plus a <name>_count counter delta.
func Flatten(snapshot collector.Snapshot) []models.Metric {

	var batch []models.Metric
	for name, value := range snapshot.Counters {
		batch = append(batch, models.Metric{Name: name, Type: config.CounterType, Value: value})
	}
	for name, value := range snapshot.Gauges {
		batch = append(batch, models.Metric{Name: name, Type: config.GaugeType, Value: value})
	}
	for name, stats := range snapshot.Histograms {
		batch = append(batch,
			models.Metric{Name: name + "_p50", Type: config.GaugeType, Value: stats.P50},
			models.Metric{Name: name + "_p95", Type: config.GaugeType, Value: stats.P95},
			models.Metric{Name: name + "_count", Type: config.CounterType, Value: stats.Count},
		)
	}
	return batch
}
