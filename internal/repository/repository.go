// Package repository provides durable storage backends for metrics.
package repository

import (
	"context"

	models "github.com/remindcare/metrics/internal/model"
)

// Repository is the storage contract shared by the in-memory and the
// PostgreSQL backends.
//
// Counter writes accumulate deltas, gauge writes overwrite, histogram
// writes append one sample to the metric's sample set.
type Repository interface {
	SetMetric(ctx context.Context, name string, value any, typ string) error
	SetMetrics(ctx context.Context, metrics []models.Metric) error
	GetMetric(ctx context.Context, metrics models.MetricsDTO) (models.MetricsDTO, error)
	GetMetricByName(ctx context.Context, name string) (any, error)
	DeleteMetric(ctx context.Context, name string) error
	ListMetrics(ctx context.Context) ([]models.Metric, error)
	Ping(ctx context.Context) error
	Close() error
}
