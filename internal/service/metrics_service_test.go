package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remindcare/metrics/internal/config"
	models "github.com/remindcare/metrics/internal/model"
	"github.com/remindcare/metrics/internal/repository"
)

func TestNewMetricsService(t *testing.T) {
	memStorage := repository.NewMemStorage()
	service := NewMetricsService(memStorage)
	assert.NotNil(t, service)
	assert.Equal(t, memStorage, service.repository)
}

func TestMetricsService_SetMetric(t *testing.T) {
	memStorage := repository.NewMemStorage()
	service := NewMetricsService(memStorage)
	ctx := context.Background()

	// Test setting a gauge metric
	err := service.SetMetric(ctx, "testGauge", 42.5, config.GaugeType)
	require.NoError(t, err)

	val, err := service.GetMetricByName(ctx, "testGauge")
	require.NoError(t, err)
	assert.Equal(t, 42.5, val)

	// Test setting a counter metric
	err = service.SetMetric(ctx, "testCounter", int64(10), config.CounterType)
	require.NoError(t, err)

	val, err = service.GetMetricByName(ctx, "testCounter")
	require.NoError(t, err)
	assert.Equal(t, int64(10), val)
}

func TestMetricsService_SetMetrics(t *testing.T) {
	memStorage := repository.NewMemStorage()
	service := NewMetricsService(memStorage)
	ctx := context.Background()

	metrics := []models.Metric{
		{Name: "g", Type: config.GaugeType, Value: 1.5},
		{Name: "c", Type: config.CounterType, Value: int64(3)},
	}
	err := service.SetMetrics(ctx, metrics)
	require.NoError(t, err)

	listed, err := service.ListMetrics(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestMetricsService_DeleteMetric(t *testing.T) {
	memStorage := repository.NewMemStorage()
	service := NewMetricsService(memStorage)
	ctx := context.Background()

	err := service.SetMetric(ctx, "toDelete", 1.0, config.GaugeType)
	require.NoError(t, err)

	err = service.DeleteMetric(ctx, "toDelete")
	require.NoError(t, err)

	_, err = service.GetMetricByName(ctx, "toDelete")
	assert.Error(t, err)
}

func TestMetricsService_IsMemStorage(t *testing.T) {
	service := NewMetricsService(repository.NewMemStorage())
	assert.True(t, service.IsMemStorage())
}

func TestMetricsService_SaveAndRestoreMetrics(t *testing.T) {
	memStorage := repository.NewMemStorage()
	service := NewMetricsService(memStorage)
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	err := service.SetMetric(ctx, "diskUsage", 73.5, config.GaugeType)
	require.NoError(t, err)
	err = service.SetMetric(ctx, "remindersSent", int64(12), config.CounterType)
	require.NoError(t, err)
	err = service.SetMetric(ctx, "sendDuration", 35.0, config.HistogramType)
	require.NoError(t, err)

	fname := filepath.Join(t.TempDir(), "metrics.json")
	err = service.SaveMetrics(ctx, fname)
	require.NoError(t, err)

	_, err = os.Stat(fname)
	require.NoError(t, err)

	// Restore into a fresh storage
	restored := NewMetricsService(repository.NewMemStorage())
	err = restored.RestoreMetrics(ctx, fname, logger)
	require.NoError(t, err)

	val, err := restored.GetMetricByName(ctx, "diskUsage")
	require.NoError(t, err)
	assert.Equal(t, 73.5, val)

	// Counters round-trip through the JSON float form
	val, err = restored.GetMetricByName(ctx, "remindersSent")
	require.NoError(t, err)
	assert.Equal(t, int64(12), val)

	// Histogram stats are not replayable and stay out of the restore
	_, err = restored.GetMetricByName(ctx, "sendDuration")
	assert.Error(t, err)
}

func TestMetricsService_RestoreMetricsMissingFile(t *testing.T) {
	service := NewMetricsService(repository.NewMemStorage())
	logger := zap.NewNop().Sugar()

	// A missing file is not an error, the server starts empty
	err := service.RestoreMetrics(context.Background(), "/nonexistent/metrics.json", logger)
	assert.NoError(t, err)
}

func TestMetricsService_Ping(t *testing.T) {
	service := NewMetricsService(repository.NewMemStorage())
	assert.NoError(t, service.Ping(context.Background()))
}
