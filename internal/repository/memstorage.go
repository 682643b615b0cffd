package repository

import (
	"context"
	"sync"

	"github.com/remindcare/metrics/internal/collector"
	"github.com/remindcare/metrics/internal/config"
	internalerrors "github.com/remindcare/metrics/internal/errors"
	models "github.com/remindcare/metrics/internal/model"
)

// MemStorage implements the Repository interface using in-memory storage.
type MemStorage struct {
	// mu provides thread-safe access to the storage maps
	mu sync.RWMutex

	// gauges stores gauge metrics as name -> value pairs
	gauges map[string]float64

	// counters stores counter metrics as name -> value pairs
	counters map[string]int64

	// histograms stores histogram metrics as name -> sample slice pairs
	histograms map[string][]float64

	// types stores the metric type for each metric name
	types map[string]string
}

// NewMemStorage creates a new in-memory storage instance.
func NewMemStorage() *MemStorage {

	return &MemStorage{
		gauges:     make(map[string]float64),
		counters:   make(map[string]int64),
		histograms: make(map[string][]float64),
		types:      make(map[string]string),
	}
}

// SetMetric stores a single metric value in memory.
//
// For counters, it adds the value to the existing counter (or creates a new one).
// For gauges, it replaces the existing value (or creates a new one).
// For histograms, it appends the value to the existing sample set.
func (ms *MemStorage) SetMetric(ctx context.Context, name string, value any, typ string) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.setLocked(name, value, typ)
}

// setLocked applies a single write. Caller holds the write lock.
func (ms *MemStorage) setLocked(name string, value any, typ string) error {
	switch typ {
	case config.CounterType:
		val, ok := value.(int64)
		if !ok {
			return internalerrors.ErrInvalidMetricValue
		}
		ms.counters[name] += val
		ms.types[name] = typ
	case config.GaugeType:
		val, ok := value.(float64)
		if !ok {
			return internalerrors.ErrInvalidMetricValue
		}
		ms.gauges[name] = val
		ms.types[name] = typ
	case config.HistogramType:
		val, ok := value.(float64)
		if !ok {
			return internalerrors.ErrInvalidMetricValue
		}
		ms.histograms[name] = append(ms.histograms[name], val)
		ms.types[name] = typ
	default:
		return internalerrors.ErrUnknownMetricType
	}
	return nil
}

// SetMetrics stores multiple metrics in memory under a single lock.
func (ms *MemStorage) SetMetrics(ctx context.Context, metrics []models.Metric) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, metric := range metrics {
		if err := ms.setLocked(metric.Name, metric.Value, metric.Type); err != nil {
			return err
		}
	}
	return nil
}

// DeleteMetric removes a metric from memory storage.
func (ms *MemStorage) DeleteMetric(ctx context.Context, name string) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.gauges, name)
	delete(ms.counters, name)
	delete(ms.histograms, name)
	delete(ms.types, name)
	return nil
}

// ListMetrics returns all metrics stored in memory.
//
// Histogram metrics are returned with their derived stats as the value.
func (ms *MemStorage) ListMetrics(ctx context.Context) ([]models.Metric, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var result []models.Metric

	for name, typ := range ms.types {
		var value any

		switch typ {
		case config.GaugeType:
			value = ms.gauges[name]
		case config.CounterType:
			value = ms.counters[name]
		case config.HistogramType:
			value = collector.Summarize(ms.histograms[name])
		default:
			continue
		}

		result = append(result, models.Metric{Name: name, Type: typ, Value: value})
	}
	return result, nil
}

// GetMetric retrieves a single metric by its DTO.
//
// Gauges fill Value, counters fill Delta. Histograms fill Delta with the
// sample count and Value with the p95 over the recorded samples.
func (ms *MemStorage) GetMetric(ctx context.Context, metrics models.MetricsDTO) (models.MetricsDTO, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	metricType, exists := ms.types[metrics.ID]
	if !exists {
		return models.MetricsDTO{}, internalerrors.ErrMetricNotFound
	}

	responseMetrics := models.MetricsDTO{
		ID:    metrics.ID,
		MType: metricType,
	}

	switch metricType {
	case config.GaugeType:
		if val, exists := ms.gauges[metrics.ID]; exists {
			responseMetrics.Value = &val
		}
	case config.CounterType:
		if val, exists := ms.counters[metrics.ID]; exists {
			responseMetrics.Delta = &val
		}
	case config.HistogramType:
		stats := collector.Summarize(ms.histograms[metrics.ID])
		responseMetrics.Delta = &stats.Count
		responseMetrics.Value = &stats.P95
	default:
		return models.MetricsDTO{}, internalerrors.ErrUnknownMetricType
	}
	return responseMetrics, nil
}

// GetMetricByName retrieves a single metric by its name.
//
// It returns float64 for gauges, int64 for counters, and
// collector.HistogramStats for histograms.
func (ms *MemStorage) GetMetricByName(ctx context.Context, name string) (any, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	metricType, exists := ms.types[name]
	if !exists {
		return nil, internalerrors.ErrMetricNotFound
	}
	switch metricType {
	case config.GaugeType:
		return ms.gauges[name], nil
	case config.CounterType:
		return ms.counters[name], nil
	case config.HistogramType:
		return collector.Summarize(ms.histograms[name]), nil
	default:
		return nil, internalerrors.ErrUnknownMetricType
	}
}

// Close releases any resources held by the memory storage.
func (ms *MemStorage) Close() error {

	return nil
}

// Ping checks the health of the memory storage.
//
// For MemStorage, this always returns nil since there are no external dependencies.
func (ms *MemStorage) Ping(ctx context.Context) error {
	return nil
}
