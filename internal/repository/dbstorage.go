package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/remindcare/metrics/internal/collector"
	"github.com/remindcare/metrics/internal/config"
	internalerrors "github.com/remindcare/metrics/internal/errors"
	models "github.com/remindcare/metrics/internal/model"
)

// retryDelays is the backoff schedule for retryable database failures.
var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// DBStorage implements the Repository interface on PostgreSQL.
//
// Scalar metrics live in the metrics table, histogram samples in
// histogram_samples. Percentiles are computed by the database with
// percentile_disc, the same nearest-rank rule the collector uses.
type DBStorage struct {
	db *sql.DB
}

func NewDBStorage(dsn string) (*DBStorage, error) {
	dbConnect, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DBStorage{db: dbConnect}, nil
}

func (storage *DBStorage) Close() error {
	return storage.db.Close()
}

// isRetryableError reports whether err is a transient PostgreSQL failure
// worth a retry: connection-class errors and unique violations from
// concurrent upserts of the same metric name.
func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UniqueViolation {
			return true
		}
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return true
		}
	}
	return false
}

// withRetry runs op, retrying retryable failures on the backoff schedule.
func withRetry(ctx context.Context, op func() error) error {
	err := op()
	for attempt := 0; err != nil && isRetryableError(err) && attempt < len(retryDelays); attempt++ {
		select {
		case <-time.After(retryDelays[attempt]):
		case <-ctx.Done():
			return ctx.Err()
		}
		err = op()
	}
	return err
}

func (storage *DBStorage) SetMetrics(ctx context.Context, metrics []models.Metric) error {
	return withRetry(ctx, func() error {
		tx, err := storage.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("can't start transaction: %w", err)
		}
		defer tx.Rollback()

		for _, metric := range metrics {
			if err := setMetricTx(ctx, tx, metric.Name, metric.Value, metric.Type); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

func (storage *DBStorage) SetMetric(ctx context.Context, name string, value any, typ string) error {
	return withRetry(ctx, func() error {
		tx, err := storage.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("can't start transaction: %w", err)
		}
		defer tx.Rollback()

		if err := setMetricTx(ctx, tx, name, value, typ); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// setMetricTx writes one metric inside tx.
func setMetricTx(ctx context.Context, tx *sql.Tx, name string, value any, typ string) error {
	switch typ {
	case config.HistogramType:
		query := "INSERT INTO histogram_samples (name, value, recorded_at) VALUES ($1, $2, NOW())"
		if _, err := tx.ExecContext(ctx, query, name, value); err != nil {
			return fmt.Errorf("error saving histogram sample: %w", err)
		}
		query = `INSERT INTO metrics (name, type, value, created_at, updated_at)
			VALUES ($1, $2, NULL, NOW(), NOW())
			ON CONFLICT (name) DO UPDATE SET updated_at = NOW()`
		if _, err := tx.ExecContext(ctx, query, name, typ); err != nil {
			return fmt.Errorf("error saving metric: %w", err)
		}
	case config.CounterType:
		query := `INSERT INTO metrics (name, type, value, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (name) DO UPDATE SET value = metrics.value + EXCLUDED.value, updated_at = NOW()`
		if _, err := tx.ExecContext(ctx, query, name, typ, value); err != nil {
			return fmt.Errorf("error saving metric: %w", err)
		}
	case config.GaugeType:
		query := `INSERT INTO metrics (name, type, value, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
		if _, err := tx.ExecContext(ctx, query, name, typ, value); err != nil {
			return fmt.Errorf("error saving metric: %w", err)
		}
	default:
		return internalerrors.ErrUnknownMetricType
	}
	return nil
}

// histogramStats computes nearest-rank stats for one histogram in SQL.
func (storage *DBStorage) histogramStats(ctx context.Context, name string) (collector.HistogramStats, error) {
	var stats collector.HistogramStats
	query := `SELECT count(*),
		COALESCE(percentile_disc(0.5) WITHIN GROUP (ORDER BY value), 0),
		COALESCE(percentile_disc(0.95) WITHIN GROUP (ORDER BY value), 0)
		FROM histogram_samples WHERE name = $1`
	err := storage.db.QueryRowContext(ctx, query, name).Scan(&stats.Count, &stats.P50, &stats.P95)
	if err != nil {
		return collector.HistogramStats{}, fmt.Errorf("error computing histogram stats: %w", err)
	}
	return stats, nil
}

func (storage *DBStorage) GetMetric(ctx context.Context, metrics models.MetricsDTO) (models.MetricsDTO, error) {
	var metricType string
	var value sql.NullFloat64

	query := "SELECT type, value FROM metrics WHERE name = $1"
	err := storage.db.QueryRowContext(ctx, query, metrics.ID).Scan(&metricType, &value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MetricsDTO{}, internalerrors.ErrMetricNotFound
		}
		return models.MetricsDTO{}, fmt.Errorf("error retrieving metric: %w", err)
	}

	responseMetrics := models.MetricsDTO{
		ID:    metrics.ID,
		MType: metricType,
	}

	switch metricType {
	case config.GaugeType:
		responseMetrics.Value = &value.Float64
	case config.CounterType:
		intValue := int64(value.Float64)
		responseMetrics.Delta = &intValue
	case config.HistogramType:
		stats, err := storage.histogramStats(ctx, metrics.ID)
		if err != nil {
			return models.MetricsDTO{}, err
		}
		responseMetrics.Delta = &stats.Count
		responseMetrics.Value = &stats.P95
	default:
		return models.MetricsDTO{}, internalerrors.ErrUnknownMetricType
	}
	return responseMetrics, nil
}

func (storage *DBStorage) GetMetricByName(ctx context.Context, name string) (any, error) {
	var metricType string
	var value sql.NullFloat64

	query := "SELECT type, value FROM metrics WHERE name = $1"
	err := storage.db.QueryRowContext(ctx, query, name).Scan(&metricType, &value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internalerrors.ErrMetricNotFound
		}
		return nil, fmt.Errorf("error retrieving metric: %w", err)
	}
	switch metricType {
	case config.GaugeType:
		return value.Float64, nil
	case config.CounterType:
		return int64(value.Float64), nil
	case config.HistogramType:
		return storage.histogramStats(ctx, name)
	default:
		return nil, internalerrors.ErrUnknownMetricType
	}
}

func (storage *DBStorage) DeleteMetric(ctx context.Context, name string) error {
	if _, err := storage.db.ExecContext(ctx, "DELETE FROM histogram_samples WHERE name = $1", name); err != nil {
		return fmt.Errorf("error deleting histogram samples: %w", err)
	}
	if _, err := storage.db.ExecContext(ctx, "DELETE FROM metrics WHERE name = $1", name); err != nil {
		return fmt.Errorf("error deleting metric: %w", err)
	}
	return nil
}

func (storage *DBStorage) ListMetrics(ctx context.Context) ([]models.Metric, error) {
	var formattedMetrics []models.Metric
	query := "SELECT name, type, value FROM metrics"
	rows, err := storage.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error retrieving metrics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, metricType string
		var value sql.NullFloat64

		err = rows.Scan(&name, &metricType, &value)
		if err != nil {
			return nil, fmt.Errorf("error scanning metric: %w", err)
		}

		var metricValue any
		switch metricType {
		case config.CounterType:
			metricValue = int64(value.Float64)
		case config.HistogramType:
			stats, err := storage.histogramStats(ctx, name)
			if err != nil {
				return nil, err
			}
			metricValue = stats
		default:
			metricValue = value.Float64
		}
		formattedMetrics = append(formattedMetrics, models.Metric{
			Name:  name,
			Type:  metricType,
			Value: metricValue,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over metrics: %w", err)
	}

	return formattedMetrics, nil
}

func (storage *DBStorage) Ping(ctx context.Context) error {
	err := storage.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
