// Package handler wires the HTTP API of the metrics server.
package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/remindcare/metrics/internal/audit"
	"github.com/remindcare/metrics/internal/collector"
	"github.com/remindcare/metrics/internal/config"
	middlewareinternal "github.com/remindcare/metrics/internal/middleware"
	models "github.com/remindcare/metrics/internal/model"
	"github.com/remindcare/metrics/internal/repository"
	"github.com/remindcare/metrics/internal/service"
)

func Router(
	storage repository.Repository,
	logger *zap.SugaredLogger,
	config *config.ServerConfig,
	metricService *service.MetricsService,
	auditLog audit.AuditLogger,
	requestMetrics *collector.Collector,
) chi.Router {
	router := chi.NewRouter()
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	if requestMetrics != nil {
		router.Use(middlewareinternal.MetricsMiddleware(requestMetrics))
	}
	router.Use(middlewareinternal.GzipMiddleware)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(15 * time.Second))
	router.Post("/update/{type}/{metric}/{value}", func(w http.ResponseWriter, r *http.Request) {
		UpdateHandlerWithParams(w, r, storage, logger, config, metricService, auditLog)
	})
	router.Post("/update", func(w http.ResponseWriter, r *http.Request) {
		UpdateHandler(w, r, storage, logger, config, metricService, auditLog)
	})
	router.Post("/updates", func(w http.ResponseWriter, r *http.Request) {
		BatchUpdateHandler(w, r, storage, logger, config, metricService, auditLog)
	})
	router.Get("/value/{type}/{name}", func(w http.ResponseWriter, r *http.Request) {
		GetHandler(w, r, storage)
	})
	router.Post("/value", func(w http.ResponseWriter, r *http.Request) {
		GetValue(w, r, storage, logger)
	})
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		PingDatabaseHandler(w, r, storage, logger)
	})
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		GetListHandler(w, r, storage)
	})
	return router
}

// readUpdateBody reads, verifies and decompresses an update request body.
//
// The hash header is computed over the body exactly as transmitted, so
// verification happens before any decompression.
func readUpdateBody(r *http.Request, key string) ([]byte, error) {
	body, err := ReadRequestBody(r)
	if err != nil {
		return nil, err
	}
	if err := VerifyRequestHash(body, r.Header.Get("HashSHA256"), key); err != nil {
		return nil, err
	}
	if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
		return DecompressBody(body)
	}
	return body, nil
}

// prepareMetric converts one DTO into its storage form, validating the
// value field required by the metric's type.
func prepareMetric(d models.MetricsDTO) (models.Metric, error) {
	switch d.MType {
	case models.Gauge:
		if d.Value == nil {
			return models.Metric{}, fmt.Errorf("gauge metrics must have a value")
		}
		return models.Metric{Name: d.ID, Type: d.MType, Value: *d.Value}, nil
	case models.Histogram:
		if d.Value == nil {
			return models.Metric{}, fmt.Errorf("histogram metrics must have a value")
		}
		return models.Metric{Name: d.ID, Type: d.MType, Value: *d.Value}, nil
	case models.Counter:
		if d.Delta == nil {
			return models.Metric{}, fmt.Errorf("counter metrics must have a delta")
		}
		return models.Metric{Name: d.ID, Type: d.MType, Value: *d.Delta}, nil
	default:
		return models.Metric{}, fmt.Errorf("invalid metric type")
	}
}

// storeToFile persists the current state when synchronous file storage is
// configured. Only MemStorage needs it, database writes are already durable.
func storeToFile(r *http.Request, storage repository.Repository, logger *zap.SugaredLogger, config *config.ServerConfig, metricService *service.MetricsService) {
	if config.StoreInterval != 0 {
		return
	}
	if _, isMemStorage := storage.(*repository.MemStorage); isMemStorage {
		if err := metricService.SaveMetrics(r.Context(), config.FileStoragePath); err != nil {
			logger.Infof("couldn't save to file %s", err)
		}
	}
}

func BatchUpdateHandler(
	w http.ResponseWriter,
	r *http.Request,
	storage repository.Repository,
	logger *zap.SugaredLogger,
	config *config.ServerConfig,
	metricService *service.MetricsService,
	auditLog audit.AuditLogger,
) {
	body, err := readUpdateBody(r, config.Key)
	if err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	var metrics []models.MetricsDTO
	if err := json.Unmarshal(body, &metrics); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	var preparedMetrics []models.Metric
	var names []string
	for _, d := range metrics {
		prepared, err := prepareMetric(d)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		preparedMetrics = append(preparedMetrics, prepared)
		names = append(names, d.ID)
	}
	if err := storage.SetMetrics(r.Context(), preparedMetrics); err != nil {
		logger.Info(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if auditLog != nil {
		auditLog.Log(names, r.RemoteAddr)
	}
	w.WriteHeader(http.StatusOK)
	storeToFile(r, storage, logger, config, metricService)
}

func PingDatabaseHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository, logger *zap.SugaredLogger) {
	err := storage.Ping(r.Context())
	if err != nil {
		logger.Errorf("ping failed: %v", err)
		http.Error(w, "Failed to connect to database: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func UpdateHandler(
	w http.ResponseWriter,
	r *http.Request,
	storage repository.Repository,
	logger *zap.SugaredLogger,
	config *config.ServerConfig,
	metricService *service.MetricsService,
	auditLog audit.AuditLogger,
) {
	body, err := readUpdateBody(r, config.Key)
	if err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	var metrics models.MetricsDTO
	if err := json.Unmarshal(body, &metrics); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	prepared, err := prepareMetric(metrics)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := storage.SetMetric(r.Context(), prepared.Name, prepared.Value, prepared.Type); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if auditLog != nil {
		auditLog.Log([]string{metrics.ID}, r.RemoteAddr)
	}
	w.WriteHeader(http.StatusOK)
	storeToFile(r, storage, logger, config, metricService)
}

func UpdateHandlerWithParams(
	w http.ResponseWriter,
	r *http.Request,
	storage repository.Repository,
	logger *zap.SugaredLogger,
	config *config.ServerConfig,
	metricService *service.MetricsService,
	auditLog audit.AuditLogger,
) {
	metricType := chi.URLParam(r, "type")
	metricName := chi.URLParam(r, "metric")
	metricValue := chi.URLParam(r, "value")
	if metricName == "" {
		http.Error(w, "Metric name not found ", http.StatusNotFound)
		return
	}
	var Metric any
	switch metricType {
	case models.Gauge, models.Histogram:
		floatVal, floatErr := strconv.ParseFloat(metricValue, 64)
		if floatErr != nil {
			http.Error(w, "Metric value should be a float", http.StatusBadRequest)
			return
		}
		Metric = floatVal
	case models.Counter:
		intVal, intErr := strconv.ParseInt(metricValue, 10, 64)
		if intErr != nil {
			http.Error(w, "Metric value should be an integer", http.StatusBadRequest)
			return
		}
		Metric = intVal
	default:
		http.Error(w, "Invalid metric type", http.StatusBadRequest)
		return
	}
	err := storage.SetMetric(r.Context(), metricName, Metric, metricType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if auditLog != nil {
		auditLog.Log([]string{metricName}, r.RemoteAddr)
	}
	w.WriteHeader(http.StatusOK)
	storeToFile(r, storage, logger, config, metricService)
}

func GetValue(w http.ResponseWriter, r *http.Request, storage repository.Repository, logger *zap.SugaredLogger) {
	var metrics models.MetricsDTO
	err := json.NewDecoder(r.Body).Decode(&metrics)
	if err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	responseMetric, err := storage.GetMetric(r.Context(), metrics)
	if err != nil {
		logger.Infof("metric %s not found: %v", metrics.ID, err)
		http.Error(w, "Metric name not found ", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(responseMetric)
}

func GetHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository) {
	metricName := chi.URLParam(r, "name")
	metricValue, err := storage.GetMetricByName(r.Context(), metricName)
	if err != nil {
		http.Error(w, "Metric name not found ", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%v", metricValue)
}

func GetListHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository) {
	var result string
	metrics, _ := storage.ListMetrics(r.Context())

	for _, v := range metrics {
		result += fmt.Sprintf("%s: %v\n", v.Name, v.Value)
	}
	w.Header().Set("Content-Type", "text/html")
	io.WriteString(w, result)
	w.WriteHeader(http.StatusOK)
}
