package middlewareinternal

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remindcare/metrics/internal/collector"
)

func TestLoggingMiddleware(t *testing.T) {
	// Create a test logger
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	defer logger.Sync()
	logSugar := logger.Sugar()

	// Create a test handler that returns a simple response
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Hello, World!"))
	})

	// Wrap the handler with the logging middleware
	handler := LoggingMiddleware(logSugar)(nextHandler)

	// Create a test request
	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	// Serve the request
	handler.ServeHTTP(rec, req)

	// Check the response
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, World!", rec.Body.String())
}

func TestMetricsMiddleware(t *testing.T) {
	c := collector.New()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := MetricsMiddleware(c)(nextHandler)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, int64(3), c.Counter("http_requests_total"))
	assert.Equal(t, int64(0), c.Counter("http_requests_errors_total"))

	stats, ok := c.HistogramStats("http_request_duration_ms")
	require.True(t, ok)
	assert.Equal(t, int64(3), stats.Count)
}

func TestMetricsMiddleware_ErrorCounter(t *testing.T) {
	c := collector.New()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	handler := MetricsMiddleware(c)(nextHandler)

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, int64(1), c.Counter("http_requests_total"))
	assert.Equal(t, int64(1), c.Counter("http_requests_errors_total"))
}

func TestGzipMiddleware_NoGzipSupport(t *testing.T) {
	// Create a test handler that returns a simple response
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Hello, World!"))
	})

	// Wrap the handler with the gzip middleware
	handler := GzipMiddleware(nextHandler)

	// Create a test request without gzip support
	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	// Serve the request
	handler.ServeHTTP(rec, req)

	// Response stays uncompressed
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, World!", rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestGzipMiddleware_WithGzipSupport(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Hello, World!"))
	})

	handler := GzipMiddleware(nextHandler)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	gzipReader, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	defer gzipReader.Close()

	body, err := io.ReadAll(gzipReader)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", string(body))
}
