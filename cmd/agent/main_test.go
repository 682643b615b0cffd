package main

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remindcare/metrics/internal/collector"
	models "github.com/remindcare/metrics/internal/model"
)

func TestPollRuntime(t *testing.T) {
	c := collector.New()

	pollRuntime(c)
	pollRuntime(c)

	// Every poll bumps the counter once
	assert.Equal(t, int64(2), c.Counter("PollCount"))

	// Runtime gauges are present
	_, ok := c.Gauge("Alloc")
	assert.True(t, ok)
	_, ok = c.Gauge("HeapAlloc")
	assert.True(t, ok)
	_, ok = c.Gauge("RandomValue")
	assert.True(t, ok)

	// Poll durations accumulate as histogram samples
	stats, ok := c.HistogramStats("PollDuration")
	require.True(t, ok)
	assert.Equal(t, int64(2), stats.Count)
}

func TestSnapshotToDTO(t *testing.T) {
	c := collector.New()
	c.Increment("PollCount")
	c.SetGauge("Alloc", 1024)
	c.RecordHistogram("PollDuration", 1.5)

	sendingData := snapshotToDTO(c.Export())

	byID := map[string]models.MetricsDTO{}
	for _, dto := range sendingData {
		byID[dto.ID] = dto
	}

	require.Contains(t, byID, "PollCount")
	require.NotNil(t, byID["PollCount"].Delta)
	assert.Equal(t, int64(1), *byID["PollCount"].Delta)
	assert.Equal(t, models.Counter, byID["PollCount"].MType)

	require.Contains(t, byID, "Alloc")
	require.NotNil(t, byID["Alloc"].Value)
	assert.Equal(t, 1024.0, *byID["Alloc"].Value)

	// Histogram travels flattened
	require.Contains(t, byID, "PollDuration_p50")
	require.Contains(t, byID, "PollDuration_p95")
	require.Contains(t, byID, "PollDuration_count")
	assert.Equal(t, models.Counter, byID["PollDuration_count"].MType)
}

func TestSendMetrics(t *testing.T) {
	var got []models.MetricsDTO
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gzip", r.Header.Get("Content-Encoding"))
		gz, err := gzip.NewReader(r.Body)
		require.NoError(t, err)
		defer gz.Close()
		require.NoError(t, json.NewDecoder(gz).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	delta := int64(3)
	sendingData := []models.MetricsDTO{{ID: "PollCount", MType: models.Counter, Delta: &delta}}

	err := sendMetrics(server.Client(), sendingData, server.URL, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PollCount", got[0].ID)
}

func TestSendMetrics_EmptyBatch(t *testing.T) {
	// No request is made for an empty batch
	err := sendMetrics(http.DefaultClient, nil, "http://localhost:1", "")
	assert.NoError(t, err)
}

func TestSendMetrics_ClientErrorNoRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad metric", http.StatusBadRequest)
	}))
	defer server.Close()

	delta := int64(1)
	sendingData := []models.MetricsDTO{{ID: "PollCount", MType: models.Counter, Delta: &delta}}

	err := sendMetrics(server.Client(), sendingData, server.URL, "")
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("dial tcp 127.0.0.1:8080: connection refused")))
	assert.True(t, isRetryableError(errors.New("context deadline exceeded: timeout")))
	assert.False(t, isRetryableError(errors.New("invalid payload")))
}
