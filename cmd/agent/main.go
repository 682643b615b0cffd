package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"reflect"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/remindcare/metrics/internal/agent"
	"github.com/remindcare/metrics/internal/collector"
	"github.com/remindcare/metrics/internal/exporter"
	"github.com/remindcare/metrics/internal/handler"
	models "github.com/remindcare/metrics/internal/model"
)

// pollRuntime records one round of Go runtime metrics into c.
func pollRuntime(c *collector.Collector) {
	start := time.Now()
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	msValue := reflect.ValueOf(memStats)
	for _, name := range agent.RuntimeMetrics {
		field := msValue.FieldByName(name)
		if !field.IsValid() {
			continue
		}
		c.SetGauge(name, toFloat(field))
	}
	c.SetGauge("RandomValue", rand.Float64())
	c.Increment("PollCount")
	c.RecordHistogram("PollDuration", float64(time.Since(start).Microseconds())/1000.0)
}

// toFloat converts a MemStats field (uint64, uint32 or float64) to float64.
func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float64:
		return v.Float()
	default:
		return 0
	}
}

// pollSystem records memory and per-core CPU utilization gauges into c.
func pollSystem(c *collector.Collector) {
	memory, err := mem.VirtualMemory()
	if err != nil {
		log.Printf("error getting memory stats %v", err)
		return
	}
	c.SetGauge("TotalMemory", float64(memory.Total))
	c.SetGauge("FreeMemory", float64(memory.Free))

	cpuPercents, err := cpu.Percent(time.Second, true)
	if err != nil {
		log.Printf("error getting cpu info %v", err)
		return
	}
	for i, percent := range cpuPercents {
		c.SetGauge(fmt.Sprintf("CPUutilization%d", i), percent)
	}
}

// snapshotToDTO converts an exported snapshot into the wire batch format.
// Histograms travel flattened, the same shape the server-side exporter
// writes to storage.
func snapshotToDTO(snapshot collector.Snapshot) []models.MetricsDTO {
	var sendingData []models.MetricsDTO
	for _, metric := range exporter.Flatten(snapshot) {
		dto := models.MetricsDTO{
			ID:    metric.Name,
			MType: metric.Type,
		}
		switch value := metric.Value.(type) {
		case int64:
			dto.Delta = &value
		case float64:
			dto.Value = &value
		}
		sendingData = append(sendingData, dto)
	}
	return sendingData
}

// isRetryableError reports whether a transport error is worth another attempt.
func isRetryableError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "connection reset by peer")
}

func sendMetrics(client *http.Client, sendingData []models.MetricsDTO, url string, key string) error {
	if len(sendingData) == 0 {
		return nil
	}
	jsonData, err := json.Marshal(sendingData)
	if err != nil {
		return fmt.Errorf("error creating json")
	}
	var compressedData bytes.Buffer
	gzipWriter := gzip.NewWriter(&compressedData)
	if _, err := gzipWriter.Write(jsonData); err != nil {
		return fmt.Errorf("error compressing data: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("error closing gzip writer: %w", err)
	}
	body := compressedData.Bytes()

	var hash string
	if key != "" {
		hash = fmt.Sprintf("%x", handler.CalculatedHash(body, key))
	}

	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}
	var lastErr error

	for attempt := 0; attempt < 4; attempt++ {
		if attempt > 0 && attempt <= len(delays) {
			delay := delays[attempt-1]
			log.Printf("Retry attempt %d after %v delay", attempt, delay)
			time.Sleep(delay)
		}

		request, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			lastErr = fmt.Errorf("error creating request for %s: %w", url, err)
			continue
		}
		request.Header.Set("Content-Type", "application/json")
		request.Header.Set("Accept-Encoding", "gzip")
		request.Header.Set("Content-Encoding", "gzip")
		if key != "" {
			request.Header.Set("HashSHA256", hash)
		}

		response, err := client.Do(request)
		if err != nil {
			lastErr = fmt.Errorf("error sending request for %s: %w", url, err)
			if isRetryableError(err) {
				continue
			}
			return lastErr
		}

		respBody, err := io.ReadAll(response.Body)
		response.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("error reading response body: %w", err)
			continue
		}

		if response.StatusCode >= 200 && response.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("server returned error status %d: %s", response.StatusCode, string(respBody))
		if response.StatusCode >= 500 && response.StatusCode < 600 {
			continue
		}
		return lastErr
	}

	return fmt.Errorf("failed to send metrics after 4 attempts: %w", lastErr)
}

func worker(client *http.Client, url string, key string, jobs <-chan []models.MetricsDTO) {
	for job := range jobs {
		if err := sendMetrics(client, job, url, key); err != nil {
			log.Printf("Error sending metrics: %v", err)
		}
	}
}

func main() {
	agentConfig, err := agent.NewAgentConfig()
	if err != nil {
		log.Fatal("Failed to parse configuration: ", err)
	}

	client := &http.Client{}
	url := "http://" + agentConfig.Address + "/updates"
	metrics := collector.New()
	jobs := make(chan []models.MetricsDTO, 20)

	for w := 1; w <= agentConfig.RateLimit; w++ {
		go worker(client, url, agentConfig.Key, jobs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pollTicker := time.NewTicker(time.Duration(agentConfig.PollInterval) * time.Second)
	defer pollTicker.Stop()
	reportTicker := time.NewTicker(time.Duration(agentConfig.ReportInterval) * time.Second)
	defer reportTicker.Stop()

	go func() {
		for range pollTicker.C {
			pollRuntime(metrics)
			pollSystem(metrics)
		}
	}()

	go func() {
		for range reportTicker.C {
			jobs <- snapshotToDTO(metrics.Export())
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	close(jobs)

	// Ship whatever accumulated since the last report before exiting
	if err := sendMetrics(client, snapshotToDTO(metrics.Export()), url, agentConfig.Key); err != nil {
		log.Printf("Error sending final snapshot: %v", err)
	}
}
