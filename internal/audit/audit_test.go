package audit

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remindcare/metrics/internal/config"
	models "github.com/remindcare/metrics/internal/model"
)

func TestAuditLogger_Log(t *testing.T) {
	eventChan := make(chan models.AuditEvent, 1)
	logger := NewAuditLogger(eventChan, zap.NewNop().Sugar())

	logger.Log([]string{"remindersSent"}, "127.0.0.1")

	event := <-eventChan
	assert.Equal(t, []string{"remindersSent"}, event.Metrics)
	assert.Equal(t, "127.0.0.1", event.IPAddress)
	assert.NotEmpty(t, event.TS)
}

func TestAuditLogger_LogFullChannel(t *testing.T) {
	eventChan := make(chan models.AuditEvent, 1)
	logger := NewAuditLogger(eventChan, zap.NewNop().Sugar())

	// Second event is dropped instead of blocking
	logger.Log([]string{"first"}, "127.0.0.1")
	logger.Log([]string{"second"}, "127.0.0.1")

	event := <-eventChan
	assert.Equal(t, []string{"first"}, event.Metrics)
	assert.Empty(t, eventChan)
}

func TestBroadcaster(t *testing.T) {
	// Create channels
	source := make(chan models.AuditEvent)
	// Create buffered channels to ensure events can be received
	sub1 := make(chan models.AuditEvent, 1)
	sub2 := make(chan models.AuditEvent, 1)

	// Start the broadcaster
	go Broadcaster(source, sub1, sub2)

	// Create a test event
	event := models.AuditEvent{
		TS:        time.Now().Format(time.RFC3339),
		Metrics:   []string{"testMetric"},
		IPAddress: "127.0.0.1",
	}

	// Send the event
	go func() {
		source <- event
		close(source)
	}()

	// Receive from subscribers
	received1 := <-sub1
	received2 := <-sub2

	// Check that both subscribers received the same event
	assert.Equal(t, event, received1)
	assert.Equal(t, event, received2)
}

func TestFileSubscriber(t *testing.T) {
	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "audit_test_*.log")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	// Create config with the temp file path
	cfg := config.ServerConfig{
		AuditFile: tmpFile.Name(),
	}

	// Create a channel for events
	events := make(chan models.AuditEvent)

	// Start the file subscriber in a goroutine
	go FileSubscriber(events, cfg, zap.NewNop().Sugar())

	// Create a test event
	event := models.AuditEvent{
		TS:        time.Now().Format(time.RFC3339),
		Metrics:   []string{"testMetric"},
		IPAddress: "127.0.0.1",
	}

	// Send the event and close the channel
	events <- event
	close(events)

	// Give the subscriber time to process
	time.Sleep(100 * time.Millisecond)

	// Verify the event was written as a JSON line
	data, err := os.ReadFile(tmpFile.Name())
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var written models.AuditEvent
	require.NoError(t, json.Unmarshal([]byte(line), &written))
	assert.Equal(t, event, written)
}

func TestURLSubscriber(t *testing.T) {
	received := make(chan models.AuditEvent, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var event models.AuditEvent
		require.NoError(t, json.Unmarshal(body, &event))
		received <- event
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.ServerConfig{
		AuditURL: server.URL,
	}

	events := make(chan models.AuditEvent)
	go URLSubscriber(events, cfg, zap.NewNop().Sugar())

	event := models.AuditEvent{
		TS:        time.Now().Format(time.RFC3339),
		Metrics:   []string{"testMetric"},
		IPAddress: "127.0.0.1",
	}
	events <- event
	close(events)

	select {
	case got := <-received:
		assert.Equal(t, event, got)
	case <-time.After(time.Second):
		t.Fatal("audit event was not delivered")
	}
}
