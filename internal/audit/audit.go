// Package audit provides audit logging functionality for the metrics server.
//
// It implements a publish-subscribe pattern for distributing audit events to
// multiple destinations including files and HTTP endpoints.
package audit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/remindcare/metrics/internal/config"
	models "github.com/remindcare/metrics/internal/model"
)

// AuditLogger is an interface for logging audit events.
type AuditLogger interface {
	// Log sends an audit event with the specified metrics and IP address.
	Log(metrics []string, ipAddress string)
}

// auditLogger is a concrete implementation of AuditLogger that sends events to a channel.
type auditLogger struct {
	eventChan chan models.AuditEvent
	logger    *zap.SugaredLogger
}

// NewAuditLogger creates a new AuditLogger that sends events to the provided channel.
func NewAuditLogger(eventChan chan models.AuditEvent, logger *zap.SugaredLogger) AuditLogger {
	return &auditLogger{
		eventChan: eventChan,
		logger:    logger,
	}
}

// Log sends an audit event with the specified metrics and IP address.
func (a *auditLogger) Log(metrics []string, ipAddress string) {
	event := models.AuditEvent{
		TS:        time.Now().Format(time.RFC3339),
		Metrics:   metrics,
		IPAddress: ipAddress,
	}

	select {
	case a.eventChan <- event:
		// Event sent successfully
	default:
		// Channel is full, drop the event to prevent blocking
		a.logger.Warn("audit: dropped event, channel is full")
	}
}

// Broadcaster distributes audit events to multiple subscriber channels.
//
// It receives events from a source channel and sends them to all provided
// subscriber channels using select with default case to prevent blocking
// and goroutine leaks.
func Broadcaster(source <-chan models.AuditEvent, subs ...chan<- models.AuditEvent) {
	for evt := range source {
		for _, subChan := range subs {
			select {
			case subChan <- evt:
				// Event sent successfully
			default:
				// Channel is blocked, discard event to prevent goroutine leak
			}
		}
	}
	for _, subChan := range subs {
		close(subChan)
	}
}

// FileSubscriber appends audit events to the configured audit file, one
// JSON object per line.
func FileSubscriber(events <-chan models.AuditEvent, config config.ServerConfig, logger *zap.SugaredLogger) {
	for evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			logger.Errorf("FileSubscriber: failed to marshal event: %v", err)
			continue
		}
		f, err := os.OpenFile(config.AuditFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			logger.Errorf("FileSubscriber: couldn't open file %s: %v", config.AuditFile, err)
			continue
		}
		_, err = f.WriteString(string(data) + "\n")
		if err != nil {
			logger.Errorf("FileSubscriber: failed to write event: %v", err)
		}
		f.Close()
	}
}

// URLSubscriber posts audit events to the configured HTTP endpoint.
func URLSubscriber(events <-chan models.AuditEvent, config config.ServerConfig, logger *zap.SugaredLogger) {
	for evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			logger.Errorf("URLSubscriber: failed to marshal event: %v", err)
			continue
		}
		resp, err := http.Post(config.AuditURL, "application/json", bytes.NewBuffer(data))
		if err != nil {
			logger.Errorf("URLSubscriber: failed to post event to %s: %v", config.AuditURL, err)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
