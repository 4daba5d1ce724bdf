package storage

import (
	"context"
	"time"

	"github.com/chrissnell/precipmeter/internal/log"
	"github.com/chrissnell/precipmeter/internal/metrics"
	"github.com/chrissnell/precipmeter/internal/report"
)

// Health is the result of a backend health check
type Health struct {
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
}

// Health status values
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Healthy reports whether the check passed.
func (h *Health) Healthy() bool {
	return h != nil && h.Status == StatusHealthy
}

// CreateHealthData creates a basic health data structure
func CreateHealthData(status, message string, err error) *Health {
	health := &Health{
		LastCheck: time.Now(),
		Status:    status,
		Message:   message,
	}

	if err != nil {
		health.Error = err.Error()
	}

	return health
}

// ProcessRecords provides a standard pattern for processing report records
// from a channel. Successful writes are counted per station and engine.
func ProcessRecords(ctx context.Context, recordChan <-chan report.Record, processor func(context.Context, report.Record) error, name string, m *metrics.Metrics) {
	for {
		select {
		case r := <-recordChan:
			if err := processor(ctx, r); err != nil {
				log.Errorf("%s record processor error: %v", name, err)
				continue
			}
			if m != nil {
				m.ReportsWritten.WithLabelValues(r.Station, name).Inc()
			}
		case <-ctx.Done():
			log.Infof("cancellation request received. Cancelling %s records processor", name)
			return
		}
	}
}
