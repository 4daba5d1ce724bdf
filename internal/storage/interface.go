// Package storage defines the interface of the report storage backends.
package storage

import (
	"context"
	"sync"

	"github.com/chrissnell/precipmeter/internal/report"
)

// StorageEngineInterface is an interface that provides a few standardized
// methods for various storage backends
type StorageEngineInterface interface {
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- report.Record
	Name() string
}

// HealthChecker is implemented by backends that can test their connection
type HealthChecker interface {
	CheckHealth(ctx context.Context) *Health
}
