// Package storage defines interfaces and implementations for driver history storage backends.
package storage

import (
	"context"
	"sync"

	"github.com/chrissnell/weatherlink-ns/internal/types"
)

// StorageEngineInterface is an interface that provides a few standardized
// methods for various storage backends
type StorageEngineInterface interface {
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- types.DriverReading
}

// HealthChecker is implemented by engines that can report their health
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}
