package storage

import (
	"context"
	"sync"

	"github.com/chrissnell/weatherlink-ns/internal/types"
	"go.uber.org/zap"
)

// ProcessReadings provides a standard pattern for processing readings from a channel.
// The caller must have added to wg.
func ProcessReadings(ctx context.Context, wg *sync.WaitGroup, readingChan <-chan types.DriverReading, processor func(types.DriverReading) error, name string, logger *zap.SugaredLogger) {
	defer wg.Done()

	for {
		select {
		case r := <-readingChan:
			if err := processor(r); err != nil {
				logger.Errorf("%s reading processor error: %v", name, err)
			}
		case <-ctx.Done():
			logger.Infof("cancellation request received. Cancelling %s readings processor", name)
			return
		}
	}
}
