package managers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/weatherlink-ns/internal/host"
	"github.com/chrissnell/weatherlink-ns/internal/storage"
	"github.com/chrissnell/weatherlink-ns/internal/storage/timescaledb"
	"github.com/chrissnell/weatherlink-ns/internal/types"
	"github.com/chrissnell/weatherlink-ns/pkg/config"
	"go.uber.org/zap"
)

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines            []StorageEngine
	ReadingDistributor chan types.DriverReading

	station string
	logger  *zap.SugaredLogger
	mu      sync.RWMutex
	dropped int
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing readings to the engine
type StorageEngine struct {
	Name   string
	Engine storage.StorageEngineInterface
	C      chan<- types.DriverReading
}

// NewStorageManager creates a StorageManager object, populated with all configured StorageEngines
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, c config.StorageData, logger *zap.SugaredLogger) (*StorageManager, error) {
	s := newStorageManager(ctx, wg, logger)

	// Check the configuration for various supported storage backends
	// and enable them if found
	if c.TimescaleDB != nil {
		s.station = c.TimescaleDB.Station
		engine, err := timescaledb.New(ctx, c.TimescaleDB, logger)
		if err != nil {
			return s, fmt.Errorf("could not add TimescaleDB storage backend: %v", err)
		}
		s.AddEngine(ctx, wg, "timescaledb", engine)
	}

	return s, nil
}

func newStorageManager(ctx context.Context, wg *sync.WaitGroup, logger *zap.SugaredLogger) *StorageManager {
	s := &StorageManager{
		// Initialize our channel for passing readings to the reading distributor
		ReadingDistributor: make(chan types.DriverReading, 20),
		logger:             logger,
	}

	// Start our reading distributor to distribute received readings to storage
	// backends
	wg.Add(1)
	go s.startReadingDistributor(ctx, wg)
	return s
}

// AddEngine starts engine and attaches it to the distributor
func (s *StorageManager) AddEngine(ctx context.Context, wg *sync.WaitGroup, name string, engine storage.StorageEngineInterface) {
	se := StorageEngine{Name: name, Engine: engine}
	se.C = engine.StartStorageEngine(ctx, wg)

	s.mu.Lock()
	s.Engines = append(s.Engines, se)
	s.mu.Unlock()
}

// Record queues an accepted driver update for storage.  It never blocks the
// poll: when the distributor is full the reading is dropped.
func (s *StorageManager) Record(address string, d host.Driver) {
	r := types.NewDriverReading(time.Now().UTC(), s.station, address, d)
	select {
	case s.ReadingDistributor <- r:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		s.logger.Warnf("storage queue full, dropped %s/%s", address, d.Name)
	}
}

// Dropped returns the number of readings dropped because the queue was full
func (s *StorageManager) Dropped() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// Health checks every engine that supports it.  The result maps engine name
// to "healthy" or the error text.
func (s *StorageManager) Health(ctx context.Context) map[string]string {
	s.mu.RLock()
	engines := append([]StorageEngine(nil), s.Engines...)
	s.mu.RUnlock()

	out := make(map[string]string, len(engines))
	for _, e := range engines {
		hc, ok := e.Engine.(storage.HealthChecker)
		if !ok {
			continue
		}
		if err := hc.CheckHealth(ctx); err != nil {
			out[e.Name] = err.Error()
		} else {
			out[e.Name] = "healthy"
		}
	}
	return out
}

// startReadingDistributor receives readings from the nodes and fans them out to the various
// storage backends
func (s *StorageManager) startReadingDistributor(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case r := <-s.ReadingDistributor:
			s.mu.RLock()
			engines := s.Engines
			s.mu.RUnlock()

			// No storage engines configured - reading discarded silently
			for _, e := range engines {
				select {
				case e.C <- r:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
