// Package timescaledb stores driver updates in a TimescaleDB hypertable.
package timescaledb

import (
	"context"
	"sync"

	"github.com/chrissnell/weatherlink-ns/internal/database"
	"github.com/chrissnell/weatherlink-ns/internal/storage"
	"github.com/chrissnell/weatherlink-ns/internal/types"
	"github.com/chrissnell/weatherlink-ns/pkg/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Storage holds the configuration for a TimescaleDB storage backend
type Storage struct {
	TimescaleDBConn *gorm.DB
	logger          *zap.SugaredLogger
}

// StartStorageEngine creates a goroutine loop to receive readings and send
// them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.DriverReading {
	t.logger.Info("starting TimescaleDB storage engine...")
	readingChan := make(chan types.DriverReading, 10)
	wg.Add(1)
	go storage.ProcessReadings(ctx, wg, readingChan, t.StoreReading, "TimescaleDB", t.logger)
	return readingChan
}

// StoreReading stores a reading value in TimescaleDB
func (t *Storage) StoreReading(r types.DriverReading) error {
	return t.TimescaleDBConn.Create(&r).Error
}

// CheckHealth pings the database
func (t *Storage) CheckHealth(ctx context.Context) error {
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// New sets up a new TimescaleDB storage backend
func New(ctx context.Context, c *config.TimescaleDBData, logger *zap.SugaredLogger) (*Storage, error) {
	db, err := database.CreateConnection(c.ConnectionString)
	if err != nil {
		return nil, err
	}

	t := &Storage{TimescaleDBConn: db, logger: logger}

	// Create the database table
	logger.Info("creating database table...")
	if err := db.WithContext(ctx).Exec(createTableSQL).Error; err != nil {
		logger.Warn("warning: could not create table in database")
		return nil, err
	}

	// Plain PostgreSQL still works, just without the hypertable
	logger.Info("creating TimescaleDB extension...")
	if err := db.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
		logger.Warnf("warning: could not create TimescaleDB extension: %v", err)
	} else {
		logger.Info("creating hypertable...")
		if err := db.WithContext(ctx).Exec(createHypertableSQL).Error; err != nil {
			logger.Warnf("warning: could not create hypertable: %v", err)
		}
	}

	logger.Info("creating lookup index...")
	if err := db.WithContext(ctx).Exec(createIndexSQL).Error; err != nil {
		logger.Warnf("warning: could not create index: %v", err)
	}

	return t, nil
}
