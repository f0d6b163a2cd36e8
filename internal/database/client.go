// Package database connects to TimescaleDB and reads stored driver history.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/weatherlink-ns/internal/log"
	"github.com/chrissnell/weatherlink-ns/internal/types"
	"go.uber.org/zap"
)

// MaxHistoryRows caps the rows returned by History
const MaxHistoryRows = 10000

// Client reads driver history from a TimescaleDB database
type Client struct {
	DB      *gorm.DB // Exported so it can be accessed from other packages
	station string
}

// NewClient creates a database client for station on an open connection
func NewClient(db *gorm.DB, station string) *Client {
	return &Client{DB: db, station: station}
}

// History returns the readings of one driver since the given time, oldest first
func (c *Client) History(ctx context.Context, node, driver string, since time.Time) ([]types.DriverReading, error) {
	var readings []types.DriverReading
	err := c.DB.WithContext(ctx).
		Where("station = ? AND node = ? AND driver = ? AND time >= ?", c.station, node, driver, since).
		Order("time ASC").
		Limit(MaxHistoryRows).
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("error querying database for driver history: %w", err)
	}
	return readings, nil
}

// Ping checks that the database answers queries
func (c *Client) Ping(ctx context.Context) error {
	var result int
	return c.DB.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return nil, err
	}
	log.Info("TimescaleDB connection successful")

	return db, nil
}
