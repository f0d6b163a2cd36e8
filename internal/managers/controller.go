package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrissnell/weatherlink-ns/internal/controllers/restserver"
	"github.com/chrissnell/weatherlink-ns/internal/database"
	"github.com/chrissnell/weatherlink-ns/pkg/config"
	"go.uber.org/zap"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates a new controller manager with every controller
// the configuration enables
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, c *config.ConfigData, ns restserver.NodeServer, storage *StorageManager, logger *zap.SugaredLogger) (ControllerManager, error) {
	cm := &controllerManager{
		ctx:         ctx,
		wg:          wg,
		logger:      logger,
		controllers: make([]Controller, 0),
	}

	if c.REST != nil {
		controller, err := cm.createRESTController(c, ns, storage)
		if err != nil {
			return nil, fmt.Errorf("error creating controller: %v", err)
		}
		cm.controllers = append(cm.controllers, controller)
	}

	return cm, nil
}

type controllerManager struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	logger      *zap.SugaredLogger
	controllers []Controller
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")

	for _, controller := range c.controllers {
		err := controller.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %v", err)
		}
	}

	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}

func (cm *controllerManager) createRESTController(c *config.ConfigData, ns restserver.NodeServer, storage *StorageManager) (Controller, error) {
	var opts restserver.Options
	if storage != nil {
		opts.Storage = storage
	}

	// If a TimescaleDB database was configured, set up a GORM DB handle so that the
	// handlers can retrieve history
	if ts := c.Storage.TimescaleDB; ts != nil && ts.ConnectionString != "" {
		db, err := database.CreateConnection(ts.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("REST server could not connect to database: %v", err)
		}
		opts.History = database.NewClient(db, ts.Station)
	}

	return restserver.NewController(cm.ctx, cm.wg, *c.REST, ns, opts, cm.logger)
}
