// Package restserver serves a read-only HTTP status API for the node server.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/weatherlink-ns/internal/log"
	"github.com/chrissnell/weatherlink-ns/internal/nodes"
	"github.com/chrissnell/weatherlink-ns/internal/types"
	"github.com/chrissnell/weatherlink-ns/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NodeServer is the node tree exposed by the API
type NodeServer interface {
	Nodes() []*nodes.Node
	NodeByAddress(address string) (*nodes.Node, bool)
	Configured() bool
	LastPoll() (time.Time, error)
	Query(ctx context.Context) error
}

// HealthReporter reports the health of storage engines
type HealthReporter interface {
	Health(ctx context.Context) map[string]string
}

// HistorySource reads stored driver history
type HistorySource interface {
	History(ctx context.Context, node, driver string, since time.Time) ([]types.DriverReading, error)
}

// Options holds the optional data sources of the API
type Options struct {
	Storage HealthReporter
	History HistorySource
}

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	nodes      NodeServer
	storage    HealthReporter
	history    HistorySource
	started    time.Time
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, ns NodeServer, opts Options, logger *zap.SugaredLogger) (*Controller, error) {
	if ns == nil {
		return nil, fmt.Errorf("REST server needs a node server")
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		nodes:      ns,
		storage:    opts.Storage,
		history:    opts.History,
		started:    time.Now(),
		logger:     logger,
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware)

	router.HandleFunc("/healthz", c.handlers.GetHealth).Methods(http.MethodGet)

	router.HandleFunc("/api/nodes", c.handlers.GetNodes).Methods(http.MethodGet)
	router.HandleFunc("/api/nodes/{address}", c.handlers.GetNode).Methods(http.MethodGet)
	router.HandleFunc("/api/nodes/{address}/drivers/{driver}", c.handlers.GetDriver).Methods(http.MethodGet)
	router.HandleFunc("/api/nodes/{address}/drivers/{driver}/history", c.handlers.GetDriverHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/query", c.handlers.PostQuery).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(c.handlers.NotFound)
	return router
}
