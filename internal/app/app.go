// Package app wires the node server together and runs it until shutdown.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/weatherlink-ns/internal/host"
	"github.com/chrissnell/weatherlink-ns/internal/host/mqtt"
	"github.com/chrissnell/weatherlink-ns/internal/log"
	"github.com/chrissnell/weatherlink-ns/internal/managers"
	"github.com/chrissnell/weatherlink-ns/internal/nodes"
	"github.com/chrissnell/weatherlink-ns/internal/poller"
	"github.com/chrissnell/weatherlink-ns/pkg/config"
	"github.com/chrissnell/weatherlink-ns/pkg/weatherlink"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Initialize the storage manager
	storageManager, err := managers.NewStorageManager(ctx, &wg, cfg.Storage, a.logger)
	if err != nil {
		return err
	}

	params, err := a.initialParams(cfg.Station)
	if err != nil {
		return err
	}

	h, err := mqtt.New(mqtt.Config{
		Broker:   cfg.Host.Broker,
		Port:     cfg.Host.Port,
		ClientID: cfg.Host.ClientID,
		Username: cfg.Host.Username,
		Password: cfg.Host.Password,
		Profile:  cfg.Host.Profile,
	}, a.logger)
	if err != nil {
		return err
	}

	opts := nodes.ControllerOptions{
		Params:     params,
		NewFetcher: nodes.WeatherLinkFetcher(a.logger, weatherlink.WithEndpoint(cfg.Station.APIEndpoint)),
		SetLevel:   log.SetLevel,
		OnChange:   storageManager.Record,
	}
	if !a.configProvider.IsReadOnly() {
		opts.SaveParams = a.configProvider.SaveParams
	}
	ctl := nodes.NewController(h, a.logger, opts)

	a.logger.Infof("connecting to host broker %s:%d as %s", cfg.Host.Broker, cfg.Host.Port, cfg.Host.ClientID)
	if err := h.Start(ctx); err != nil {
		return err
	}
	defer h.Stop()

	if err := ctl.Start(ctx); err != nil {
		return err
	}

	// Initialize the controller manager
	cm, err := managers.NewControllerManager(ctx, &wg, cfg, ctl, storageManager, a.logger)
	if err != nil {
		return err
	}
	if err := cm.StartControllers(); err != nil {
		return err
	}

	p, err := poller.New(ctl, cfg.Polling, a.logger)
	if err != nil {
		return err
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Tell the host we are going away while the connection is still up
	if err := ctl.UpdateDriver(context.Background(), "ST", 0, true); err != nil {
		a.logger.Warnf("could not report node server status: %v", err)
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// initialParams seeds the custom parameters from the station section and
// overlays the values last saved from the host
func (a *App) initialParams(st config.StationData) (*nodes.Params, error) {
	initial := StationParams(st)

	saved, err := a.configProvider.GetParams()
	if err != nil {
		return nil, fmt.Errorf("could not load saved parameters: %w", err)
	}
	for k, v := range saved {
		initial[k] = v
	}

	return nodes.NewParams(nodes.DefaultParamSpecs, initial), nil
}

// StationParams maps the station section onto custom parameter names
func StationParams(st config.StationData) host.CustomParams {
	return host.CustomParams{
		nodes.ParamUser:      st.User,
		nodes.ParamPassword:  st.Password,
		nodes.ParamAPIToken:  st.APIToken,
		nodes.ParamStationID: st.StationID,
		nodes.ParamUnits:     st.Units,
	}
}
