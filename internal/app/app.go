// Package app wires the meters, the report scheduler, the storage engines
// and the API servers together.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/precipmeter/internal/log"
	"github.com/chrissnell/precipmeter/internal/managers"
	"github.com/chrissnell/precipmeter/internal/metrics"
	"github.com/chrissnell/precipmeter/pkg/config"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
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
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfgData, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)
	clock := clockwork.NewRealClock()

	// Initialize the storage manager
	storageManager, err := managers.NewStorageManager(ctx, &wg, a.configProvider, m)
	if err != nil {
		return err
	}

	// Initialize the meters, one per station
	mm, err := managers.NewMeterManager(ctx, &wg, a.configProvider, m, clock, a.logger)
	if err != nil {
		return err
	}
	mm.StartMeters()

	meters := mm.Meters()
	reporters := make([]managers.Reporter, 0, len(meters))
	for _, mtr := range meters {
		reporters = append(reporters, mtr)
	}
	rm := managers.NewReportManager(reporters, storageManager.GetRecordDistributor(), cfgData.Report.Interval, clock, a.logger)
	rm.Start(ctx, &wg)

	// Initialize the API servers
	cm := managers.NewControllerManager(cfgData.Server, mm, storageManager, registry, clock, a.logger)
	if err := cm.StartControllers(ctx, &wg); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return a.configProvider.Close()
}
