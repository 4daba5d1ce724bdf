// Package restserver serves the present weather of the configured stations
// over HTTP.
package restserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/chrissnell/precipmeter/internal/meter"
	"github.com/chrissnell/precipmeter/internal/storage"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Meters looks up the running meters.
type Meters interface {
	Meters() []*meter.Meter
	GetMeter(name string) *meter.Meter
}

// HealthFunc reports the health of the storage engines.
type HealthFunc func(ctx context.Context) map[string]*storage.Health

// Controller represents the REST server controller
type Controller struct {
	Server   http.Server
	meters   Meters
	health   HealthFunc
	gatherer prometheus.Gatherer
	logger   *zap.SugaredLogger
	handlers *Handlers
}

// NewController creates a new REST server controller. health and gatherer
// may be nil.
func NewController(meters Meters, health HealthFunc, gatherer prometheus.Gatherer, logger *zap.SugaredLogger) *Controller {
	ctrl := &Controller{
		meters:   meters,
		health:   health,
		gatherer: gatherer,
		logger:   logger,
	}
	ctrl.handlers = NewHandlers(ctrl)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second
	return ctrl
}

// Serve answers HTTP requests on l until Shutdown is called
func (c *Controller) Serve(l net.Listener) error {
	c.logger.Infof("REST server listening on %v", l.Addr())
	if err := c.Server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for active requests until ctx ends
func (c *Controller) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down the REST server...")
	return c.Server.Shutdown(ctx)
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/stations", c.handlers.GetStations).Methods(http.MethodGet)
	router.HandleFunc("/stations/{station}/current", c.handlers.GetCurrent).Methods(http.MethodGet)
	router.HandleFunc("/stations/{station}/episodes", c.handlers.GetEpisodes).Methods(http.MethodGet)
	router.HandleFunc("/stations/{station}/report", c.handlers.GetReport).Methods(http.MethodGet)
	router.HandleFunc("/stations/{station}/wind", c.handlers.PutWind).Methods(http.MethodPut)
	router.HandleFunc("/health", c.handlers.GetHealth).Methods(http.MethodGet)

	if c.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return router
}
