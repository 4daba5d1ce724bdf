package managers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	grpcctl "github.com/chrissnell/precipmeter/internal/controllers/grpc"
	"github.com/chrissnell/precipmeter/internal/controllers/restserver"
	"github.com/chrissnell/precipmeter/pkg/config"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/soheilhy/cmux"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// ControllerManager serves the REST and gRPC APIs on one port, telling
// them apart by protocol
type ControllerManager struct {
	addr   string
	rest   *restserver.Controller
	grpc   *grpcctl.Controller
	logger *zap.SugaredLogger
}

// NewControllerManager creates the API controllers for the meters of mm
func NewControllerManager(server config.ServerData, mm *MeterManager, sm *StorageManager, gatherer prometheus.Gatherer, clock clockwork.Clock, logger *zap.SugaredLogger) *ControllerManager {
	var health restserver.HealthFunc
	if sm != nil {
		health = sm.Health
	}
	return &ControllerManager{
		addr:   net.JoinHostPort(server.ListenAddr, fmt.Sprint(server.Port)),
		rest:   restserver.NewController(mm, health, gatherer, logger),
		grpc:   grpcctl.NewController(mm, clock, logger),
		logger: logger,
	}
}

// StartControllers listens on the configured address and serves until ctx
// is done
func (cm *ControllerManager) StartControllers(ctx context.Context, wg *sync.WaitGroup) error {
	l, err := net.Listen("tcp", cm.addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", cm.addr, err)
	}
	cm.serve(ctx, wg, l)
	return nil
}

func (cm *ControllerManager) serve(ctx context.Context, wg *sync.WaitGroup, l net.Listener) {
	m := cmux.New(l)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.HTTP1Fast())

	wg.Add(5)

	go func() {
		defer wg.Done()
		if err := cm.grpc.Serve(grpcL); err != nil && !closed(err) {
			cm.logger.Errorf("gRPC server error: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := cm.rest.Serve(httpL); err != nil && !closed(err) {
			cm.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		cm.grpc.WatchHealth(ctx, grpcctl.DefaultHealthInterval)
	}()

	go func() {
		defer wg.Done()
		if err := m.Serve(); err != nil && !closed(err) {
			cm.logger.Errorf("listener error on %s: %v", cm.addr, err)
		}
	}()

	go func() {
		defer wg.Done()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := cm.rest.Shutdown(shutdownCtx); err != nil {
			cm.logger.Errorf("error shutting down the REST server: %v", err)
		}
		cm.grpc.Shutdown()
		m.Close()
		l.Close()
	}()

	cm.logger.Infof("API listening on %s", l.Addr())
}

func closed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, cmux.ErrListenerClosed) || errors.Is(err, cmux.ErrServerClosed)
}
