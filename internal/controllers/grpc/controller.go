// Package grpc serves the present weather of the configured stations over
// gRPC, along with the standard health service.
package grpc

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/chrissnell/precipmeter/internal/meter"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// DefaultHealthInterval is how often station health is refreshed.
const DefaultHealthInterval = 15 * time.Second

// Meters looks up the running meters.
type Meters interface {
	Meters() []*meter.Meter
	GetMeter(name string) *meter.Meter
}

// Controller represents the gRPC controller
type Controller struct {
	Server *grpc.Server
	meters Meters
	health *health.Server
	clock  clockwork.Clock
	logger *zap.SugaredLogger
}

// NewController creates a new gRPC controller instance
func NewController(meters Meters, clock clockwork.Clock, logger *zap.SugaredLogger) *Controller {
	ctrl := &Controller{
		Server: grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary(logger))),
		meters: meters,
		health: health.NewServer(),
		clock:  clock,
		logger: logger,
	}

	ctrl.Server.RegisterService(&presentWeatherServiceDesc, ctrl)
	healthpb.RegisterHealthServer(ctrl.Server, ctrl.health)
	reflection.Register(ctrl.Server)
	ctrl.updateHealth()

	return ctrl
}

// Serve answers gRPC requests on l until Shutdown is called
func (c *Controller) Serve(l net.Listener) error {
	c.logger.Infof("gRPC server listening on %v", l.Addr())
	return c.Server.Serve(l)
}

// Shutdown marks every service as not serving and stops the server after
// the pending RPCs finish.
func (c *Controller) Shutdown() {
	c.logger.Info("Shutting down the gRPC server...")
	c.health.Shutdown()
	c.Server.GracefulStop()
}

// WatchHealth refreshes the per-station health status every interval until
// ctx is done.
func (c *Controller) WatchHealth(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.updateHealth()
		}
	}
}

// updateHealth publishes one health entry per station, named after it.
// A station is serving while its transport is open.
func (c *Controller) updateHealth() {
	for _, m := range c.meters.Meters() {
		st := healthpb.HealthCheckResponse_NOT_SERVING
		if m.Connected() {
			st = healthpb.HealthCheckResponse_SERVING
		}
		c.health.SetServingStatus(m.Name(), st)
	}
	c.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

// GetCurrent returns the latest classification of the named station
func (c *Controller) GetCurrent(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "station name is required")
	}
	m := c.meters.GetMeter(req.GetValue())
	if m == nil {
		return nil, status.Errorf(codes.NotFound, "station not found: %s", req.GetValue())
	}
	return toStruct(m.Current())
}

// ListStations returns the configured stations and their connectivity
func (c *Controller) ListStations(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	stations := make([]any, 0)
	for _, m := range c.meters.Meters() {
		stations = append(stations, map[string]any{
			"name":      m.Name(),
			"runId":     m.RunID(),
			"connected": m.Connected(),
		})
	}
	s, err := structpb.NewStruct(map[string]any{"stations": stations})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "could not encode stations: %v", err)
	}
	return s, nil
}

// toStruct converts v through its JSON form so the field names match the
// REST API.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "could not encode response: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "could not encode response: %v", err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "could not encode response: %v", err)
	}
	return s, nil
}

func logUnary(logger *zap.SugaredLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Debugf("gRPC %s failed: %v", info.FullMethod, err)
		}
		return resp, err
	}
}
