package managers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/precipmeter/internal/meter"
	"github.com/chrissnell/precipmeter/internal/presentweather"
	"github.com/chrissnell/precipmeter/internal/telegram"
	"github.com/chrissnell/precipmeter/internal/transport"
	"github.com/chrissnell/precipmeter/pkg/config"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestControllerManagerSharesPort(t *testing.T) {
	logger := zap.NewNop().Sugar()
	clock := clockwork.NewFakeClock()

	table, err := telegram.NewTable(telegram.TableOptions{Model: "parsivel"})
	require.NoError(t, err)
	m, err := meter.New(meter.Config{
		Name:      "roof",
		Table:     table,
		Transport: transport.NewSimulator(clock, 0),
		Params:    presentweather.DefaultParams(),
		Clock:     clock,
	})
	require.NoError(t, err)
	mm := &MeterManager{logger: logger, meters: map[string]*meter.Meter{"roof": m}}

	cm := NewControllerManager(config.ServerData{}, mm, nil, prometheus.NewRegistry(), clock, logger)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	cm.serve(ctx, &wg, l)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + l.Addr().String() + "/stations")
	require.NoError(t, err)
	var stations []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stations))
	resp.Body.Close()
	require.Len(t, stations, 1)
	assert.Equal(t, "roof", stations[0]["name"])

	conn, err := grpc.NewClient(l.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	rpcCtx, rpcCancel := context.WithTimeout(ctx, 5*time.Second)
	hr, err := healthpb.NewHealthClient(conn).Check(rpcCtx, &healthpb.HealthCheckRequest{Service: "roof"})
	rpcCancel()
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, hr.GetStatus())
	conn.Close()

	cancel()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("controllers did not stop")
	}
}
