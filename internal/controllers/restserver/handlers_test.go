package restserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/precipmeter/internal/meter"
	"github.com/chrissnell/precipmeter/internal/metrics"
	"github.com/chrissnell/precipmeter/internal/presentweather"
	"github.com/chrissnell/precipmeter/internal/report"
	"github.com/chrissnell/precipmeter/internal/storage"
	"github.com/chrissnell/precipmeter/internal/telegram"
	"github.com/chrissnell/precipmeter/internal/transport"
	"github.com/chrissnell/precipmeter/pkg/responseformat"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

type meterSet map[string]*meter.Meter

func (s meterSet) Meters() []*meter.Meter {
	out := make([]*meter.Meter, 0, len(s))
	for _, m := range s {
		out = append(out, m)
	}
	return out
}

func (s meterSet) GetMeter(name string) *meter.Meter {
	return s[name]
}

func newTestController(t *testing.T, health HealthFunc) (*Controller, *meter.Meter, *metrics.Metrics) {
	t.Helper()

	table, err := telegram.NewTable(telegram.TableOptions{Model: "parsivel"})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	mx := metrics.NewMetrics(reg)
	clock := clockwork.NewFakeClockAt(time.Unix(1_000_000, 0))
	m, err := meter.New(meter.Config{
		Name:      "roof",
		Table:     table,
		Transport: transport.NewSimulator(clock, 0),
		Params:    presentweather.DefaultParams(),
		Clock:     clock,
		Metrics:   mx,
	})
	require.NoError(t, err)

	return NewController(meterSet{"roof": m}, health, reg, zap.NewNop().Sugar()), m, mx
}

func serve(c *Controller, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	c.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestGetStations(t *testing.T) {
	c, m, _ := newTestController(t, nil)

	rec := serve(c, http.MethodGet, "/stations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, responseformat.ContentTypeJSON, rec.Header().Get("Content-Type"))

	var got []StationSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "roof", got[0].Name)
	assert.Equal(t, m.RunID(), got[0].RunID)
	assert.False(t, got[0].Connected)
}

func TestGetCurrent(t *testing.T) {
	c, _, _ := newTestController(t, nil)

	rec := serve(c, http.MethodGet, "/stations/roof/current", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "roof", got["station"])
	assert.Nil(t, got["ww"])
	assert.Nil(t, got["wawa"])

	rec = serve(c, http.MethodGet, "/stations/attic/current", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var e responseformat.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "station not found: attic", e.Error)
}

func TestGetEpisodesMsgPack(t *testing.T) {
	c, _, _ := newTestController(t, nil)

	rec := serve(c, http.MethodGet, "/stations/roof/episodes?format=msgpack", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, responseformat.ContentTypeMsgPack, rec.Header().Get("Content-Type"))

	var got []presentweather.Summary
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got)
}

func TestGetReport(t *testing.T) {
	c, m, _ := newTestController(t, nil)

	rec := serve(c, http.MethodGet, "/stations/roof/report", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	m.Report(time.Unix(1_000_300, 0))

	rec = serve(c, http.MethodGet, "/stations/roof/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got report.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "roof", got.Station)
	assert.Equal(t, 0, got.Count)
	assert.Equal(t, int64(1_000_300), got.End.Unix())
}

func TestPutWind(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "valid", body: `{"sustained": 12.5, "gust": 22}`, status: http.StatusOK},
		{name: "missing gust", body: `{"sustained": 12.5}`, status: http.StatusBadRequest},
		{name: "negative", body: `{"sustained": -1, "gust": 3}`, status: http.StatusBadRequest},
		{name: "not json", body: `windy`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, m, _ := newTestController(t, nil)

			rec := serve(c, http.MethodPut, "/stations/roof/wind", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			if tt.status != http.StatusOK {
				assert.Nil(t, m.Wind())
				return
			}
			w := m.Wind()
			require.NotNil(t, w)
			assert.Equal(t, 12.5, w.Sustained)
			assert.Equal(t, 22.0, w.Gust)
		})
	}
}

func TestGetHealth(t *testing.T) {
	health := func(ctx context.Context) map[string]*storage.Health {
		return map[string]*storage.Health{
			"timescaledb": storage.CreateHealthData(storage.StatusHealthy, "ok", nil),
			"kafka":       storage.CreateHealthData(storage.StatusUnhealthy, "down", errors.New("no brokers")),
		}
	}
	c, _, _ := newTestController(t, health)

	rec := serve(c, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, storage.StatusUnhealthy, got.Status)
	assert.Equal(t, map[string]bool{"roof": false}, got.Stations)
	assert.Len(t, got.Storage, 2)
}

func TestMetricsEndpoint(t *testing.T) {
	c, _, mx := newTestController(t, nil)
	mx.TelegramsReceived.WithLabelValues("roof").Add(3)

	rec := serve(c, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `precipmeter_telegrams_received_total{station="roof"} 3`)
}
