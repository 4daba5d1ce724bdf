package meter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/precipmeter/internal/metrics"
	"github.com/chrissnell/precipmeter/internal/presentweather"
	"github.com/chrissnell/precipmeter/internal/report"
	"github.com/chrissnell/precipmeter/internal/storage/sqlite"
	"github.com/chrissnell/precipmeter/internal/telegram"
	"github.com/chrissnell/precipmeter/internal/transport"
	"github.com/chrissnell/precipmeter/internal/wmo"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const t0 = 1_000_000

// scripted is a transport that replays canned batches and errors.
type scripted struct {
	mu      sync.Mutex
	openErr error
	steps   []step
	opens   int
	closes  int
}

type step struct {
	records []string
	err     error
}

func (s *scripted) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	return s.openErr
}

func (s *scripted) Receive(ctx context.Context, timeout time.Duration) ([]string, error) {
	s.mu.Lock()
	if len(s.steps) > 0 {
		st := s.steps[0]
		s.steps = s.steps[1:]
		s.mu.Unlock()
		return st.records, st.err
	}
	s.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *scripted) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *scripted) String() string { return "scripted" }

func parsivelTelegram(accu float64, wawa int) string {
	return fmt.Sprintf(transport.SimulatorTelegram, accu, wawa, 21)
}

type fixture struct {
	meter   *Meter
	tr      *scripted
	clock   *clockwork.FakeClock
	metrics *metrics.Metrics
	store   *sqlite.Store
}

func newFixture(t *testing.T, recovery string) *fixture {
	t.Helper()

	table, err := telegram.NewTable(telegram.TableOptions{Model: "parsivel"})
	require.NoError(t, err)

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "episodes.db"))
	require.NoError(t, err)

	f := &fixture{
		tr:      &scripted{},
		clock:   clockwork.NewFakeClockAt(time.Unix(t0, 0)),
		metrics: metrics.NewMetricsForTesting(),
		store:   store,
	}
	f.meter, err = New(Config{
		Name:         "roof",
		Table:        table,
		Transport:    f.tr,
		Params:       presentweather.DefaultParams(),
		Store:        store,
		RecoveryFile: recovery,
		Clock:        f.clock,
		Metrics:      f.metrics,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return f
}

// rainShower feeds five dry minutes, ten minutes of light rain adding
// 0.1 mm each and three dry minutes, one telegram per minute.
func (f *fixture) rainShower() {
	ctx := context.Background()
	ts, accu := int64(t0), 0.0
	send := func(n, wawa int, inc float64) {
		for i := 0; i < n; i++ {
			accu += inc
			f.clock.Advance(time.Unix(ts, 0).Sub(f.clock.Now()))
			f.meter.process(ctx, parsivelTelegram(accu, wawa), f.clock.Now())
			ts += 60
		}
	}
	send(5, 0, 0)
	send(10, 61, 0.1)
	send(3, 0, 0)
}

func TestNewValidates(t *testing.T) {
	table, err := telegram.NewTable(telegram.TableOptions{Model: "parsivel"})
	require.NoError(t, err)

	_, err = New(Config{Name: "roof", Table: table})
	assert.ErrorIs(t, err, ErrNoTransport)

	_, err = New(Config{Table: table, Transport: &scripted{}})
	assert.Error(t, err)

	_, err = New(Config{Name: "roof", Transport: &scripted{}})
	assert.Error(t, err)

	m, err := New(Config{Name: "roof", Table: table, Transport: &scripted{}})
	require.NoError(t, err)
	_, ok := m.LastReport()
	assert.False(t, ok)
	assert.Equal(t, "roof", m.Name())
	assert.NotEmpty(t, m.RunID())
}

func TestRainShowerReport(t *testing.T) {
	f := newFixture(t, "")
	f.rainShower()

	rec := f.meter.Report(time.Unix(t0+18*60, 0))
	assert.Equal(t, "roof", rec.Station)
	assert.Equal(t, 18, rec.Count)
	assert.EqualValues(t, 600, rec.Value(report.FieldPrecipitationDuration))
	assert.InDelta(t, 1.0, rec.Value(report.FieldRain), 1e-6)
	assert.Equal(t, 61, rec.Value(report.FieldWawaRaw))
	assert.Nil(t, rec.Value(report.FieldWWRaw))
	assert.Equal(t, int(wmo.WawaRain), rec.Value(report.FieldWawa))
	assert.Equal(t, true, rec.Value(report.FieldHeldOver))
	assert.Equal(t, wmo.AwekasRain, rec.Value(report.FieldAwekas))
	// The shower is over.
	assert.Nil(t, rec.Value(report.FieldPrecipitationStart))
	assert.InDelta(t, 21.0, rec.Value("housingTemp"), 1e-9)
	require.Len(t, rec.History, 3)

	cur := f.meter.Current()
	assert.Equal(t, wmo.WawaRain, cur.Wawa)
	assert.Equal(t, wmo.Code(0), cur.RawWawa)
	assert.True(t, cur.HeldOver)
	assert.Equal(t, wmo.AwekasRain, cur.Awekas)

	stored, err := f.store.LoadRecentEpisodes(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, int64(t0+240), stored[1].Start)
	assert.Equal(t, int64(t0+840), stored[1].End)
	assert.Equal(t, wmo.Code(61), stored[1].Wawa)

	assert.Equal(t, 18.0, testutil.ToFloat64(f.metrics.TelegramsReceived.WithLabelValues("roof")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.EpisodesClosed.WithLabelValues("roof")))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.WindowEpisodes.WithLabelValues("roof")))

	last, ok := f.meter.LastReport()
	require.True(t, ok)
	assert.Equal(t, rec.End, last.End)

	// The next interval starts empty.
	next := f.meter.Report(time.Unix(t0+19*60, 0))
	assert.Zero(t, next.Count)
	assert.EqualValues(t, 0, next.Value(report.FieldPrecipitationDuration))
	assert.Nil(t, next.Value(report.FieldRain))
}

func TestHistory(t *testing.T) {
	f := newFixture(t, "")
	f.rainShower()

	h := f.meter.History()
	require.Len(t, h, 3)
	assert.Equal(t, f.meter.Episodes()[1], h[1].Episode)

	assert.Nil(t, h[0].RainAmount)
	require.NotNil(t, h[1].RainAmount)
	assert.InDelta(t, 1.0, *h[1].RainAmount, 1e-6)
	require.NotNil(t, h[2].RainAmount)
	assert.InDelta(t, 0.0, *h[2].RainAmount, 1e-6)
}

func TestSensorState(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	f.meter.process(ctx, parsivelTelegram(0, 0), f.clock.Now())
	cur := f.meter.Current()
	require.NotNil(t, cur.SensorState)
	assert.Equal(t, int64(0), *cur.SensorState)
	assert.Nil(t, cur.ErrorCode)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.SensorState.WithLabelValues("roof")))

	f.clock.Advance(time.Minute)
	dirty := "200248;000.000;   0.00;00;-9.999;9999;000.00;021;15759;00000;1;\r\n"
	f.meter.process(ctx, dirty, f.clock.Now())
	cur = f.meter.Current()
	require.NotNil(t, cur.SensorState)
	assert.Equal(t, int64(1), *cur.SensorState)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SensorState.WithLabelValues("roof")))
}

func TestRainCounterRollover(t *testing.T) {
	f := newFixture(t, "")
	f.meter.rollover = 300

	assert.Nil(t, f.meter.rainDelta(nil))
	assert.Nil(t, f.meter.rainDelta(float64Ptr(299.5)))
	d := f.meter.rainDelta(float64Ptr(0.25))
	require.NotNil(t, d)
	assert.InDelta(t, 0.75, *d, 1e-9)

	f.meter.rollover = 0
	d = f.meter.rainDelta(float64Ptr(0.1))
	require.NotNil(t, d)
	assert.InDelta(t, 0.1, *d, 1e-9)
}

func float64Ptr(v float64) *float64 { return &v }

func TestRejectedTelegrams(t *testing.T) {
	f := newFixture(t, "")
	now := f.clock.Now()

	f.meter.process(context.Background(), "garbage", now)
	f.meter.process(context.Background(), "1;2;3", now)
	f.meter.process(context.Background(), "200248;000.000;   0.00;xx;-9.999;9999;000.00;021;15759;00000;0;", now)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TelegramsRejected.WithLabelValues("roof", "malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TelegramsRejected.WithLabelValues("roof", "short")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FieldErrors.WithLabelValues("roof", "wawa")))
	assert.Equal(t, 1, f.meter.Report(now).Count)
}

func TestSquall(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.meter.process(ctx, parsivelTelegram(0, 0), f.clock.Now())
		f.clock.Advance(time.Minute)
	}
	f.meter.SetWind(12, 21)
	require.NotNil(t, f.meter.Wind())
	f.meter.process(ctx, parsivelTelegram(0, 0), f.clock.Now())

	eps := f.meter.Episodes()
	assert.Equal(t, wmo.Squall, eps[len(eps)-1].Wawa)
	assert.Equal(t, wmo.Squall, f.meter.Current().RawWawa)
	rec := f.meter.Report(f.clock.Now())
	assert.Equal(t, int(wmo.Squall), rec.Value(report.FieldWawaRaw))

	// More significant codes are kept.
	f.clock.Advance(time.Minute)
	f.meter.process(ctx, parsivelTelegram(0.1, 61), f.clock.Now())
	eps = f.meter.Episodes()
	assert.Equal(t, wmo.Code(61), eps[len(eps)-1].Wawa)

	// Stale wind is ignored.
	f.clock.Advance(windValidity + time.Minute)
	s := presentweather.Sample{WW: wmo.None, Wawa: 0}
	f.meter.applySquall(&s, f.clock.Now())
	assert.Equal(t, wmo.Code(0), s.Wawa)
}

func TestStepReconnects(t *testing.T) {
	f := newFixture(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.tr.steps = []step{
		{records: []string{parsivelTelegram(0, 0)}},
		{err: transport.ErrTimeout},
		{err: transport.ErrTimeout},
		{err: io.EOF},
	}

	f.meter.step(ctx)
	assert.True(t, f.meter.Connected())
	assert.Equal(t, 1, f.tr.opens)
	assert.Equal(t, 1, f.meter.Report(f.clock.Now()).Count)

	// A short silence keeps the connection.
	f.clock.Advance(time.Minute)
	f.meter.step(ctx)
	assert.True(t, f.meter.Connected())

	// A long one does not.
	f.clock.Advance(DefaultStaleTimeout)
	f.meter.step(ctx)
	assert.False(t, f.meter.Connected())
	assert.Equal(t, 1, f.tr.closes)

	// Receive errors close the connection too.
	f.meter.step(ctx)
	assert.Equal(t, 2, f.tr.opens)
	assert.Equal(t, 2, f.tr.closes)
	assert.False(t, f.meter.Current().Connected)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Reconnects.WithLabelValues("roof")))
}

func TestStepRetriesOpen(t *testing.T) {
	f := newFixture(t, "")
	f.tr.openErr = io.ErrUnexpectedEOF
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		f.meter.step(ctx)
		close(done)
	}()

	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(DefaultRetryDelay)
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("step did not return after the retry delay")
	}
	assert.False(t, f.meter.Connected())
}

func TestStartRestoresAndPersists(t *testing.T) {
	recovery := filepath.Join(t.TempDir(), "roof.json")

	f := newFixture(t, recovery)
	f.rainShower()
	want := f.meter.Episodes()
	f.meter.shutdown()

	saved, err := presentweather.LoadRecovery(recovery)
	require.NoError(t, err)
	assert.Equal(t, want, saved)

	g := newFixture(t, recovery)
	g.clock.Advance(f.clock.Now().Sub(g.clock.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	g.meter.Start(ctx, &wg)
	assert.Equal(t, want, g.meter.Episodes())
	cancel()
	wg.Wait()

	saved, err = presentweather.LoadRecovery(recovery)
	require.NoError(t, err)
	assert.Equal(t, want, saved)
}

func TestRestoreFromStore(t *testing.T) {
	f := newFixture(t, "")
	f.rainShower()
	closed := f.meter.Episodes()[:2]

	m, err := New(Config{
		Name:      "roof",
		Table:     f.meter.decoder.Table(),
		Transport: &scripted{},
		Store:     f.store,
		Clock:     f.clock,
	})
	require.NoError(t, err)
	m.restore(context.Background())
	assert.Equal(t, closed, m.Episodes())
}

// failingStore is an episode store whose every operation fails.
type failingStore struct {
	mu    sync.Mutex
	calls int
}

var errStoreDown = errors.New("store down")

func (s *failingStore) fail() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return errStoreDown
}

func (s *failingStore) AppendEpisode(context.Context, presentweather.Episode) error { return s.fail() }
func (s *failingStore) DeleteEpisode(context.Context, int64) error                  { return s.fail() }
func (s *failingStore) PruneEpisodes(context.Context, int64) error                  { return s.fail() }
func (s *failingStore) Close() error                                                { return nil }

func (s *failingStore) LoadRecentEpisodes(context.Context, int64) ([]presentweather.Episode, error) {
	return nil, s.fail()
}

func TestPersistenceFaults(t *testing.T) {
	f := newFixture(t, "")
	core, logs := observer.New(zap.ErrorLevel)
	store := &failingStore{}

	m, err := New(Config{
		Name:      "roof",
		Table:     f.meter.decoder.Table(),
		Transport: &scripted{},
		Params:    presentweather.DefaultParams(),
		Store:     store,
		Clock:     f.clock,
		Metrics:   f.metrics,
		Logger:    zap.New(core).Sugar(),
	})
	require.NoError(t, err)
	f.meter = m
	f.rainShower()

	// Two episodes closed, each failing to append and to prune.
	assert.Equal(t, 4, store.calls)
	assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.PersistenceErrors.WithLabelValues("roof")))
	assert.Equal(t, 2, logs.FilterMessageSnippet("persisting episodes").Len())
	assert.Equal(t, 2, logs.FilterMessageSnippet("pruning episodes").Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.EpisodesClosed.WithLabelValues("roof")))

	// The window carries on regardless of the store.
	eps := m.Episodes()
	require.Len(t, eps, 3)
	assert.Equal(t, wmo.Code(61), eps[1].Wawa)
	assert.Equal(t, int64(t0+840), eps[1].End)

	rec := m.Report(time.Unix(t0+18*60, 0))
	assert.Equal(t, 18, rec.Count)
	assert.EqualValues(t, 600, rec.Value(report.FieldPrecipitationDuration))
	assert.True(t, m.Current().HeldOver)

	m.restore(context.Background())
	assert.Equal(t, eps, m.Episodes())
}

func TestClassifyFault(t *testing.T) {
	tests := []struct {
		name  string
		fault func(until int64) (presentweather.Result, error)
	}{
		{name: "panic", fault: func(int64) (presentweather.Result, error) { panic("index out of range") }},
		{name: "error", fault: func(int64) (presentweather.Result, error) {
			return presentweather.Result{}, errors.New("broken window")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "")
			ctx := context.Background()
			f.meter.classifyf = tt.fault

			f.meter.process(ctx, parsivelTelegram(0, 61), f.clock.Now())
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ClassifyFaults.WithLabelValues("roof")))
			assert.Equal(t, 1, f.meter.window.Len())
			assert.Equal(t, wmo.None, f.meter.Current().Wawa)

			rec := f.meter.Report(f.clock.Now())
			assert.Equal(t, 1, rec.Count)
			assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.ClassifyFaults.WithLabelValues("roof")))

			// Ingestion continues once the classifier recovers.
			f.meter.classifyf = f.meter.window.Classify
			f.clock.Advance(time.Minute)
			f.meter.process(ctx, parsivelTelegram(0.1, 61), f.clock.Now())
			assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.ClassifyFaults.WithLabelValues("roof")))
			assert.Equal(t, wmo.Code(61), f.meter.Current().Wawa)
			assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.TelegramsReceived.WithLabelValues("roof")))
		})
	}
}
