// Package meter runs the ingestion loop of one disdrometer: it reads
// telegrams from the transport, decodes them, feeds the present weather
// window and accumulates the report of the current interval.
package meter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/precipmeter/internal/log"
	"github.com/chrissnell/precipmeter/internal/metrics"
	"github.com/chrissnell/precipmeter/internal/presentweather"
	"github.com/chrissnell/precipmeter/internal/report"
	"github.com/chrissnell/precipmeter/internal/telegram"
	"github.com/chrissnell/precipmeter/internal/transport"
	"github.com/chrissnell/precipmeter/internal/wmo"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	// DefaultReceiveTimeout bounds each wait on the transport, and with it
	// how long a shutdown request may go unnoticed.
	DefaultReceiveTimeout = 5 * time.Second
	// DefaultStaleTimeout is how long a connection may stay silent before
	// it is torn down.
	DefaultStaleTimeout = 5 * time.Minute
	// DefaultRetryDelay is the pause after a failed connection attempt.
	DefaultRetryDelay = 5 * time.Second
)

// ErrNoTransport is returned by New when the configuration has no
// transport.
var ErrNoTransport = errors.New("no transport configured")

// Config wires a meter. Name, Table and Transport are required.
type Config struct {
	Name      string
	Prefix    string
	Table     telegram.Table
	Transport transport.Transport
	Params    presentweather.Params

	// Store keeps closed episodes; it may be nil. RecoveryFile holds the
	// window across clean restarts; it may be empty.
	Store        presentweather.EpisodeStore
	RecoveryFile string

	ReceiveTimeout time.Duration
	StaleTimeout   time.Duration
	RetryDelay     time.Duration

	Squall  wmo.SquallThresholds
	Clock   clockwork.Clock
	Metrics *metrics.Metrics
	Logger  *zap.SugaredLogger
}

// Meter is one configured disdrometer.
type Meter struct {
	name      string
	prefix    string
	transport transport.Transport
	decoder   *telegram.Decoder
	window    *presentweather.Window
	classifyf func(until int64) (presentweather.Result, error)
	store     presentweather.EpisodeStore
	recovery  string
	rollover  float64
	squall    wmo.SquallThresholds
	runID     string

	receiveTimeout time.Duration
	staleTimeout   time.Duration
	retryDelay     time.Duration

	clock   clockwork.Clock
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
	limiter *log.Limiter

	// Owned by the ingestion goroutine.
	open     bool
	lastData time.Time
	lastAccu *float64

	// mu guards the fields shared with the reporting and API paths.
	mu         sync.Mutex
	acc        *report.Accumulator
	lastReport *report.Record
	current    Current
	connected  bool
	wind       *Wind
}

// Wind is the latest wind observation, used to detect squalls.
type Wind struct {
	Sustained float64   `json:"sustained"`
	Gust      float64   `json:"gust"`
	Time      time.Time `json:"time"`
}

// New builds a meter from c.
func New(c Config) (*Meter, error) {
	if c.Name == "" {
		return nil, errors.New("meter needs a name")
	}
	if c.Transport == nil {
		return nil, fmt.Errorf("station %s: %w", c.Name, ErrNoTransport)
	}
	if len(c.Table.Fields) == 0 {
		return nil, fmt.Errorf("station %s: empty field table", c.Name)
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewMetricsForTesting()
	}
	if c.ReceiveTimeout <= 0 {
		c.ReceiveTimeout = DefaultReceiveTimeout
	}
	if c.StaleTimeout <= 0 {
		c.StaleTimeout = DefaultStaleTimeout
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Squall == (wmo.SquallThresholds{}) {
		c.Squall = wmo.DefaultSquallThresholds()
	}

	m := &Meter{
		name:           c.Name,
		prefix:         c.Prefix,
		transport:      c.Transport,
		decoder:        telegram.NewDecoder(c.Table, c.Prefix),
		window:         presentweather.NewWindow(c.Name, c.Params, c.Logger),
		store:          c.Store,
		recovery:       c.RecoveryFile,
		rollover:       c.Table.RainRollover,
		squall:         c.Squall,
		runID:          uuid.NewString(),
		receiveTimeout: c.ReceiveTimeout,
		staleTimeout:   c.StaleTimeout,
		retryDelay:     c.RetryDelay,
		clock:          c.Clock,
		metrics:        c.Metrics,
		logger:         c.Logger,
		limiter:        log.NewLimiter(c.Logger, c.Clock, log.DefaultQuietPeriod),
	}
	m.classifyf = m.window.Classify
	m.acc = report.NewAccumulator(c.Name, c.Prefix, m.runID, c.Clock.Now())
	m.current = Current{Station: c.Name, WW: wmo.None, Wawa: wmo.None}
	return m, nil
}

// Name returns the station name.
func (m *Meter) Name() string {
	return m.name
}

// RunID identifies this run of the meter in its report records.
func (m *Meter) RunID() string {
	return m.runID
}

// Start restores the window and launches the ingestion goroutine. The
// goroutine persists the window and releases the transport when ctx is
// cancelled.
func (m *Meter) Start(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.Infof("starting meter [%s] on %v", m.name, m.transport)
	m.restore(ctx)

	wg.Add(1)
	go m.run(ctx, wg)
}

func (m *Meter) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer m.shutdown()

	for {
		select {
		case <-ctx.Done():
			m.logger.Infof("cancellation request received, stopping meter [%s]", m.name)
			return
		default:
		}
		m.step(ctx)
	}
}

// step runs one iteration of the ingestion loop.
func (m *Meter) step(ctx context.Context) {
	if !m.open {
		if err := m.transport.Open(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.limiter.Errorf("open", "station %s: %v; retrying in %v", m.name, err, m.retryDelay)
			select {
			case <-ctx.Done():
			case <-m.clock.After(m.retryDelay):
			}
			return
		}
		m.logger.Infof("station %s: connected to %v", m.name, m.transport)
		m.open = true
		m.lastData = m.clock.Now()
		m.setConnected(true)
	}

	records, err := m.transport.Receive(ctx, m.receiveTimeout)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return
	case errors.Is(err, transport.ErrTimeout):
		if silent := m.clock.Since(m.lastData); silent > m.staleTimeout {
			m.limiter.Warnf("stale", "station %s: no data for %v, reconnecting", m.name, silent.Round(time.Second))
			m.disconnect()
		}
		return
	default:
		m.limiter.Errorf("receive", "station %s: receive failed: %v", m.name, err)
		m.disconnect()
		return
	}

	now := m.clock.Now()
	m.lastData = now
	for _, raw := range records {
		m.process(ctx, raw, now)
	}
}

func (m *Meter) disconnect() {
	if err := m.transport.Close(); err != nil {
		m.logger.Warnf("station %s: closing %v: %v", m.name, m.transport, err)
	}
	m.open = false
	m.setConnected(false)
	m.metrics.Reconnects.WithLabelValues(m.name).Inc()
}

func (m *Meter) setConnected(c bool) {
	m.mu.Lock()
	m.connected = c
	m.mu.Unlock()

	v := 0.0
	if c {
		v = 1
	}
	m.metrics.Connected.WithLabelValues(m.name).Set(v)
}

// shutdown persists the window and releases the transport and the store.
func (m *Meter) shutdown() {
	if err := m.saveRecovery(); err != nil {
		m.logger.Errorf("station %s: %v", m.name, err)
	}
	if m.open {
		if err := m.transport.Close(); err != nil {
			m.logger.Warnf("station %s: closing %v: %v", m.name, m.transport, err)
		}
		m.open = false
	}
	m.setConnected(false)
	if m.store != nil {
		if err := m.store.Close(); err != nil {
			m.logger.Warnf("station %s: closing episode store: %v", m.name, err)
		}
	}
	m.logger.Infof("meter [%s] stopped", m.name)
}
