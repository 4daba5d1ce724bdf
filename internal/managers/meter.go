package managers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/chrissnell/precipmeter/internal/meter"
	"github.com/chrissnell/precipmeter/internal/metrics"
	"github.com/chrissnell/precipmeter/internal/presentweather"
	"github.com/chrissnell/precipmeter/internal/storage/sqlite"
	"github.com/chrissnell/precipmeter/internal/telegram"
	"github.com/chrissnell/precipmeter/internal/transport"
	"github.com/chrissnell/precipmeter/internal/wmo"
	"github.com/chrissnell/precipmeter/pkg/config"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// MeterManager owns the meters of all enabled stations
type MeterManager struct {
	ctx    context.Context
	wg     *sync.WaitGroup
	logger *zap.SugaredLogger

	mu     sync.RWMutex
	meters map[string]*meter.Meter
}

// NewMeterManager creates a MeterManager populated with a meter for every
// enabled station. A station that cannot be set up is logged and skipped.
func NewMeterManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, m *metrics.Metrics, clock clockwork.Clock, logger *zap.SugaredLogger) (*MeterManager, error) {
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	mm := &MeterManager{
		ctx:    ctx,
		wg:     wg,
		logger: logger,
		meters: make(map[string]*meter.Meter),
	}

	squall := wmo.SquallThresholds{
		MinSpeed:        cfgData.Squall.MinSpeed,
		MinGustIncrease: cfgData.Squall.MinGustIncrease,
	}

	for _, st := range cfgData.Stations {
		if !st.IsEnabled() {
			logger.Infof("Skipping disabled station [%s]", st.Name)
			continue
		}
		mtr, err := createMeterFromConfig(ctx, st, squall, m, clock, logger)
		if err != nil {
			logger.Errorf("error creating meter [%s], station disabled: %v", st.Name, err)
			continue
		}
		mm.meters[st.Name] = mtr
	}

	if len(mm.meters) == 0 {
		return nil, fmt.Errorf("no station could be started")
	}
	return mm, nil
}

// StartMeters starts the ingestion loop of every meter
func (mm *MeterManager) StartMeters() {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	mm.logger.Info("Meter manager started")
	for _, m := range mm.meters {
		m.Start(mm.ctx, mm.wg)
	}
}

// GetMeter retrieves a meter by station name.
// Returns nil if the station does not exist.
func (mm *MeterManager) GetMeter(name string) *meter.Meter {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.meters[name]
}

// Meters returns all meters ordered by station name
func (mm *MeterManager) Meters() []*meter.Meter {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	out := make([]*meter.Meter, 0, len(mm.meters))
	for _, m := range mm.meters {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// createMeterFromConfig wires the field table, transport and episode store
// of one station into a meter
func createMeterFromConfig(ctx context.Context, st config.StationData, squall wmo.SquallThresholds, m *metrics.Metrics, clock clockwork.Clock, logger *zap.SugaredLogger) (*meter.Meter, error) {
	table, err := telegram.NewTable(telegram.TableOptions{
		Model:      st.Model,
		Telegram:   st.Telegram,
		Variant:    st.Variant,
		FieldTable: st.FieldTable,
	})
	if err != nil {
		return nil, err
	}

	tr, err := transport.New(transport.Config{
		Connection: st.Connection,
		Host:       st.Host,
		Port:       st.Port,
		Device:     st.SerialDevice,
		Baud:       st.Baud,
		Interval:   time.Duration(st.DeviceInterval) * time.Second,
		Clock:      clock,
	})
	if err != nil {
		return nil, err
	}

	c := meter.Config{
		Name:      st.Name,
		Prefix:    st.Prefix,
		Table:     table,
		Transport: tr,
		Params: presentweather.Params{
			DeviceInterval:    st.DeviceInterval,
			ErrorLimit:        st.ErrorLimit,
			InterruptionLimit: st.InterruptionLimit,
			Span:              st.Span,
		},
		StaleTimeout: st.StaleTimeout,
		Squall:       squall,
		Clock:        clock,
		Metrics:      m,
		Logger:       logger,
	}

	if st.StateDir != "" {
		if err := os.MkdirAll(st.StateDir, 0755); err != nil {
			return nil, fmt.Errorf("can't create state directory: %v", err)
		}
		store, err := sqlite.Open(ctx, filepath.Join(st.StateDir, st.Name+".db"))
		if err != nil {
			return nil, err
		}
		c.Store = store
		c.RecoveryFile = filepath.Join(st.StateDir, st.Name+".json")
	}

	logger.Infof("Initializing %s meter [%s] on %v", table.Model, st.Name, tr)
	mtr, err := meter.New(c)
	if err != nil && c.Store != nil {
		c.Store.Close()
	}
	return mtr, err
}
