package managers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/precipmeter/internal/metrics"
	"github.com/chrissnell/precipmeter/internal/report"
	"github.com/chrissnell/precipmeter/internal/storage"
	"github.com/chrissnell/precipmeter/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	name string

	mu      sync.Mutex
	records []report.Record
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- report.Record {
	ch := make(chan report.Record, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		storage.ProcessRecords(ctx, ch, func(_ context.Context, r report.Record) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.records = append(f.records, r)
			return nil
		}, f.name, metrics.NewMetricsForTesting())
	}()
	return ch
}

func (f *fakeEngine) CheckHealth(ctx context.Context) *storage.Health {
	return storage.CreateHealthData(storage.StatusHealthy, f.name+" ok", nil)
}

func (f *fakeEngine) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func TestRecordDistributorFansOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	sm := newStorageManager(metrics.NewMetricsForTesting())
	a, b := &fakeEngine{name: "a"}, &fakeEngine{name: "b"}
	sm.addStorageEngine(ctx, &wg, a)
	sm.addStorageEngine(ctx, &wg, b)
	wg.Add(1)
	go sm.startRecordDistributor(ctx, &wg)

	for i := 0; i < 3; i++ {
		sm.GetRecordDistributor() <- report.Record{Station: "roof", Count: i + 1}
	}

	assert.Eventually(t, func() bool { return a.count() == 3 && b.count() == 3 }, 5*time.Second, 10*time.Millisecond)

	health := sm.Health(ctx)
	require.Len(t, health, 2)
	assert.True(t, health["a"].Healthy())
	assert.Equal(t, "b ok", health["b"].Message)
}

func TestAddEngineUnknown(t *testing.T) {
	sm := newStorageManager(metrics.NewMetricsForTesting())
	err := sm.AddEngine(context.Background(), &sync.WaitGroup{}, "influxdb", &config.StorageData{})
	assert.ErrorContains(t, err, "unknown storage engine")
	assert.Empty(t, sm.Engines)
}
