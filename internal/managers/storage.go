package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrissnell/precipmeter/internal/log"
	"github.com/chrissnell/precipmeter/internal/metrics"
	"github.com/chrissnell/precipmeter/internal/report"
	"github.com/chrissnell/precipmeter/internal/storage"
	"github.com/chrissnell/precipmeter/internal/storage/kafka"
	"github.com/chrissnell/precipmeter/internal/storage/timescaledb"
	"github.com/chrissnell/precipmeter/pkg/config"
)

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines           []StorageEngine
	RecordDistributor chan report.Record
	metrics           *metrics.Metrics
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing report records to the engine
type StorageEngine struct {
	Engine storage.StorageEngineInterface
	C      chan<- report.Record
}

// NewStorageManager creates a StorageManager object, populated with all configured StorageEngines
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, m *metrics.Metrics) (*StorageManager, error) {
	s := newStorageManager(m)

	storageConfig, err := configProvider.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading storage configuration: %v", err)
	}

	// Check the configuration file for various supported storage backends
	// and enable them if found
	if storageConfig.TimescaleDB != nil && storageConfig.TimescaleDB.ConnectionString != "" {
		if err := s.AddEngine(ctx, wg, timescaledb.Name, storageConfig); err != nil {
			return s, fmt.Errorf("could not add TimescaleDB storage backend: %v", err)
		}
	}

	if storageConfig.Kafka != nil {
		if err := s.AddEngine(ctx, wg, kafka.Name, storageConfig); err != nil {
			return s, fmt.Errorf("could not add Kafka storage backend: %v", err)
		}
	}

	// Start our record distributor to distribute report records to storage
	// backends
	wg.Add(1)
	go s.startRecordDistributor(ctx, wg)

	return s, nil
}

func newStorageManager(m *metrics.Metrics) *StorageManager {
	return &StorageManager{
		RecordDistributor: make(chan report.Record, 20),
		metrics:           m,
	}
}

// GetRecordDistributor returns the record distributor channel
func (s *StorageManager) GetRecordDistributor() chan<- report.Record {
	return s.RecordDistributor
}

// AddEngine adds a new StorageEngine of name engineName to our Storage object
func (s *StorageManager) AddEngine(ctx context.Context, wg *sync.WaitGroup, engineName string, c *config.StorageData) error {
	switch engineName {
	case timescaledb.Name:
		e, err := timescaledb.New(ctx, c.TimescaleDB.ConnectionString, s.metrics)
		if err != nil {
			return err
		}
		s.addStorageEngine(ctx, wg, e)
	case kafka.Name:
		s.addStorageEngine(ctx, wg, kafka.New(c.Kafka.Brokers, c.Kafka.Topic, s.metrics))
	default:
		return fmt.Errorf("unknown storage engine: %s", engineName)
	}
	return nil
}

func (s *StorageManager) addStorageEngine(ctx context.Context, wg *sync.WaitGroup, e storage.StorageEngineInterface) {
	s.Engines = append(s.Engines, StorageEngine{
		Engine: e,
		C:      e.StartStorageEngine(ctx, wg),
	})
}

// Health runs the health checks of the engines that support them
func (s *StorageManager) Health(ctx context.Context) map[string]*storage.Health {
	health := make(map[string]*storage.Health)
	for _, e := range s.Engines {
		if hc, ok := e.Engine.(storage.HealthChecker); ok {
			health[e.Engine.Name()] = hc.CheckHealth(ctx)
		}
	}
	return health
}

// startRecordDistributor receives report records and fans them out to the
// various storage backends
func (s *StorageManager) startRecordDistributor(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case r := <-s.RecordDistributor:
			if len(s.Engines) == 0 {
				log.Debugf("no storage engines configured, dropping report of %s", r.Station)
				continue
			}
			for _, e := range s.Engines {
				select {
				case e.C <- r:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
