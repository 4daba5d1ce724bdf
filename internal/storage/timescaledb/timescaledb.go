package timescaledb

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrissnell/precipmeter/internal/database"
	"github.com/chrissnell/precipmeter/internal/log"
	"github.com/chrissnell/precipmeter/internal/metrics"
	"github.com/chrissnell/precipmeter/internal/report"
	"github.com/chrissnell/precipmeter/internal/storage"
	"gorm.io/gorm"
)

// Name is the engine name used in logs and metrics
const Name = "timescaledb"

// Storage holds the configuration for a TimescaleDB storage backend
type Storage struct {
	TimescaleDBConn *gorm.DB
	metrics         *metrics.Metrics
}

// StartStorageEngine creates a goroutine loop to receive report records and
// send them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- report.Record {
	log.Info("starting TimescaleDB storage engine...")
	recordChan := make(chan report.Record, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		storage.ProcessRecords(ctx, recordChan, t.StoreRecord, Name, t.metrics)
	}()
	return recordChan
}

// Name returns the engine name
func (t *Storage) Name() string {
	return Name
}

// StoreRecord stores a report record in TimescaleDB
func (t *Storage) StoreRecord(ctx context.Context, rec report.Record) error {
	row, err := newReportRow(rec)
	if err != nil {
		return fmt.Errorf("station %s: %w", rec.Station, err)
	}
	if err := t.TimescaleDBConn.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("could not store report of station %s: %w", rec.Station, err)
	}
	return nil
}

// schema lists the statements that set up the hypertable and its views.
// The extension must exist before the hypertable is created.
var schema = []struct {
	desc     string
	sql      string
	optional bool
}{
	{"database table", createTableSQL, false},
	{"TimescaleDB extension", createExtensionSQL, false},
	{"hypertable", createHypertableSQL, false},
	{"indexes", createIndexesSQL, false},
	{"1h view", create1hViewSQL, false},
	{"1d view", create1dViewSQL, false},
	{"1h aggregation policy", addAggregationPolicy1hSQL, true},
	{"1d aggregation policy", addAggregationPolicy1dSQL, true},
	{"retention policy", addRetentionPolicySQL, true},
}

// New sets up a new TimescaleDB storage backend
func New(ctx context.Context, connectionString string, m *metrics.Metrics) (*Storage, error) {
	var err error
	t := Storage{metrics: m}

	t.TimescaleDBConn, err = database.CreateConnection(connectionString)
	if err != nil {
		return &Storage{}, err
	}

	for _, s := range schema {
		log.Infof("creating %s...", s.desc)
		if err := t.TimescaleDBConn.WithContext(ctx).Exec(s.sql).Error; err != nil {
			if s.optional {
				// Policies need a TimescaleDB license tier that may be missing.
				log.Warnf("warning: could not create %s: %v", s.desc, err)
				continue
			}
			return &Storage{}, fmt.Errorf("could not create %s: %w", s.desc, err)
		}
	}

	return &t, nil
}
