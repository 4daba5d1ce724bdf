// Package kafka publishes report records to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/precipmeter/internal/log"
	"github.com/chrissnell/precipmeter/internal/metrics"
	"github.com/chrissnell/precipmeter/internal/report"
	"github.com/chrissnell/precipmeter/internal/storage"
	kafkago "github.com/segmentio/kafka-go"
)

// Name is the engine name used in logs and metrics
const Name = "kafka"

// messageWriter is the part of kafkago.Writer the engine uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Storage publishes one JSON message per report record, keyed by station.
type Storage struct {
	writer  messageWriter
	metrics *metrics.Metrics
}

// New creates a Kafka producer for the report topic
func New(brokers []string, topic string, m *metrics.Metrics) *Storage {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Storage{writer: w, metrics: m}
}

// StartStorageEngine starts the goroutine that publishes records
func (k *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- report.Record {
	log.Info("starting Kafka storage engine...")
	recordChan := make(chan report.Record, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		storage.ProcessRecords(ctx, recordChan, k.StoreRecord, Name, k.metrics)
		if err := k.writer.Close(); err != nil {
			log.Warnf("closing kafka writer: %v", err)
		}
	}()
	return recordChan
}

// Name returns the engine name
func (k *Storage) Name() string {
	return Name
}

// StoreRecord publishes a report record
func (k *Storage) StoreRecord(ctx context.Context, rec report.Record) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing report of station %s: %w", rec.Station, err)
	}
	return nil
}

// serializeToMessage marshals a report record into a Kafka message.
func serializeToMessage(rec report.Record) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Station),
		Value: data,
		Time:  rec.End,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(rec.RunID)},
			{Key: "interval_end", Value: []byte(rec.End.Format(time.RFC3339))},
		},
	}, nil
}
