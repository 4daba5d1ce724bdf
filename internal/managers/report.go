package managers

import (
	"context"
	"sync"
	"time"

	"github.com/chrissnell/precipmeter/internal/report"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Reporter closes report intervals. *meter.Meter implements it.
type Reporter interface {
	Name() string
	Report(end time.Time) report.Record
}

// ReportManager closes the report interval of every meter at each interval
// boundary and hands the records to the storage engines
type ReportManager struct {
	reporters   []Reporter
	distributor chan<- report.Record
	interval    time.Duration
	clock       clockwork.Clock
	logger      *zap.SugaredLogger
}

// NewReportManager creates a ReportManager. Boundaries are aligned to
// multiples of interval.
func NewReportManager(reporters []Reporter, distributor chan<- report.Record, interval time.Duration, clock clockwork.Clock, logger *zap.SugaredLogger) *ReportManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ReportManager{
		reporters:   reporters,
		distributor: distributor,
		interval:    interval,
		clock:       clock,
		logger:      logger,
	}
}

// Start launches the reporting goroutine
func (r *ReportManager) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go r.run(ctx, wg)
}

func (r *ReportManager) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		now := r.clock.Now()
		next := now.Truncate(r.interval).Add(r.interval)

		select {
		case <-ctx.Done():
			r.logger.Info("cancellation request received, stopping report manager")
			return
		case <-r.clock.After(next.Sub(now)):
		}

		r.reportAll(ctx, next)
	}
}

// reportAll closes the interval ending at end for every reporter.
func (r *ReportManager) reportAll(ctx context.Context, end time.Time) {
	for _, rep := range r.reporters {
		rec := rep.Report(end)
		if rec.Count == 0 {
			r.logger.Warnf("no data received from %s during report interval", rep.Name())
			continue
		}
		r.logger.Infof("%d records received from %s during report interval", rec.Count, rep.Name())

		select {
		case r.distributor <- rec:
		case <-ctx.Done():
			return
		}
	}
}
