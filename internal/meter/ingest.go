package meter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/chrissnell/precipmeter/internal/presentweather"
	"github.com/chrissnell/precipmeter/internal/report"
	"github.com/chrissnell/precipmeter/internal/telegram"
	"github.com/chrissnell/precipmeter/internal/wmo"
)

// windValidity is how long a wind observation is used for the squall test.
const windValidity = 10 * time.Minute

// process handles one raw telegram received at now.
func (m *Meter) process(ctx context.Context, raw string, now time.Time) {
	m.metrics.TelegramsReceived.WithLabelValues(m.name).Inc()

	r, err := m.decoder.Decode(raw)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, telegram.ErrShortTelegram) {
			reason = "short"
		}
		m.metrics.TelegramsRejected.WithLabelValues(m.name, reason).Inc()
		m.limiter.Warnf("decode:"+reason, "station %s: dropping telegram: %v", m.name, err)
		return
	}
	for field, ferr := range r.FieldErrors {
		m.metrics.FieldErrors.WithLabelValues(m.name, field).Inc()
		m.limiter.Warnf("field:"+field, "station %s: field %s: %v", m.name, field, ferr)
	}
	if r.Empty() {
		return
	}
	if r.SensorState != nil {
		m.metrics.SensorState.WithLabelValues(m.name).Set(float64(*r.SensorState))
		if *r.SensorState != 0 {
			m.limiter.Warnf("sensor-state", "station %s: sensor reports status %d", m.name, *r.SensorState)
		}
	}

	ts := now.Unix()
	s := presentweather.Sample{
		Timestamp:    ts,
		WW:           r.WW,
		Wawa:         r.Wawa,
		METAR:        r.METAR,
		RainAbsolute: r.RainAbs,
		RainRate:     r.RainRate,
	}
	if s.RainAbsolute == nil {
		s.RainAbsolute = r.RainAccu
	}
	m.applySquall(&s, now)

	ins := m.window.Insert(s)
	m.record(ctx, ins, ts)

	res := m.classify(ts)

	m.mu.Lock()
	m.acc.Observe(report.Observation{
		Timestamp: ts,
		Values:    r.Values,
		Sample:    s,
		Insertion: ins,
		Result:    res,
		Rain:      m.rainDelta(r.RainAccu),
		MOR:       r.MOR,
	})
	if res != nil {
		m.current.update(*res, ts)
	}
	m.current.METAR = r.METAR
	m.current.RainRate = r.RainRate
	m.current.SensorState, m.current.ErrorCode = r.SensorState, r.ErrorCode
	if !ins.Ignored {
		m.current.PrecipitationStart = ins.PrecipitationStart
	}
	m.mu.Unlock()

	if res != nil {
		m.metrics.PresentWW.WithLabelValues(m.name).Set(float64(res.WW))
	}
	m.metrics.WindowEpisodes.WithLabelValues(m.name).Set(float64(m.window.Len()))
}

// rainDelta returns the rain since the previous telegram from the
// accumulating counter, which wraps at the table's rollover value.
func (m *Meter) rainDelta(accu *float64) *float64 {
	if accu == nil {
		return nil
	}
	cur := *accu
	prev := m.lastAccu
	m.lastAccu = &cur
	if prev == nil {
		return nil
	}

	d := cur - *prev
	if d < 0 {
		if m.rollover > 0 {
			d += m.rollover
		} else {
			d = cur
		}
	}
	return &d
}

// applySquall raises the codes of s to the squall code when the latest wind
// observation qualifies and the sensor reports nothing more significant.
func (m *Meter) applySquall(s *presentweather.Sample, now time.Time) {
	m.mu.Lock()
	w := m.wind
	m.mu.Unlock()

	if w == nil || now.Sub(w.Time) > windValidity || !m.squall.IsSquall(w.Sustained, w.Gust) {
		return
	}
	if s.WW.Valid() && s.WW < wmo.Squall {
		s.WW = wmo.Squall
	}
	if s.Wawa.Valid() && s.Wawa < wmo.Squall {
		s.Wawa = wmo.Squall
	}
}

// record persists the store operations of an insertion and counts them.
func (m *Meter) record(ctx context.Context, ins presentweather.Insertion, ts int64) {
	for _, c := range ins.Corrections {
		m.metrics.Corrections.WithLabelValues(m.name, c.Rule).Inc()
		m.logger.Debugf("station %s: %s correction at %d removed %d episode(s)", m.name, c.Rule, c.Episode.Start, c.Removed)
	}
	m.metrics.EpisodesClosed.WithLabelValues(m.name).Add(float64(len(ins.Closed)))

	if m.store != nil && (len(ins.Closed) > 0 || len(ins.Deleted) > 0) {
		if err := ins.Apply(ctx, m.store); err != nil {
			m.metrics.PersistenceErrors.WithLabelValues(m.name).Inc()
			m.logger.Errorf("station %s: persisting episodes: %v", m.name, err)
		}
	}
	if len(ins.Closed) == 0 {
		return
	}

	if m.store != nil {
		if err := m.store.PruneEpisodes(ctx, ts-m.window.Params().Span); err != nil {
			m.metrics.PersistenceErrors.WithLabelValues(m.name).Inc()
			m.logger.Errorf("station %s: pruning episodes: %v", m.name, err)
		}
	}
	if err := m.saveRecovery(); err != nil {
		m.metrics.PersistenceErrors.WithLabelValues(m.name).Inc()
		m.limiter.Errorf("recovery", "station %s: %v", m.name, err)
	}
}

// classify runs the classifier as of until. A classifier fault is logged
// and counted and yields nil, so that ingestion continues.
func (m *Meter) classify(until int64) (res *presentweather.Result) {
	defer func() {
		if p := recover(); p != nil {
			m.metrics.ClassifyFaults.WithLabelValues(m.name).Inc()
			m.limiter.Errorf("classify", "station %s: classifier fault: %v", m.name, p)
			res = nil
		}
	}()

	r, err := m.classifyf(until)
	if err != nil {
		if !errors.Is(err, presentweather.ErrEmptyWindow) {
			m.metrics.ClassifyFaults.WithLabelValues(m.name).Inc()
			m.limiter.Errorf("classify", "station %s: classifying: %v", m.name, err)
		}
		return nil
	}
	return &r
}

// restore fills the window from the recovery file, falling back to the
// episode store.
func (m *Meter) restore(ctx context.Context) {
	now := m.clock.Now().Unix()

	if m.recovery != "" {
		eps, err := presentweather.LoadRecovery(m.recovery)
		switch {
		case err == nil:
			n := m.window.Restore(eps, now)
			m.logger.Infof("station %s: restored %d episode(s) from %s", m.name, n, m.recovery)
			return
		case errors.Is(err, fs.ErrNotExist):
		default:
			m.logger.Warnf("station %s: %v", m.name, err)
		}
	}

	if m.store == nil {
		return
	}
	eps, err := m.store.LoadRecentEpisodes(ctx, now-m.window.Params().Span)
	if err != nil {
		m.logger.Warnf("station %s: loading episodes: %v", m.name, err)
		return
	}
	n := m.window.Restore(eps, now)
	m.logger.Infof("station %s: restored %d episode(s) from the episode store", m.name, n)
}

func (m *Meter) saveRecovery() error {
	if m.recovery == "" {
		return nil
	}
	if err := m.window.SaveRecovery(m.recovery); err != nil {
		return fmt.Errorf("saving recovery file: %w", err)
	}
	return nil
}
