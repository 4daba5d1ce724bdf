package meter

import (
	"time"

	"github.com/chrissnell/precipmeter/internal/presentweather"
	"github.com/chrissnell/precipmeter/internal/report"
	"github.com/chrissnell/precipmeter/internal/wmo"
)

// Current is the latest classification of a station.
type Current struct {
	Station   string `json:"station"`
	Timestamp int64  `json:"timestamp"`
	Connected bool   `json:"connected"`

	WW       wmo.Code `json:"ww"`
	Wawa     wmo.Code `json:"wawa"`
	RawWW    wmo.Code `json:"wwRaw"`
	RawWawa  wmo.Code `json:"wawaRaw"`
	HeldOver bool     `json:"heldOver"`
	METAR    string   `json:"metar,omitempty"`
	Awekas   int      `json:"awekas"`

	PresentWeatherStart   int64  `json:"presentWeatherStart"`
	PresentWeatherElapsed int64  `json:"presentWeatherElapsed"`
	PrecipitationStart    *int64 `json:"precipitationStart"`

	W1  int `json:"W1"`
	W2  int `json:"W2"`
	Wa1 int `json:"Wa1"`
	Wa2 int `json:"Wa2"`

	RainRate *float64 `json:"rainRate,omitempty"`

	SensorState *int64 `json:"sensorState,omitempty"`
	ErrorCode   *int64 `json:"errorCode,omitempty"`
}

func (c *Current) update(r presentweather.Result, ts int64) {
	c.Timestamp = ts
	c.WW, c.Wawa = r.WW, r.Wawa
	c.RawWW, c.RawWawa = r.RawWW, r.RawWawa
	c.HeldOver = r.HeldOver
	c.Awekas = wmo.AWEKAS(r.WW, r.Wawa)
	c.PresentWeatherStart = r.PresentWeatherStart
	c.PresentWeatherElapsed = r.PresentWeatherElapsed
	c.W1, c.W2 = r.W()
	c.Wa1, c.Wa2 = r.Wa()
}

// Current returns the latest classification.
func (m *Meter) Current() Current {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.current
	c.Connected = m.connected
	return c
}

// Connected reports whether the transport is open.
func (m *Meter) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Episodes returns a copy of the episode window, oldest first.
func (m *Meter) Episodes() []presentweather.Episode {
	return m.window.Snapshot()
}

// History returns the episode window with the rain rate and amount of each
// episode.
func (m *Meter) History() []presentweather.Summary {
	return presentweather.Summarize(m.window.Snapshot(), m.rollover)
}

// SetWind records a wind observation for the squall test.
func (m *Meter) SetWind(sustained, gust float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wind = &Wind{Sustained: sustained, Gust: gust, Time: m.clock.Now()}
}

// Wind returns the latest wind observation, or nil.
func (m *Meter) Wind() *Wind {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wind == nil {
		return nil
	}
	w := *m.wind
	return &w
}

// Report closes the current report interval at end and returns its record.
// The next interval starts at end.
func (m *Meter) Report(end time.Time) report.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := m.classify(end.Unix())
	rec := m.acc.Finish(end, res, m.window.Snapshot())
	m.lastReport = &rec
	return rec
}

// LastReport returns the record of the last closed report interval.
func (m *Meter) LastReport() (report.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastReport == nil {
		return report.Record{}, false
	}
	return *m.lastReport, true
}
