// Package presentweather maintains the trailing hour of weather episodes for
// one sensor and derives present and past weather from it.
package presentweather

import (
	"github.com/chrissnell/precipmeter/internal/wmo"
)

// Sample is one decoded reading as seen by the classifier.
type Sample struct {
	Timestamp    int64
	WW           wmo.Code
	Wawa         wmo.Code
	METAR        string
	RainAbsolute *float64
	RainRate     *float64
}

// Precipitating reports whether the sample shows falling precipitation.
func (s Sample) Precipitating() bool {
	return wmo.IsPrecipitation(s.WW, s.Wawa)
}

// Episode is a maximal run of samples sharing one (ww, wawa, METAR) triple.
// Start is fixed when the episode opens; End follows the latest sample.
type Episode struct {
	Start int64    `json:"start"`
	End   int64    `json:"end"`
	WW    wmo.Code `json:"ww"`
	Wawa  wmo.Code `json:"wawa"`
	METAR string   `json:"metar,omitempty"`

	// PrecipitationStart is when the current uninterrupted precipitation
	// spell began. It is nil for episodes without precipitation.
	PrecipitationStart *int64 `json:"precipitationStart"`

	// IntensitySum and DurationSum carry the intensity-weighted duration
	// and the duration of the spell's earlier precipitation episodes.
	IntensitySum float64 `json:"intensitySum"`
	DurationSum  float64 `json:"durationSum"`

	RainRateSum      float64  `json:"rainRateSum"`
	RainRateCount    int      `json:"rainRateCount"`
	LastRainAbsolute *float64 `json:"lastRainAbsolute"`
	Samples          int      `json:"samples"`

	// SpellStart and SpellEnd describe the precipitation spell a dry
	// episode follows, so that precipitation resuming shortly afterwards
	// continues that spell. Interruption is set once it has.
	SpellStart   *int64 `json:"spellStart,omitempty"`
	SpellEnd     *int64 `json:"spellEnd,omitempty"`
	Interruption bool   `json:"interruption,omitempty"`
}

// Precipitating reports whether the episode describes precipitation.
func (e Episode) Precipitating() bool {
	return wmo.IsPrecipitation(e.WW, e.Wawa)
}

// Duration is the length of the episode in seconds.
func (e Episode) Duration() int64 {
	return e.End - e.Start
}

// Intensity is the episode's precipitation intensity class.
func (e Episode) Intensity() int {
	return wmo.Intensity(e.WW, e.Wawa)
}

// AverageRainRate returns the mean rain rate of the samples in the episode.
func (e Episode) AverageRainRate() (float64, bool) {
	if e.RainRateCount == 0 {
		return 0, false
	}
	return e.RainRateSum / float64(e.RainRateCount), true
}

// RainAmount returns the precipitation attributable to the episode, the
// difference of its last accumulated rain value against the previous
// episode's. A counter that wrapped in between is corrected by rollover; with
// no rollover known the drop makes the amount unknown.
func (e Episode) RainAmount(prev Episode, rollover float64) (float64, bool) {
	if e.LastRainAbsolute == nil || prev.LastRainAbsolute == nil {
		return 0, false
	}
	d := *e.LastRainAbsolute - *prev.LastRainAbsolute
	if d < 0 {
		if rollover <= 0 {
			return 0, false
		}
		d += rollover
	}
	return d, true
}

// Summary is an episode together with the rain measured during it.
type Summary struct {
	Episode
	RainRate   *float64 `json:"rainRate,omitempty"`
	RainAmount *float64 `json:"rainAmount,omitempty"`
}

// Summarize derives the rain rate and amount of each episode. The first
// episode has no predecessor and therefore no amount.
func Summarize(episodes []Episode, rollover float64) []Summary {
	out := make([]Summary, len(episodes))
	for i, e := range episodes {
		out[i].Episode = e.clone()
		if r, ok := e.AverageRainRate(); ok {
			out[i].RainRate = float64Ptr(r)
		}
		if i == 0 {
			continue
		}
		if a, ok := e.RainAmount(episodes[i-1], rollover); ok {
			out[i].RainAmount = float64Ptr(a)
		}
	}
	return out
}

func (e Episode) matches(s Sample) bool {
	return e.WW == s.WW && e.Wawa == s.Wawa && e.METAR == s.METAR
}

func (e Episode) sameTriple(o Episode) bool {
	return e.WW == o.WW && e.Wawa == o.Wawa && e.METAR == o.METAR
}

// spellSums returns the spell accumulators including this episode.
func (e Episode) spellSums() (intensity, duration float64) {
	intensity, duration = e.IntensitySum, e.DurationSum
	if e.Precipitating() {
		d := float64(e.Duration())
		intensity += d * float64(e.Intensity())
		duration += d
	}
	return intensity, duration
}

func (e *Episode) addSample(s Sample) {
	e.Samples++
	if s.RainRate != nil {
		e.RainRateSum += *s.RainRate
		e.RainRateCount++
	}
	if s.RainAbsolute != nil {
		e.LastRainAbsolute = float64Ptr(*s.RainAbsolute)
	}
}

// absorb folds the samples of a later episode into e.
func (e *Episode) absorb(o Episode) {
	e.End = o.End
	e.Samples += o.Samples
	e.RainRateSum += o.RainRateSum
	e.RainRateCount += o.RainRateCount
	if o.LastRainAbsolute != nil {
		e.LastRainAbsolute = float64Ptr(*o.LastRainAbsolute)
	}
}

func (e Episode) clone() Episode {
	c := e
	c.PrecipitationStart = copyInt64(e.PrecipitationStart)
	c.LastRainAbsolute = copyFloat64(e.LastRainAbsolute)
	c.SpellStart = copyInt64(e.SpellStart)
	c.SpellEnd = copyInt64(e.SpellEnd)
	return c
}

func int64Ptr(v int64) *int64 { return &v }

func float64Ptr(v float64) *float64 { return &v }

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	return int64Ptr(*p)
}

func copyFloat64(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return float64Ptr(*p)
}

func equalInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func isLiquid(ww, wawa wmo.Code) bool {
	return wmo.IsLiquid(ww, wawa)
}
