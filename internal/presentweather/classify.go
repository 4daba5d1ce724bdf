package presentweather

import (
	"errors"

	"github.com/chrissnell/precipmeter/internal/wmo"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyWindow is returned by Classify before the first sample arrived.
var ErrEmptyWindow = errors.New("no episodes in window")

// Result is the present and past weather derived from a window.
type Result struct {
	// WW and Wawa are the reported codes, which may be state-after codes
	// (20..29) held over from precipitation that ended within the hour.
	WW   wmo.Code
	Wawa wmo.Code
	// RawWW and RawWawa are the codes of the latest sample.
	RawWW    wmo.Code
	RawWawa  wmo.Code
	HeldOver bool

	// PresentWeatherStart is when the current type of weather began and
	// PresentWeatherElapsed how long it has lasted, in seconds.
	PresentWeatherStart   int64
	PresentWeatherElapsed int64

	// PastW and PastWa hold seconds per past weather category, leaving
	// out the category of the present weather.
	PastW  wmo.Histogram
	PastWa wmo.Histogram
}

// W returns the past weather codes W1 and W2.
func (r Result) W() (int, int) {
	return r.PastW.Derive()
}

// Wa returns the past weather codes Wa1 and Wa2.
func (r Result) Wa() (int, int) {
	return r.PastWa.Derive()
}

// Classify derives present and past weather from the window as of until.
func (w *Window) Classify(until int64) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Classify(w.episodes, until, w.params.Span)
}

// Classify derives present and past weather from episodes, ordered oldest
// first, considering only what happened up to until.
func Classify(episodes []Episode, until int64, span int64) (Result, error) {
	var eps []Episode
	for _, e := range episodes {
		if e.Start > until {
			break
		}
		if e.End > until {
			e.End = until
		}
		eps = append(eps, e)
	}
	n := len(eps)
	if n == 0 {
		return Result{WW: wmo.None, Wawa: wmo.None, RawWW: wmo.None, RawWawa: wmo.None}, ErrEmptyWindow
	}

	cur := eps[n-1]
	r := Result{
		WW:      cur.WW,
		Wawa:    cur.Wawa,
		RawWW:   cur.WW,
		RawWawa: cur.Wawa,
	}

	// Walk back over episodes of the same type of weather.
	start := cur.Start
	wwGroup, wawaGroup := wmo.WWGroup(cur.WW), wmo.WawaGroup(cur.Wawa)
	for i := n - 2; i >= 0; i-- {
		if wmo.WWGroup(eps[i].WW) != wwGroup || wmo.WawaGroup(eps[i].Wawa) != wawaGroup {
			break
		}
		start = eps[i].Start
	}
	r.PresentWeatherStart = start
	r.PresentWeatherElapsed = cur.End - start

	holdOver(&r, eps, until, span)
	r.PastW, r.PastWa = pastWeather(eps, r.WW, r.Wawa, until-span)
	return r, nil
}

// holdOver replaces a zero present weather code by the state-after code of
// precipitation that ended within the last span seconds.
func holdOver(r *Result, eps []Episode, until, span int64) {
	n := len(eps)
	cur := eps[n-1]

	switch {
	case n < 2:
		return
	case n == 2 && !eps[0].WW.Active() && !eps[0].Wawa.Active():
		return
	case cur.WW.Active() || cur.Wawa.Active():
		return
	case r.PresentWeatherElapsed > span:
		return
	}

	sp, ok := lastQualifyingSpell(eps[:n-1], until-span)
	if !ok {
		return
	}
	if ww, ok := sp.heldWW(); ok {
		r.WW = ww
		r.HeldOver = true
	}
	if wawa, ok := sp.heldWawa(); ok {
		r.Wawa = wawa
		r.HeldOver = true
	}
}

type spell struct {
	start    int64
	end      int64
	classes  []float64
	weights  []float64
	wwTime   map[wmo.Code]int64
	wawaTime map[wmo.Code]int64
}

// qualifies reports whether the spell was long or heavy enough to be held
// over after it ended.
func (s *spell) qualifies() bool {
	var duration float64
	for _, w := range s.weights {
		duration += w
	}
	if duration <= 0 {
		return false
	}
	avg := stat.Mean(s.classes, s.weights)

	switch {
	case avg >= 2.5:
		return duration >= 150
	case avg >= 1.5:
		return duration >= 300
	case avg >= 0.5:
		return duration >= 450
	}
	return duration >= 200
}

func (s *spell) heldWW() (wmo.Code, bool) {
	for _, c := range []wmo.Code{wmo.WWThunderstorm, wmo.WWHail, wmo.WWFreezing} {
		if s.wwTime[c] > 0 {
			return c, true
		}
	}
	return longest(s.wwTime, wmo.WWDrizzle, wmo.WWThunderstorm)
}

func (s *spell) heldWawa() (wmo.Code, bool) {
	for _, c := range []wmo.Code{wmo.WawaThunderstorm, wmo.WawaFreezing} {
		if s.wawaTime[c] > 0 {
			return c, true
		}
	}
	return longest(s.wawaTime, wmo.WawaFog, wmo.WawaThunderstorm)
}

// longest returns the group in lo..hi with the most time, preferring the
// higher code on ties.
func longest(times map[wmo.Code]int64, lo, hi wmo.Code) (wmo.Code, bool) {
	best, bestTime := wmo.None, int64(0)
	for c := hi; c >= lo; c-- {
		if t := times[c]; t > bestTime {
			best, bestTime = c, t
		}
	}
	return best, best.Valid()
}

// lastQualifyingSpell groups the precipitation episodes into spells and
// returns the latest one that qualifies for hold-over and ended after
// since.
func lastQualifyingSpell(eps []Episode, since int64) (*spell, bool) {
	var spells []*spell
	for _, e := range eps {
		if !e.Precipitating() {
			continue
		}
		key := e.Start
		if e.PrecipitationStart != nil {
			key = *e.PrecipitationStart
		}

		var sp *spell
		if k := len(spells); k > 0 && spells[k-1].start == key {
			sp = spells[k-1]
		} else {
			sp = &spell{start: key, wwTime: map[wmo.Code]int64{}, wawaTime: map[wmo.Code]int64{}}
			// Earlier parts of the spell may have left the window.
			if e.DurationSum > 0 {
				sp.classes = append(sp.classes, e.IntensitySum/e.DurationSum)
				sp.weights = append(sp.weights, e.DurationSum)
			}
			spells = append(spells, sp)
		}

		d := e.Duration()
		sp.classes = append(sp.classes, float64(e.Intensity()))
		sp.weights = append(sp.weights, float64(d))
		sp.wwTime[wmo.WWGroup(e.WW)] += d
		sp.wawaTime[wmo.WawaGroup(e.Wawa)] += d
		sp.end = e.End
	}

	for i := len(spells) - 1; i >= 0; i-- {
		if spells[i].end < since {
			break
		}
		if spells[i].qualifies() {
			return spells[i], true
		}
	}
	return nil, false
}

// pastWeather builds the W and Wa histograms over the part of eps after
// since, skipping the categories of the present weather.
func pastWeather(eps []Episode, ww, wawa wmo.Code, since int64) (pastW, pastWa wmo.Histogram) {
	skipW, okW := wmo.PastWeatherW(ww)
	skipWa, okWa := wmo.PastWeatherWa(wawa)

	for _, e := range eps {
		from := max(e.Start, since)
		d := e.End - from
		if d <= 0 {
			continue
		}
		if b, ok := wmo.PastWeatherW(e.WW); ok && !(okW && b == skipW) {
			pastW[b] += d
		}
		if b, ok := wmo.PastWeatherWa(e.Wawa); ok && !(okWa && b == skipWa) {
			pastWa[b] += d
		}
	}
	return pastW, pastWa
}
