package report

import (
	"time"

	"github.com/chrissnell/precipmeter/internal/presentweather"
	"github.com/chrissnell/precipmeter/internal/telegram"
	"github.com/chrissnell/precipmeter/internal/wmo"
	"gonum.org/v1/gonum/stat"
)

// Unit groups whose values are averaged over the interval. Values of other
// groups keep the last reading, ww and wawa keep the most significant one.
var averagedGroups = map[string]bool{
	"group_temperature": true,
	"group_db":          true,
	"group_distance":    true,
	"group_volt":        true,
}

// Observation is what the meter learned from one telegram.
type Observation struct {
	Timestamp int64
	Values    map[string]telegram.Value
	// Sample is what was inserted into the window: the sensor's codes
	// after the squall override. The raw report fields are taken from it.
	Sample    presentweather.Sample
	Insertion presentweather.Insertion
	// Result is the classification after the sample was inserted. It is
	// nil when classification failed.
	Result *presentweather.Result
	// Rain is the precipitation amount since the previous telegram.
	Rain *float64
	MOR  *float64
}

// Accumulator merges the observations of one report interval. It is not
// safe for concurrent use.
type Accumulator struct {
	station string
	prefix  string
	runID   string
	start   time.Time

	count   int
	last    map[string]Field
	avg     map[string][]float64
	avgMeta map[string]Field

	rawWW   []wmo.Code
	rawWawa []wmo.Code

	precipDuration int64
	rain           float64
	rainSeen       bool
	rainRates      []float64
	visibility     *float64

	// Carried across intervals.
	precipStart *int64
	lastResult  *presentweather.Result
}

// NewAccumulator returns an accumulator whose first interval begins at
// start.
func NewAccumulator(station, prefix, runID string, start time.Time) *Accumulator {
	a := &Accumulator{station: station, prefix: prefix, runID: runID}
	a.reset(start)
	return a
}

func (a *Accumulator) reset(start time.Time) {
	a.start = start
	a.count = 0
	a.last = make(map[string]Field)
	a.avg = make(map[string][]float64)
	a.avgMeta = make(map[string]Field)
	a.rawWW = nil
	a.rawWawa = nil
	a.precipDuration = 0
	a.rain = 0
	a.rainSeen = false
	a.rainRates = nil
	a.visibility = nil
}

// Count returns the number of observations in the current interval.
func (a *Accumulator) Count() int {
	return a.count
}

// Observe adds one telegram's worth of data.
func (a *Accumulator) Observe(o Observation) {
	a.count++

	for name, v := range o.Values {
		switch {
		case v.Group == telegram.GroupWW || v.Group == telegram.GroupWawa:
			// Merged from the sample codes below.
		case averagedGroups[v.Group]:
			if x, ok := toFloat(v.Value); ok {
				a.avg[name] = append(a.avg[name], x)
				a.avgMeta[name] = Field{Unit: v.Unit, Group: v.Group}
			}
		default:
			a.last[name] = Field{Value: v.Value, Unit: v.Unit, Group: v.Group}
		}
	}

	if o.Sample.WW.Valid() {
		a.rawWW = append(a.rawWW, o.Sample.WW)
	}
	if o.Sample.Wawa.Valid() {
		a.rawWawa = append(a.rawWawa, o.Sample.Wawa)
	}
	if o.Sample.RainRate != nil {
		a.rainRates = append(a.rainRates, *o.Sample.RainRate)
	}

	if !o.Insertion.Ignored {
		a.precipDuration += o.Insertion.PrecipitationDuration
		a.precipStart = o.Insertion.PrecipitationStart
	}
	if o.Rain != nil {
		a.rain += *o.Rain
		a.rainSeen = true
	}
	if o.MOR != nil {
		v := *o.MOR
		a.visibility = &v
	}
	if o.Result != nil {
		r := *o.Result
		a.lastResult = &r
	}
}

// Finish closes the interval at end and returns its record. final is the
// classification as of end; when it is nil the last per-telegram result is
// used. The accumulator then starts the next interval at end.
func (a *Accumulator) Finish(end time.Time, final *presentweather.Result, history []presentweather.Episode) Record {
	rec := Record{
		Station: a.station,
		RunID:   a.runID,
		Prefix:  a.prefix,
		Start:   a.start,
		End:     end,
		Count:   a.count,
		Fields:  make(map[string]Field, len(a.last)+len(a.avg)+16),
		History: history,
	}

	for name, f := range a.last {
		rec.Fields[name] = f
	}
	for name, xs := range a.avg {
		f := a.avgMeta[name]
		f.Value = stat.Mean(xs, nil)
		rec.Fields[name] = f
	}

	rawWW, rawWawa := wmo.MaxWW(a.rawWW...), wmo.MaxWawa(a.rawWawa...)
	a.set(rec, FieldWWRaw, codeValue(rawWW), "byte", telegram.GroupWW)
	a.set(rec, FieldWawaRaw, codeValue(rawWawa), "byte", telegram.GroupWawa)

	res := final
	if res == nil {
		res = a.lastResult
	}
	ww, wawa := rawWW, rawWawa
	if res != nil {
		ww, wawa = res.WW, res.Wawa
		w1, w2 := res.W()
		wa1, wa2 := res.Wa()
		a.set(rec, FieldHeldOver, res.HeldOver, "", "")
		a.set(rec, FieldPresentWeatherStart, res.PresentWeatherStart, "unix_epoch", "group_time")
		a.set(rec, FieldPresentWeatherElapsed, res.PresentWeatherElapsed, "second", "group_deltatime")
		a.set(rec, FieldW1, w1, "byte", "group_wmo_W")
		a.set(rec, FieldW2, w2, "byte", "group_wmo_W")
		a.set(rec, FieldWa1, wa1, "byte", "group_wmo_Wa")
		a.set(rec, FieldWa2, wa2, "byte", "group_wmo_Wa")
	}
	a.set(rec, FieldWW, codeValue(ww), "byte", telegram.GroupWW)
	a.set(rec, FieldWawa, codeValue(wawa), "byte", telegram.GroupWawa)
	a.set(rec, FieldAwekas, wmo.AWEKAS(ww, wawa), "byte", "group_count")

	var ps interface{}
	if a.precipStart != nil {
		ps = *a.precipStart
	}
	a.set(rec, FieldPrecipitationStart, ps, "unix_epoch", "group_time")
	a.set(rec, FieldPrecipitationDuration, a.precipDuration, "second", "group_deltatime")

	if a.rainSeen {
		a.set(rec, FieldRain, a.rain, "mm", "group_rain")
	}
	if len(a.rainRates) > 0 {
		a.set(rec, FieldRainRate, stat.Mean(a.rainRates, nil), "mm_per_hour", "group_rainrate")
	}
	if a.visibility != nil {
		a.set(rec, FieldVisibility, *a.visibility, "meter", "group_distance")
	}

	a.reset(end)
	return rec
}

func (a *Accumulator) set(rec Record, name string, v interface{}, unit, group string) {
	rec.Fields[telegram.PrefixedName(a.prefix, name)] = Field{Value: v, Unit: unit, Group: group}
}

func codeValue(c wmo.Code) interface{} {
	if !c.Valid() {
		return nil
	}
	return int(c)
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	}
	return 0, false
}
