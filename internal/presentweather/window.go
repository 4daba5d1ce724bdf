package presentweather

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Params configures a Window. All values are in seconds.
type Params struct {
	// DeviceInterval is the nominal time between two telegrams. New
	// episodes are back-dated by it since a telegram describes the
	// weather since the previous one.
	DeviceInterval int64 `mapstructure:"device-interval"`
	// ErrorLimit is the shortest precipitation spell that is believed.
	ErrorLimit int64 `mapstructure:"error-limit"`
	// InterruptionLimit is the longest dry gap after which resuming
	// precipitation still continues the previous spell.
	InterruptionLimit int64 `mapstructure:"interruption-limit"`
	// Span is the length of the window.
	Span int64 `mapstructure:"span"`
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		DeviceInterval:    60,
		ErrorLimit:        60,
		InterruptionLimit: 600,
		Span:              3600,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.DeviceInterval <= 0 {
		p.DeviceInterval = d.DeviceInterval
	}
	if p.ErrorLimit <= 0 {
		p.ErrorLimit = d.ErrorLimit
	}
	if p.InterruptionLimit <= 0 {
		p.InterruptionLimit = d.InterruptionLimit
	}
	if p.Span <= 0 {
		p.Span = d.Span
	}
	return p
}

// briefLimit is the longest episode the filter treats as a possible glitch.
func (p Params) briefLimit() int64 {
	return max(p.DeviceInterval, p.ErrorLimit)
}

// adjacent reports whether a sample at ts follows an episode ending at end
// with at most one telegram missing. Anything later leaves a gap.
func (p Params) adjacent(end, ts int64) bool {
	return ts-end <= 2*p.DeviceInterval
}

// Correction rules applied by the filter.
const (
	RuleShortSpell = "short-spell"
	RuleFlicker    = "flicker"
	RuleWobble     = "wobble"
)

// Correction records one rewrite of the window's history.
type Correction struct {
	Rule    string
	Episode Episode
	Removed int
}

// Insertion reports the effect of one Insert. The store operations are
// meant to be applied by the caller after the window's lock is released,
// deletes first.
type Insertion struct {
	// PrecipitationStart is the start of the precipitation spell the
	// sample belongs to, or nil.
	PrecipitationStart *int64
	// PrecipitationDuration is the change of the precipitation time
	// covered by the window since the previous insertion, in seconds. It
	// is negative when the filter discards precipitation.
	PrecipitationDuration int64
	// Closed holds episodes that were closed or changed and must be
	// written to the store.
	Closed []Episode
	// Deleted holds start keys of episodes that were removed or reopened.
	Deleted []int64
	// Corrections lists the filter rules that fired.
	Corrections []Correction
	// Ignored is set when the sample was older than the window's tail.
	Ignored bool
}

// Window is the ordered list of episodes covering the trailing hour. It is
// safe for one writer and any number of readers.
type Window struct {
	mu     sync.Mutex
	name   string
	params Params
	logger *zap.SugaredLogger

	episodes []Episode

	// prunedWet is the precipitation time of episodes pruned from the
	// front, reported is the total handed out through Insertions.
	prunedWet int64
	reported  int64
}

// NewWindow returns an empty window for the named station.
func NewWindow(name string, params Params, logger *zap.SugaredLogger) *Window {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Window{
		name:   name,
		params: params.withDefaults(),
		logger: logger,
	}
}

// Params returns the window's effective parameters.
func (w *Window) Params() Params {
	return w.params
}

// Len returns the number of episodes in the window.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.episodes)
}

// Snapshot returns a copy of the episodes in the window.
func (w *Window) Snapshot() []Episode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneEpisodes(w.episodes)
}

// Insert adds a sample to the window, applying the error-correction rules
// and pruning episodes that ended more than Span seconds before it.
func (w *Window) Insert(s Sample) Insertion {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ins Insertion
	if n := len(w.episodes); n > 0 && (s.Timestamp < w.episodes[n-1].End ||
		s.Timestamp == w.episodes[n-1].End && !w.episodes[n-1].matches(s)) {
		ins.Ignored = true
		ins.PrecipitationStart = copyInt64(w.episodes[n-1].PrecipitationStart)
		return ins
	}

	w.insert(s, &ins)
	w.prune(s.Timestamp)

	if n := len(w.episodes); n > 0 {
		ins.PrecipitationStart = copyInt64(w.episodes[n-1].PrecipitationStart)
	}
	total := w.precipitationTotal()
	ins.PrecipitationDuration = total - w.reported
	w.reported = total

	return ins
}

func (w *Window) insert(s Sample, ins *Insertion) {
	if len(w.episodes) == 0 {
		w.open(s, ins)
		return
	}
	if w.continues(s) {
		w.extend(s, ins)
		return
	}

	if w.discardShortSpell(s, ins) {
		if len(w.episodes) == 0 {
			w.open(s, ins)
			return
		}
		if w.continues(s) {
			w.extend(s, ins)
			return
		}
	}

	if w.suppressFlicker(s, ins) {
		return
	}

	if w.mergeWobble(s, ins) && w.continues(s) {
		w.extend(s, ins)
		return
	}

	w.open(s, ins)
}

func (w *Window) tail() *Episode {
	return &w.episodes[len(w.episodes)-1]
}

// continues reports whether s extends the tail episode.
func (w *Window) continues(s Sample) bool {
	t := w.tail()
	return t.matches(s) && w.params.adjacent(t.End, s.Timestamp)
}

// open closes the tail episode and starts a new one for s. The tail keeps
// the end of its last sample; a gap left by missing telegrams stays open.
func (w *Window) open(s Sample, ins *Insertion) {
	ep := Episode{
		Start: s.Timestamp - w.params.DeviceInterval,
		End:   s.Timestamp,
		WW:    s.WW,
		Wawa:  s.Wawa,
		METAR: s.METAR,
	}
	ep.addSample(s)

	var prev *Episode
	if len(w.episodes) > 0 {
		prev = w.tail()
		if prev.End > ep.Start {
			ep.Start = prev.End
		}
	}

	w.derive(&ep, prev, ins)
	if prev != nil {
		ins.Closed = append(ins.Closed, prev.clone())
	}
	w.episodes = append(w.episodes, ep)
}

// extend continues the tail episode with s.
func (w *Window) extend(s Sample, ins *Insertion) {
	t := w.tail()
	t.End = s.Timestamp
	t.addSample(s)
	w.collapseFlicker(ins)
}

// reopen makes a previously closed tail episode the open one again. Its
// stored copy is dropped until it closes anew.
func (w *Window) reopen(ins *Insertion) {
	ins.Deleted = append(ins.Deleted, w.tail().Start)
}

// derive fills in the spell bookkeeping of a new episode from its
// predecessor.
func (w *Window) derive(ep *Episode, prev *Episode, ins *Insertion) {
	wet := ep.Precipitating()
	if prev == nil {
		if wet {
			ep.PrecipitationStart = int64Ptr(ep.Start)
		}
		return
	}

	carryI, carryD := prev.spellSums()
	carried := func() bool {
		return prev.SpellStart != nil && prev.SpellEnd != nil &&
			ep.Start-*prev.SpellEnd <= w.params.InterruptionLimit
	}

	switch {
	case wet && prev.Precipitating() && ep.Start-prev.End <= w.params.InterruptionLimit:
		ep.PrecipitationStart = copyInt64(prev.PrecipitationStart)
		if ep.PrecipitationStart == nil {
			ep.PrecipitationStart = int64Ptr(ep.Start)
		}
		ep.IntensitySum, ep.DurationSum = carryI, carryD
	case wet && carried():
		ep.PrecipitationStart = copyInt64(prev.SpellStart)
		ep.IntensitySum, ep.DurationSum = carryI, carryD
		w.markInterruption(*prev.SpellStart, ins)
	case wet:
		ep.PrecipitationStart = int64Ptr(ep.Start)
	case prev.Precipitating() && prev.PrecipitationStart != nil:
		ep.SpellStart = copyInt64(prev.PrecipitationStart)
		ep.SpellEnd = int64Ptr(prev.End)
		ep.IntensitySum, ep.DurationSum = carryI, carryD
	case carried():
		ep.SpellStart = copyInt64(prev.SpellStart)
		ep.SpellEnd = copyInt64(prev.SpellEnd)
		ep.IntensitySum, ep.DurationSum = carryI, carryD
	}
}

// markInterruption flags the dry episodes at the tail that separate the
// spell starting at spellStart from its continuation.
func (w *Window) markInterruption(spellStart int64, ins *Insertion) {
	last := len(w.episodes) - 1
	for i := last; i >= 0; i-- {
		e := &w.episodes[i]
		if e.Precipitating() || e.SpellStart == nil || *e.SpellStart != spellStart {
			return
		}
		if e.Interruption {
			continue
		}
		e.Interruption = true
		// The tail is written by the caller once it is closed.
		if i != last {
			ins.Closed = append(ins.Closed, e.clone())
		}
	}
}

// prune drops episodes that ended more than Span seconds before now. The
// tail is always kept.
func (w *Window) prune(now int64) {
	cut := now - w.params.Span
	i := 0
	for i < len(w.episodes)-1 && w.episodes[i].End < cut {
		if w.episodes[i].Precipitating() {
			w.prunedWet += w.episodes[i].Duration()
		}
		i++
	}
	if i > 0 {
		w.episodes = append([]Episode(nil), w.episodes[i:]...)
	}
}

func (w *Window) precipitationTotal() int64 {
	total := w.prunedWet
	for _, e := range w.episodes {
		if e.Precipitating() {
			total += e.Duration()
		}
	}
	return total
}

// Restore replaces the window's contents with persisted episodes, dropping
// those that ended more than Span seconds before now and any that overlap
// an earlier one. It returns the number of episodes kept.
func (w *Window) Restore(episodes []Episode, now int64) int {
	sorted := cloneEpisodes(episodes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	cut := now - w.params.Span
	kept := make([]Episode, 0, len(sorted))
	for _, e := range sorted {
		if e.End < cut || e.End < e.Start {
			continue
		}
		if n := len(kept); n > 0 && kept[n-1].End > e.Start {
			continue
		}
		kept = append(kept, e)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.episodes = kept
	w.prunedWet = 0
	w.reported = w.precipitationTotal()
	return len(kept)
}

func cloneEpisodes(in []Episode) []Episode {
	out := make([]Episode, len(in))
	for i, e := range in {
		out[i] = e.clone()
	}
	return out
}
