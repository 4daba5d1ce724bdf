package presentweather

// discardShortSpell drops a precipitation spell that ends before it lasted
// ErrorLimit seconds. The whole spell goes, including dry episodes that
// interrupted it, and the episode before it becomes the tail again.
func (w *Window) discardShortSpell(s Sample, ins *Insertion) bool {
	t := w.tail()
	if !t.Precipitating() || s.Precipitating() || t.PrecipitationStart == nil {
		return false
	}

	spellStart := *t.PrecipitationStart
	end := t.End
	if end-spellStart >= w.params.ErrorLimit {
		return false
	}

	removed := 0
	var first Episode
	for len(w.episodes) > 0 {
		e := w.tail()
		inSpell := (e.Precipitating() && equalInt64(e.PrecipitationStart, &spellStart)) ||
			(!e.Precipitating() && e.Interruption && equalInt64(e.SpellStart, &spellStart))
		if !inSpell {
			break
		}
		first = e.clone()
		ins.Deleted = append(ins.Deleted, e.Start)
		w.episodes = w.episodes[:len(w.episodes)-1]
		removed++
	}

	w.logger.Infof("station %s: discarded %d episode(s) of a precipitation spell from %d to %d (%ds, below the %ds error limit), first code ww=%v wawa=%v",
		w.name, removed, spellStart, end, end-spellStart, w.params.ErrorLimit, first.WW, first.Wawa)
	ins.Corrections = append(ins.Corrections, Correction{Rule: RuleShortSpell, Episode: first, Removed: removed})

	if len(w.episodes) > 0 {
		w.reopen(ins)
	}
	return true
}

// suppressFlicker removes a one-sample episode whose precipitation state
// differs from both its neighbours. If the new sample repeats the
// predecessor the predecessor simply continues; otherwise the flicker is
// overwritten in place by the new sample.
func (w *Window) suppressFlicker(s Sample, ins *Insertion) bool {
	n := len(w.episodes)
	if n < 2 {
		return false
	}
	open, pred := w.episodes[n-1], w.episodes[n-2]
	if open.Samples != 1 || open.Duration() > w.params.briefLimit() ||
		!w.params.adjacent(pred.End, open.End) || !w.params.adjacent(open.End, s.Timestamp) {
		return false
	}
	if open.Precipitating() == pred.Precipitating() || open.Precipitating() == s.Precipitating() {
		return false
	}

	w.episodes = w.episodes[:n-1]
	ins.Deleted = append(ins.Deleted, open.Start)
	ins.Corrections = append(ins.Corrections, Correction{Rule: RuleFlicker, Episode: open.clone(), Removed: 1})

	if pred.matches(s) {
		w.logger.Infof("station %s: discarded single reading ww=%v wawa=%v at %d between two readings ww=%v wawa=%v",
			w.name, open.WW, open.Wawa, open.End, pred.WW, pred.Wawa)
		w.reopen(ins)
		w.clearInterruption(ins)
		w.extend(s, ins)
		return true
	}

	w.logger.Infof("station %s: replaced single reading ww=%v wawa=%v at %d by ww=%v wawa=%v",
		w.name, open.WW, open.Wawa, open.End, s.WW, s.Wawa)
	ep := Episode{
		Start: open.Start,
		End:   s.Timestamp,
		WW:    s.WW,
		Wawa:  s.Wawa,
		METAR: s.METAR,
	}
	ep.addSample(s)
	w.clearInterruption(ins)
	w.derive(&ep, w.tail(), ins)
	ins.Closed = append(ins.Closed, w.tail().clone())
	w.episodes = append(w.episodes, ep)
	return true
}

// mergeWobble folds a brief change of precipitation type into the episode
// before it when the new sample returns to that type, or to another
// drizzle or rain code after a non-liquid one.
func (w *Window) mergeWobble(s Sample, ins *Insertion) bool {
	n := len(w.episodes)
	if n < 2 {
		return false
	}
	open, pred := w.episodes[n-1], w.episodes[n-2]
	if !open.Precipitating() || !pred.Precipitating() || !s.Precipitating() {
		return false
	}
	if open.Duration() > w.params.briefLimit() ||
		!w.params.adjacent(pred.End, open.End) || !w.params.adjacent(open.End, s.Timestamp) {
		return false
	}

	same := pred.WW == s.WW && pred.Wawa == s.Wawa
	liquid := isLiquid(pred.WW, pred.Wawa) && isLiquid(s.WW, s.Wawa) && !isLiquid(open.WW, open.Wawa)
	if !same && !liquid {
		return false
	}

	w.episodes = w.episodes[:n-1]
	ins.Deleted = append(ins.Deleted, open.Start)
	w.reopen(ins)
	w.tail().absorb(open)

	w.logger.Infof("station %s: merged %ds of ww=%v wawa=%v into the preceding ww=%v wawa=%v",
		w.name, open.Duration(), open.WW, open.Wawa, pred.WW, pred.Wawa)
	ins.Corrections = append(ins.Corrections, Correction{Rule: RuleWobble, Episode: open.clone(), Removed: 1})
	return true
}

// collapseFlicker merges a tail of the form [A, B, A] where B is a
// one-sample reading of the opposite precipitation state into one A.
func (w *Window) collapseFlicker(ins *Insertion) {
	n := len(w.episodes)
	if n < 3 {
		return
	}
	a, b, c := &w.episodes[n-3], w.episodes[n-2], w.episodes[n-1]
	if !a.sameTriple(c) || b.Samples != 1 || b.Duration() > w.params.briefLimit() ||
		!w.params.adjacent(a.End, b.End) || !w.params.adjacent(b.End, c.Start+w.params.DeviceInterval) {
		return
	}
	if b.Precipitating() == a.Precipitating() {
		return
	}

	ins.Deleted = append(ins.Deleted, a.Start, b.Start, c.Start)
	a.absorb(c)
	w.episodes = w.episodes[:n-2]
	w.clearInterruption(ins)

	w.logger.Infof("station %s: discarded single reading ww=%v wawa=%v at %d inside ww=%v wawa=%v",
		w.name, b.WW, b.Wawa, b.End, a.WW, a.Wawa)
	ins.Corrections = append(ins.Corrections, Correction{Rule: RuleFlicker, Episode: b.clone(), Removed: 2})
}

// clearInterruption unflags the dry episodes at the tail after the
// precipitation that resumed behind them turned out to be false.
func (w *Window) clearInterruption(ins *Insertion) {
	last := len(w.episodes) - 1
	for i := last; i >= 0; i-- {
		e := &w.episodes[i]
		if e.Precipitating() || !e.Interruption {
			return
		}
		e.Interruption = false
		if i != last {
			ins.Closed = append(ins.Closed, e.clone())
		}
	}
}
