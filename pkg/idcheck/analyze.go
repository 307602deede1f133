package idcheck

import "github.com/l3aro/idbranch/pkg/kast"

// Analyze checks a single function and returns its diagnostics in
// source order. The dependency table is built and discarded inside the
// call.
func Analyze(fn *kast.Function, ids IDFunctions) []Event {
	return Explain(fn, ids).Events
}

// LoopReport pairs a loop with the classification of its condition.
type LoopReport struct {
	LoopDescriptor
	Classification Classification
}

// Report is the full outcome of analyzing one function.
type Report struct {
	Function string
	Records  []*Record
	Loops    []LoopReport
	Events   []Event

	tracker *Tracker
}

// Chain returns the provenance chain of key within this function.
func (r *Report) Chain(key Key) []*Record {
	return r.tracker.Chain(key)
}

// Explain runs both passes and keeps the intermediate state.
func Explain(fn *kast.Function, ids IDFunctions) *Report {
	t := Scan(fn, ids)
	loops := Loops(fn)

	rep := &Report{
		Records: t.Records(),
		Loops:   make([]LoopReport, 0, len(loops)),
		tracker: t,
	}
	if fn != nil {
		rep.Function = fn.Name
	}
	for _, l := range loops {
		rep.Loops = append(rep.Loops, LoopReport{LoopDescriptor: l, Classification: Classify(l.Cond, t, ids)})
	}
	rep.Events = CheckLoops(loops, t, ids)
	return rep
}
