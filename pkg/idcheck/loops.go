package idcheck

import "github.com/l3aro/idbranch/pkg/kast"

// LoopDescriptor is a loop as seen by the checker.
type LoopDescriptor struct {
	Kind    kast.LoopKind
	Cond    kast.Expr
	Keyword kast.Pos // backward-branch token
	CondPos kast.Pos
	Loop    *kast.Loop
}

// Loops lists the loops of fn in source order, outer loops before the
// loops nested in them.
func Loops(fn *kast.Function) []LoopDescriptor {
	var loops []LoopDescriptor
	if fn == nil {
		return loops
	}
	kast.Inspect(fn, func(n kast.Node) bool {
		if l, ok := n.(*kast.Loop); ok {
			d := LoopDescriptor{Kind: l.Kind, Cond: l.Cond, Keyword: l.Keyword, Loop: l}
			if l.Cond != nil {
				d.CondPos = l.Cond.Pos()
			}
			loops = append(loops, d)
		}
		return true
	})
	return loops
}

// CheckLoop classifies the condition of loop against t and returns the
// warning with its provenance notes, or nil when the loop is uniform.
func CheckLoop(loop LoopDescriptor, t *Tracker, ids IDFunctions) []Event {
	if loop.Cond == nil {
		return nil
	}
	c := Classify(loop.Cond, t, ids)
	if !c.Dependent() {
		return nil
	}

	events := []Event{newEvent(Warning, loop.Keyword, warningTemplate, loop.Kind.String(), reason(c))}
	return append(events, provenance(c, t)...)
}

// CheckLoops runs CheckLoop over every loop in order.
func CheckLoops(loops []LoopDescriptor, t *Tracker, ids IDFunctions) []Event {
	var events []Event
	for _, l := range loops {
		events = append(events, CheckLoop(l, t, ids)...)
	}
	return events
}
