package idcheck

import "github.com/l3aro/idbranch/pkg/kast"

// Scan walks fn once in source order and records every variable and
// field that is assigned an ID-dependent value. Each right-hand side is
// classified against the records built so far, so a dependency is only
// seen by assignments that follow it in the source.
func Scan(fn *kast.Function, ids IDFunctions) *Tracker {
	t := NewTracker()
	if fn == nil {
		return t
	}

	kast.Inspect(fn, func(n kast.Node) bool {
		switch n := n.(type) {
		case *kast.VarDecl:
			if n.Init != nil && n.ID != 0 {
				t.record(VariableKey(n.ID), n.Name, n.At, n.Init, ids)
			}
		case *kast.Assign:
			if key, name, ok := assignTarget(n.LHS); ok {
				t.record(key, name, n.At, n.RHS, ids)
			}
		}
		return true
	})
	return t
}

func (t *Tracker) record(key Key, name string, at kast.Pos, rhs kast.Expr, ids IDFunctions) {
	c := Classify(rhs, t, ids)
	switch c.Class {
	case DirectIDCall:
		t.Set(Record{Key: key, Name: name, Origin: DirectCall, At: at, Source: c.Pos})
	case DependentVariable, DependentMember:
		t.Set(Record{Key: key, Name: name, Origin: Transitive, From: c.Key, At: at, Source: c.Pos})
	}
}

// assignTarget resolves the entity written by an assignment. Only named
// variables and resolved struct fields are tracked; writes through
// pointers or subscripts are not.
func assignTarget(lhs kast.Expr) (Key, string, bool) {
	for {
		p, ok := lhs.(*kast.Paren)
		if !ok || p == nil {
			break
		}
		lhs = p.X
	}

	switch e := lhs.(type) {
	case *kast.Ident:
		if e != nil && e.Decl != 0 {
			return VariableKey(e.Decl), e.Name, true
		}
	case *kast.Member:
		if e != nil && e.Struct != 0 {
			return FieldKey(e.Struct, e.Field), e.Field, true
		}
	}
	return Key{}, "", false
}
