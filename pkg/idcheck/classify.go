package idcheck

import "github.com/l3aro/idbranch/pkg/kast"

// Class is the outcome of classifying an expression.
type Class int

const (
	NotDependent Class = iota
	DirectIDCall
	DependentVariable
	DependentMember
)

func (c Class) String() string {
	switch c {
	case DirectIDCall:
		return "id-call"
	case DependentVariable:
		return "variable"
	case DependentMember:
		return "member"
	default:
		return "none"
	}
}

// Classification describes why an expression is ID-dependent. Name and
// Key are set for variable and member references; Pos is the location of
// the dependent sub-expression.
type Classification struct {
	Class Class
	Name  string
	Key   Key
	Pos   kast.Pos
}

// Dependent reports whether the expression depends on an ID query.
func (c Classification) Dependent() bool {
	return c.Class != NotDependent
}

// Classify decides whether expr depends on an ID query, given the
// entities already recorded in t. Parentheses, casts and unary operators
// are looked through; binary operators yield their first dependent
// operand, left to right. A call is dependent only when it is itself an
// ID query: its arguments are not inspected.
func Classify(expr kast.Expr, t *Tracker, ids IDFunctions) Classification {
	switch e := expr.(type) {
	case *kast.Paren:
		if e != nil {
			return Classify(e.X, t, ids)
		}
	case *kast.Cast:
		if e != nil {
			return Classify(e.X, t, ids)
		}
	case *kast.Unary:
		if e != nil {
			return Classify(e.X, t, ids)
		}
	case *kast.Binary:
		if e != nil {
			if c := Classify(e.X, t, ids); c.Dependent() {
				return c
			}
			return Classify(e.Y, t, ids)
		}
	case *kast.Call:
		if ids.IsIDCall(e) {
			return Classification{Class: DirectIDCall, Name: e.Callee, Pos: e.At}
		}
	case *kast.Ident:
		if e != nil && e.Decl != 0 {
			key := VariableKey(e.Decl)
			if _, ok := t.Lookup(key); ok {
				return Classification{Class: DependentVariable, Name: e.Name, Key: key, Pos: e.At}
			}
		}
	case *kast.Member:
		if e != nil && e.Struct != 0 {
			key := FieldKey(e.Struct, e.Field)
			if _, ok := t.Lookup(key); ok {
				return Classification{Class: DependentMember, Name: e.Field, Key: key, Pos: e.At}
			}
		}
	}
	return Classification{}
}
