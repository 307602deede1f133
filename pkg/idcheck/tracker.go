package idcheck

import (
	"fmt"

	"github.com/l3aro/idbranch/pkg/kast"
)

// EntityKind tells variables and struct fields apart.
type EntityKind int

const (
	Variable EntityKind = iota
	Field
)

func (k EntityKind) String() string {
	if k == Field {
		return "field"
	}
	return "variable"
}

// Key identifies a tracked entity. Variables use Decl; fields use the
// owning Struct and the Field name.
type Key struct {
	Kind   EntityKind    `json:"kind" msgpack:"kind"`
	Decl   kast.DeclID   `json:"decl,omitempty" msgpack:"decl"`
	Struct kast.StructID `json:"struct,omitempty" msgpack:"struct"`
	Field  string        `json:"field,omitempty" msgpack:"field"`
}

// VariableKey returns the key of a declared variable.
func VariableKey(id kast.DeclID) Key {
	return Key{Kind: Variable, Decl: id}
}

// FieldKey returns the key of field name in struct s.
func FieldKey(s kast.StructID, name string) Key {
	return Key{Kind: Field, Struct: s, Field: name}
}

func (k Key) String() string {
	if k.Kind == Field {
		return fmt.Sprintf("field(%d.%s)", k.Struct, k.Field)
	}
	return fmt.Sprintf("var(%d)", k.Decl)
}

// Origin records how an entity became ID-dependent.
type Origin int

const (
	// DirectCall means the assigned value contained an ID query.
	DirectCall Origin = iota
	// Transitive means the value was read from another dependent entity.
	Transitive
)

func (o Origin) String() string {
	if o == Transitive {
		return "transitive"
	}
	return "direct"
}

// Record is one ID-dependent entity.
type Record struct {
	Key    Key
	Name   string
	Origin Origin
	From   Key      // upstream entity, Transitive only
	At     kast.Pos // start of the declaration or assignment
	Source kast.Pos // dependent sub-expression of the assigned value
}

// Tracker is the dependency table of a single function. It only grows:
// records are overwritten by later dependent assignments but never removed.
type Tracker struct {
	records map[Key]*Record
	order   []Key
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{records: make(map[Key]*Record)}
}

// Lookup returns the record for key, if any.
func (t *Tracker) Lookup(key Key) (*Record, bool) {
	if t == nil {
		return nil, false
	}
	r, ok := t.records[key]
	return r, ok
}

// Len returns the number of tracked entities.
func (t *Tracker) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Records returns the records in the order their keys were first seen.
func (t *Tracker) Records() []*Record {
	if t == nil {
		return nil
	}
	out := make([]*Record, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.records[k])
	}
	return out
}

// Chain returns the provenance of key, starting with its own record and
// ending at the record holding the direct ID call.
func (t *Tracker) Chain(key Key) []*Record {
	var chain []*Record
	seen := make(map[Key]bool)
	for {
		r, ok := t.Lookup(key)
		if !ok || seen[key] {
			return chain
		}
		seen[key] = true
		chain = append(chain, r)
		if r.Origin == DirectCall {
			return chain
		}
		key = r.From
	}
}

// Set inserts or overwrites the record for r.Key. A transitive record
// whose upstream chain already passes through r.Key would close a cycle;
// in that case the existing record is kept and Set returns false.
func (t *Tracker) Set(r Record) bool {
	if r.Origin == Transitive && t.reaches(r.From, r.Key) {
		return false
	}
	if _, ok := t.records[r.Key]; !ok {
		t.order = append(t.order, r.Key)
	}
	t.records[r.Key] = &r
	return true
}

// reaches reports whether following provenance from start visits target.
func (t *Tracker) reaches(start, target Key) bool {
	for _, r := range t.Chain(start) {
		if r.Key == target {
			return true
		}
	}
	return false
}
