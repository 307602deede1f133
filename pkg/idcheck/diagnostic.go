package idcheck

import (
	"fmt"

	"github.com/l3aro/idbranch/pkg/kast"
)

// CheckName identifies every event produced by this package.
const CheckName = "altera-id-dependent-backward-branch"

// Severity of a diagnostic event.
type Severity int

const (
	Warning Severity = iota
	Note
)

func (s Severity) String() string {
	if s == Note {
		return "note"
	}
	return "warning"
}

// MarshalText lets encoders write the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "warning":
		*s = Warning
	case "note":
		*s = Note
	default:
		return fmt.Errorf("unknown severity %q", b)
	}
	return nil
}

const (
	warningTemplate  = "backward branch (%s) is ID-dependent due to %s and may cause performance degradation"
	inferredTemplate = "inferred assignment of ID-dependent %s from ID-dependent %s %s"
	assignedTemplate = "assignment of ID-dependent %s %s"

	reasonIDCall   = "ID function call"
	reasonVariable = "variable reference to '%s'"
	reasonMember   = "member reference to '%s'"
)

// Event is one diagnostic. A warning is always followed by its notes.
type Event struct {
	Severity Severity `json:"severity" msgpack:"severity"`
	Pos      kast.Pos `json:"pos" msgpack:"pos"`
	Template string   `json:"template" msgpack:"template"`
	Args     []string `json:"args" msgpack:"args"`
	Message  string   `json:"message" msgpack:"message"`
	Check    string   `json:"check" msgpack:"check"`
}

func newEvent(sev Severity, pos kast.Pos, template string, args ...string) Event {
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = a
	}
	return Event{
		Severity: sev,
		Pos:      pos,
		Template: template,
		Args:     args,
		Message:  fmt.Sprintf(template, vals...),
		Check:    CheckName,
	}
}

func (e Event) String() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Severity, e.Message)
}

// reason renders the "due to" part of a warning.
func reason(c Classification) string {
	switch c.Class {
	case DependentVariable:
		return fmt.Sprintf(reasonVariable, c.Name)
	case DependentMember:
		return fmt.Sprintf(reasonMember, c.Name)
	default:
		return reasonIDCall
	}
}

// provenance builds the notes for a dependent reference, nearest hop
// first, ending with the assignment that called the ID function.
func provenance(c Classification, t *Tracker) []Event {
	if c.Class != DependentVariable && c.Class != DependentMember {
		return nil
	}

	chain := t.Chain(c.Key)
	notes := make([]Event, 0, len(chain))
	for i, r := range chain {
		if r.Origin == DirectCall {
			notes = append(notes, newEvent(Note, r.At, assignedTemplate, r.Key.Kind.String(), r.Name))
			break
		}

		// the next link names the upstream entity
		target := "value"
		if r.Key.Kind == Field {
			target = "member"
		}
		source, name := "variable", ""
		if r.From.Kind == Field {
			source = "member"
		}
		if i+1 < len(chain) {
			name = chain[i+1].Name
		}
		notes = append(notes, newEvent(Note, r.Source, inferredTemplate, target, source, name))
	}
	return notes
}
