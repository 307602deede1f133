// Package idcheck finds loops whose backward branch depends on a
// work-item identifier.
//
// Analysis of one function runs in two passes over its kast tree. The
// assignment scan records, in source order, every variable and struct
// field that receives a value derived from an identifier query such as
// get_local_id. The loop check then classifies each loop condition
// against those records and composes a warning, followed by notes that
// trace the dependency back to the originating call.
//
// Everything here is a pure function of its input: there is no shared
// state between functions, no logging and no error path.
package idcheck

import (
	"maps"
	"slices"

	"github.com/l3aro/idbranch/pkg/kast"
)

// IDFunctions maps a callee name to whether calls to it yield a
// per-work-item value.
type IDFunctions map[string]bool

// DefaultIDFunctions returns a fresh copy of the OpenCL work-item query
// functions.
func DefaultIDFunctions() IDFunctions {
	return IDFunctions{
		"get_global_id":           true,
		"get_local_id":            true,
		"get_group_id":            true,
		"get_global_linear_id":    true,
		"get_local_linear_id":     true,
		"get_global_size":         true,
		"get_local_size":          true,
		"get_enqueued_local_size": true,
		"get_num_groups":          true,
		"get_global_offset":       true,
		"get_sub_group_id":        true,
		"get_sub_group_local_id":  true,
		"get_sub_group_size":      true,
		"get_num_sub_groups":      true,
	}
}

// Merge returns a new set with overrides applied on top of ids. An
// override mapped to false removes the name.
func (ids IDFunctions) Merge(overrides map[string]bool) IDFunctions {
	out := make(IDFunctions, len(ids)+len(overrides))
	maps.Copy(out, ids)
	for name, on := range overrides {
		if on {
			out[name] = true
		} else {
			delete(out, name)
		}
	}
	return out
}

// Names returns the enabled names in sorted order.
func (ids IDFunctions) Names() []string {
	names := make([]string, 0, len(ids))
	for name, on := range ids {
		if on {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// IsIDCall reports whether call invokes one of the recognized identifier
// queries. Indirect calls have no callee name and never match.
func (ids IDFunctions) IsIDCall(call *kast.Call) bool {
	if call == nil || call.Callee == "" {
		return false
	}
	return ids[call.Callee]
}
