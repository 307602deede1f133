package frontend

import "github.com/l3aro/idbranch/pkg/kast"

// scope is one C block scope. Variables, struct tags and typedef names
// live in separate namespaces.
type scope struct {
	parent *scope
	vars   map[string]kast.DeclID
	tags   map[string]kast.StructID
	types  map[string]kast.StructID
}

func newScope(parent *scope) *scope {
	return &scope{
		parent: parent,
		vars:   make(map[string]kast.DeclID),
		tags:   make(map[string]kast.StructID),
		types:  make(map[string]kast.StructID),
	}
}

func (s *scope) lookupVar(name string) kast.DeclID {
	for ; s != nil; s = s.parent {
		if id, ok := s.vars[name]; ok {
			return id
		}
	}
	return 0
}

func (s *scope) lookupTag(name string) (kast.StructID, bool) {
	for ; s != nil; s = s.parent {
		if id, ok := s.tags[name]; ok {
			return id, true
		}
	}
	return 0, false
}

func (s *scope) lookupType(name string) kast.StructID {
	for ; s != nil; s = s.parent {
		if id, ok := s.types[name]; ok {
			return id
		}
	}
	return 0
}
