package deferred

import "fmt"

// Scope is a simple Context backed by a map of values. Symbols are resolved
// on every lookup; a symbol that refers back to itself fails with ErrCycle.
type Scope struct {
	values map[string]Value
	active map[string]bool
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{
		values: make(map[string]Value),
		active: make(map[string]bool),
	}
}

// Set binds name to v, replacing any earlier binding.
func (s *Scope) Set(name string, v Value) {
	s.values[name] = v
}

// Lookup implements Context.
func (s *Scope) Lookup(name string) (any, error) {
	v, ok := s.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefined, name)
	}
	if s.active[name] {
		return nil, fmt.Errorf("%w: %s", ErrCycle, name)
	}
	s.active[name] = true
	defer delete(s.active, name)
	return Resolve(v, s, KindAny)
}
