package assembler

import (
	"fmt"

	"github.com/Urethramancer/pdp11/deferred"
)

type symbolState int

const (
	symbolPending symbolState = iota
	symbolResolving
	symbolResolved
)

type symbol struct {
	value deferred.Value
	pos   Position
	state symbolState
	// result is valid once state is symbolResolved.
	result any
}

// SymbolTable maps label and constant names to lazy values. Names keep their
// definition order.
type SymbolTable struct {
	entries map[string]*symbol
	order   []string
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{entries: make(map[string]*symbol)}
}

// Define binds name to v. Defining a name twice is an error.
func (t *SymbolTable) Define(name string, v deferred.Value, pos Position) error {
	if _, ok := t.entries[name]; ok {
		return newError(pos, ErrRedefinition, "Redefinition of label %s", name)
	}
	t.entries[name] = &symbol{value: v, pos: pos}
	t.order = append(t.order, name)
	return nil
}

// Has reports whether name is defined.
func (t *SymbolTable) Has(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Lookup resolves name, memoising the result. It implements deferred.Context.
func (t *SymbolTable) Lookup(name string) (any, error) {
	s, ok := t.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", deferred.ErrUndefined, name)
	}
	switch s.state {
	case symbolResolved:
		return s.result, nil
	case symbolResolving:
		return nil, fmt.Errorf("%w: %s", deferred.ErrCycle, name)
	}

	s.state = symbolResolving
	x, err := deferred.Resolve(s.value, t, deferred.KindAny)
	if err != nil {
		s.state = symbolPending
		return nil, err
	}
	s.state, s.result = symbolResolved, x
	return x, nil
}

// ResolveAll resolves every symbol in definition order. Every symbol must
// resolve to an integer.
func (t *SymbolTable) ResolveAll() error {
	for _, name := range t.order {
		s := t.entries[name]
		if _, err := deferred.ResolveInt(deferred.Symbol(name), t); err != nil {
			return annotate(fmt.Errorf("symbol %s: %w", name, err), s.pos)
		}
	}
	return nil
}

// Names returns the symbol names in definition order.
func (t *SymbolTable) Names() []string {
	return append([]string(nil), t.order...)
}

// Values returns every resolved integer symbol. Call ResolveAll first.
func (t *SymbolTable) Values() map[string]int {
	out := make(map[string]int, len(t.order))
	for _, name := range t.order {
		s := t.entries[name]
		if n, ok := s.result.(int); ok && s.state == symbolResolved {
			out[name] = n
		}
	}
	return out
}

// Len returns the number of symbols.
func (t *SymbolTable) Len() int {
	return len(t.order)
}
