// Package deferred implements values whose computation is postponed until
// every symbol they reference is known.
//
// A Value is a source (a literal, a symbol reference or a combinator) plus an
// ordered list of transform steps. Nothing is evaluated until Resolve is
// called with a Context that can look symbols up.
package deferred

import (
	"errors"
	"fmt"
)

// Kind is the semantic type a value resolves to.
type Kind int

const (
	// KindAny accepts any resolved value.
	KindAny Kind = iota
	// KindInt is a Go int.
	KindInt
	// KindList is a []int.
	KindList
	// KindString is a Go string.
	KindString
	// KindBool is a Go bool.
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrUndefined is returned when a symbol is not present in the context.
	ErrUndefined = errors.New("undefined symbol")
	// ErrTypeMismatch is returned when a resolved value has the wrong kind.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrCycle is returned when a symbol depends on itself.
	ErrCycle = errors.New("circular reference")
	// ErrDivideByZero is returned by Div and Mod.
	ErrDivideByZero = errors.New("division by zero")
	// ErrNegativeCount is returned by Repeat.
	ErrNegativeCount = errors.New("negative repeat count")
	// ErrCountTooLarge is returned by Repeat when the result would exceed
	// MaxRepeat elements.
	ErrCountTooLarge = errors.New("repeat count too large")
)

// MaxRepeat bounds the length of a Repeat result: one 16-bit address space.
const MaxRepeat = 0o200000

// Context looks up symbols during resolution. Lookup must return the fully
// resolved value of the symbol.
type Context interface {
	Lookup(name string) (any, error)
}

// source produces the initial value of a chain.
type source interface {
	eval(ctx Context) (any, error)
}

// step is one pending transform.
type step struct {
	fn   func(any) (any, error)
	kind Kind
}

// Value is a possibly unresolved computation. The zero Value resolves to nil
// and is not useful; build values with the constructors in this package.
type Value struct {
	src   source
	steps []step
	kind  Kind
}

// Kind returns the declared kind of the most recent step.
func (v Value) Kind() Kind { return v.kind }

// Constant reports whether v is a literal with no pending steps, and returns
// the literal.
func (v Value) Constant() (any, bool) {
	if len(v.steps) > 0 {
		return nil, false
	}
	if l, ok := v.src.(literal); ok {
		return l.v, true
	}
	return nil, false
}

// IntConstant is Constant for integer literals.
func (v Value) IntConstant() (int, bool) {
	c, ok := v.Constant()
	if !ok {
		return 0, false
	}
	n, ok := c.(int)
	return n, ok
}

// Then returns a value that resolves v, applies fn and declares kind for the
// result. fn may return an error to abort resolution.
func (v Value) Then(fn func(any) (any, error), kind Kind) Value {
	steps := make([]step, len(v.steps), len(v.steps)+1)
	copy(steps, v.steps)
	return Value{src: v.src, steps: append(steps, step{fn: fn, kind: kind}), kind: kind}
}

// MapInt is Then for integer-to-integer transforms.
func MapInt(v Value, fn func(int) (int, error)) Value {
	return v.Then(func(x any) (any, error) {
		n, ok := x.(int)
		if !ok {
			return nil, mismatch(KindInt, x)
		}
		return fn(n)
	}, KindInt)
}

// Resolve evaluates v against ctx. The result must be of the expected kind.
func Resolve(v Value, ctx Context, expected Kind) (any, error) {
	if v.src == nil {
		return nil, fmt.Errorf("%w: empty value", ErrTypeMismatch)
	}
	x, err := v.src.eval(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range v.steps {
		x, err = s.fn(x)
		if err != nil {
			return nil, err
		}
	}
	if !kindOf(x, expected) {
		return nil, mismatch(expected, x)
	}
	return x, nil
}

// ResolveInt resolves v to an int.
func ResolveInt(v Value, ctx Context) (int, error) {
	x, err := Resolve(v, ctx, KindInt)
	if err != nil {
		return 0, err
	}
	return x.(int), nil
}

// ResolveList resolves v to a []int.
func ResolveList(v Value, ctx Context) ([]int, error) {
	x, err := Resolve(v, ctx, KindList)
	if err != nil {
		return nil, err
	}
	return x.([]int), nil
}

// ResolveBool resolves v to a bool.
func ResolveBool(v Value, ctx Context) (bool, error) {
	x, err := Resolve(v, ctx, KindBool)
	if err != nil {
		return false, err
	}
	return x.(bool), nil
}

func kindOf(x any, k Kind) bool {
	switch k {
	case KindAny:
		return true
	case KindInt:
		_, ok := x.(int)
		return ok
	case KindList:
		_, ok := x.([]int)
		return ok
	case KindString:
		_, ok := x.(string)
		return ok
	case KindBool:
		_, ok := x.(bool)
		return ok
	}
	return false
}

func mismatch(want Kind, got any) error {
	return fmt.Errorf("%w: expected %s, got %T", ErrTypeMismatch, want, got)
}

func inferKind(x any) Kind {
	switch x.(type) {
	case int:
		return KindInt
	case []int:
		return KindList
	case string:
		return KindString
	case bool:
		return KindBool
	}
	return KindAny
}
