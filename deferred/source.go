package deferred

import "fmt"

type literal struct{ v any }

func (l literal) eval(Context) (any, error) { return l.v, nil }

type symbol struct{ name string }

func (s symbol) eval(ctx Context) (any, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: %s", ErrUndefined, s.name)
	}
	return ctx.Lookup(s.name)
}

// offset is base + k. Add folds chains of constant additions into one offset
// so that a deferred location counter does not grow a deep chain.
type offset struct {
	base Value
	k    int
}

func (o offset) eval(ctx Context) (any, error) {
	n, err := ResolveInt(o.base, ctx)
	if err != nil {
		return nil, err
	}
	return n + o.k, nil
}

type binary struct {
	a, b Value
	fn   func(a, b int) (any, error)
}

func (op binary) eval(ctx Context) (any, error) {
	a, err := ResolveInt(op.a, ctx)
	if err != nil {
		return nil, err
	}
	b, err := ResolveInt(op.b, ctx)
	if err != nil {
		return nil, err
	}
	return op.fn(a, b)
}

type repeat struct {
	count Value
	elem  Value
}

func (r repeat) eval(ctx Context) (any, error) {
	n, err := ResolveInt(r.count, ctx)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeCount, n)
	}
	e, err := Resolve(r.elem, ctx, KindAny)
	if err != nil {
		return nil, err
	}
	var pattern []int
	switch e := e.(type) {
	case int:
		pattern = []int{e}
	case []int:
		pattern = e
	default:
		return nil, mismatch(KindList, e)
	}
	if n > MaxRepeat || (len(pattern) > 0 && n > MaxRepeat/len(pattern)) {
		return nil, fmt.Errorf("%w: %d elements of %d", ErrCountTooLarge, n, len(pattern))
	}
	out := make([]int, 0, n*len(pattern))
	for i := 0; i < n; i++ {
		out = append(out, pattern...)
	}
	return out, nil
}

type conditional struct {
	cond Value
	a, b Value
}

func (c conditional) eval(ctx Context) (any, error) {
	ok, err := ResolveBool(c.cond, ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return Resolve(c.a, ctx, c.a.kind)
	}
	return Resolve(c.b, ctx, c.b.kind)
}

// Const wraps a literal. Supported literals are int, []int, string and bool.
func Const(x any) Value {
	return Value{src: literal{x}, kind: inferKind(x)}
}

// Int wraps an integer literal.
func Int(n int) Value { return Const(n) }

// Bytes wraps a list literal.
func Bytes(b ...int) Value {
	if b == nil {
		b = []int{}
	}
	return Const(b)
}

// String wraps a string literal.
func String(s string) Value { return Const(s) }

// Symbol refers to a named symbol, looked up at resolution time.
func Symbol(name string) Value {
	return Value{src: symbol{name}, kind: KindInt}
}

// Repeat produces count copies of elem. A list element is repeated as a whole
// pattern.
func Repeat(count, elem Value) Value {
	return Value{src: repeat{count: count, elem: elem}, kind: KindList}
}

// If selects a or b depending on cond, which must resolve to a bool.
func If(cond, a, b Value) Value {
	kind := a.kind
	if b.kind != kind {
		kind = KindAny
	}
	return Value{src: conditional{cond: cond, a: a, b: b}, kind: kind}
}
