package deferred

// Add returns a + b. Constant operands are folded immediately.
func Add(a, b Value) Value {
	x, aok := a.IntConstant()
	y, bok := b.IntConstant()
	switch {
	case aok && bok:
		return Int(x + y)
	case bok:
		return addConst(a, y)
	case aok:
		return addConst(b, x)
	}
	return op(a, b, func(x, y int) (any, error) { return x + y, nil })
}

// AddInt returns v + k.
func AddInt(v Value, k int) Value {
	return Add(v, Int(k))
}

func addConst(v Value, k int) Value {
	if k == 0 && v.kind == KindInt {
		return v
	}
	if o, ok := v.src.(offset); ok && len(v.steps) == 0 {
		return Value{src: offset{base: o.base, k: o.k + k}, kind: KindInt}
	}
	return Value{src: offset{base: v, k: k}, kind: KindInt}
}

// Sub returns a - b.
func Sub(a, b Value) Value {
	if y, ok := b.IntConstant(); ok {
		return Add(a, Int(-y))
	}
	return op(a, b, func(x, y int) (any, error) { return x - y, nil })
}

// Mul returns a * b.
func Mul(a, b Value) Value {
	if x, ok := a.IntConstant(); ok {
		if y, ok := b.IntConstant(); ok {
			return Int(x * y)
		}
	}
	return op(a, b, func(x, y int) (any, error) { return x * y, nil })
}

// Div returns a / b, truncated toward zero.
func Div(a, b Value) Value {
	return op(a, b, func(x, y int) (any, error) {
		if y == 0 {
			return nil, ErrDivideByZero
		}
		return x / y, nil
	})
}

// Mod returns the non-negative remainder of a / b for positive b.
func Mod(a, b Value) Value {
	return op(a, b, func(x, y int) (any, error) {
		if y == 0 {
			return nil, ErrDivideByZero
		}
		r := x % y
		if r < 0 && y > 0 {
			r += y
		}
		return r, nil
	})
}

// Neg returns -v.
func Neg(v Value) Value {
	if x, ok := v.IntConstant(); ok {
		return Int(-x)
	}
	return MapInt(v, func(x int) (int, error) { return -x, nil })
}

// Equal returns a bool value that is true when a and b resolve to the same
// integer.
func Equal(a, b Value) Value {
	v := op(a, b, func(x, y int) (any, error) { return x == y, nil })
	v.kind = KindBool
	return v
}

func op(a, b Value, fn func(x, y int) (any, error)) Value {
	return Value{src: binary{a: a, b: b, fn: fn}, kind: KindInt}
}

// Len returns the length of a list value.
func Len(v Value) Value {
	if c, ok := v.Constant(); ok {
		if l, ok := c.([]int); ok {
			return Int(len(l))
		}
	}
	return v.Then(func(x any) (any, error) {
		l, ok := x.([]int)
		if !ok {
			return nil, mismatch(KindList, x)
		}
		return len(l), nil
	}, KindInt)
}
