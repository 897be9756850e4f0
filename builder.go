package series

// Builder wraps a Series[K,V] with named combinator methods, since Go
// has no operator overloading for the `+`/`-`/`<` spellings a value
// series would otherwise want. Build chains return a new Builder, so
// callers write e.g. Build(prices, ops, cmp).Sub(fee).Lt(0).
type Builder[K, V any] struct {
	s   Series[K, V]
	ops ValueOps[V]
	cmp CompareOps[V]
}

// Build wraps src for named-method chaining, using ops/cmp for every
// arithmetic or comparison step in the chain.
func Build[K, V any](src Series[K, V], ops ValueOps[V], cmp CompareOps[V]) Builder[K, V] {
	return Builder[K, V]{s: src, ops: ops, cmp: cmp}
}

// Series returns the wrapped series, unwrapping the builder.
func (b Builder[K, V]) Series() Series[K, V] { return b.s }

func (b Builder[K, V]) Add(constant V) Builder[K, V] { return b.op(OpAdd, constant, false) }
func (b Builder[K, V]) Sub(constant V) Builder[K, V] { return b.op(OpSub, constant, false) }
func (b Builder[K, V]) Mul(constant V) Builder[K, V] { return b.op(OpMul, constant, false) }
func (b Builder[K, V]) Div(constant V) Builder[K, V] { return b.op(OpDiv, constant, false) }

// SubFrom computes constant - value (rather than value - constant).
func (b Builder[K, V]) SubFrom(constant V) Builder[K, V] { return b.op(OpSub, constant, true) }

// DivInto computes constant / value (rather than value / constant).
func (b Builder[K, V]) DivInto(constant V) Builder[K, V] { return b.op(OpDiv, constant, true) }

func (b Builder[K, V]) op(op BinaryOp, constant V, reverse bool) Builder[K, V] {
	return Builder[K, V]{s: Op[K, V](b.s, b.ops, op, constant, reverse), ops: b.ops, cmp: b.cmp}
}

// ZipAdd, ZipSub, ZipMul, ZipDiv combine this builder's series with
// other elementwise, key-aligned via Zip.
func (b Builder[K, V]) ZipAdd(other Series[K, V]) Builder[K, V] { return b.zipOp(OpAdd, other) }
func (b Builder[K, V]) ZipSub(other Series[K, V]) Builder[K, V] { return b.zipOp(OpSub, other) }
func (b Builder[K, V]) ZipMul(other Series[K, V]) Builder[K, V] { return b.zipOp(OpMul, other) }
func (b Builder[K, V]) ZipDiv(other Series[K, V]) Builder[K, V] { return b.zipOp(OpDiv, other) }

func (b Builder[K, V]) zipOp(op BinaryOp, other Series[K, V]) Builder[K, V] {
	return Builder[K, V]{s: ZipOp[K, V](b.s, other, b.ops, op), ops: b.ops, cmp: b.cmp}
}

// Lt, Le, Eq, Ne, Ge, Gt compare against a constant, yielding a
// boolean-valued series; the Builder chain ends there since a bool
// series has no further arithmetic ops of its own.
func (b Builder[K, V]) Lt(constant V) Series[K, bool] { return Comparison(b.s, b.cmp, CmpLt, constant) }
func (b Builder[K, V]) Le(constant V) Series[K, bool] { return Comparison(b.s, b.cmp, CmpLe, constant) }
func (b Builder[K, V]) Eq(constant V) Series[K, bool] { return Comparison(b.s, b.cmp, CmpEq, constant) }
func (b Builder[K, V]) Ne(constant V) Series[K, bool] { return Comparison(b.s, b.cmp, CmpNe, constant) }
func (b Builder[K, V]) Ge(constant V) Series[K, bool] { return Comparison(b.s, b.cmp, CmpGe, constant) }
func (b Builder[K, V]) Gt(constant V) Series[K, bool] { return Comparison(b.s, b.cmp, CmpGt, constant) }

// Map and Filter thread through to the package-level combinators
// without leaving the fluent chain.
func (b Builder[K, V]) Map(f MapFunc[K, V, V]) Builder[K, V] {
	return Builder[K, V]{s: Map[K, V, V](b.s, f), ops: b.ops, cmp: b.cmp}
}

func (b Builder[K, V]) Filter(pred FilterFunc[K, V]) Builder[K, V] {
	return Builder[K, V]{s: Filter(b.s, pred), ops: b.ops, cmp: b.cmp}
}
