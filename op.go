package series

// Op applies op(v, constant) (or, if reverse is true, op(constant, v))
// to every value of src using ops, preserving keys and order. It is a
// pure value transform with no effect on key order, implemented as a
// specialization of Map so that the combinator family shares one
// navigation implementation: Map already delegates navigation to the
// inner cursor and computes the transform lazily on access, which is
// exactly what Op needs.
func Op[K, V any](src Series[K, V], ops ValueOps[V], op BinaryOp, constant V, reverse bool) Series[K, V] {
	if reverse {
		return Map[K, V, V](src, func(_ K, v V) V { return applyBinaryOp(ops, op, constant, v) })
	}
	return Map[K, V, V](src, func(_ K, v V) V { return applyBinaryOp(ops, op, v, constant) })
}

// Comparison produces a boolean-valued view of src by comparing each
// value against constant, preserving key order.
func Comparison[K, V any](src Series[K, V], ops CompareOps[V], op CompareOp, constant V) Series[K, bool] {
	return Map[K, V, bool](src, func(_ K, v V) bool { return applyCompareOp(ops, op, v, constant) })
}
