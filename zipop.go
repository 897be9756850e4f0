package series

// ZipOp aligns left and right by key (via Zip) and combines each
// aligned pair with a pluggable arithmetic op. It is deliberately not
// its own cursor type: Zip already owns the
// driven/merge navigation logic, and composing Map(Zip(...), f) keeps
// that logic in one place rather than duplicating it for the fused
// case. The intermediate ZipPair never escapes to a caller.
func ZipOp[K, V any](left, right Series[K, V], ops ValueOps[V], op BinaryOp) Series[K, V] {
	return Map[K, ZipPair[V, V], V](Zip[K, V, V](left, right), func(_ K, p ZipPair[V, V]) V {
		return applyBinaryOp(ops, op, p.Left, p.Right)
	})
}

// ZipCompare aligns left and right by key and yields the boolean
// result of comparing each aligned pair, mirroring Comparison but over
// two series instead of a series and a constant.
func ZipCompare[K, V any](left, right Series[K, V], ops CompareOps[V], op CompareOp) Series[K, bool] {
	return Map[K, ZipPair[V, V], bool](Zip[K, V, V](left, right), func(_ K, p ZipPair[V, V]) bool {
		return applyCompareOp(ops, op, p.Left, p.Right)
	})
}
