package series

// ValueOps is the pluggable arithmetic table consulted by Op and
// ZipOp: one small generic-interface implementation selected per value
// kind by the caller, rather than inferred through reflection.
type ValueOps[V any] interface {
	Add(a, b V) V
	Sub(a, b V) V
	Mul(a, b V) V
	Div(a, b V) V
}

// CompareOps is the pluggable comparison table consulted by the
// Comparison combinator.
type CompareOps[V any] interface {
	Compare(a, b V) int
}

// numeric enumerates the builtin kinds the Numeric() helper supports,
// mirroring kvo/scalarconverter.go's IntegerValue/FloatValue split.
type numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// NumericOps implements both ValueOps and CompareOps for any builtin
// numeric type, using the language's own arithmetic and ordering
// operators.
type NumericOps[V numeric] struct{}

// Numeric returns the default ValueOps/CompareOps for a builtin
// numeric value type V.
func Numeric[V numeric]() NumericOps[V] { return NumericOps[V]{} }

func (NumericOps[V]) Add(a, b V) V { return a + b }
func (NumericOps[V]) Sub(a, b V) V { return a - b }
func (NumericOps[V]) Mul(a, b V) V { return a * b }
func (NumericOps[V]) Div(a, b V) V { return a / b }

func (NumericOps[V]) Compare(a, b V) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// BinaryOp selects which arithmetic operation Op/ZipOp apply.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
)

func applyBinaryOp[V any](ops ValueOps[V], op BinaryOp, a, b V) V {
	switch op {
	case OpAdd:
		return ops.Add(a, b)
	case OpSub:
		return ops.Sub(a, b)
	case OpMul:
		return ops.Mul(a, b)
	case OpDiv:
		return ops.Div(a, b)
	default:
		invariantViolation("unknown BinaryOp %d", op)
		var zero V
		return zero
	}
}

// CompareOp selects which relational test the Comparison combinator applies.
type CompareOp int

const (
	CmpLt CompareOp = iota
	CmpLe
	CmpEq
	CmpNe
	CmpGe
	CmpGt
)

func applyCompareOp[V any](ops CompareOps[V], op CompareOp, a, b V) bool {
	c := ops.Compare(a, b)
	switch op {
	case CmpLt:
		return c < 0
	case CmpLe:
		return c <= 0
	case CmpEq:
		return c == 0
	case CmpNe:
		return c != 0
	case CmpGe:
		return c >= 0
	case CmpGt:
		return c > 0
	default:
		invariantViolation("unknown CompareOp %d", op)
		return false
	}
}
