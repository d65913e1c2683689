package types

// rank orders the numeric kinds for implicit widening. Bool has no rank:
// the language never converts to or from bool implicitly.
func rank(k Kind) int {
	switch k {
	case KindInt:
		return 1
	case KindFloat:
		return 2
	case KindDouble:
		return 3
	}
	return 0
}

// ImplicitCastCost returns the distance of the implicit conversion from one
// value type to another, ignoring qualifiers. A zero cost means the types
// already match. The second result is false when no implicit conversion
// exists: narrowing, bool conversions, lane-count changes other than
// scalar broadcast, and all matrix conversions.
func ImplicitCastCost(from, to TypeInfo) (uint32, bool) {
	from = from.Unqualified()
	to = to.Unqualified()

	if from == to {
		return 0, true
	}
	if from.IsMatrix() || to.IsMatrix() {
		return 0, false
	}

	cost := uint32(0)

	if from.Lanes() != to.Lanes() {
		// Only scalar-to-vector broadcast changes the lane count.
		if !from.IsScalar() {
			return 0, false
		}
		cost++
	}

	if from.Kind() != to.Kind() {
		rf, rt := rank(from.Kind()), rank(to.Kind())
		if rf == 0 || rt == 0 || rf > rt {
			return 0, false
		}
		cost += uint32(rt - rf)
	}

	return cost, true
}

// CanImplicitCast reports whether from converts to to implicitly.
func CanImplicitCast(from, to TypeInfo) bool {
	_, ok := ImplicitCastCost(from, to)
	return ok
}

// CanExplicitCast reports whether constructor-style casting from one type to
// another is representable: any two numeric-or-bool shapes with compatible
// lane counts (equal, or a scalar source).
func CanExplicitCast(from, to TypeInfo) bool {
	from = from.Unqualified()
	to = to.Unqualified()
	if from.IsMatrix() || to.IsMatrix() {
		return from.SameShape(to)
	}
	if from.Kind() == KindVoid || to.Kind() == KindVoid ||
		from.IsObject() || to.IsObject() {
		return false
	}
	return from.Lanes() == to.Lanes() || from.IsScalar()
}

// Promote unifies two operand types for component-wise arithmetic: the
// result kind is the higher-ranked kind, the result shape is the vector
// shape when exactly one operand is a broadcastable scalar. The second
// result is false when the shapes cannot combine.
func Promote(a, b TypeInfo) (TypeInfo, bool) {
	a = a.Unqualified()
	b = b.Unqualified()

	if a.IsMatrix() || b.IsMatrix() {
		if a == b {
			return a, true
		}
		return Invalid, false
	}

	ra, rb := rank(a.Kind()), rank(b.Kind())
	var kind Kind
	switch {
	case a.Kind() == b.Kind():
		kind = a.Kind()
	case ra == 0 || rb == 0:
		return Invalid, false
	case ra >= rb:
		kind = a.Kind()
	default:
		kind = b.Kind()
	}

	lanes := a.Lanes()
	switch {
	case a.Lanes() == b.Lanes():
	case a.IsScalar():
		lanes = b.Lanes()
	case b.IsScalar():
		lanes = a.Lanes()
	default:
		return Invalid, false
	}

	t := Make(kind, lanes)
	if !t.Valid() {
		return Invalid, false
	}
	return t, true
}

// MatMulResult types the linear-algebra product of two operands when at
// least one is a matrix. Supported forms: matrix x matrix with inner
// dimensions agreeing, matrix x column vector, row vector x matrix.
func MatMulResult(a, b TypeInfo) (TypeInfo, bool) {
	a = a.Unqualified()
	b = b.Unqualified()

	switch {
	case a.IsMatrix() && b.IsMatrix():
		if a.Cols() != b.Rows() || a.Kind() != b.Kind() {
			return Invalid, false
		}
		return MakeMatrix(a.Kind(), a.Rows(), b.Cols()), true
	case a.IsMatrix() && b.IsVector():
		if a.Cols() != b.Lanes() || a.Kind() != b.Kind() {
			return Invalid, false
		}
		return Make(a.Kind(), a.Rows()), true
	case a.IsVector() && b.IsMatrix():
		if a.Lanes() != b.Rows() || a.Kind() != b.Kind() {
			return Invalid, false
		}
		return Make(b.Kind(), b.Cols()), true
	}
	return Invalid, false
}
