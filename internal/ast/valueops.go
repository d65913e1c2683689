package ast

import (
	"math"

	"mpsl/internal/types"
)

// This file implements constant arithmetic over Value lanes. The
// optimizer folds with it and the interpreter executes with it, so both
// agree bit-for-bit.

// FoldBinary computes a non-assignment binary operator over two values of
// the same operand type. Comparisons yield bool lanes. It returns false
// for operators that cannot fold (assignments) and for integer division
// or remainder with a zero lane in the divisor.
func FoldBinary(op BinaryOp, kind types.Kind, lanes uint32, l, r Value) (Value, bool) {
	var out Value
	if op.IsAssign() {
		return out, false
	}

	if op == BinDiv || op == BinMod {
		if kind == types.KindInt {
			for i := uint32(0); i < lanes; i++ {
				if r.Int(i) == 0 {
					return out, false
				}
			}
		}
	}

	for i := uint32(0); i < lanes; i++ {
		switch kind {
		case types.KindBool:
			a, b := l.Bool(i), r.Bool(i)
			switch op {
			case BinEq:
				out.SetBool(i, a == b)
			case BinNe:
				out.SetBool(i, a != b)
			case BinLogAnd:
				out.SetBool(i, a && b)
			case BinLogOr:
				out.SetBool(i, a || b)
			default:
				return out, false
			}
		case types.KindInt:
			if !foldIntLane(&out, op, i, l.Int(i), r.Int(i)) {
				return out, false
			}
		case types.KindFloat:
			if !foldFloatLane(&out, op, i, l.Float(i), r.Float(i)) {
				return out, false
			}
		case types.KindDouble:
			if !foldDoubleLane(&out, op, i, l.Double(i), r.Double(i)) {
				return out, false
			}
		default:
			return out, false
		}
	}
	return out, true
}

func foldIntLane(out *Value, op BinaryOp, i uint32, a, b int32) bool {
	switch op {
	case BinAdd:
		out.SetInt(i, a+b)
	case BinSub:
		out.SetInt(i, a-b)
	case BinMul:
		out.SetInt(i, a*b)
	case BinDiv:
		out.SetInt(i, a/b)
	case BinMod:
		out.SetInt(i, a%b)
	case BinAnd:
		out.SetInt(i, a&b)
	case BinOr:
		out.SetInt(i, a|b)
	case BinXor:
		out.SetInt(i, a^b)
	case BinShl:
		// shift counts wrap at the register width, like the hardware
		out.SetInt(i, a<<(uint32(b)&31))
	case BinShr:
		out.SetInt(i, a>>(uint32(b)&31))
	case BinLt:
		out.SetBool(i, a < b)
	case BinLe:
		out.SetBool(i, a <= b)
	case BinGt:
		out.SetBool(i, a > b)
	case BinGe:
		out.SetBool(i, a >= b)
	case BinEq:
		out.SetBool(i, a == b)
	case BinNe:
		out.SetBool(i, a != b)
	default:
		return false
	}
	return true
}

func foldFloatLane(out *Value, op BinaryOp, i uint32, a, b float32) bool {
	switch op {
	case BinAdd:
		out.SetFloat(i, a+b)
	case BinSub:
		out.SetFloat(i, a-b)
	case BinMul:
		out.SetFloat(i, a*b)
	case BinDiv:
		out.SetFloat(i, a/b)
	case BinLt:
		out.SetBool(i, a < b)
	case BinLe:
		out.SetBool(i, a <= b)
	case BinGt:
		out.SetBool(i, a > b)
	case BinGe:
		out.SetBool(i, a >= b)
	case BinEq:
		out.SetBool(i, a == b)
	case BinNe:
		out.SetBool(i, a != b)
	default:
		return false
	}
	return true
}

func foldDoubleLane(out *Value, op BinaryOp, i uint32, a, b float64) bool {
	switch op {
	case BinAdd:
		out.SetDouble(i, a+b)
	case BinSub:
		out.SetDouble(i, a-b)
	case BinMul:
		out.SetDouble(i, a*b)
	case BinDiv:
		out.SetDouble(i, a/b)
	case BinLt:
		out.SetBool(i, a < b)
	case BinLe:
		out.SetBool(i, a <= b)
	case BinGt:
		out.SetBool(i, a > b)
	case BinGe:
		out.SetBool(i, a >= b)
	case BinEq:
		out.SetBool(i, a == b)
	case BinNe:
		out.SetBool(i, a != b)
	default:
		return false
	}
	return true
}

// FoldUnary computes a prefix operator over a value. Increment and
// decrement never fold: they mutate storage.
func FoldUnary(op UnaryOp, kind types.Kind, lanes uint32, v Value) (Value, bool) {
	var out Value
	for i := uint32(0); i < lanes; i++ {
		switch op {
		case UnaryPlus:
			out.Lanes[i] = v.Lanes[i]
		case UnaryNeg:
			switch kind {
			case types.KindInt:
				out.SetInt(i, -v.Int(i))
			case types.KindFloat:
				out.SetFloat(i, -v.Float(i))
			case types.KindDouble:
				out.SetDouble(i, -v.Double(i))
			default:
				return out, false
			}
		case UnaryNot:
			if kind != types.KindBool {
				return out, false
			}
			out.SetBool(i, !v.Bool(i))
		case UnaryBitNot:
			if kind != types.KindInt {
				return out, false
			}
			out.SetInt(i, ^v.Int(i))
		default:
			return out, false
		}
	}
	return out, true
}

// FoldCast converts lanes between element kinds, broadcasting a scalar
// source across the destination lanes. Float-to-int conversion truncates
// toward zero; out-of-range and NaN inputs produce INT_MIN, matching the
// x86 conversion instructions.
func FoldCast(from, to types.TypeInfo, v Value) Value {
	var out Value
	lanes := to.Lanes()
	if to.IsMatrix() {
		lanes = to.Rows() * to.Cols()
	}
	for i := uint32(0); i < lanes; i++ {
		src := i
		if from.IsScalar() {
			src = 0
		}
		out.Lanes[i] = castLane(from.Kind(), to.Kind(), v.Lanes[src])
	}
	return out
}

func castLane(from, to types.Kind, bits uint64) uint64 {
	var v Value
	v.Lanes[0] = bits

	var d float64
	switch from {
	case types.KindBool:
		if v.Bool(0) {
			d = 1
		}
	case types.KindInt:
		d = float64(v.Int(0))
	case types.KindFloat:
		d = float64(v.Float(0))
	case types.KindDouble:
		d = v.Double(0)
	}

	var out Value
	switch to {
	case types.KindBool:
		out.SetBool(0, d != 0)
	case types.KindInt:
		out.SetInt(0, doubleToInt32(d))
	case types.KindFloat:
		out.SetFloat(0, float32(d))
	case types.KindDouble:
		out.SetDouble(0, d)
	}
	return out.Lanes[0]
}

func doubleToInt32(d float64) int32 {
	if math.IsNaN(d) || d >= 2147483648 || d < -2147483648 {
		return math.MinInt32
	}
	return int32(d)
}

// FoldIntrinsic evaluates a builtin over constant arguments. The operand
// type is the unified argument type computed during analysis.
func FoldIntrinsic(in Intrinsic, kind types.Kind, lanes uint32, args []Value) (Value, bool) {
	var out Value

	if in == IntrDot {
		var sum float64
		for i := uint32(0); i < lanes; i++ {
			sum += args[0].AsDouble(kind, i) * args[1].AsDouble(kind, i)
		}
		setLane(&out, kind, 0, sum)
		return out, true
	}

	for i := uint32(0); i < lanes; i++ {
		switch in {
		case IntrIsNan:
			out.SetBool(i, math.IsNaN(args[0].AsDouble(kind, i)))
			continue
		case IntrIsInf:
			out.SetBool(i, math.IsInf(args[0].AsDouble(kind, i), 0))
			continue
		case IntrIsFinite:
			d := args[0].AsDouble(kind, i)
			out.SetBool(i, !math.IsNaN(d) && !math.IsInf(d, 0))
			continue
		}

		if kind == types.KindInt {
			if !foldIntIntrinsic(&out, in, i, args) {
				return out, false
			}
			continue
		}

		a := args[0].AsDouble(kind, i)
		var r float64
		switch in {
		case IntrAbs:
			r = math.Abs(a)
		case IntrMin:
			r = math.Min(a, args[1].AsDouble(kind, i))
		case IntrMax:
			r = math.Max(a, args[1].AsDouble(kind, i))
		case IntrClamp:
			r = math.Min(math.Max(a, args[1].AsDouble(kind, i)), args[2].AsDouble(kind, i))
		case IntrFloor:
			r = math.Floor(a)
		case IntrCeil:
			r = math.Ceil(a)
		case IntrRound:
			r = math.Round(a)
		case IntrTrunc:
			r = math.Trunc(a)
		case IntrFrac:
			r = a - math.Floor(a)
		case IntrSign:
			switch {
			case a > 0:
				r = 1
			case a < 0:
				r = -1
			default:
				r = a
			}
		case IntrSqrt:
			r = math.Sqrt(a)
		case IntrRsqrt:
			r = 1 / math.Sqrt(a)
		case IntrRcp:
			r = 1 / a
		case IntrLerp:
			b := args[1].AsDouble(kind, i)
			t := args[2].AsDouble(kind, i)
			r = a + (b-a)*t
		default:
			return out, false
		}
		setLane(&out, kind, i, r)
	}
	return out, true
}

func foldIntIntrinsic(out *Value, in Intrinsic, i uint32, args []Value) bool {
	a := args[0].Int(i)
	switch in {
	case IntrAbs:
		if a < 0 {
			a = -a
		}
		out.SetInt(i, a)
	case IntrMin:
		b := args[1].Int(i)
		if b < a {
			a = b
		}
		out.SetInt(i, a)
	case IntrMax:
		b := args[1].Int(i)
		if b > a {
			a = b
		}
		out.SetInt(i, a)
	case IntrClamp:
		lo, hi := args[1].Int(i), args[2].Int(i)
		if a < lo {
			a = lo
		}
		if a > hi {
			a = hi
		}
		out.SetInt(i, a)
	case IntrSign:
		switch {
		case a > 0:
			out.SetInt(i, 1)
		case a < 0:
			out.SetInt(i, -1)
		default:
			out.SetInt(i, 0)
		}
	default:
		return false
	}
	return true
}

func setLane(v *Value, kind types.Kind, i uint32, d float64) {
	switch kind {
	case types.KindFloat:
		v.SetFloat(i, float32(d))
	case types.KindDouble:
		v.SetDouble(i, d)
	case types.KindInt:
		v.SetInt(i, doubleToInt32(d))
	}
}
