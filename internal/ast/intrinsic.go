package ast

// Intrinsic identifies a built-in function. Zero means "not an
// intrinsic call".
type Intrinsic uint8

const (
	NoIntrinsic Intrinsic = iota
	IntrAbs
	IntrMin
	IntrMax
	IntrClamp
	IntrFloor
	IntrCeil
	IntrRound
	IntrTrunc
	IntrFrac
	IntrSign
	IntrSqrt
	IntrRsqrt
	IntrRcp
	IntrLerp
	IntrIsNan
	IntrIsInf
	IntrIsFinite
	IntrDot
)

var intrinsicNames = [...]string{
	NoIntrinsic: "",
	IntrAbs:     "abs",
	IntrMin:     "min",
	IntrMax:     "max",
	IntrClamp:   "clamp",
	IntrFloor:   "floor",
	IntrCeil:    "ceil",
	IntrRound:   "round",
	IntrTrunc:   "trunc",
	IntrFrac:    "frac",
	IntrSign:    "sign",
	IntrSqrt:    "sqrt",
	IntrRsqrt:   "rsqrt",
	IntrRcp:     "rcp",
	IntrLerp:    "lerp",
	IntrIsNan:   "isnan",
	IntrIsInf:   "isinf",
	IntrIsFinite: "isfinite",
	IntrDot:     "dot",
}

func (in Intrinsic) String() string {
	if int(in) < len(intrinsicNames) {
		return intrinsicNames[in]
	}
	return "?"
}

// ArgCount returns the arity of the intrinsic.
func (in Intrinsic) ArgCount() int {
	switch in {
	case IntrMin, IntrMax, IntrDot:
		return 2
	case IntrClamp, IntrLerp:
		return 3
	default:
		return 1
	}
}

// FloatOnly reports whether the intrinsic rejects integer operands.
func (in Intrinsic) FloatOnly() bool {
	switch in {
	case IntrFloor, IntrCeil, IntrRound, IntrTrunc, IntrFrac,
		IntrSqrt, IntrRsqrt, IntrRcp, IntrLerp,
		IntrIsNan, IntrIsInf, IntrIsFinite, IntrDot:
		return true
	}
	return false
}

// Intrinsics lists every built-in function for root-scope installation.
func Intrinsics() []Intrinsic {
	out := make([]Intrinsic, 0, int(IntrDot))
	for in := IntrAbs; in <= IntrDot; in++ {
		out = append(out, in)
	}
	return out
}
