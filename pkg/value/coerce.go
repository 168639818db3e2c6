package value

import "github.com/p4bughunt/p4-tv/pkg/smt"

// CoerceBV implements the bit-vector coercion rules of §4.1: applied
// anywhere a target width W is known and the source width W' differs.
//   - boolean source -> W-bit (value == 1)
//   - arbitrary-integer source -> bv(value, W)
//   - W' < W -> zero-extend
//   - W' > W -> truncate to the low W bits
func CoerceBV(v *Value, w uint) *Value {
	switch v.Kind {
	case KindBool:
		return BV(smt.Ite(v.Term, smt.BVVal(1, w), smt.BVVal(0, w)), w)
	case KindInt:
		return BV(smt.BVVal(uint64(v.IntVal), w), w)
	case KindUndefined:
		return Undefined(w)
	}
	if v.Width == w {
		return BV(v.Term, w)
	}
	if v.Width < w {
		return BV(smt.Concat(smt.BVVal(0, w-v.Width), v.Term), w)
	}
	return BV(smt.Extract(w-1, 0, v.Term), w)
}

// CoerceBool implements the boolean-target-from-bit-vector-source rule
// of §4.1: value == bv(1,1).
func CoerceBool(v *Value) *Value {
	if v.Kind == KindBool {
		return v
	}
	return Bool(smt.Eq(v.Term, smt.BVVal(1, v.Width)))
}

// Coerce width-adjusts v to the declared sort of a slot. Structured
// kinds (struct/header/stack/union) and enums pass through unchanged —
// the spec's coercion rules are scalar-only; structured assignment is
// handled by list-initialization/whole-value copy (§4.2) instead.
func Coerce(v *Value, target *Value) *Value {
	switch target.Kind {
	case KindBV:
		return CoerceBV(v, target.Width)
	case KindBool:
		return CoerceBool(v)
	default:
		return v.DeepCopy()
	}
}

// AlignWidths implements "align widths by casting the narrower operand
// up to the wider" (§4.3) ahead of binary arithmetic/bitwise/comparison.
// Booleans are promoted to 1-bit vectors first; enums are replaced by
// their representative bit-vector value.
func AlignWidths(a, b *Value) (*Value, *Value) {
	a, b = scalarize(a), scalarize(b)
	if a.Kind != KindBV || b.Kind != KindBV {
		return a, b
	}
	switch {
	case a.Width < b.Width:
		return CoerceBV(a, b.Width), b
	case b.Width < a.Width:
		return a, CoerceBV(b, a.Width)
	default:
		return a, b
	}
}

func scalarize(v *Value) *Value {
	switch v.Kind {
	case KindBool:
		return BV(smt.Ite(v.Term, smt.BVVal(1, 1), smt.BVVal(0, 1)), 1)
	case KindEnum, KindSerEnum:
		return BV(v.Term, v.Width)
	default:
		return v
	}
}
