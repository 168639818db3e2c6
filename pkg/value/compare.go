package value

import "github.com/p4bughunt/p4-tv/pkg/smt"

// Equal implements the comparison rules of §3:
//   - two headers compare equal iff (both invalid) or (both valid and all
//     fields equal);
//   - structs compare field-wise;
//   - other aggregates (stacks, unions) compare pointwise;
//   - enum compared to a value of a foreign sort yields a fresh symbolic
//     constant equality — noncommittal, left to the solver to choose.
//
// namer is only consumed on the foreign-enum-comparison path; pass a
// shared *smt.Namer so repeated comparisons of the same two values do not
// collide.
func Equal(a, b *Value, namer *smt.Namer) smt.Term {
	if (a.Kind == KindEnum || a.Kind == KindSerEnum) && b.Kind != a.Kind {
		return namer.FreshBool("enum_eq")
	}
	if (b.Kind == KindEnum || b.Kind == KindSerEnum) && b.Kind != a.Kind {
		return namer.FreshBool("enum_eq")
	}

	switch a.Kind {
	case KindHeader:
		bothInvalid := smt.BoolBinary(smt.BoolAnd, smt.Not(a.Valid), smt.Not(b.Valid))
		fieldsEq := fieldwiseEqual(a, b, namer)
		bothValid := smt.BoolBinary(smt.BoolAnd, a.Valid, b.Valid)
		bothValidEq := smt.BoolBinary(smt.BoolAnd, bothValid, fieldsEq)
		return smt.BoolBinary(smt.BoolOr, bothInvalid, bothValidEq)
	case KindStruct:
		return fieldwiseEqual(a, b, namer)
	case KindHeaderUnion:
		return fieldwiseEqual(a, b, namer)
	case KindHeaderStack:
		return pointwiseEqual(a, b, namer)
	case KindBV, KindEnum, KindSerEnum, KindUndefined:
		aa, bb := AlignWidths(a, b)
		return smt.Eq(aa.Term, bb.Term)
	case KindBool:
		return smt.Eq(a.Term, b.Term)
	}
	return smt.BoolVal(false)
}

func fieldwiseEqual(a, b *Value, namer *smt.Namer) smt.Term {
	if len(a.Fields) == 0 {
		return smt.BoolVal(true)
	}
	acc := Equal(a.Vals[a.Fields[0]], b.Vals[a.Fields[0]], namer)
	for _, name := range a.Fields[1:] {
		eq := Equal(a.Vals[name], b.Vals[name], namer)
		acc = smt.BoolBinary(smt.BoolAnd, acc, eq)
	}
	return acc
}

func pointwiseEqual(a, b *Value, namer *smt.Namer) smt.Term {
	if len(a.Stack) != len(b.Stack) {
		return smt.BoolVal(false)
	}
	if len(a.Stack) == 0 {
		return smt.BoolVal(true)
	}
	acc := Equal(a.Stack[0], b.Stack[0], namer)
	for i := 1; i < len(a.Stack); i++ {
		acc = smt.BoolBinary(smt.BoolAnd, acc, Equal(a.Stack[i], b.Stack[i], namer))
	}
	return acc
}
