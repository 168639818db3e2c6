// Package value implements the sum-typed value model (§3, §4.1): the
// tagged union of bit-vector, arbitrary-precision integer, boolean,
// algebraic structured, enum, serializable-enum, extern and "undefined"
// values, plus the coercion rules assignment and comparison rely on.
//
// The original groups these under a class hierarchy (P4ComplexType and
// its subclasses); per the Design Notes this is replaced here with one
// tagged Value struct and dispatch by Kind, as recommended.
package value

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/p4bughunt/p4-tv/pkg/smt"
)

type Kind int

const (
	KindBV Kind = iota
	KindInt
	KindBool
	KindStruct
	KindHeader
	KindHeaderStack
	KindHeaderUnion
	KindEnum
	KindSerEnum
	KindExtern
	KindUndefined
)

// Value is the tagged union. Only the fields relevant to Kind are
// meaningful; see the per-kind constructors below.
type Value struct {
	Kind Kind

	// KindBV / KindEnum / KindSerEnum / KindUndefined
	Term  smt.Term
	Width uint

	// KindInt
	IntVal int64

	// KindStruct / KindHeader / KindHeaderUnion: ordered field names and
	// values, plus the registered sort name.
	SortName string
	Fields   []string
	Vals     map[string]*Value

	// Dirty tracks, by index into Fields, which scalar fields have been
	// explicitly written (list-init or dotted assignment) since this
	// value was last built fresh by NewStruct or re-baselined by
	// Activate. Activate consults it to avoid clobbering a field the
	// program just set right before calling setValid().
	Dirty *bitset.BitSet

	// KindHeader only: validity flag.
	Valid smt.Term

	// KindHeaderStack only.
	Stack     []*Value // element type: KindHeader
	NextIndex int
	Size      int

	// KindEnum / KindSerEnum: the member this value currently names, "" if
	// the value is symbolic/foreign (see Equal).
	EnumMember string

	// KindExtern: opaque instance identity, used only to name fresh
	// out/inout constants per call.
	ExternName string
}

func BV(t smt.Term, w uint) *Value { return &Value{Kind: KindBV, Term: t, Width: w} }
func Int(v int64) *Value           { return &Value{Kind: KindInt, IntVal: v} }
func Bool(t smt.Term) *Value       { return &Value{Kind: KindBool, Term: t} }

// Undefined produces the nondeterministic sentinel (§3, §GLOSSARY
// "Undefined read"): a bit-vector constant literally named "undefined" of
// the given width, later substituted by the driver's undefined-rewrite
// pass (§4.5) when -u/--allow_undefined is set.
func Undefined(w uint) *Value {
	return &Value{Kind: KindUndefined, Width: w, Term: smt.BVConst("undefined", w)}
}

// SolverTerm returns the Value's solver-facing term, building an algebraic
// datatype Ctor for structured kinds. Use this whenever a value crosses
// into pkg/eval/pkg/exec output or is compared against another value.
func (v *Value) SolverTerm() smt.Term {
	switch v.Kind {
	case KindBV, KindEnum, KindSerEnum, KindUndefined:
		return v.Term
	case KindBool:
		return v.Term
	case KindStruct, KindHeader, KindHeaderUnion:
		return v.ctorTerm()
	case KindHeaderStack:
		args := make([]smt.Term, len(v.Stack))
		for i, h := range v.Stack {
			args[i] = h.SolverTerm()
		}
		return smt.Ctor(v.SortName, args)
	}
	return smt.BVVal(0, v.Width)
}

func (v *Value) ctorTerm() smt.Term {
	args := make([]smt.Term, len(v.Fields))
	for i, f := range v.Fields {
		fv := v.Vals[f]
		if v.Kind == KindHeader {
			args[i] = v.emitField(f, fv)
			continue
		}
		args[i] = fv.SolverTerm()
	}
	return smt.Ctor(v.SortName, args)
}

// emitField implements "Header validity and invalid reads" (§4.1): when
// valid is definitionally false, every field is a fresh constant named
// "invalid" of the field's sort rather than the stored value.
func (v *Value) emitField(name string, fv *Value) smt.Term {
	if v.Valid.Kind == smt.KindBoolVal && v.Valid.BVVal == 0 {
		return invalidConst(fv)
	}
	return fv.SolverTerm()
}

func invalidConst(fv *Value) smt.Term {
	switch fv.Kind {
	case KindBool:
		return smt.BoolConst("invalid")
	default:
		return smt.BVConst("invalid", fv.Width)
	}
}

// DeepCopy implements the "by-value" invariant (§3): assignment is always
// a deep copy, so aliasing of sub-structures is never observable.
func (v *Value) DeepCopy() *Value {
	if v == nil {
		return nil
	}
	cp := *v
	if v.Vals != nil {
		cp.Vals = make(map[string]*Value, len(v.Vals))
		for k, f := range v.Vals {
			cp.Vals[k] = f.DeepCopy()
		}
		cp.Fields = append([]string(nil), v.Fields...)
	}
	if v.Dirty != nil {
		cp.Dirty = v.Dirty.Clone()
	}
	if v.Stack != nil {
		cp.Stack = make([]*Value, len(v.Stack))
		for i, h := range v.Stack {
			cp.Stack[i] = h.DeepCopy()
		}
	}
	return &cp
}
