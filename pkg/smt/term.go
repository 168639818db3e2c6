// Package smt models the closed-form logical formulas the interpreter builds
// and hands to a backing solver. A Term is plain Go data — a formula tree —
// so that more than one backend can consume it: the production backend lowers
// it to a live Z3 context, and the naive backend (naive.go) evaluates small
// bit-vector formulas directly for tests that must not depend on cgo.
package smt

import "fmt"

// Kind discriminates the node types a Term can be.
type Kind int

const (
	KindBVVal Kind = iota
	KindBVConst
	KindBoolVal
	KindBoolConst
	KindBVUnary
	KindBVBinary
	KindBoolBinary
	KindNot
	KindCmp
	KindExtract
	KindConcat
	KindIte
	KindCtor   // algebraic-datatype constructor application
	KindAccess // field accessor on a datatype term
	KindEq
	KindForAll
)

// BVOp is a bit-vector arithmetic/bitwise operator.
type BVOp int

const (
	BVAdd BVOp = iota
	BVSub
	BVMul
	BVUDiv
	BVURem
	BVAnd
	BVOr
	BVXor
	BVShl
	BVLShr
	BVNeg
	BVNot
)

// CmpOp is a comparison operator; all comparisons here are unsigned unless
// the IR explicitly requests a signed variant (see ir.BinaryOp.Signed).
type CmpOp int

const (
	CmpULT CmpOp = iota
	CmpULE
	CmpUGE
	CmpUGT
	CmpSLT
	CmpSLE
	CmpSGE
	CmpSGT
)

// BoolOp is a boolean connective.
type BoolOp int

const (
	BoolAnd BoolOp = iota
	BoolOr
)

// Sort is the type of a Term: a bit-vector of some width, Bool, or a named
// algebraic datatype sort (see Registry).
type Sort struct {
	Width uint   // valid when Kind == SortBV
	Kind  SortKind
	Name  string // datatype sort name, empty for BV/Bool
}

type SortKind int

const (
	SortBV SortKind = iota
	SortBool
	SortDatatype
)

func BV(w uint) Sort      { return Sort{Kind: SortBV, Width: w} }
func BoolSort() Sort      { return Sort{Kind: SortBool} }
func Datatype(n string) Sort { return Sort{Kind: SortDatatype, Name: n} }

func (s Sort) String() string {
	switch s.Kind {
	case SortBV:
		return fmt.Sprintf("(_ BitVec %d)", s.Width)
	case SortBool:
		return "Bool"
	default:
		return s.Name
	}
}

func (s Sort) Equal(o Sort) bool {
	return s.Kind == o.Kind && s.Width == o.Width && s.Name == o.Name
}

// Term is an immutable formula node. The zero value is not valid; use the
// constructor functions below.
type Term struct {
	Kind Kind
	Sort Sort

	BVVal  uint64 // KindBVVal
	Name   string // KindBVConst/KindBoolConst/KindCtor(name)/KindAccess(field)
	BVOp   BVOp
	CmpOp  CmpOp
	BoolOp BoolOp

	Args []Term // operands, in a kind-specific order (see constructors)
	Hi   int    // KindExtract
	Lo   int    // KindExtract
}

func BVVal(v uint64, w uint) Term {
	if w < 64 {
		v &= (uint64(1) << w) - 1
	}
	return Term{Kind: KindBVVal, Sort: BV(w), BVVal: v}
}

func BVConst(name string, w uint) Term {
	return Term{Kind: KindBVConst, Sort: BV(w), Name: name}
}

func BoolVal(b bool) Term {
	v := uint64(0)
	if b {
		v = 1
	}
	return Term{Kind: KindBoolVal, Sort: BoolSort(), BVVal: v}
}

func BoolConst(name string) Term {
	return Term{Kind: KindBoolConst, Sort: BoolSort(), Name: name}
}

func BVBinary(op BVOp, lhs, rhs Term) Term {
	return Term{Kind: KindBVBinary, Sort: lhs.Sort, BVOp: op, Args: []Term{lhs, rhs}}
}

func BVUnary(op BVOp, v Term) Term {
	return Term{Kind: KindBVUnary, Sort: v.Sort, BVOp: op, Args: []Term{v}}
}

func BoolBinary(op BoolOp, lhs, rhs Term) Term {
	return Term{Kind: KindBoolBinary, Sort: BoolSort(), BoolOp: op, Args: []Term{lhs, rhs}}
}

func Not(v Term) Term {
	return Term{Kind: KindNot, Sort: BoolSort(), Args: []Term{v}}
}

func Cmp(op CmpOp, lhs, rhs Term) Term {
	return Term{Kind: KindCmp, Sort: BoolSort(), CmpOp: op, Args: []Term{lhs, rhs}}
}

func Eq(lhs, rhs Term) Term {
	return Term{Kind: KindEq, Sort: BoolSort(), Args: []Term{lhs, rhs}}
}

// Extract returns bits [hi:lo] of v (hi >= lo, both inclusive), width hi-lo+1.
func Extract(hi, lo uint, v Term) Term {
	return Term{Kind: KindExtract, Sort: BV(hi - lo + 1), Args: []Term{v}, Hi: int(hi), Lo: int(lo)}
}

// Concat places lhs in the high bits and rhs in the low bits.
func Concat(lhs, rhs Term) Term {
	return Term{Kind: KindConcat, Sort: BV(lhs.Sort.Width + rhs.Sort.Width), Args: []Term{lhs, rhs}}
}

// Ite builds a mux; the result sort is taken from `then` (the spec requires
// then/else to already agree in width after the caller's cast).
func Ite(cond, then, els Term) Term {
	return Term{Kind: KindIte, Sort: then.Sort, Args: []Term{cond, then, els}}
}

// Ctor applies a registered datatype constructor to its ordered field terms.
func Ctor(sortName string, fields []Term) Term {
	return Term{Kind: KindCtor, Sort: Datatype(sortName), Name: sortName, Args: fields}
}

// Access projects field `idx` (named `field`, sort `fieldSort`) out of a
// datatype term.
func Access(v Term, field string, idx int, fieldSort Sort) Term {
	return Term{Kind: KindAccess, Sort: fieldSort, Name: field, Args: []Term{v}, Hi: idx}
}

// ForAll universally quantifies `vars` over `body` (used by the
// undefined-rewrite pass in pkg/driver).
func ForAll(vars []Term, body Term) Term {
	args := append([]Term{body}, vars...)
	return Term{Kind: KindForAll, Sort: BoolSort(), Args: args}
}

// NEq is sugar for Not(Eq(a, b)).
func NEq(a, b Term) Term { return Not(Eq(a, b)) }
