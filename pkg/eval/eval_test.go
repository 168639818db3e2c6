package eval

import (
	"testing"

	"github.com/p4bughunt/p4-tv/pkg/ir"
	"github.com/p4bughunt/p4-tv/pkg/smt"
	"github.com/p4bughunt/p4-tv/pkg/symstate"
	"github.com/p4bughunt/p4-tv/pkg/value"
)

func newTestState() *symstate.State {
	return symstate.New(smt.NewNamer(), value.NewRegistry())
}

func TestEvalLiteral(t *testing.T) {
	e := New(nil)
	v, err := e.Eval(&ir.Literal{Width: 8, Value: 5}, newTestState())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.Kind != value.KindBV || v.Term.BVVal != 5 {
		t.Fatalf("expected BV(5,8), got %+v", v)
	}
}

func TestEvalBareMemberResolvesFromEnv(t *testing.T) {
	e := New(nil)
	s := newTestState()
	s.Assign("x", value.BV(smt.BVVal(9, 8), 8))

	v, err := e.Eval(&ir.Member{Member: "x"}, s)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.Term.BVVal != 9 {
		t.Fatalf("expected x to resolve to 9, got %+v", v)
	}
}

func TestEvalBareMemberUndeclaredErrors(t *testing.T) {
	e := New(nil)
	if _, err := e.Eval(&ir.Member{Member: "nope"}, newTestState()); err == nil {
		t.Fatalf("expected an error for an undeclared name")
	}
}

func TestEvalBinaryAdd(t *testing.T) {
	e := New(nil)
	n := &ir.BinaryOp{
		Op:  ir.OpAdd,
		Lhs: &ir.Literal{Width: 8, Value: 2},
		Rhs: &ir.Literal{Width: 8, Value: 3},
	}
	v, err := e.Eval(n, newTestState())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	folded := smt.Simplify(v.Term)
	if folded.Kind != smt.KindBVVal || folded.BVVal != 5 {
		t.Fatalf("expected 2+3=5, got %+v", folded)
	}
}

func TestEvalBinarySignedLessThan(t *testing.T) {
	e := New(nil)
	n := &ir.BinaryOp{
		Op:     ir.OpLt,
		Signed: true,
		Lhs:    &ir.Literal{Width: 8, Value: 0xFF}, // -1 signed
		Rhs:    &ir.Literal{Width: 8, Value: 1},
	}
	v, err := e.Eval(n, newTestState())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.Term.CmpOp != smt.CmpSLT {
		t.Fatalf("expected a signed less-than comparison, got %+v", v.Term)
	}
}

func TestEvalCastWidens(t *testing.T) {
	e := New(nil)
	n := &ir.Cast{Operand: &ir.Literal{Width: 4, Value: 0xF}, TargetWidth: 8}
	v, err := e.Eval(n, newTestState())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.Width != 8 {
		t.Fatalf("expected cast to widen to 8 bits, got %d", v.Width)
	}
}

func TestEvalConcatCombinesWidths(t *testing.T) {
	e := New(nil)
	n := &ir.Concat{
		Lhs: &ir.Literal{Width: 4, Value: 0xA},
		Rhs: &ir.Literal{Width: 4, Value: 0xB},
	}
	v, err := e.Eval(n, newTestState())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.Width != 8 {
		t.Fatalf("expected an 8-bit result, got %d", v.Width)
	}
	folded := smt.Simplify(v.Term)
	if folded.Kind != smt.KindBVVal || folded.BVVal != 0xAB {
		t.Fatalf("expected 0xab, got %+v", folded)
	}
}

func TestEvalSliceExtractsBits(t *testing.T) {
	e := New(nil)
	n := &ir.Slice{Value: &ir.Literal{Width: 8, Value: 0xAB}, Hi: 7, Lo: 4}
	v, err := e.Eval(n, newTestState())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.Width != 4 {
		t.Fatalf("expected a 4-bit slice, got %d", v.Width)
	}
	folded := smt.Simplify(v.Term)
	if folded.Kind != smt.KindBVVal || folded.BVVal != 0xA {
		t.Fatalf("expected high nibble 0xa, got %+v", folded)
	}
}

func TestEvalMuxPicksBranch(t *testing.T) {
	e := New(nil)
	n := &ir.Mux{
		Cond: &ir.Literal{Width: 1, Value: 1},
		Then: &ir.Literal{Width: 8, Value: 1},
		Else: &ir.Literal{Width: 8, Value: 2},
	}
	v, err := e.Eval(n, newTestState())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	folded := smt.Simplify(v.Term)
	if folded.Kind != smt.KindBVVal || folded.BVVal != 1 {
		t.Fatalf("expected the then-branch to be selected, got %+v", folded)
	}
}

func TestEvalSaturatingAddClampsAtMax(t *testing.T) {
	e := New(nil)
	n := &ir.BinaryOp{
		Op:  ir.OpAddSat,
		Lhs: &ir.Literal{Width: 4, Value: 0xF},
		Rhs: &ir.Literal{Width: 4, Value: 0x5},
	}
	v, err := e.Eval(n, newTestState())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	folded := smt.Simplify(v.Term)
	if folded.Kind != smt.KindBVVal || folded.BVVal != 0xF {
		t.Fatalf("expected saturating add to clamp at 0xf, got %+v", folded)
	}
}

func TestEvalSaturatingSubClampsAtZero(t *testing.T) {
	e := New(nil)
	n := &ir.BinaryOp{
		Op:  ir.OpSubSat,
		Lhs: &ir.Literal{Width: 4, Value: 0x1},
		Rhs: &ir.Literal{Width: 4, Value: 0x5},
	}
	v, err := e.Eval(n, newTestState())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	folded := smt.Simplify(v.Term)
	if folded.Kind != smt.KindBVVal || folded.BVVal != 0 {
		t.Fatalf("expected saturating sub to clamp at 0, got %+v", folded)
	}
}

func TestEvalMethodCallIsValidWithoutInvoker(t *testing.T) {
	e := New(nil)
	s := newTestState()
	hdr := &value.Value{Kind: value.KindHeader, Valid: smt.BoolVal(true)}
	s.Env["hdr"] = hdr

	v, err := e.Eval(&ir.MethodCall{Callee: &ir.Member{Member: "hdr"}, Method: "isValid"}, s)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.Kind != value.KindBool {
		t.Fatalf("expected a bool result from isValid(), got %+v", v)
	}
}

func TestEvalMethodCallUnknownMethodWithoutInvokerErrors(t *testing.T) {
	e := New(nil)
	s := newTestState()
	s.Env["obj"] = &value.Value{Kind: value.KindExtern}

	_, err := e.Eval(&ir.MethodCall{Callee: &ir.Member{Member: "obj"}, Method: "frobnicate"}, s)
	if err == nil {
		t.Fatalf("expected an error for an unresolvable method with no invoker")
	}
}
