// Package eval implements the expression evaluator (§4.3): recursive
// reduction of IR expressions to values, including arithmetic, bitwise,
// comparisons, slicing, concatenation, casting, multiplexing and
// method-call expressions.
package eval

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/p4bughunt/p4-tv/pkg/ir"
	"github.com/p4bughunt/p4-tv/pkg/smt"
	"github.com/p4bughunt/p4-tv/pkg/symstate"
	"github.com/p4bughunt/p4-tv/pkg/value"
)

// Invoker installs a user-defined action/control body onto the
// continuation chain with a fresh parameter frame (§4.3: "callables...
// install their body onto the continuation chain"). pkg/exec implements
// this; pkg/eval only needs the capability, not the executor itself, to
// avoid a dependency cycle.
type Invoker interface {
	Invoke(callee *value.Value, method string, argNodes []ir.Node, s *symstate.State) (*value.Value, error)
}

type Evaluator struct {
	Invoker Invoker
}

func New(inv Invoker) *Evaluator { return &Evaluator{Invoker: inv} }

// Eval reduces an IR expression node to a value against the given state.
func (e *Evaluator) Eval(n ir.Node, s *symstate.State) (*value.Value, error) {
	switch node := n.(type) {
	case *ir.Literal:
		if node.Width == 0 {
			return value.Int(int64(node.Value)), nil
		}
		return value.BV(smt.BVVal(node.Value, node.Width), node.Width), nil

	case *ir.Member:
		if node.LVal == nil {
			// A bare name reference: the IR table's Member node doubles
			// as a plain variable reference when lval is absent.
			v, ok := s.Resolve(node.Member)
			if !ok {
				return nil, errors.Errorf("eval: undeclared name %q", node.Member)
			}
			return v, nil
		}
		base, err := e.Eval(node.LVal, s)
		if err != nil {
			return nil, err
		}
		return e.member(base, node.Member)

	case *ir.Slice:
		v, err := e.Eval(node.Value, s)
		if err != nil {
			return nil, err
		}
		return e.slice(v, node.Hi, node.Lo)

	case *ir.Cast:
		v, err := e.Eval(node.Operand, s)
		if err != nil {
			return nil, err
		}
		return value.CoerceBV(v, node.TargetWidth), nil

	case *ir.Concat:
		l, err := e.Eval(node.Lhs, s)
		if err != nil {
			return nil, err
		}
		r, err := e.Eval(node.Rhs, s)
		if err != nil {
			return nil, err
		}
		return value.BV(smt.Concat(l.Term, r.Term), l.Width+r.Width), nil

	case *ir.Mux:
		cond, err := e.Eval(node.Cond, s)
		if err != nil {
			return nil, err
		}
		then, err := e.Eval(node.Then, s)
		if err != nil {
			return nil, err
		}
		els, err := e.Eval(node.Else, s)
		if err != nil {
			return nil, err
		}
		return e.mux(cond, then, els)

	case *ir.UnaryOp:
		v, err := e.Eval(node.Operand, s)
		if err != nil {
			return nil, err
		}
		return e.unary(node.Op, v)

	case *ir.BinaryOp:
		l, err := e.Eval(node.Lhs, s)
		if err != nil {
			return nil, err
		}
		r, err := e.Eval(node.Rhs, s)
		if err != nil {
			return nil, err
		}
		return e.binary(node.Op, l, r, node.Signed)

	case *ir.MethodCall:
		return e.methodCall(node, s)
	}
	return nil, errors.Errorf("eval: unhandled node kind %T", n)
}

func (e *Evaluator) member(base *value.Value, name string) (*value.Value, error) {
	if base.Vals != nil {
		if f, ok := base.Vals[name]; ok {
			return f, nil
		}
	}
	return nil, errors.Errorf("eval: no member %q on value", name)
}

func (e *Evaluator) slice(v *value.Value, hi, lo int) (*value.Value, error) {
	w := uint(hi - lo + 1)
	return value.BV(smt.Extract(uint(hi), uint(lo), v.Term), w), nil
}

func (e *Evaluator) mux(cond, then, els *value.Value) (*value.Value, error) {
	condB := value.CoerceBool(cond)
	then, els = value.AlignWidths(then, els)
	return value.BV(smt.Ite(condB.Term, then.Term, els.Term), then.Width), nil
}

func (e *Evaluator) unary(op ir.UnOp, v *value.Value) (*value.Value, error) {
	switch op {
	case ir.OpNot:
		b := value.CoerceBool(v)
		return value.Bool(smt.Not(b.Term)), nil
	case ir.OpCpl:
		return value.BV(smt.BVUnary(smt.BVNot, v.Term), v.Width), nil
	case ir.OpNeg:
		return value.BV(smt.BVUnary(smt.BVNeg, v.Term), v.Width), nil
	case ir.OpAbs:
		signBit := smt.Extract(v.Width-1, v.Width-1, v.Term)
		neg := smt.BVUnary(smt.BVNeg, v.Term)
		isNeg := smt.Eq(signBit, smt.BVVal(1, 1))
		return value.BV(smt.Ite(isNeg, neg, v.Term), v.Width), nil
	}
	return nil, fmt.Errorf("eval: unknown unary op %d", op)
}

func (e *Evaluator) binary(op ir.BinOp, l, r *value.Value, signed bool) (*value.Value, error) {
	switch op {
	case ir.OpLAnd:
		return value.Bool(smt.BoolBinary(smt.BoolAnd, value.CoerceBool(l).Term, value.CoerceBool(r).Term)), nil
	case ir.OpLOr:
		return value.Bool(smt.BoolBinary(smt.BoolOr, value.CoerceBool(l).Term, value.CoerceBool(r).Term)), nil
	}

	l, r = value.AlignWidths(l, r)
	w := l.Width

	switch op {
	case ir.OpAdd:
		return value.BV(smt.BVBinary(smt.BVAdd, l.Term, r.Term), w), nil
	case ir.OpSub:
		return value.BV(smt.BVBinary(smt.BVSub, l.Term, r.Term), w), nil
	case ir.OpMul:
		return value.BV(smt.BVBinary(smt.BVMul, l.Term, r.Term), w), nil
	case ir.OpDiv:
		return value.BV(smt.BVBinary(smt.BVUDiv, l.Term, r.Term), w), nil
	case ir.OpMod:
		return value.BV(smt.BVBinary(smt.BVURem, l.Term, r.Term), w), nil
	case ir.OpAnd:
		return value.BV(smt.BVBinary(smt.BVAnd, l.Term, r.Term), w), nil
	case ir.OpOr:
		return value.BV(smt.BVBinary(smt.BVOr, l.Term, r.Term), w), nil
	case ir.OpXor:
		return value.BV(smt.BVBinary(smt.BVXor, l.Term, r.Term), w), nil
	case ir.OpShl:
		return value.BV(smt.BVBinary(smt.BVShl, l.Term, r.Term), w), nil
	case ir.OpShr:
		return value.BV(smt.BVBinary(smt.BVLShr, l.Term, r.Term), w), nil
	case ir.OpAddSat:
		return saturate(l, r, w, true), nil
	case ir.OpSubSat:
		return saturate(l, r, w, false), nil
	case ir.OpEq:
		return value.Bool(smt.Eq(l.Term, r.Term)), nil
	case ir.OpNe:
		return value.Bool(smt.Not(smt.Eq(l.Term, r.Term))), nil
	case ir.OpLt, ir.OpLe, ir.OpGe, ir.OpGt:
		return value.Bool(smt.Cmp(cmpOp(op, signed), l.Term, r.Term)), nil
	}
	return nil, fmt.Errorf("eval: unknown binary op %d", op)
}

func cmpOp(op ir.BinOp, signed bool) smt.CmpOp {
	switch op {
	case ir.OpLt:
		if signed {
			return smt.CmpSLT
		}
		return smt.CmpULT
	case ir.OpLe:
		if signed {
			return smt.CmpSLE
		}
		return smt.CmpULE
	case ir.OpGe:
		if signed {
			return smt.CmpSGE
		}
		return smt.CmpUGE
	default: // OpGt
		if signed {
			return smt.CmpSGT
		}
		return smt.CmpUGT
	}
}

// saturate implements genuine saturating add/sub (DESIGN.md Open
// Question decision), clamping to the bit-vector's min/max rather than
// the original's plain-add-with-unused-assertion behaviour.
func saturate(l, r *value.Value, w uint, add bool) *value.Value {
	var raw smt.Term
	var overflow smt.Term
	maxVal := smt.BVVal((uint64(1)<<w)-1, w)
	if add {
		raw = smt.BVBinary(smt.BVAdd, l.Term, r.Term)
		overflow = smt.Cmp(smt.CmpULT, raw, l.Term) // wrapped past max
		return value.BV(smt.Ite(overflow, maxVal, raw), w)
	}
	raw = smt.BVBinary(smt.BVSub, l.Term, r.Term)
	overflow = smt.Cmp(smt.CmpULT, l.Term, r.Term) // would go negative
	return value.BV(smt.Ite(overflow, smt.BVVal(0, w), raw), w)
}

// methodCall dispatches built-ins directly; anything else is handed to
// the Invoker (user-defined action/control calls, §4.3).
func (e *Evaluator) methodCall(node *ir.MethodCall, s *symstate.State) (*value.Value, error) {
	callee, err := e.Eval(node.Callee, s)
	if err != nil {
		return nil, err
	}

	switch node.Method {
	case "isValid":
		return callee.IsValid(), nil
	case "setValid":
		callee.Activate(s.Namer)
		return nil, nil
	case "setInvalid":
		callee.Deactivate()
		return nil, nil
	case "next":
		h := callee.Next()
		if h == nil {
			return nil, errors.Errorf("eval: next() on empty/zero-size stack")
		}
		return h, nil
	case "last":
		h := callee.Last()
		if h == nil {
			return nil, errors.Errorf("eval: last() on empty/zero-size stack")
		}
		return h, nil
	case "push_front", "pop_front":
		n, err := e.Eval(node.Args[0], s)
		if err != nil {
			return nil, err
		}
		if node.Method == "push_front" {
			callee.PushFront(int(n.IntVal), s.Namer)
		} else {
			callee.PopFront(int(n.IntVal))
		}
		return nil, nil
	}

	if e.Invoker == nil {
		return nil, errors.Errorf("eval: no invoker configured for method %q", node.Method)
	}
	return e.Invoker.Invoke(callee, node.Method, node.Args, s)
}
