package smt

import (
	"fmt"

	"github.com/aclements/go-z3/z3"
)

// Z3Engine lowers Terms to a live Z3 context and runs the
// "simplify ; smt" tactic the driver relies on (spec §4.5). It is the only
// file in this package that talks to the real solver; everything above this
// line is backend-agnostic so NaiveEngine can stand in for tests.
type Z3Engine struct {
	ctx *z3.Context
	reg *Registry

	dtSorts map[string]*z3.Sort
}

// NewZ3Engine builds a context declaring every datatype sort seen so far in
// reg. Declare additional sorts on reg before calling this, since Z3
// datatypes cannot be extended after creation.
func NewZ3Engine(reg *Registry) (*Z3Engine, error) {
	cfg := z3.NewConfig()
	ctx := z3.NewContext(cfg)
	e := &Z3Engine{ctx: ctx, reg: reg, dtSorts: map[string]*z3.Sort{}}
	for _, d := range reg.Sorts() {
		if err := e.declareDatatype(d); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Z3Engine) declareDatatype(d DatatypeSort) error {
	fieldSorts := make([]z3.Sort, len(d.Fields))
	for i, f := range d.Fields {
		s, err := e.lowerSort(f.Sort)
		if err != nil {
			return fmt.Errorf("smt: declare %s.%s: %w", d.Name, f.Name, err)
		}
		fieldSorts[i] = s
	}
	ctor := e.ctx.NewConstructor("mk_"+d.Name, "is_mk_"+d.Name, fieldNames(d), fieldSorts)
	sort := e.ctx.DatatypeSort(d.Name, []*z3.Constructor{ctor})
	e.dtSorts[d.Name] = sort
	return nil
}

func fieldNames(d DatatypeSort) []string {
	out := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		out[i] = f.Name
	}
	return out
}

func (e *Z3Engine) lowerSort(s Sort) (z3.Sort, error) {
	switch s.Kind {
	case SortBV:
		return e.ctx.BVSort(int(s.Width)), nil
	case SortBool:
		return e.ctx.BoolSort(), nil
	case SortDatatype:
		if dt, ok := e.dtSorts[s.Name]; ok {
			return *dt, nil
		}
		return z3.Sort{}, fmt.Errorf("smt: undeclared datatype sort %q", s.Name)
	}
	return z3.Sort{}, fmt.Errorf("smt: unknown sort kind %d", s.Kind)
}

// Check implements Engine. The equivalence driver always hands us a boolean
// term (the negated-equivalence query, possibly ForAll-quantified by the
// undefined-rewrite pass); Check asserts Simplify(t) and runs
// "simplify ; smt".
func (e *Z3Engine) Check(t Term) (Sat, Model, error) {
	t = Simplify(t)
	ast, err := e.lower(t, map[string]z3.AST{})
	if err != nil {
		return Unknown, nil, err
	}

	solver := e.ctx.NewSolver()
	tactic := e.ctx.Tactic("simplify").And(e.ctx.Tactic("smt"))
	solver = tactic.Solver()
	solver.Assert(ast.(z3.Bool))

	switch solver.Check() {
	case z3.Sat:
		m := solver.Model()
		defer m.Close()
		return Sat_, renderModel(m), nil
	case z3.Unsat:
		return Unsat, nil, nil
	default:
		return Unknown, nil, nil
	}
}

func renderModel(m *z3.Model) Model {
	out := Model{}
	for _, decl := range m.Decls() {
		out[decl.Name()] = m.Eval(decl, true).String()
	}
	return out
}

func (e *Z3Engine) Close() error {
	e.ctx.Close()
	return nil
}

// lower recursively translates a Term into the matching z3 AST, threading a
// name->AST cache for bound ForAll variables.
func (e *Z3Engine) lower(t Term, env map[string]z3.AST) (z3.AST, error) {
	switch t.Kind {
	case KindBVVal:
		return e.ctx.FromUint(t.BVVal, e.ctx.BVSort(int(t.Sort.Width))), nil
	case KindBoolVal:
		return e.ctx.FromBool(t.BVVal != 0), nil
	case KindBVConst:
		if a, ok := env[t.Name]; ok {
			return a, nil
		}
		return e.ctx.Const(t.Name, e.ctx.BVSort(int(t.Sort.Width))), nil
	case KindBoolConst:
		if a, ok := env[t.Name]; ok {
			return a, nil
		}
		return e.ctx.Const(t.Name, e.ctx.BoolSort()), nil
	case KindNot:
		a, err := e.lower(t.Args[0], env)
		if err != nil {
			return nil, err
		}
		return a.(z3.Bool).Not(), nil
	case KindBVUnary:
		a, err := e.lower(t.Args[0], env)
		if err != nil {
			return nil, err
		}
		bv := a.(z3.BV)
		if t.BVOp == BVNeg {
			return bv.Neg(), nil
		}
		return bv.Not(), nil
	case KindBVBinary:
		l, err := e.lower(t.Args[0], env)
		if err != nil {
			return nil, err
		}
		r, err := e.lower(t.Args[1], env)
		if err != nil {
			return nil, err
		}
		return lowerBVBinary(t.BVOp, l.(z3.BV), r.(z3.BV)), nil
	case KindBoolBinary:
		l, err := e.lower(t.Args[0], env)
		if err != nil {
			return nil, err
		}
		r, err := e.lower(t.Args[1], env)
		if err != nil {
			return nil, err
		}
		if t.BoolOp == BoolAnd {
			return l.(z3.Bool).And(r.(z3.Bool)), nil
		}
		return l.(z3.Bool).Or(r.(z3.Bool)), nil
	case KindCmp:
		l, err := e.lower(t.Args[0], env)
		if err != nil {
			return nil, err
		}
		r, err := e.lower(t.Args[1], env)
		if err != nil {
			return nil, err
		}
		return lowerCmp(t.CmpOp, l.(z3.BV), r.(z3.BV)), nil
	case KindEq:
		l, err := e.lower(t.Args[0], env)
		if err != nil {
			return nil, err
		}
		r, err := e.lower(t.Args[1], env)
		if err != nil {
			return nil, err
		}
		return z3Eq(l, r), nil
	case KindExtract:
		a, err := e.lower(t.Args[0], env)
		if err != nil {
			return nil, err
		}
		return a.(z3.BV).Extract(t.Hi, t.Lo), nil
	case KindConcat:
		l, err := e.lower(t.Args[0], env)
		if err != nil {
			return nil, err
		}
		r, err := e.lower(t.Args[1], env)
		if err != nil {
			return nil, err
		}
		return l.(z3.BV).Concat(r.(z3.BV)), nil
	case KindIte:
		c, err := e.lower(t.Args[0], env)
		if err != nil {
			return nil, err
		}
		then, err := e.lower(t.Args[1], env)
		if err != nil {
			return nil, err
		}
		els, err := e.lower(t.Args[2], env)
		if err != nil {
			return nil, err
		}
		return c.(z3.Bool).IfThenElse(then, els), nil
	case KindCtor:
		sort, ok := e.dtSorts[t.Name]
		if !ok {
			return nil, fmt.Errorf("smt: undeclared datatype %q", t.Name)
		}
		args := make([]z3.AST, len(t.Args))
		for i, f := range t.Args {
			a, err := e.lower(f, env)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return sort.Constructor(0).Apply(args...), nil
	case KindAccess:
		v, err := e.lower(t.Args[0], env)
		if err != nil {
			return nil, err
		}
		sort, ok := e.dtSorts[t.Args[0].Sort.Name]
		if !ok {
			return nil, fmt.Errorf("smt: undeclared datatype %q", t.Args[0].Sort.Name)
		}
		return sort.Constructor(0).Accessor(t.Hi).Apply(v), nil
	case KindForAll:
		vars := make([]z3.AST, len(t.Args)-1)
		inner := map[string]z3.AST{}
		for k, v := range env {
			inner[k] = v
		}
		for i, v := range t.Args[1:] {
			s, err := e.lowerSort(v.Sort)
			if err != nil {
				return nil, err
			}
			bound := e.ctx.Const(v.Name, s)
			vars[i] = bound
			inner[v.Name] = bound
		}
		body, err := e.lower(t.Args[0], inner)
		if err != nil {
			return nil, err
		}
		return e.ctx.ForAll(vars, body.(z3.Bool)), nil
	}
	return nil, fmt.Errorf("smt: unhandled term kind %d", t.Kind)
}

func lowerBVBinary(op BVOp, l, r z3.BV) z3.AST {
	switch op {
	case BVAdd:
		return l.Add(r)
	case BVSub:
		return l.Sub(r)
	case BVMul:
		return l.Mul(r)
	case BVUDiv:
		return l.UDiv(r)
	case BVURem:
		return l.URem(r)
	case BVAnd:
		return l.And(r)
	case BVOr:
		return l.Or(r)
	case BVXor:
		return l.Xor(r)
	case BVShl:
		return l.Lsh(r)
	case BVLShr:
		return l.URsh(r)
	}
	return l
}

func lowerCmp(op CmpOp, l, r z3.BV) z3.AST {
	switch op {
	case CmpULT:
		return l.ULT(r)
	case CmpULE:
		return l.ULE(r)
	case CmpUGE:
		return l.UGE(r)
	case CmpUGT:
		return l.UGT(r)
	case CmpSLT:
		return l.SLT(r)
	case CmpSLE:
		return l.SLE(r)
	case CmpSGE:
		return l.SGE(r)
	default:
		return l.SGT(r)
	}
}

func z3Eq(l, r z3.AST) z3.Bool {
	switch lv := l.(type) {
	case z3.BV:
		return lv.Eq(r.(z3.BV))
	case z3.Bool:
		return lv.Eq(r.(z3.Bool))
	default:
		return lv.(interface{ Eq(z3.AST) z3.Bool }).Eq(r)
	}
}
