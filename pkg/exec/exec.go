// Package exec implements the statement executor (§4.4): a
// continuation-style executor for blocks, declarations, assignments,
// branches, switches, action calls, table-apply and early exit. It
// implements control, parser, action and table blocks, plus the
// in/out/inout calling convention.
package exec

import (
	"github.com/pkg/errors"

	"github.com/p4bughunt/p4-tv/pkg/eval"
	"github.com/p4bughunt/p4-tv/pkg/ir"
	"github.com/p4bughunt/p4-tv/pkg/smt"
	"github.com/p4bughunt/p4-tv/pkg/symstate"
	"github.com/p4bughunt/p4-tv/pkg/value"
)

// Executor drives statement execution against a *symstate.State. It also
// implements eval.Invoker, so action/control method calls encountered
// mid-expression route back through here.
type Executor struct {
	Eval    *eval.Evaluator
	Reg     *value.Registry
	Actions map[string]*ir.ActionDef
	Tables  map[string]*ir.TableDef
}

func New(reg *value.Registry) *Executor {
	ex := &Executor{Reg: reg, Actions: map[string]*ir.ActionDef{}, Tables: map[string]*ir.TableDef{}}
	ex.Eval = eval.New(ex)
	return ex
}

// Run drives a control/parser body to completion against s and returns
// the solver term for every name bound in s.Env, i.e. the pipeline's
// observable output (§4.5 "evaluates to a single structured solver term
// representing its outputs").
func (ex *Executor) Run(body ir.Node, s *symstate.State) (map[string]smt.Term, error) {
	if err := ex.execNode(body, s); err != nil {
		return nil, err
	}
	out := make(map[string]smt.Term, len(s.Env))
	for name, v := range s.Env {
		out[name] = v.SolverTerm()
	}
	return out, nil
}

func (ex *Executor) execNode(n ir.Node, s *symstate.State) error {
	switch node := n.(type) {
	case *ir.Block:
		for _, stmt := range node.Stmts {
			if err := ex.execNode(stmt, s); err != nil {
				return err
			}
		}
		return nil

	case *ir.Declare:
		if node.Initial == nil {
			return nil
		}
		v, err := ex.Eval.Eval(node.Initial, s)
		if err != nil {
			return errors.Wrapf(err, "exec: Declare %q", node.Name)
		}
		s.Env[node.Name] = v.DeepCopy()
		return nil

	case *ir.Assign:
		return ex.execAssign(node, s)

	case *ir.SliceAssign:
		name, err := lvalName(node.LVal)
		if err != nil {
			return err
		}
		rv, err := ex.Eval.Eval(node.RVal, s)
		if err != nil {
			return err
		}
		s.SliceAssign(name, rv, node.Hi, node.Lo)
		return nil

	case *ir.If:
		return ex.execIf(node, s)

	case *ir.Switch:
		return ex.execSwitch(node, s)

	case *ir.MethodCall:
		_, err := ex.Eval.Eval(node, s)
		return err

	case nil:
		return nil
	}
	return errors.Errorf("exec: unhandled statement kind %T", n)
}

func lvalName(n ir.Node) (string, error) {
	switch node := n.(type) {
	case *ir.Member:
		if node.LVal == nil {
			return node.Member, nil
		}
		base, err := lvalName(node.LVal)
		if err != nil {
			return "", err
		}
		return base + "." + node.Member, nil
	case *ir.Declare:
		return node.Name, nil
	}
	return "", errors.Errorf("exec: unsupported lvalue shape %T", n)
}

// execAssign implements §4.4 "Assignment": evaluates the RHS, deep-copies
// it, width-adjusts to the LHS's declared sort, and writes it through.
// The IR has no list expression, so this path never calls Value.ListInit;
// every RHS is written through State.Assign.
func (ex *Executor) execAssign(node *ir.Assign, s *symstate.State) error {
	name, err := lvalName(node.LVal)
	if err != nil {
		return err
	}
	rv, err := ex.Eval.Eval(node.RVal, s)
	if err != nil {
		return errors.Wrapf(err, "exec: Assign to %q", name)
	}
	s.Assign(name, rv)
	return nil
}

// execIf implements §4.4 "If": checkpoint twice, run then on snapshot A,
// run else (or no-op) on snapshot B, combine per-field via
// If(cond, A_field, B_field); fields present in only one side are
// carried forward unchanged.
func (ex *Executor) execIf(node *ir.If, s *symstate.State) error {
	cond, err := ex.Eval.Eval(node.Cond, s)
	if err != nil {
		return err
	}
	condB := value.CoerceBool(cond)

	chA := s.Checkpoint()
	s.Restore(chA)
	if err := ex.execNode(node.Then, s); err != nil {
		return err
	}
	envThen := s.Env

	s.Restore(chA)
	if node.Else != nil {
		if err := ex.execNode(node.Else, s); err != nil {
			return err
		}
	}
	envElse := s.Env

	merged := make(map[string]*value.Value, len(envThen))
	for name, av := range envThen {
		bv, ok := envElse[name]
		if !ok {
			merged[name] = av
			continue
		}
		merged[name] = mergeValue(condB.Term, av, bv, s.Namer)
	}
	for name, bv := range envElse {
		if _, ok := merged[name]; !ok {
			merged[name] = bv
		}
	}
	s.Env = merged
	return nil
}

// mergeValue builds If(cond, a, b) per field for structured values, and
// directly for scalars.
func mergeValue(cond smt.Term, a, b *value.Value, namer *smt.Namer) *value.Value {
	switch a.Kind {
	case value.KindHeader, value.KindStruct, value.KindHeaderUnion:
		merged := a.DeepCopy()
		for _, f := range a.Fields {
			merged.Vals[f] = mergeValue(cond, a.Vals[f], b.Vals[f], namer)
		}
		if a.Kind == value.KindHeader {
			merged.Valid = smt.Ite(cond, a.Valid, b.Valid)
		}
		return merged
	case value.KindHeaderStack:
		merged := a.DeepCopy()
		for i := range merged.Stack {
			merged.Stack[i] = mergeValue(cond, a.Stack[i], b.Stack[i], namer)
		}
		return merged
	case value.KindBool:
		return value.Bool(smt.Ite(cond, a.Term, b.Term))
	default:
		return value.BV(smt.Ite(cond, a.Term, b.Term), a.Width)
	}
}

// execSwitch implements §4.4 "Switch on a table": the case chain nests
// as If(T_action == id_i, case_i, else...(default)); a missing label
// falls through to default.
func (ex *Executor) execSwitch(node *ir.Switch, s *symstate.State) error {
	table, ok := ex.Tables[node.Table]
	if !ok {
		return errors.Errorf("exec: Switch references unknown table %q", node.Table)
	}
	tAction, err := ex.applyTable(table, s)
	if err != nil {
		return err
	}

	type arm struct {
		id   uint64
		body ir.Node
	}
	var arms []arm
	for id, name := range table.Actions {
		body := node.Default
		for _, c := range node.Cases {
			if c.Label == name {
				body = c.Body
				break
			}
		}
		arms = append(arms, arm{id: uint64(id), body: body})
	}

	chBase := s.Checkpoint()

	// Terminal of the nested If chain: the default case, so every
	// declared action id is checked against it with earlier ids taking
	// priority, matching "If(T_action == id_i, case_i, rest…(default))".
	s.Restore(chBase)
	if err := ex.execNode(node.Default, s); err != nil {
		return err
	}
	mergedEnv := s.Env

	for i := len(arms) - 1; i >= 0; i-- {
		a := arms[i]
		s.Restore(chBase)
		if err := ex.execNode(a.body, s); err != nil {
			return err
		}
		armEnv := s.Env
		cond := smt.Eq(tAction, smt.BVVal(a.id, 32))
		next := make(map[string]*value.Value, len(mergedEnv))
		for name, v := range armEnv {
			if other, ok := mergedEnv[name]; ok {
				next[name] = mergeValue(cond, v, other, s.Namer)
			} else {
				next[name] = v
			}
		}
		mergedEnv = next
	}
	s.Env = mergedEnv
	return nil
}
