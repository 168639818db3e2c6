package exec

import (
	"github.com/p4bughunt/p4-tv/pkg/ir"
	"github.com/p4bughunt/p4-tv/pkg/smt"
	"github.com/p4bughunt/p4-tv/pkg/symstate"
	"github.com/p4bughunt/p4-tv/pkg/value"
)

// applyTable implements the table-apply algorithm of §4.4 in full:
//  1. match predicate: fresh T_key_i per key expression, conjoined.
//  2. action chain: nested If(T_action == id_j, run(action_j), rest),
//     terminal = default action (or NoAction).
//  3. constant-entry chain: nested If(∧ k_i == c_i, run(a), rest),
//     wrapped around the action chain, so declared constant entries
//     take priority over the symbolic T_action selection (the
//     tie-break rule) regardless of what T_action happens to equal.
//  4. final value: If(match, action_chain, default_run).
//
// It mutates s.Env to the resulting merged state and returns the fresh
// T_action constant, so an enclosing Switch can dispatch its own
// per-case extra code on the same symbolic action choice.
func (ex *Executor) applyTable(table *ir.TableDef, s *symstate.State) (smt.Term, error) {
	base := s.Checkpoint()

	match := smt.BoolVal(len(table.Keys) > 0)
	keyTerms := make([]smt.Term, len(table.Keys))
	for i, k := range table.Keys {
		kv, err := ex.Eval.Eval(k, s)
		if err != nil {
			return smt.Term{}, err
		}
		keyTerms[i] = kv.Term
		tk := s.Namer.FreshBV(table.Name+"_key", kv.Width)
		eq := smt.Eq(kv.Term, tk)
		if i == 0 {
			match = eq
		} else {
			match = smt.BoolBinary(smt.BoolAnd, match, eq)
		}
	}

	tAction := s.Namer.FreshBV(table.Name+"_action", 32)

	// Terminal of the action chain (and so, through it, of the
	// constant-entry chain): the default action, run once on a clean
	// checkpoint.
	s.Restore(base)
	if err := ex.runAction(table.Default, s); err != nil {
		return smt.Term{}, err
	}
	defaultEnv := s.Env

	// Constant-entry arms, collected innermost-out; they are wrapped
	// around the action chain below.
	var entryConds []smt.Term
	var entryEnvs []map[string]*value.Value
	for i := len(table.Entries) - 1; i >= 0; i-- {
		entry := table.Entries[i]
		s.Restore(base)
		if err := ex.runAction(entry.Action, s); err != nil {
			return smt.Term{}, err
		}
		entryEnv := s.Env

		cond := smt.BoolVal(true)
		for i, k := range entry.Keys {
			kv, err := ex.Eval.Eval(k, s)
			if err != nil {
				return smt.Term{}, err
			}
			c := keyTerms[i]
			eq := smt.Eq(kv.Term, c)
			cond = smt.BoolBinary(smt.BoolAnd, cond, eq)
		}
		entryConds = append(entryConds, cond)
		entryEnvs = append(entryEnvs, entryEnv)
	}

	// Action chain: nested If(T_action==id_j, run(action_j), rest),
	// terminal = defaultEnv.
	actionChain := defaultEnv
	for id := len(table.Actions) - 1; id >= 0; id-- {
		name := table.Actions[id]
		s.Restore(base)
		if err := ex.runAction(name, s); err != nil {
			return smt.Term{}, err
		}
		actionEnv := s.Env
		cond := smt.Eq(tAction, smt.BVVal(uint64(id), 32))
		actionChain = mergeEnv(cond, actionEnv, actionChain, s.Namer)
	}

	// Constant entries take priority over every symbolically-selected
	// declared action: a matching entry short-circuits the action chain.
	for i := range entryConds {
		actionChain = mergeEnv(entryConds[i], entryEnvs[i], actionChain, s.Namer)
	}

	final := mergeEnv(match, actionChain, defaultEnv, s.Namer)
	s.Restore(base)
	s.Env = final
	return tAction, nil
}

func mergeEnv(cond smt.Term, thenEnv, elseEnv map[string]*value.Value, namer *smt.Namer) map[string]*value.Value {
	out := make(map[string]*value.Value, len(thenEnv))
	for name, tv := range thenEnv {
		if ev, ok := elseEnv[name]; ok {
			out[name] = mergeValue(cond, tv, ev, namer)
		} else {
			out[name] = tv
		}
	}
	for name, ev := range elseEnv {
		if _, ok := out[name]; !ok {
			out[name] = ev
		}
	}
	return out
}

// runAction executes a named action's body against s directly (table
// actions in this core take no explicit call-site arguments — their
// parameters are bound by the table's own entries, out of scope here).
func (ex *Executor) runAction(name string, s *symstate.State) error {
	if name == "" || name == "NoAction" {
		return nil
	}
	def, ok := ex.Actions[name]
	if !ok {
		return nil
	}
	return ex.execNode(def.Body, s)
}
