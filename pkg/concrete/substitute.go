// Package concrete implements a cheap pre-filter ahead of the solver: bind
// every free input constant to a fixed value and fold the resulting term
// down with smt.Simplify. Two pipelines that disagree on even one of these
// fixed vectors are definitely not equivalent, and the expensive encode+solve
// step (pkg/driver) never needs to run.
package concrete

import "github.com/p4bughunt/p4-tv/pkg/smt"

// Bind substitutes every BVConst/BoolConst term whose name matches a key in
// vals with the corresponding concrete term, leaving all other structure
// (including names with no binding — nested table/namer-minted consts that
// were never inputs) untouched.
func Bind(t smt.Term, vals map[string]smt.Term) smt.Term {
	switch t.Kind {
	case smt.KindBVConst, smt.KindBoolConst:
		if v, ok := vals[t.Name]; ok {
			return v
		}
		return t
	case smt.KindBVVal, smt.KindBoolVal:
		return t
	}

	out := t
	if len(t.Args) > 0 {
		args := make([]smt.Term, len(t.Args))
		for i, a := range t.Args {
			args[i] = Bind(a, vals)
		}
		out.Args = args
	}
	return out
}
