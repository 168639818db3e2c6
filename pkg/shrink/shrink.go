// Package shrink minimizes a counterexample model: a satisfying
// assignment straight from the solver can set dozens of free inputs to
// arbitrary bit patterns, most of which are irrelevant to the violation.
// Shrink greedily pins each free input to zero and keeps the pin only if
// the formula is still satisfiable — the same "always move to a cheaper
// state that doesn't break the property" discipline the stochastic
// optimizer in this core's ancestor uses to shorten a candidate
// instruction sequence, applied here to a counterexample's free
// variables instead of to an instruction count.
package shrink

import "github.com/p4bughunt/p4-tv/pkg/smt"

// Shrink returns a simplified counterexample for mismatch: as many free
// bit-vector and boolean constants as possible are pinned to zero/false,
// one at a time, keeping each pin only if mismatch (conjoined with every
// pin accepted so far) is still satisfiable. If mismatch is unsatisfiable
// to begin with, the original (nil) model is returned unchanged.
func Shrink(mismatch smt.Term, engine smt.Engine) (smt.Model, error) {
	sat, model, err := engine.Check(mismatch)
	if err != nil || sat != smt.Sat_ {
		return model, err
	}

	constrained := mismatch
	for _, c := range freeConsts(mismatch) {
		zero, ok := zeroOf(c)
		if !ok {
			continue
		}
		candidate := smt.BoolBinary(smt.BoolAnd, constrained, smt.Eq(c, zero))
		candSat, candModel, err := engine.Check(candidate)
		if err != nil {
			return model, err
		}
		if candSat == smt.Sat_ {
			constrained = candidate
			model = candModel
		}
	}
	return model, nil
}

func zeroOf(c smt.Term) (smt.Term, bool) {
	switch c.Kind {
	case smt.KindBVConst:
		return smt.BVVal(0, c.Sort.Width), true
	case smt.KindBoolConst:
		return smt.BoolVal(false), true
	default:
		return smt.Term{}, false
	}
}

// freeConsts walks t and returns one representative Term per distinct
// named constant, in first-seen order — deterministic so repeated Shrink
// calls over the same term pin variables in the same order.
func freeConsts(t smt.Term) []smt.Term {
	seen := map[string]bool{}
	var out []smt.Term
	var walk func(smt.Term)
	walk = func(n smt.Term) {
		switch n.Kind {
		case smt.KindBVConst, smt.KindBoolConst:
			if !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n)
			}
			return
		}
		for _, a := range n.Args {
			walk(a)
		}
	}
	walk(t)
	return out
}
