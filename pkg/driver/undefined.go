package driver

import "github.com/p4bughunt/p4-tv/pkg/smt"

// substituteUndefined rewrites every "undefined"-named leaf constant into a
// fresh, distinct constant (a "nondet"), and collapses any Ite whose branches
// are both undefined-producing into a single fresh nondet rather than two.
// Grounded on the Python oracle's substitute_undefined: there, a generic
// z3 AST has to special-case z3.DatatypeRef and AND/OR reconstruction because
// z3's children()/decl() API loses the original operator shape; here Term's
// Args/operator-tag fields make that unnecessary — copying the node with its
// Args rebuilt preserves the operator for every Kind uniformly.
//
// Ite nodes in this core are always BV- or Bool-sorted (structured merges
// recurse field-by-field in pkg/exec, so an Ite never appears directly over a
// whole datatype value) — the datatype case here is defensive, not exercised.
func substituteUndefined(t smt.Term, namer *smt.Namer, nondets *[]smt.Term) (smt.Term, bool) {
	switch t.Kind {
	case smt.KindBVVal, smt.KindBoolVal:
		return t, false

	case smt.KindBVConst:
		if t.Name == "undefined" {
			nd := namer.FreshBV("nondet", t.Sort.Width)
			*nondets = append(*nondets, nd)
			return nd, true
		}
		return t, false

	case smt.KindBoolConst:
		if t.Name == "undefined" {
			nd := namer.FreshBool("nondet")
			*nondets = append(*nondets, nd)
			return nd, true
		}
		return t, false

	case smt.KindIte:
		cond, _ := substituteUndefined(t.Args[0], namer, nondets)
		then, thenUndef := substituteUndefined(t.Args[1], namer, nondets)
		els, elsUndef := substituteUndefined(t.Args[2], namer, nondets)
		if thenUndef && elsUndef {
			nd, ok := freshOfSort(namer, then.Sort)
			if !ok {
				return smt.Ite(cond, then, els), false
			}
			*nondets = append(*nondets, nd)
			return nd, true
		}
		return smt.Ite(cond, then, els), false
	}

	if len(t.Args) == 0 {
		return t, false
	}
	args := make([]smt.Term, len(t.Args))
	for i, a := range t.Args {
		na, undef := substituteUndefined(a, namer, nondets)
		if undef {
			nd, ok := freshOfSort(namer, t.Sort)
			if !ok {
				args[i] = na
				continue
			}
			*nondets = append(*nondets, nd)
			return nd, true
		}
		args[i] = na
	}
	out := t
	out.Args = args
	return out, false
}

func freshOfSort(namer *smt.Namer, sort smt.Sort) (smt.Term, bool) {
	switch sort.Kind {
	case smt.SortBV:
		return namer.FreshBV("nondet", sort.Width), true
	case smt.SortBool:
		return namer.FreshBool("nondet"), true
	default:
		return smt.Term{}, false
	}
}
