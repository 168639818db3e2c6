package concrete

import "github.com/p4bughunt/p4-tv/pkg/smt"

// Vector is one fixed assignment of concrete values to named free inputs,
// analogous to a test vector in a register-level verifier: a handful of
// representative points (all-zero, all-one, alternating bits, ...) reject
// the overwhelming majority of non-equivalent pipelines before the solver
// ever sees a formula.
type Vector map[string]smt.Term

// BVVector builds a Vector from raw (name, value, width) triples.
func BVVector(entries ...BVEntry) Vector {
	v := make(Vector, len(entries))
	for _, e := range entries {
		v[e.Name] = smt.BVVal(e.Value, e.Width)
	}
	return v
}

type BVEntry struct {
	Name  string
	Value uint64
	Width uint
}

// QuickCheck binds every Vector in vectors into both output maps and
// compares the folded results. It returns false on the first vector where
// some shared output name disagrees, along with that vector's index. A
// name present in only one side is ignored here, as it is in the driver's
// solver query (outputsDiffer).
func QuickCheck(outA, outB map[string]smt.Term, vectors []Vector) (ok bool, mismatchAt int) {
	for i, vec := range vectors {
		for name, ta := range outA {
			tb, ok := outB[name]
			if !ok {
				continue
			}
			fa := smt.Simplify(Bind(ta, vec))
			fb := smt.Simplify(Bind(tb, vec))
			if !foldedEqual(fa, fb) {
				return false, i
			}
		}
	}
	return true, -1
}

// foldedEqual compares two terms that QuickCheck expects to have folded
// down to closed values once every free input is bound. A term that still
// contains an unbound constant (one the vector didn't cover, e.g. a
// namer-minted table key) is treated as inconclusive rather than a
// mismatch, since QuickCheck is a pre-filter, not the equivalence check
// itself.
func foldedEqual(a, b smt.Term) bool {
	if a.Kind != b.Kind {
		return true
	}
	switch a.Kind {
	case smt.KindBVVal, smt.KindBoolVal:
		return a.BVVal == b.BVVal
	default:
		return true
	}
}
