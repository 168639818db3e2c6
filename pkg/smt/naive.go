package smt

import "fmt"

// NaiveEngine is a brute-force backend: it enumerates every assignment of the
// free constants in a term and evaluates the formula directly. It exists so
// that unit tests exercising small bit-vector/boolean formulas do not need a
// live Z3 install — the CLI uses the z3 backend (see z3backend.go) unless
// run with --naive. Brute force is only tractable for narrow formulas, so
// NaiveEngine refuses anything whose combined free-variable space exceeds
// MaxSpace.
type NaiveEngine struct {
	MaxSpace uint64
}

func NewNaiveEngine() *NaiveEngine {
	return &NaiveEngine{MaxSpace: 1 << 20}
}

func (e *NaiveEngine) Close() error { return nil }

func (e *NaiveEngine) Check(t Term) (Sat, Model, error) {
	free := map[string]Sort{}
	collectFree(t, free, map[string]bool{})

	names := make([]string, 0, len(free))
	for n := range free {
		names = append(names, n)
	}

	space := uint64(1)
	for _, n := range names {
		space *= domainSize(free[n])
		if space > e.MaxSpace {
			return Unknown, nil, fmt.Errorf("smt: naive engine domain too large for %d free vars", len(names))
		}
	}

	assign := make(map[string]uint64, len(names))
	var model Model
	found := enumerate(names, free, 0, assign, func() bool {
		if evalBool(t, assign) {
			model = make(Model, len(assign))
			for k, v := range assign {
				if free[k].Kind == SortBool {
					model[k] = fmt.Sprintf("%t", v != 0)
					continue
				}
				model[k] = fmt.Sprintf("0x%x", v)
			}
			return true
		}
		return false
	})
	if found {
		return Sat_, model, nil
	}
	return Unsat, nil, nil
}

func domainSize(s Sort) uint64 {
	if s.Kind == SortBool {
		return 2
	}
	if s.Width >= 20 {
		return 1 << 20 // clamp, MaxSpace check above will usually already reject
	}
	return uint64(1) << s.Width
}

func enumerate(names []string, sorts map[string]Sort, i int, assign map[string]uint64, check func() bool) bool {
	if i == len(names) {
		return check()
	}
	n := names[i]
	d := domainSize(sorts[n])
	for v := uint64(0); v < d; v++ {
		assign[n] = v
		if enumerate(names, sorts, i+1, assign, check) {
			return true
		}
	}
	delete(assign, n)
	return false
}

func collectFree(t Term, free map[string]Sort, bound map[string]bool) {
	switch t.Kind {
	case KindBVConst, KindBoolConst:
		if !bound[t.Name] {
			free[t.Name] = t.Sort
		}
		return
	case KindForAll:
		inner := make(map[string]bool, len(bound))
		for k := range bound {
			inner[k] = true
		}
		for _, v := range t.Args[1:] {
			inner[v.Name] = true
		}
		collectFree(t.Args[0], free, inner)
		return
	}
	for _, a := range t.Args {
		collectFree(a, free, bound)
	}
}

// evalBool evaluates a Bool-sorted term under a full (free + locally bound)
// assignment. evalBV does the bit-vector-sorted half; the two are mutually
// recursive through the generic eval below.
func evalBool(t Term, assign map[string]uint64) bool {
	return eval(t, assign) != 0
}

func eval(t Term, assign map[string]uint64) uint64 {
	switch t.Kind {
	case KindBVVal, KindBoolVal:
		return t.BVVal
	case KindBVConst, KindBoolConst:
		return assign[t.Name]
	case KindNot:
		if eval(t.Args[0], assign) == 0 {
			return 1
		}
		return 0
	case KindBVUnary:
		v := eval(t.Args[0], assign)
		w := t.Sort.Width
		if t.BVOp == BVNeg {
			return mask(-v, w)
		}
		return mask(^v, w)
	case KindBVBinary:
		l, r := eval(t.Args[0], assign), eval(t.Args[1], assign)
		w := t.Sort.Width
		switch t.BVOp {
		case BVAdd:
			return mask(l+r, w)
		case BVSub:
			return mask(l-r, w)
		case BVMul:
			return mask(l*r, w)
		case BVUDiv:
			if r == 0 {
				return mask(^uint64(0), w)
			}
			return mask(l/r, w)
		case BVURem:
			if r == 0 {
				return l
			}
			return mask(l%r, w)
		case BVAnd:
			return mask(l&r, w)
		case BVOr:
			return mask(l|r, w)
		case BVXor:
			return mask(l^r, w)
		case BVShl:
			return mask(l<<r, w)
		case BVLShr:
			return mask(l>>r, w)
		}
	case KindBoolBinary:
		l, r := eval(t.Args[0], assign) != 0, eval(t.Args[1], assign) != 0
		if t.BoolOp == BoolAnd {
			return b2u(l && r)
		}
		return b2u(l || r)
	case KindCmp:
		l, r := eval(t.Args[0], assign), eval(t.Args[1], assign)
		return b2u(foldCmp(t.CmpOp, l, r, t.Args[0].Sort.Width))
	case KindEq:
		return b2u(eval(t.Args[0], assign) == eval(t.Args[1], assign))
	case KindExtract:
		v := eval(t.Args[0], assign)
		m := uint64(1)<<uint(t.Hi-t.Lo+1) - 1
		return (v >> uint(t.Lo)) & m
	case KindConcat:
		l, r := eval(t.Args[0], assign), eval(t.Args[1], assign)
		return (l << t.Args[1].Sort.Width) | r
	case KindIte:
		if eval(t.Args[0], assign) != 0 {
			return eval(t.Args[1], assign)
		}
		return eval(t.Args[2], assign)
	case KindAccess:
		v := t.Args[0]
		if v.Kind == KindCtor && t.Hi < len(v.Args) {
			return eval(v.Args[t.Hi], assign)
		}
		return 0
	case KindForAll:
		names := make([]string, len(t.Args)-1)
		sorts := make(map[string]Sort, len(names))
		for i, v := range t.Args[1:] {
			names[i] = v.Name
			sorts[v.Name] = v.Sort
		}
		local := make(map[string]uint64, len(assign)+len(names))
		for k, v := range assign {
			local[k] = v
		}
		all := true
		enumerate(names, sorts, 0, local, func() bool {
			if eval(t.Args[0], local) == 0 {
				all = false
				return true // stop early
			}
			return false
		})
		return b2u(all)
	}
	return 0
}

func mask(v uint64, w uint) uint64 {
	if w >= 64 {
		return v
	}
	return v & ((uint64(1) << w) - 1)
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
