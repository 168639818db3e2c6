package smt

import "fmt"

// Namer hands out fresh constant names. The symbolic state keeps one per
// check so that re-validating a header, or re-entering a table apply, never
// collides with an earlier incarnation of the same name.
type Namer struct {
	counters map[string]int
}

func NewNamer() *Namer {
	return &Namer{counters: make(map[string]int)}
}

// Fresh returns prefix itself on its first use and "<prefix>_<n>" after
// that, where n = 1, 2, ... counts up per prefix.
func (n *Namer) Fresh(prefix string) string {
	c := n.counters[prefix]
	n.counters[prefix] = c + 1
	if c == 0 {
		return prefix
	}
	return fmt.Sprintf("%s_%d", prefix, c)
}

// FreshBV returns a new symbolic bit-vector constant.
func (n *Namer) FreshBV(prefix string, w uint) Term {
	return BVConst(n.Fresh(prefix), w)
}

// FreshBool returns a new symbolic boolean constant.
func (n *Namer) FreshBool(prefix string) Term {
	return BoolConst(n.Fresh(prefix))
}
