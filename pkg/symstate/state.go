// Package symstate implements the symbolic state (§3, §4.2): the
// environment mapping names to values, the continuation chain of pending
// statements, checkpoint/restore, and the resolve/assign/slice_assign
// operations the expression evaluator and statement executor build on.
package symstate

import (
	"strings"

	"github.com/p4bughunt/p4-tv/pkg/smt"
	"github.com/p4bughunt/p4-tv/pkg/value"
)

// Stmt is the minimal shape a continuation-chain entry needs: something
// pkg/exec can run against a *State. Defined here (rather than imported
// from pkg/ir) so this package has no dependency on the IR node types —
// pkg/exec supplies the concrete closures.
type Stmt func(s *State) error

// State owns the environment, the save buffer used by action/control
// calls, and the continuation chain (§3 "Symbolic state").
type State struct {
	Env   map[string]*value.Value
	chain []Stmt
	save  []map[string]*value.Value // shadow-restore stack for action calls

	Namer *smt.Namer
	Reg   *value.Registry

	version int
}

func New(namer *smt.Namer, reg *value.Registry) *State {
	return &State{Env: make(map[string]*value.Value), Namer: namer, Reg: reg}
}

// Resolve returns the bound value, descending through dotted member
// references (§4.2 "resolve(name)").
func (s *State) Resolve(name string) (*value.Value, bool) {
	parts := strings.Split(name, ".")
	v, ok := s.Env[parts[0]]
	if !ok {
		return nil, false
	}
	for _, p := range parts[1:] {
		if v.Kind == value.KindHeaderStack {
			// numeric stack indices are not dotted names in this core;
			// dotted resolution does not descend into a header stack.
			return nil, false
		}
		next, ok := v.Vals[p]
		if !ok {
			return nil, false
		}
		v = next
	}
	return v, true
}

// Assign implements §4.2 "assign(lvalue, rvalue)" for the plain
// whole-value and dotted-member cases; slice assignment is SliceAssign
// below, and list initialization is Value.ListInit in pkg/value, which
// pkg/exec does not call. Assign deep-copies and width-adjusts
// the rvalue against the lvalue's current sort, per §4.4 "Assignment".
func (s *State) Assign(lvalue string, rvalue *value.Value) {
	parts := strings.Split(lvalue, ".")
	if len(parts) == 1 {
		cur, ok := s.Env[parts[0]]
		if !ok {
			s.Env[parts[0]] = rvalue.DeepCopy()
			return
		}
		s.Env[parts[0]] = value.Coerce(rvalue, cur)
		s.version++
		return
	}
	root, ok := s.Env[parts[0]]
	if !ok {
		return
	}
	cur := root
	for _, p := range parts[1 : len(parts)-1] {
		cur = cur.Vals[p]
	}
	last := parts[len(parts)-1]
	cur.Vals[last] = value.Coerce(rvalue, cur.Vals[last])
	cur.MarkDirty(last)
	s.version++
}

// SliceAssign implements §4.2 "slice_assign": splices rvalue into bits
// [hi:lo] of lvalue, leaving the outer chunks unchanged.
func (s *State) SliceAssign(lvalue string, rvalue *value.Value, hi, lo int) {
	cur, ok := s.Resolve(lvalue)
	if !ok {
		return
	}
	w := cur.Width
	sliceWidth := uint(hi - lo + 1)
	rv := value.CoerceBV(rvalue, sliceWidth)

	var pieces []smt.Term
	if hi < int(w)-1 {
		pieces = append(pieces, smt.Extract(w-1, uint(hi+1), cur.Term))
	}
	pieces = append(pieces, rv.Term)
	if lo > 0 {
		pieces = append(pieces, smt.Extract(uint(lo-1), 0, cur.Term))
	}
	combined := pieces[0]
	for _, p := range pieces[1:] {
		combined = smt.Concat(combined, p)
	}
	s.Assign(lvalue, value.BV(combined, w))
}

// Delete removes a binding (§4.2 "delete(name)"), used at action/control
// exit for non-reference parameters.
func (s *State) Delete(name string) { delete(s.Env, name) }

// Checkpoint is a deep-copy snapshot of the name map and continuation
// chain, for if/switch branching (§4.2, §5 "Checkpoints are deep
// copies... never leak to the original").
type Checkpoint struct {
	env   map[string]*value.Value
	chain []Stmt
}

func (s *State) Checkpoint() Checkpoint {
	env := make(map[string]*value.Value, len(s.Env))
	for k, v := range s.Env {
		env[k] = v.DeepCopy()
	}
	return Checkpoint{env: env, chain: append([]Stmt(nil), s.chain...)}
}

func (s *State) Restore(ch Checkpoint) {
	s.Env = make(map[string]*value.Value, len(ch.env))
	for k, v := range ch.env {
		s.Env[k] = v.DeepCopy()
	}
	s.chain = append([]Stmt(nil), ch.chain...)
}

// PushContinuation prepends stmts (in order) to the chain.
func (s *State) PushContinuation(stmts []Stmt) {
	s.chain = append(append([]Stmt(nil), stmts...), s.chain...)
}

// PopNext consumes the next statement. Popping the empty chain yields
// ok=false, signalling the synthetic "end" marker (§4.2): the caller
// should treat this as "fully assembled, return the current state".
func (s *State) PopNext() (Stmt, bool) {
	if len(s.chain) == 0 {
		return nil, false
	}
	next := s.chain[0]
	s.chain = s.chain[1:]
	return next, true
}

// PushSave/PopSave implement the shadow-restore stack action calls use
// (§4.4 "previously-shadowed names are restored from the save buffer").
func (s *State) PushSave(shadowed map[string]*value.Value) { s.save = append(s.save, shadowed) }

func (s *State) PopSave() map[string]*value.Value {
	if len(s.save) == 0 {
		return nil
	}
	top := s.save[len(s.save)-1]
	s.save = s.save[:len(s.save)-1]
	return top
}
