package value

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/p4bughunt/p4-tv/pkg/smt"
)

// NewStruct allocates a fresh struct/header/union-shaped value: every
// scalar field starts as a fresh symbolic constant, matching "the
// instantiation of that sort produces a value whose field accessors are
// already composed with the top-level constant" (§4.1).
func NewStruct(kind Kind, sortName string, fields []FieldDecl, n *smt.Namer) *Value {
	v := &Value{
		Kind:     kind,
		SortName: sortName,
		Fields:   make([]string, len(fields)),
		Vals:     make(map[string]*Value, len(fields)),
		Dirty:    bitset.New(uint(len(fields))),
	}
	for i, f := range fields {
		v.Fields[i] = f.Name
		v.Vals[f.Name] = freshScalar(f, sortName, n)
	}
	if kind == KindHeader {
		v.Valid = n.FreshBool(sortName + "_valid")
	}
	return v
}

type FieldDecl struct {
	Name string
	Sort FieldSortRef
}

// FieldSortRef names a field's sort: either a bit-vector width or a
// nested structured sort (by name, resolved through a Registry).
type FieldSortRef struct {
	IsScalar bool
	Width    uint
	IsBool   bool
	SortName string
	Nested   []FieldDecl // only for nested structured fields
	Kind     Kind
}

func freshScalar(f FieldDecl, prefix string, n *smt.Namer) *Value {
	if !f.Sort.IsScalar {
		return NewStruct(f.Sort.Kind, f.Sort.SortName, f.Sort.Nested, n)
	}
	if f.Sort.IsBool {
		return Bool(n.FreshBool(prefix + "_" + f.Name))
	}
	return BV(n.FreshBV(prefix+"_"+f.Name, f.Sort.Width), f.Sort.Width)
}

// SetValid and SetInvalid toggle a header's validity flag (§3
// "Lifecycle"). Neither reallocates field constants — that is Activate's
// job, invoked by the evaluator's handling of setValid. ListInit sets the
// flag directly and does not call Activate.
func (v *Value) SetValid()   { v.Valid = smt.BoolVal(true) }
func (v *Value) SetInvalid() { v.Valid = smt.BoolVal(false) }

func (v *Value) IsValid() *Value { return Bool(v.Valid) }

// MarkDirty records that field has been explicitly written since the
// last Activate, so a later Activate call leaves its current value
// alone instead of reallocating over it. No-op for values with no
// Dirty tracking (anything that isn't struct/header/union-shaped).
func (v *Value) MarkDirty(field string) {
	if v.Dirty == nil {
		return
	}
	for i, name := range v.Fields {
		if name == field {
			v.Dirty.Set(uint(i))
			return
		}
	}
}

// Activate reallocates fresh constants for every scalar field that
// hasn't been written since the last activation, per §3 "activation
// re-allocates fresh constants for all scalar fields so that a
// subsequently-validated header starts from a fresh symbolic state
// rather than stale residue" — refined so a field the program just
// assigned right before calling setValid() keeps that value rather
// than being clobbered by a fresh constant. Non-scalar (nested
// structured) fields recurse and carry their own Dirty tracking.
func (v *Value) Activate(n *smt.Namer) {
	for i, name := range v.Fields {
		if v.Dirty != nil && v.Dirty.Test(uint(i)) {
			continue
		}
		fv := v.Vals[name]
		v.Vals[name] = reactivate(fv, v.SortName+"_"+name, n)
	}
	if v.Dirty != nil {
		v.Dirty.ClearAll()
	}
	v.SetValid()
}

func reactivate(fv *Value, prefix string, n *smt.Namer) *Value {
	switch fv.Kind {
	case KindBool:
		return Bool(n.FreshBool(prefix))
	case KindBV:
		return BV(n.FreshBV(prefix, fv.Width), fv.Width)
	case KindStruct, KindHeader, KindHeaderUnion:
		cp := fv.DeepCopy()
		cp.Activate(n)
		return cp
	default:
		return fv
	}
}

// Deactivate marks the header invalid without touching field storage;
// subsequent reads serialize the "invalid" sentinel per emitField.
func (v *Value) Deactivate() { v.SetInvalid() }

// ListInit implements "list assignment to an algebraic value" (§4.2):
// positional binding of elements to fields, setting valid=true for
// headers as a side effect.
func (v *Value) ListInit(elems []*Value) {
	for i, name := range v.Fields {
		if i >= len(elems) {
			break
		}
		v.Vals[name] = Coerce(elems[i], v.Vals[name])
		if v.Dirty != nil {
			v.Dirty.Set(uint(i))
		}
	}
	if v.Kind == KindHeader {
		v.SetValid()
	}
}

// --- Header stack (§4.1 "Header-stack operations") ---

func NewHeaderStack(sortName string, elemFields []FieldDecl, size int, n *smt.Namer) *Value {
	stack := make([]*Value, size)
	for i := range stack {
		stack[i] = NewStruct(KindHeader, sortName, elemFields, n)
	}
	return &Value{Kind: KindHeaderStack, SortName: sortName, Stack: stack, Size: size}
}

// Next returns the header at nextIndex, then advances nextIndex and
// lastIndex. Reading past size-1 returns the last header — the spec's
// documented approximation (§4.1, §9 Open Questions), kept as-is per
// DESIGN.md.
func (v *Value) Next() *Value {
	idx := v.NextIndex
	if idx > v.Size-1 {
		idx = v.Size - 1
	}
	v.NextIndex++
	if idx < 0 || v.Size == 0 {
		return nil
	}
	return v.Stack[idx]
}

// Last returns the header at size-1, or index 0 when size < 1.
func (v *Value) Last() *Value {
	idx := v.Size - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(v.Stack) {
		return nil
	}
	return v.Stack[idx]
}

// PushFront activates the first n-1 headers, silently skipping indices
// beyond the stack's bounds (§4.1).
func (v *Value) PushFront(n int, namer *smt.Namer) {
	for i := 0; i < n-1 && i < len(v.Stack); i++ {
		v.Stack[i].Activate(namer)
	}
}

// PopFront deactivates the first n-1 headers, silently skipping missing
// indices.
func (v *Value) PopFront(n int) {
	for i := 0; i < n-1 && i < len(v.Stack); i++ {
		v.Stack[i].Deactivate()
	}
}
