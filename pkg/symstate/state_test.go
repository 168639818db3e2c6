package symstate

import (
	"testing"

	"github.com/p4bughunt/p4-tv/pkg/smt"
	"github.com/p4bughunt/p4-tv/pkg/value"
)

func newState() *State {
	return New(smt.NewNamer(), value.NewRegistry())
}

func TestAssignAndResolveTopLevel(t *testing.T) {
	s := newState()
	s.Assign("x", value.BV(smt.BVVal(5, 8), 8))

	v, ok := s.Resolve("x")
	if !ok {
		t.Fatalf("expected x to resolve")
	}
	if v.Kind != value.KindBV || v.Width != 8 {
		t.Fatalf("expected an 8-bit value, got %+v", v)
	}
}

func TestResolveMissingNameFails(t *testing.T) {
	s := newState()
	if _, ok := s.Resolve("nope"); ok {
		t.Fatalf("expected resolving an unbound name to fail")
	}
}

func TestResolveDottedMember(t *testing.T) {
	s := newState()
	inner := value.BV(smt.BVVal(7, 8), 8)
	s.Env["hdr"] = &value.Value{
		Kind:   value.KindStruct,
		Fields: []string{"f"},
		Vals:   map[string]*value.Value{"f": inner},
	}

	v, ok := s.Resolve("hdr.f")
	if !ok {
		t.Fatalf("expected hdr.f to resolve")
	}
	if v != inner {
		t.Fatalf("expected the same inner value, got %+v", v)
	}
}

func TestCheckpointRestoreIsolatesMutation(t *testing.T) {
	s := newState()
	s.Assign("x", value.BV(smt.BVVal(1, 8), 8))
	ch := s.Checkpoint()

	s.Assign("x", value.BV(smt.BVVal(2, 8), 8))
	s.Restore(ch)

	v, ok := s.Resolve("x")
	if !ok {
		t.Fatalf("expected x to resolve after restore")
	}
	if v.Term.BVVal != 1 {
		t.Fatalf("expected restore to roll x back to 1, got %+v", v.Term)
	}
}

func TestCheckpointDeepCopyDoesNotAliasOriginal(t *testing.T) {
	s := newState()
	s.Assign("x", value.BV(smt.BVVal(1, 8), 8))
	ch := s.Checkpoint()

	s.Env["x"].Term = smt.BVVal(9, 8)

	orig, ok := ch.env["x"]
	if !ok {
		t.Fatalf("expected x to be present in the checkpoint")
	}
	if orig.Term.BVVal != 1 {
		t.Fatalf("expected checkpointed value to be unaffected by later mutation, got %+v", orig.Term)
	}
}

func TestPushPopContinuationOrdering(t *testing.T) {
	s := newState()
	var order []int
	s.PushContinuation([]Stmt{
		func(s *State) error { order = append(order, 1); return nil },
		func(s *State) error { order = append(order, 2); return nil },
	})

	first, ok := s.PopNext()
	if !ok {
		t.Fatalf("expected a statement")
	}
	first(s)

	second, ok := s.PopNext()
	if !ok {
		t.Fatalf("expected a second statement")
	}
	second(s)

	if _, ok := s.PopNext(); ok {
		t.Fatalf("expected the chain to be empty after popping both statements")
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected statements to run in push order, got %v", order)
	}
}

func TestPushPopSaveRoundTrips(t *testing.T) {
	s := newState()
	shadowed := map[string]*value.Value{"x": value.BV(smt.BVVal(3, 8), 8)}
	s.PushSave(shadowed)

	got := s.PopSave()
	if got == nil || got["x"].Term.BVVal != 3 {
		t.Fatalf("expected the shadowed map back, got %+v", got)
	}
	if s.PopSave() != nil {
		t.Fatalf("expected an empty save stack after popping the only entry")
	}
}

func TestDeleteRemovesBinding(t *testing.T) {
	s := newState()
	s.Assign("x", value.BV(smt.BVVal(1, 8), 8))
	s.Delete("x")
	if _, ok := s.Resolve("x"); ok {
		t.Fatalf("expected x to be gone after Delete")
	}
}

func TestSliceAssignSplicesMiddleBits(t *testing.T) {
	s := newState()
	s.Assign("x", value.BV(smt.BVVal(0xFF, 8), 8))
	s.SliceAssign("x", value.BV(smt.BVVal(0, 4), 4), 7, 4)

	v, ok := s.Resolve("x")
	if !ok {
		t.Fatalf("expected x to resolve")
	}
	if v.Width != 8 {
		t.Fatalf("expected width to stay 8 after a slice assign, got %d", v.Width)
	}
}
