package value

import (
	"testing"

	"github.com/p4bughunt/p4-tv/pkg/smt"
)

func TestSetValidIsValid(t *testing.T) {
	n := smt.NewNamer()
	h := NewStruct(KindHeader, "h_t", []FieldDecl{{Name: "f", Sort: FieldSortRef{IsScalar: true, Width: 8}}}, n)
	h.SetValid()
	got := smt.Simplify(h.IsValid().Term)
	if got.Kind != smt.KindBoolVal || got.BVVal == 0 {
		t.Fatalf("expected isValid true after setValid, got %+v", got)
	}

	h.SetInvalid()
	got = smt.Simplify(h.IsValid().Term)
	if got.Kind != smt.KindBoolVal || got.BVVal != 0 {
		t.Fatalf("expected isValid false after setInvalid, got %+v", got)
	}
}

func TestWidthNormalization(t *testing.T) {
	narrow := BV(smt.BVVal(5, 8), 8)
	wide := CoerceBV(narrow, 32)
	if wide.Width != 32 {
		t.Fatalf("expected width 32, got %d", wide.Width)
	}
	folded := smt.Simplify(wide.Term)
	if folded.Kind != smt.KindBVVal || folded.BVVal != 5 {
		t.Fatalf("expected zero-extended value 5, got %+v", folded)
	}
}

func TestTruncateOnNarrow(t *testing.T) {
	wide := BV(smt.BVVal(0x1FF, 16), 16)
	narrow := CoerceBV(wide, 8)
	folded := smt.Simplify(narrow.Term)
	if folded.Kind != smt.KindBVVal || folded.BVVal != 0xFF {
		t.Fatalf("expected truncated value 0xFF, got %+v", folded)
	}
}

func TestInvalidHeaderFieldReadsSentinel(t *testing.T) {
	n := smt.NewNamer()
	h := NewStruct(KindHeader, "h_t", []FieldDecl{{Name: "f", Sort: FieldSortRef{IsScalar: true, Width: 8}}}, n)
	h.SetInvalid()
	term := h.SolverTerm()
	if term.Kind != smt.KindCtor {
		t.Fatalf("expected ctor term, got %+v", term)
	}
	if term.Args[0].Name != "invalid" {
		t.Fatalf("expected field emitted as \"invalid\" sentinel, got %+v", term.Args[0])
	}
}

func TestHeaderEqualityBothInvalid(t *testing.T) {
	n := smt.NewNamer()
	decl := []FieldDecl{{Name: "f", Sort: FieldSortRef{IsScalar: true, Width: 8}}}
	a := NewStruct(KindHeader, "h_t", decl, n)
	b := NewStruct(KindHeader, "h_t", decl, n)
	a.SetInvalid()
	b.SetInvalid()
	eq := smt.Simplify(Equal(a, b, n))
	if eq.Kind != smt.KindBoolVal || eq.BVVal == 0 {
		t.Fatalf("expected two invalid headers to compare equal, got %+v", eq)
	}
}
