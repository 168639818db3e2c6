package shrink

import (
	"testing"

	"github.com/p4bughunt/p4-tv/pkg/smt"
)

func TestShrinkPinsFreeVarsToZero(t *testing.T) {
	x := smt.BVConst("x", 4)
	y := smt.BVConst("y", 4)
	// satisfied whenever x != y; many satisfying assignments exist, but a
	// shrunk one should pin both to a single bit difference from zero.
	mismatch := smt.NEq(x, y)

	eng := smt.NewNaiveEngine()
	model, err := Shrink(mismatch, eng)
	if err != nil {
		t.Fatalf("Shrink: %v", err)
	}
	if model == nil {
		t.Fatalf("expected a model, got nil")
	}
	if model["x"] == model["y"] {
		t.Fatalf("shrunk model still has x == y: %+v", model)
	}
	if model["x"] != "0x0" && model["y"] != "0x0" {
		t.Fatalf("expected at least one side pinned to zero, got %+v", model)
	}
}

func TestShrinkUnsatReturnsNoModel(t *testing.T) {
	x := smt.BVConst("x", 4)
	mismatch := smt.NEq(x, x)

	eng := smt.NewNaiveEngine()
	model, err := Shrink(mismatch, eng)
	if err != nil {
		t.Fatalf("Shrink: %v", err)
	}
	if model != nil {
		t.Fatalf("expected no model for an unsatisfiable formula, got %+v", model)
	}
}
