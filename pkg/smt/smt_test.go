package smt

import "testing"

func TestSimplifyConstantFolding(t *testing.T) {
	sum := BVBinary(BVAdd, BVVal(2, 8), BVVal(3, 8))
	got := Simplify(sum)
	if got.Kind != KindBVVal || got.BVVal != 5 {
		t.Fatalf("expected folded 5, got %+v", got)
	}
}

func TestSimplifyDropsDoubleNot(t *testing.T) {
	x := BoolConst("x")
	got := Simplify(Not(Not(x)))
	if got.Kind != KindBoolConst || got.Name != "x" {
		t.Fatalf("expected double negation to cancel, got %+v", got)
	}
}

func TestSimplifyFoldsIteOnConstantCond(t *testing.T) {
	then := BVVal(1, 8)
	els := BVVal(2, 8)
	gotTrue := Simplify(Ite(BoolVal(true), then, els))
	if gotTrue.Kind != KindBVVal || gotTrue.BVVal != 1 {
		t.Fatalf("expected then-branch, got %+v", gotTrue)
	}
	gotFalse := Simplify(Ite(BoolVal(false), then, els))
	if gotFalse.Kind != KindBVVal || gotFalse.BVVal != 2 {
		t.Fatalf("expected else-branch, got %+v", gotFalse)
	}
}

func TestSimplifyFoldsEqualIteBranches(t *testing.T) {
	cond := BoolConst("c")
	same := BVVal(7, 8)
	got := Simplify(Ite(cond, same, same))
	if got.Kind != KindBVVal || got.BVVal != 7 {
		t.Fatalf("expected branch collapse when both sides agree, got %+v", got)
	}
}

func TestSimplifyFoldsExtractOfConstant(t *testing.T) {
	got := Simplify(Extract(7, 4, BVVal(0xAB, 8)))
	if got.Kind != KindBVVal || got.BVVal != 0xA {
		t.Fatalf("expected high nibble 0xa, got %+v", got)
	}
}

func TestNaiveEngineUnsatForTautology(t *testing.T) {
	x := BVConst("x", 4)
	eng := NewNaiveEngine()
	sat, _, err := eng.Check(NEq(x, x))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if sat != Unsat {
		t.Fatalf("expected Unsat for x != x, got %v", sat)
	}
}

func TestNaiveEngineSatFindsWitness(t *testing.T) {
	x := BVConst("x", 3)
	eng := NewNaiveEngine()
	sat, model, err := eng.Check(Cmp(CmpUGT, x, BVVal(5, 3)))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if sat != Sat_ {
		t.Fatalf("expected Sat (x==6 or 7 satisfies x>5 mod 3 bits), got %v", sat)
	}
	if model["x"] == "" {
		t.Fatalf("expected a witness for x, got %+v", model)
	}
}

func TestNaiveEngineRejectsOversizedDomain(t *testing.T) {
	eng := &NaiveEngine{MaxSpace: 1}
	x := BVConst("x", 8)
	sat, _, err := eng.Check(Cmp(CmpUGT, x, BVVal(0, 8)))
	if err == nil {
		t.Fatalf("expected an error for a domain exceeding MaxSpace")
	}
	if sat != Unknown {
		t.Fatalf("expected Unknown on overflow, got %v", sat)
	}
}

func TestNamerFreshNamesAreUnique(t *testing.T) {
	n := NewNamer()
	a := n.Fresh("x")
	b := n.Fresh("x")
	if a == b {
		t.Fatalf("expected distinct names, got %q twice", a)
	}
	if a != "x" {
		t.Fatalf("expected first name to be bare prefix, got %q", a)
	}
}

func TestNamerFreshBVAndBoolSorts(t *testing.T) {
	n := NewNamer()
	bv := n.FreshBV("p", 8)
	if bv.Sort.Width != 8 || bv.Kind != KindBVConst {
		t.Fatalf("expected an 8-bit constant, got %+v", bv)
	}
	b := n.FreshBool("q")
	if b.Sort.Kind != SortBool || b.Kind != KindBoolConst {
		t.Fatalf("expected a bool constant, got %+v", b)
	}
}
