package concrete

import (
	"testing"

	"github.com/p4bughunt/p4-tv/pkg/smt"
)

func TestQuickCheckAcceptsEqualPrograms(t *testing.T) {
	x := smt.BVConst("x", 8)
	outA := map[string]smt.Term{"r": smt.BVBinary(smt.BVAdd, x, smt.BVVal(1, 8))}
	outB := map[string]smt.Term{"r": smt.BVBinary(smt.BVAdd, smt.BVVal(1, 8), x)}

	vecs := StandardVectors([]Input{{Name: "x", Width: 8}})
	ok, at := QuickCheck(outA, outB, vecs)
	if !ok {
		t.Fatalf("expected QuickCheck to accept commutative add, mismatch at vector %d", at)
	}
}

func TestQuickCheckRejectsDifferentPrograms(t *testing.T) {
	x := smt.BVConst("x", 8)
	outA := map[string]smt.Term{"r": x}
	outB := map[string]smt.Term{"r": smt.BVBinary(smt.BVAdd, x, smt.BVVal(1, 8))}

	vecs := StandardVectors([]Input{{Name: "x", Width: 8}})
	ok, at := QuickCheck(outA, outB, vecs)
	if ok {
		t.Fatalf("expected QuickCheck to reject x vs x+1")
	}
	if at != 0 {
		t.Fatalf("expected mismatch at the first vector (all-zero input is still a mismatch: 0 != 1), got %d", at)
	}
}

func TestBindLeavesUnboundConstsAlone(t *testing.T) {
	y := smt.BVConst("y", 8)
	bound := Bind(y, Vector{"x": smt.BVVal(3, 8)})
	if bound.Kind != smt.KindBVConst || bound.Name != "y" {
		t.Fatalf("expected unbound const y to pass through unchanged, got %+v", bound)
	}
}
