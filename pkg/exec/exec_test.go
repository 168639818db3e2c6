package exec

import (
	"testing"

	"github.com/p4bughunt/p4-tv/pkg/ir"
	"github.com/p4bughunt/p4-tv/pkg/smt"
	"github.com/p4bughunt/p4-tv/pkg/symstate"
	"github.com/p4bughunt/p4-tv/pkg/value"
)

func newState() (*Executor, *symstate.State) {
	reg := value.NewRegistry()
	namer := smt.NewNamer()
	ex := New(reg)
	s := symstate.New(namer, reg)
	return ex, s
}

func name(n string) ir.Node { return &ir.Member{Member: n} }

// Scenario 1 (§8): two programs that both set meta.x := 1 must produce
// identical output terms.
func TestTrivialEquivalence(t *testing.T) {
	prog := func() map[string]smt.Term {
		ex, s := newState()
		s.Env["x"] = value.BV(smt.BVConst("x_in", 8), 8)
		block := &ir.Block{Stmts: []ir.Node{
			&ir.Assign{LVal: name("x"), RVal: &ir.Literal{Width: 8, Value: 1}},
		}}
		out, err := ex.Run(block, s)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return out
	}
	a := prog()
	b := prog()
	sa, sb := smt.Simplify(a["x"]), smt.Simplify(b["x"])
	if sa.BVVal != sb.BVVal {
		t.Fatalf("expected identical terms, got %+v vs %+v", sa, sb)
	}
}

// Scenario 2 (§8): reorder. A: x := y; z := x. B: z := y; x := y. With
// equal widths, expected equivalent (z ends up == y in both).
func TestReorder(t *testing.T) {
	setup := func() (*Executor, *symstate.State) {
		ex, s := newState()
		y := smt.BVConst("y_in", 8)
		s.Env["x"] = value.BV(smt.BVVal(0, 8), 8)
		s.Env["y"] = value.BV(y, 8)
		s.Env["z"] = value.BV(smt.BVVal(0, 8), 8)
		return ex, s
	}

	exA, sA := setup()
	blockA := &ir.Block{Stmts: []ir.Node{
		&ir.Assign{LVal: name("x"), RVal: name("y")},
		&ir.Assign{LVal: name("z"), RVal: name("x")},
	}}
	outA, err := exA.Run(blockA, sA)
	if err != nil {
		t.Fatalf("run A: %v", err)
	}

	exB, sB := setup()
	blockB := &ir.Block{Stmts: []ir.Node{
		&ir.Assign{LVal: name("z"), RVal: name("y")},
		&ir.Assign{LVal: name("x"), RVal: name("y")},
	}}
	outB, err := exB.Run(blockB, sB)
	if err != nil {
		t.Fatalf("run B: %v", err)
	}

	za, zb := smt.Simplify(outA["z"]), smt.Simplify(outB["z"])
	if za.Name != zb.Name {
		t.Fatalf("expected z to resolve to the same symbolic source in both programs, got %q vs %q", za.Name, zb.Name)
	}
}

// If-merge: a branch that writes x only on the then-side must still
// produce a well-formed Ite over the original value on the else-side.
func TestIfMerge(t *testing.T) {
	ex, s := newState()
	s.Env["x"] = value.BV(smt.BVVal(0, 8), 8)
	s.Env["cond"] = value.Bool(smt.BoolConst("c"))
	block := &ir.Block{Stmts: []ir.Node{
		&ir.If{
			Cond: name("cond"),
			Then: &ir.Block{Stmts: []ir.Node{
				&ir.Assign{LVal: name("x"), RVal: &ir.Literal{Width: 8, Value: 7}},
			}},
		},
	}}
	out, err := ex.Run(block, s)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	x := out["x"]
	if x.Kind != smt.KindIte {
		t.Fatalf("expected merged Ite term for x, got %+v", x)
	}
}
