package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/p4bughunt/p4-tv/pkg/smt"
	"github.com/p4bughunt/p4-tv/pkg/value"
)

func writeProg(t *testing.T, dir, name, body string) string {
	t.Helper()
	doc := `{
  "kind": "Package",
  "fields": {
    "pipelines": {
      "ingress": {
        "kind": "ControlDef",
        "fields": {
          "name": "ingress",
          "params": [{"name": "x", "type": {"width": 8}, "dir": "inout"}],
          "locals": [],
          "body": ` + body + `
        }
      }
    }
  }
}`
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const noOpBody = `{"kind": "Block", "fields": {"stmts": []}}`

const addZeroBody = `{
  "kind": "Block",
  "fields": {
    "stmts": [
      {
        "kind": "Assign",
        "fields": {
          "lval": {"kind": "Member", "fields": {"member": "x"}},
          "rval": {
            "kind": "BinaryOp",
            "fields": {
              "op": "+",
              "lhs": {"kind": "Member", "fields": {"member": "x"}},
              "rhs": {"kind": "Literal", "fields": {"width": 8, "value": 0}}
            }
          }
        }
      }
    ]
  }
}`

const addOneBody = `{
  "kind": "Block",
  "fields": {
    "stmts": [
      {
        "kind": "Assign",
        "fields": {
          "lval": {"kind": "Member", "fields": {"member": "x"}},
          "rval": {
            "kind": "BinaryOp",
            "fields": {
              "op": "+",
              "lhs": {"kind": "Member", "fields": {"member": "x"}},
              "rhs": {"kind": "Literal", "fields": {"width": 8, "value": 1}}
            }
          }
        }
      }
    ]
  }
}`

func TestCheckPairEquivalentPrograms(t *testing.T) {
	dir := t.TempDir()
	a := writeProg(t, dir, "a.json", noOpBody)
	b := writeProg(t, dir, "b.json", addZeroBody)

	reg := value.NewRegistry()
	eng := smt.NewNaiveEngine()
	cfg := Config{}

	pr, err := CheckPair(a, b, eng, reg, cfg)
	if err != nil {
		t.Fatalf("CheckPair: %v", err)
	}
	if pr.Overall != OK {
		t.Fatalf("expected OK, got %s (%+v)", pr.Overall, pr.Pipelines)
	}
}

func TestCheckPairDifferentPrograms(t *testing.T) {
	dir := t.TempDir()
	a := writeProg(t, dir, "a.json", noOpBody)
	b := writeProg(t, dir, "b.json", addOneBody)

	reg := value.NewRegistry()
	eng := smt.NewNaiveEngine()
	cfg := Config{}

	pr, err := CheckPair(a, b, eng, reg, cfg)
	if err != nil {
		t.Fatalf("CheckPair: %v", err)
	}
	if pr.Overall != VIOLATION {
		t.Fatalf("expected VIOLATION, got %s (%+v)", pr.Overall, pr.Pipelines)
	}
}

func TestRunStopsAtFirstViolation(t *testing.T) {
	dir := t.TempDir()
	a := writeProg(t, dir, "a.json", noOpBody)
	b := writeProg(t, dir, "b.json", addZeroBody)
	c := writeProg(t, dir, "c.json", addOneBody)

	results, err := Run([]string{a, b, c}, "", func(sorts *smt.Registry) (smt.Engine, error) {
		return smt.NewNaiveEngine(), nil
	}, Config{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both pairs attempted, got %d", len(results))
	}
	if results[0].Overall != OK {
		t.Fatalf("expected first pair OK, got %s", results[0].Overall)
	}
	if results[1].Overall != VIOLATION {
		t.Fatalf("expected second pair VIOLATION, got %s", results[1].Overall)
	}
}
