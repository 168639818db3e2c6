package frontend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/p4bughunt/p4-tv/pkg/ir"
	"github.com/p4bughunt/p4-tv/pkg/value"
)

const progJSON = `{
  "kind": "Package",
  "fields": {
    "pipelines": {
      "ingress": {
        "kind": "ControlDef",
        "fields": {
          "name": "ingress",
          "params": [
            {"name": "x", "type": {"width": 8}, "dir": "inout"}
          ],
          "locals": [
            {
              "kind": "ActionDef",
              "fields": {
                "name": "set_x",
                "params": [],
                "body": {
                  "kind": "Block",
                  "fields": {"stmts": []}
                }
              }
            }
          ],
          "body": {
            "kind": "Block",
            "fields": {
              "stmts": [
                {
                  "kind": "Assign",
                  "fields": {
                    "lval": {"kind": "Member", "fields": {"member": "x"}},
                    "rval": {"kind": "Literal", "fields": {"width": 8, "value": 5}}
                  }
                }
              ]
            }
          }
        }
      }
    }
  }
}`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadFileDecodesPackage(t *testing.T) {
	path := writeFixture(t, "prog.json", progJSON)
	pkg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if _, ok := pkg.Pipelines["ingress"]; !ok {
		t.Fatalf("expected an ingress pipeline, got %v", pkg.Pipelines)
	}
}

func TestCollectFindsNestedActionDef(t *testing.T) {
	path := writeFixture(t, "prog.json", progJSON)
	pkg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	defs := Collect(pkg)
	if _, ok := defs.Actions["set_x"]; !ok {
		t.Fatalf("expected set_x action to be collected, got %v", defs.Actions)
	}
}

func TestParamsAndBody(t *testing.T) {
	path := writeFixture(t, "prog.json", progJSON)
	pkg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	pipe := pkg.Pipelines["ingress"]
	params := Params(pipe)
	if len(params) != 1 || params[0].Name != "x" {
		t.Fatalf("expected one param named x, got %+v", params)
	}
	body := Body(pipe)
	if _, ok := body.(*ir.Block); !ok {
		t.Fatalf("expected a Block body, got %T", body)
	}
}

const typesJSON = `{
  "structs": [
    {"kind": "header", "name": "eth_t", "fields": [
      {"name": "dst", "width": 48},
      {"name": "etype", "width": 16}
    ]}
  ],
  "enums": [
    {"name": "color_t", "members": ["RED", "GREEN"]}
  ],
  "ser_enums": [
    {"name": "proto_t", "width": 8, "members": {"TCP": 6, "UDP": 17}}
  ]
}`

func TestLoadTypesDeclaresEverySort(t *testing.T) {
	path := writeFixture(t, "types.json", typesJSON)
	reg := value.NewRegistry()
	if err := LoadTypes(path, reg); err != nil {
		t.Fatalf("LoadTypes: %v", err)
	}
	if reg.Kinds["eth_t"] != value.KindHeader {
		t.Fatalf("expected eth_t to be a header, got %v", reg.Kinds["eth_t"])
	}
	if len(reg.Structs["eth_t"]) != 2 {
		t.Fatalf("expected 2 fields on eth_t, got %d", len(reg.Structs["eth_t"]))
	}
	if reg.Enums["color_t"].Members[1] != "GREEN" {
		t.Fatalf("expected color_t members to round-trip, got %+v", reg.Enums["color_t"])
	}
	if reg.SerEnums["proto_t"].Members["UDP"] != 17 {
		t.Fatalf("expected proto_t.UDP == 17, got %+v", reg.SerEnums["proto_t"])
	}
}
