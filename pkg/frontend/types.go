package frontend

import (
	"os"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"

	"github.com/p4bughunt/p4-tv/pkg/value"
)

// Structured-sort declarations (headers, structs, header unions, enums,
// serializable enums) are not themselves IR nodes — the executable IR table
// (§6) only carries operations over already-typed slots. A types document,
// one per comparison (the two programs being compared share a P4 type
// environment), carries that declaration set so a Registry can be built
// before either program's pipelines run.
type wireTypes struct {
	Structs  []wireStructDecl  `json:"structs"`
	Enums    []wireEnumDecl    `json:"enums"`
	SerEnums []wireSerEnumDecl `json:"ser_enums"`
}

type wireStructDecl struct {
	Kind   string          `json:"kind"` // "struct" | "header" | "union"
	Name   string          `json:"name"`
	Fields []wireFieldDecl `json:"fields"`
}

type wireFieldDecl struct {
	Name   string          `json:"name"`
	Width  uint            `json:"width"`
	Bool   bool            `json:"bool"`
	Sort   string          `json:"sort"` // nested structured sort name, if not scalar
	Kind   string          `json:"kind"` // nested field's own struct kind, if not scalar
	Nested []wireFieldDecl `json:"nested"`
}

type wireEnumDecl struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type wireSerEnumDecl struct {
	Name    string            `json:"name"`
	Width   uint              `json:"width"`
	Members map[string]uint64 `json:"members"`
}

var structKind = map[string]value.Kind{
	"struct": value.KindStruct,
	"header": value.KindHeader,
	"union":  value.KindHeaderUnion,
}

// LoadTypes reads a type-environment document and declares every struct,
// header, union, enum and serializable-enum sort it names into reg. It must
// run before either program in a comparison is interpreted.
func LoadTypes(path string, reg *value.Registry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "frontend: read types %q", path)
	}
	var w wireTypes
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrapf(err, "frontend: decode types %q", path)
	}
	for _, s := range w.Structs {
		k, ok := structKind[s.Kind]
		if !ok {
			return errors.Errorf("frontend: %q: unknown struct kind %q", s.Name, s.Kind)
		}
		reg.DeclareStruct(k, s.Name, toFieldDecls(s.Fields))
	}
	for _, e := range w.Enums {
		reg.Enums[e.Name] = value.EnumDecl{Name: e.Name, Members: e.Members}
	}
	for _, e := range w.SerEnums {
		reg.SerEnums[e.Name] = value.SerEnumDecl{Name: e.Name, Width: e.Width, Members: e.Members}
	}
	return nil
}

func toFieldDecls(ws []wireFieldDecl) []value.FieldDecl {
	out := make([]value.FieldDecl, len(ws))
	for i, w := range ws {
		ref := value.FieldSortRef{IsScalar: w.Sort == "", Width: w.Width, IsBool: w.Bool, SortName: w.Sort}
		if !ref.IsScalar {
			ref.Kind = structKind[w.Kind]
			ref.Nested = toFieldDecls(w.Nested)
		}
		out[i] = value.FieldDecl{Name: w.Name, Sort: ref}
	}
	return out
}
