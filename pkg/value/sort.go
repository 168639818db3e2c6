package value

import "github.com/p4bughunt/p4-tv/pkg/smt"

// EnumDecl registers a named set of distinct 32-bit constants (§3
// "Enum"). SerEnumDecl additionally gives each member an explicit
// bit-vector value at a declared width ("Serializable enum").
type EnumDecl struct {
	Name    string
	Members []string
}

type SerEnumDecl struct {
	Name    string
	Width   uint
	Members map[string]uint64
}

// NewEnum produces the value naming member within decl.
func NewEnum(decl EnumDecl, member string) *Value {
	id := memberID(decl.Members, member)
	return &Value{Kind: KindEnum, Width: 32, Term: smt.BVVal(id, 32), EnumMember: member, SortName: decl.Name}
}

func memberID(members []string, member string) uint64 {
	for i, m := range members {
		if m == member {
			return uint64(i)
		}
	}
	return uint64(len(members))
}

// NewSerEnum produces the value naming member within decl, at decl's
// declared width.
func NewSerEnum(decl SerEnumDecl, member string) *Value {
	v := decl.Members[member]
	return &Value{Kind: KindSerEnum, Width: decl.Width, Term: smt.BVVal(v, decl.Width), EnumMember: member, SortName: decl.Name}
}

// NewExtern builds an opaque extern-instance value. pkg/eval has no
// extern-specific method handling: a method call on an extern goes to the
// Invoker like any other non-built-in method, and no fresh constants are
// minted for its inout/out arguments.
func NewExtern(name string) *Value {
	return &Value{Kind: KindExtern, ExternName: name}
}

// Registry mirrors the IR producer's structured-sort declarations so
// pkg/exec/pkg/eval can allocate new instances and pkg/smt can declare
// the matching datatype sorts before the first solver Check.
type Registry struct {
	Structs    map[string][]FieldDecl
	Kinds      map[string]Kind
	Enums      map[string]EnumDecl
	SerEnums   map[string]SerEnumDecl
	smtSorts   *smt.Registry
}

func NewRegistry() *Registry {
	return &Registry{
		Structs:  make(map[string][]FieldDecl),
		Kinds:    make(map[string]Kind),
		Enums:    make(map[string]EnumDecl),
		SerEnums: make(map[string]SerEnumDecl),
		smtSorts: smt.NewRegistry(),
	}
}

func (r *Registry) DeclareStruct(kind Kind, name string, fields []FieldDecl) {
	r.Structs[name] = fields
	r.Kinds[name] = kind
	fs := make([]smt.FieldSort, len(fields))
	for i, f := range fields {
		fs[i] = smt.FieldSort{Name: f.Name, Sort: fieldSort(f.Sort)}
	}
	r.smtSorts.Declare(smt.DatatypeSort{Name: name, Fields: fs})
}

func fieldSort(ref FieldSortRef) smt.Sort {
	if ref.IsScalar {
		if ref.IsBool {
			return smt.BoolSort()
		}
		return smt.BV(ref.Width)
	}
	return smt.Datatype(ref.SortName)
}

func (r *Registry) SMTSorts() *smt.Registry { return r.smtSorts }

func (r *Registry) NewInstance(kind Kind, name string, n *smt.Namer) *Value {
	return NewStruct(kind, name, r.Structs[name], n)
}

// NewNamedInstance looks up the structured sort's own declared Kind
// (header/struct/union), so a caller that only has a sort name — e.g. a
// pipeline's top-level parameter list — doesn't need to already know which
// category it belongs to.
func (r *Registry) NewNamedInstance(name string, n *smt.Namer) *Value {
	return NewStruct(r.Kinds[name], name, r.Structs[name], n)
}
