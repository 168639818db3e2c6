// Package frontend is the thin collaborator that turns a JSON IR document
// on disk into a decoded *ir.Package plus its action/table definitions —
// not an IR producer itself (translating a P4 program to this JSON shape is
// out of scope; see the core's own documentation). It exists only so
// pkg/driver and cmd/p4tv have one place that knows the on-disk shape of a
// "program".
package frontend

import (
	"os"

	"github.com/pkg/errors"

	"github.com/p4bughunt/p4-tv/pkg/ir"
)

// LoadFile reads and decodes one program's IR document.
func LoadFile(path string) (*ir.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "frontend: read %q", path)
	}
	n, err := ir.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "frontend: decode %q", path)
	}
	pkg, ok := n.(*ir.Package)
	if !ok {
		return nil, errors.Errorf("frontend: %q: top-level node is %T, not a Package", path, n)
	}
	return pkg, nil
}

// Defs collects every action/table definition reachable from a package's
// pipelines, by name. A pipeline's Locals list carries declared variables
// and local action/table definitions side by side (P4's own scoping), so
// Collect simply filters by node kind.
type Defs struct {
	Actions map[string]*ir.ActionDef
	Tables  map[string]*ir.TableDef
}

func Collect(pkg *ir.Package) Defs {
	d := Defs{Actions: map[string]*ir.ActionDef{}, Tables: map[string]*ir.TableDef{}}
	for _, pipe := range pkg.Pipelines {
		collectOne(pipe, &d)
	}
	return d
}

func collectOne(n ir.Node, d *Defs) {
	var locals []ir.Node
	switch node := n.(type) {
	case *ir.ControlDef:
		locals = node.Locals
	case *ir.ParserDef:
		locals = node.Locals
	default:
		return
	}
	for _, l := range locals {
		switch def := l.(type) {
		case *ir.ActionDef:
			d.Actions[def.Name] = def
		case *ir.TableDef:
			d.Tables[def.Name] = def
		}
	}
}

// Params returns the declared parameter list of a pipeline entry point.
func Params(pipe ir.Node) []ir.Param {
	switch node := pipe.(type) {
	case *ir.ControlDef:
		return node.Params
	case *ir.ParserDef:
		return node.Params
	}
	return nil
}

// Body returns the executable body of a pipeline entry point.
func Body(pipe ir.Node) ir.Node {
	switch node := pipe.(type) {
	case *ir.ControlDef:
		return node.Body
	case *ir.ParserDef:
		return node.Body
	}
	return nil
}
