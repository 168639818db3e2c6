package driver

import (
	"github.com/p4bughunt/p4-tv/pkg/ir"
	"github.com/p4bughunt/p4-tv/pkg/smt"
	"github.com/p4bughunt/p4-tv/pkg/value"
)

// initialEnv allocates a fresh symbolic value for every declared parameter
// of a pipeline entry point — the "free inputs" a symbolic run starts from
// (§4.5: a pipeline evaluates to a term over its inputs).
func initialEnv(params []ir.Param, reg *value.Registry, namer *smt.Namer) map[string]*value.Value {
	env := make(map[string]*value.Value, len(params))
	for _, p := range params {
		if p.Type.IsScalar {
			env[p.Name] = value.BV(namer.FreshBV(p.Name, p.Type.Width), p.Type.Width)
			continue
		}
		env[p.Name] = reg.NewNamedInstance(p.Type.Name, namer)
	}
	return env
}
