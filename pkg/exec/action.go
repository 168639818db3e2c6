package exec

import (
	"github.com/pkg/errors"

	"github.com/p4bughunt/p4-tv/pkg/ir"
	"github.com/p4bughunt/p4-tv/pkg/symstate"
	"github.com/p4bughunt/p4-tv/pkg/value"
)

// paramBinding remembers how Invoke bound one parameter, so Invoke can
// unwind the calling convention on the way out (§4.4 "Action calls").
type paramBinding struct {
	name      string
	callerRef string // "" for `in` params (nothing to write back)
}

// Invoke implements eval.Invoker: it installs the callee's body with a
// fresh parameter frame and applies the in/inout/out calling convention
// of §4.4:
//   - `in` parameters receive the caller's evaluated value;
//   - `inout`/`out` parameters receive a reference — on exit the
//     caller's binding is updated from the frame;
//   - after the action returns, any `in` parameter introduced into scope
//     is deleted, and previously-shadowed names are restored from the
//     save buffer.
func (ex *Executor) Invoke(callee *value.Value, method string, argNodes []ir.Node, s *symstate.State) (*value.Value, error) {
	def, ok := ex.Actions[method]
	if !ok {
		return nil, errors.Errorf("exec: no action/control named %q", method)
	}

	shadowed := make(map[string]*value.Value)
	var bindings []paramBinding
	for i, p := range def.Params {
		if prev, ok := s.Env[p.Name]; ok {
			shadowed[p.Name] = prev
		}

		var callerRef string
		if i < len(argNodes) {
			if p.Dir != ir.DirIn {
				if name, err := lvalName(argNodes[i]); err == nil {
					callerRef = name
				}
			}
			argVal, err := ex.Eval.Eval(argNodes[i], s)
			if err != nil {
				return nil, errors.Wrapf(err, "exec: argument %d of %q", i, method)
			}
			s.Env[p.Name] = argVal.DeepCopy()
		}
		bindings = append(bindings, paramBinding{name: p.Name, callerRef: callerRef})
	}
	s.PushSave(shadowed)

	if err := ex.execNode(def.Body, s); err != nil {
		return nil, errors.Wrapf(err, "exec: invoking %q", method)
	}

	for _, b := range bindings {
		if b.callerRef == "" {
			s.Delete(b.name)
			continue
		}
		if v, ok := s.Env[b.name]; ok {
			s.Assign(b.callerRef, v)
			s.Delete(b.name)
		}
	}
	restore := s.PopSave()
	for name, v := range restore {
		s.Env[name] = v
	}

	return nil, nil
}
