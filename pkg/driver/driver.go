// Package driver orchestrates a full equivalence check between two IR
// programs (§4.5, §7): load both, run every shared pipeline symbolically,
// compare outputs, and classify the result per the outcome taxonomy in
// outcome.go. The control flow mirrors check_p4_pair's pair-at-a-time walk
// over declared pipelines: every shared pipeline of a pair is checked, and
// the pair's overall outcome is that of the first pipeline, in sorted name
// order, that is not OK.
package driver

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/p4bughunt/p4-tv/pkg/concrete"
	"github.com/p4bughunt/p4-tv/pkg/exec"
	"github.com/p4bughunt/p4-tv/pkg/frontend"
	"github.com/p4bughunt/p4-tv/pkg/ir"
	"github.com/p4bughunt/p4-tv/pkg/smt"
	"github.com/p4bughunt/p4-tv/pkg/symstate"
	"github.com/p4bughunt/p4-tv/pkg/value"
)

// Config controls one pair-of-programs comparison.
type Config struct {
	// AllowUndef enables the undefined-rewrite recheck (§4.5) when the
	// first pass reports a violation: any counterexample that only
	// disagrees through "undefined"-tainted outputs is not a real bug.
	AllowUndef bool
	// Workers bounds how many pipelines within one pair are symbolically
	// executed concurrently. 0 means runtime.NumCPU(). Solver queries
	// themselves are always serialized (see wrapSafe).
	Workers int
	// FailureDir, if set, receives a copy of both programs' IR files
	// whenever a pair's Overall outcome is neither OK nor SKIPPED (§6
	// "Persisted state").
	FailureDir string
	Log        *logrus.Logger
}

// PipelineResult is one pipeline's verdict within a package-pair check.
type PipelineResult struct {
	Pipeline string
	Outcome  Outcome
	Model    smt.Model
	Err      error
}

// PairResult is the outcome of comparing every shared pipeline between two
// programs. Overall is the first non-OK pipeline result, or OK if every
// pipeline matched; Pipelines holds every pipeline actually checked, in
// sorted name order, for reporting.
type PairResult struct {
	Overall   Outcome
	Pipelines []PipelineResult
}

// CheckPair loads progA and progB and checks every pipeline the two
// programs declare in common. reg must already carry the shared type
// environment (see pkg/frontend.LoadTypes) and engine must already have
// declared reg's datatype sorts — both programs in a pair share one P4
// type environment, so the caller loads it once per pair, not per side.
func CheckPair(progA, progB string, engine smt.Engine, reg *value.Registry, cfg Config) (PairResult, error) {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	engine = wrapSafe(engine)

	pkgA, err := frontend.LoadFile(progA)
	if err != nil {
		return PairResult{Overall: FAILURE}, errors.Wrap(err, "driver: load A")
	}
	pkgB, err := frontend.LoadFile(progB)
	if err != nil {
		return PairResult{Overall: FAILURE}, errors.Wrap(err, "driver: load B")
	}

	names := sharedPipelineNames(pkgA, pkgB)
	if len(names) != len(pkgA.Pipelines) || len(names) != len(pkgB.Pipelines) {
		log.WithFields(logrus.Fields{
			"a": progA, "b": progB,
			"pipelines_a": len(pkgA.Pipelines), "pipelines_b": len(pkgB.Pipelines), "shared": len(names),
		}).Warn("driver: pipeline sets disagree, skipping pair")
		return PairResult{Overall: SKIPPED}, nil
	}

	defsA, defsB := frontend.Collect(pkgA), frontend.Collect(pkgB)

	results := runPipelines(names, cfg.Workers, func(name string) PipelineResult {
		return checkPipeline(name, pkgA.Pipelines[name], pkgB.Pipelines[name], defsA, defsB, reg, engine, cfg, log)
	})

	overall := OK
	for _, r := range results {
		if r.Outcome != OK {
			overall = r.Outcome
			break
		}
	}

	if overall != OK && overall != SKIPPED && cfg.FailureDir != "" {
		if err := saveFailure(cfg.FailureDir, progA, progB); err != nil {
			log.WithError(err).Warn("driver: failed to persist failure artifacts")
		}
	}

	if overall == FAILURE {
		if combined := aggregateErrors(results); combined != nil {
			log.WithError(combined).Warn("driver: one or more pipelines failed to check")
		}
	}

	return PairResult{Overall: overall, Pipelines: results}, nil
}

// Run checks a chain of programs pairwise — (progs[0],progs[1]),
// (progs[1],progs[2]), ... — stopping at the first pair whose Overall
// outcome is not OK (§4.5/§7). All pairs share one type environment and one
// solver context, loaded once up front. newEngine builds the engine from
// the declared datatype sorts once reg has every type from typesPath.
func Run(progs []string, typesPath string, newEngine func(*smt.Registry) (smt.Engine, error), cfg Config) ([]PairResult, error) {
	if len(progs) < 2 {
		return nil, errors.New("driver: need at least two programs to compare")
	}

	reg := value.NewRegistry()
	if typesPath != "" {
		if err := frontend.LoadTypes(typesPath, reg); err != nil {
			return nil, err
		}
	}

	engine, err := newEngine(reg.SMTSorts())
	if err != nil {
		return nil, errors.Wrap(err, "driver: build engine")
	}
	defer engine.Close()

	var results []PairResult
	for i := 0; i+1 < len(progs); i++ {
		pr, err := CheckPair(progs[i], progs[i+1], engine, reg, cfg)
		if err != nil {
			return results, err
		}
		results = append(results, pr)
		if pr.Overall != OK {
			break
		}
	}
	return results, nil
}

// aggregateErrors combines every failed pipeline's error into one, so a
// caller logging a FAILURE pair sees all of them rather than just the
// first one runPipelines happened to record. Pipelines within a pair run
// independently of each other, so more than one can legitimately fail for
// unrelated reasons (a malformed action on one side, a solver error on
// another).
func aggregateErrors(results []PipelineResult) error {
	var combined error
	for _, r := range results {
		if r.Err != nil {
			combined = multierr.Append(combined, errors.Wrapf(r.Err, "pipeline %s", r.Pipeline))
		}
	}
	return combined
}

// sharedPipelineNames returns, in sorted order, the pipeline names declared
// by both packages. Declaration order in the IR's own map is not
// meaningful (JSON objects are unordered); sorting gives deterministic,
// reproducible reporting across runs.
func sharedPipelineNames(a, b *ir.Package) []string {
	var names []string
	for name := range a.Pipelines {
		if _, ok := b.Pipelines[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// checkPipeline runs one pipeline entry point under both programs from a
// shared set of fresh symbolic inputs, then checks whether any input makes
// their outputs disagree (§4.5). Params on the two sides must agree in
// name and sort — they come from the same P4 declaration, translated
// twice — so a single initialEnv seeds both runs.
func checkPipeline(name string, pipeA, pipeB ir.Node, defsA, defsB frontend.Defs, reg *value.Registry, engine smt.Engine, cfg Config, log *logrus.Logger) PipelineResult {
	params := frontend.Params(pipeA)
	bodyA, bodyB := frontend.Body(pipeA), frontend.Body(pipeB)
	if bodyA == nil || bodyB == nil {
		return PipelineResult{Pipeline: name, Outcome: UNSUPPORTED, Err: errors.Errorf("driver: %s: unrecognized pipeline kind", name)}
	}

	namer := smt.NewNamer()
	env := initialEnv(params, reg, namer)

	exA := newExecutor(reg, defsA)
	exB := newExecutor(reg, defsB)

	stateA := symstate.New(namer, reg)
	stateB := symstate.New(namer, reg)
	copyEnv(stateA.Env, env)
	copyEnv(stateB.Env, env)

	outA, err := exA.Run(bodyA, stateA)
	if err != nil {
		return PipelineResult{Pipeline: name, Outcome: FAILURE, Err: errors.Wrapf(err, "driver: %s: run A", name)}
	}
	outB, err := exB.Run(bodyB, stateB)
	if err != nil {
		return PipelineResult{Pipeline: name, Outcome: FAILURE, Err: errors.Wrapf(err, "driver: %s: run B", name)}
	}

	if ok, _ := quickReject(outA, outB, params); !ok {
		log.WithField("pipeline", name).Debug("driver: quickcheck found a distinguishing vector, skipping solver")
		return PipelineResult{Pipeline: name, Outcome: VIOLATION}
	}

	mismatch := outputsDiffer(outA, outB)
	sat, model, err := engine.Check(mismatch)
	if err != nil {
		return PipelineResult{Pipeline: name, Outcome: FAILURE, Err: errors.Wrapf(err, "driver: %s: solver", name)}
	}

	switch sat {
	case smt.Unsat:
		return PipelineResult{Pipeline: name, Outcome: OK}
	case smt.Sat_:
		if cfg.AllowUndef {
			if ok := recheckUndefined(outA, outB, namer, engine); ok {
				return PipelineResult{Pipeline: name, Outcome: OK}
			}
		}
		return PipelineResult{Pipeline: name, Outcome: VIOLATION, Model: model}
	default: // Unknown
		return PipelineResult{Pipeline: name, Outcome: VIOLATION, Model: model}
	}
}

func newExecutor(reg *value.Registry, defs frontend.Defs) *exec.Executor {
	ex := exec.New(reg)
	ex.Actions = defs.Actions
	ex.Tables = defs.Tables
	return ex
}

func copyEnv(dst, src map[string]*value.Value) {
	for k, v := range src {
		dst[k] = v.DeepCopy()
	}
}

// outputsDiffer builds the disjunction "some shared output name disagrees"
// (§4.5 "the two outputs are inequivalent iff the solver can satisfy their
// negated equality"). Names present on only one side (locals that never
// made it into the other program's environment) are ignored: they are not
// part of the pipeline's declared observable surface.
func outputsDiffer(a, b map[string]smt.Term) smt.Term {
	var acc smt.Term
	have := false
	for name, ta := range a {
		tb, ok := b[name]
		if !ok {
			continue
		}
		neq := smt.NEq(ta, tb)
		if !have {
			acc, have = neq, true
			continue
		}
		acc = smt.BoolBinary(smt.BoolOr, acc, neq)
	}
	if !have {
		return smt.BoolVal(false)
	}
	return acc
}

// quickReject runs the concrete pre-filter (pkg/concrete) over a handful of
// fixed bit patterns before paying for a solver call. Only scalar
// parameters are exercised this way; a mismatch there is already a real
// counterexample; an accept is inconclusive and falls through to the
// solver.
func quickReject(outA, outB map[string]smt.Term, params []ir.Param) (ok bool, mismatchAt int) {
	var inputs []concrete.Input
	for _, p := range params {
		if p.Type.IsScalar {
			inputs = append(inputs, concrete.Input{Name: p.Name, Width: p.Type.Width})
		}
	}
	if len(inputs) == 0 {
		return true, -1
	}
	vectors := concrete.StandardVectors(inputs)
	return concrete.QuickCheck(outA, outB, vectors)
}

// recheckUndefined rewrites every "undefined"-tainted leaf of term_pre
// (outA, §4.5) to a fresh nondeterministic constant, leaving term_post
// (outB) untouched, and re-checks. If the rewrite introduced any fresh
// constants N, the recheck must hold for every value they could take —
// "∀N. term_pre ≠ term_post" — not just for some assignment, since an
// unconstrained existential nondet can always be picked to disagree with
// outB and would make every undefined read look like a real violation.
// With N empty the rewrite changed nothing, so the original mismatch
// stands.
func recheckUndefined(outA, outB map[string]smt.Term, namer *smt.Namer, engine smt.Engine) bool {
	var nondets []smt.Term
	rewrittenA := make(map[string]smt.Term, len(outA))
	for name, t := range outA {
		rw, _ := substituteUndefined(t, namer, &nondets)
		rewrittenA[name] = rw
	}
	rewritten := outputsDiffer(rewrittenA, outB)

	query := rewritten
	if len(nondets) > 0 {
		query = smt.ForAll(nondets, rewritten)
	}
	sat, _, err := engine.Check(query)
	if err != nil {
		return false
	}
	return sat == smt.Unsat
}
