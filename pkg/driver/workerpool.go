package driver

import (
	"runtime"
	"sync"

	"github.com/p4bughunt/p4-tv/pkg/smt"
)

// safeEngine serializes Check calls behind a mutex. A solver context is not
// safe for concurrent queries (the real Z3Engine owns one live *z3.Context),
// so symbolic execution of independent pipelines runs in parallel while the
// actual solving stays serialized — same trade as the original search
// worker pool, which parallelizes candidate generation but still funnels
// every ExhaustiveCheck through its own bounded work.
type safeEngine struct {
	smt.Engine
	mu sync.Mutex
}

func wrapSafe(e smt.Engine) smt.Engine { return &safeEngine{Engine: e} }

func (s *safeEngine) Check(t smt.Term) (smt.Sat, smt.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Engine.Check(t)
}

// runPipelines fans work fn out across at most numWorkers goroutines, one
// per name in names, and collects results at the matching index — mirrors
// pkg/search's WorkerPool shape (bounded goroutines draining a channel)
// without needing its progress-ticker machinery, since a single pair's
// pipeline count is small.
func runPipelines(names []string, numWorkers int, fn func(name string) PipelineResult) []PipelineResult {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(names) {
		numWorkers = len(names)
	}
	if numWorkers <= 1 || len(names) <= 1 {
		results := make([]PipelineResult, len(names))
		for i, n := range names {
			results[i] = fn(n)
		}
		return results
	}

	results := make([]PipelineResult, len(names))
	type task struct {
		idx  int
		name string
	}
	ch := make(chan task, len(names))
	for i, n := range names {
		ch <- task{i, n}
	}
	close(ch)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range ch {
				results[t.idx] = fn(t.name)
			}
		}()
	}
	wg.Wait()
	return results
}
