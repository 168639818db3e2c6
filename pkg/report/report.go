// Package report accumulates pair-check results across a whole --progs
// run and renders them as a table, the way pkg/result accumulates and
// sorts optimization rules in the core this was adapted from.
package report

import (
	"io"
	"sort"
	"sync"

	"github.com/olekukonko/tablewriter"

	"github.com/p4bughunt/p4-tv/pkg/driver"
)

// Entry is one program-pair's verdict, tagged with the two paths that
// produced it so a rendered report can point back at its inputs.
type Entry struct {
	A, B string
	driver.PairResult
}

// Table collects entries from possibly-concurrent workers.
type Table struct {
	mu      sync.Mutex
	entries []Entry
}

func NewTable() *Table { return &Table{} }

func (t *Table) Add(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
}

// Entries returns a copy sorted by (A, B) for reproducible report order.
func (t *Table) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Counts tallies entries by overall Outcome.
func (t *Table) Counts() map[driver.Outcome]int {
	counts := make(map[driver.Outcome]int)
	for _, e := range t.Entries() {
		counts[e.Overall]++
	}
	return counts
}

// Render writes a human-readable summary table to w: one row per checked
// pipeline of each program pair, whatever its outcome, or a single row
// with the pair's overall outcome when no pipeline was checked (a SKIPPED
// pair, for instance).
func Render(w io.Writer, t *Table) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"A", "B", "Pipeline", "Outcome"})
	tw.SetAutoWrapText(false)

	for _, e := range t.Entries() {
		if len(e.Pipelines) == 0 {
			tw.Append([]string{e.A, e.B, "-", e.Overall.String()})
			continue
		}
		for _, p := range e.Pipelines {
			row := []string{e.A, e.B, p.Pipeline, p.Outcome.String()}
			tw.Append(row)
		}
	}
	tw.Render()
}
