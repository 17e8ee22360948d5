package report

import (
	"context"
	"errors"
	"sync"

	"github.com/fastmcp4j/mcp-test-harness/framework"

	"github.com/google/uuid"
)

// Totals are the counts for a set of results. Total is always Passed + Failed.
type Totals struct {
	Total  int
	Passed int
	Failed int
}

func (t Totals) add(passed bool) Totals {
	t.Total++
	if passed {
		t.Passed++
	} else {
		t.Failed++
	}
	return t
}

// GroupTotals are the counts for one tool group.
type GroupTotals struct {
	Group string
	Totals
}

// Aggregator accumulates the results of one transport run in arrival order.
type Aggregator struct {
	runID     string
	transport string
	results   []TestResult
	logger    framework.Logger
	lock      sync.Mutex
}

// NewAggregator creates an Aggregator with a fresh run ID.
func NewAggregator(transport string, logger framework.Logger) *Aggregator {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Aggregator{runID: uuid.NewString(), transport: transport, logger: logger}
}

func (a *Aggregator) RunID() string     { return a.runID }
func (a *Aggregator) Transport() string { return a.transport }

// Add appends a result.
func (a *Aggregator) Add(r TestResult) {
	a.lock.Lock()
	a.results = append(a.results, r)
	a.lock.Unlock()
}

func (a *Aggregator) Totals() Totals {
	return sumGroups(a.Groups())
}

// Groups returns the per-group counts, in the order in which each group was first seen.
func (a *Aggregator) Groups() []GroupTotals {
	a.lock.Lock()
	defer a.lock.Unlock()
	return groupResults(a.results)
}

// Snapshot returns a report of everything added so far. It has no timestamp; one is assigned
// by Finalize.
func (a *Aggregator) Snapshot() AggregateReport {
	a.lock.Lock()
	results := append([]TestResult(nil), a.results...)
	a.lock.Unlock()
	return newAggregateReport(a.runID, a.transport, "", results)
}

// Finalize renders the report, gives it a timestamp, and saves it to every store. Every store is
// attempted even if an earlier one fails; the returned error joins all of the failures.
func (a *Aggregator) Finalize(ctx context.Context, stores ...Store) (AggregateReport, error) {
	r := a.Snapshot()
	r.Timestamp = NextTimestamp()
	var errs []error
	for _, s := range stores {
		location, err := s.Save(ctx, r)
		if err != nil {
			a.logger.Printf("Failed to save report to %s: %s", s, err)
			errs = append(errs, err)
			continue
		}
		a.logger.Printf("Saved report to %s", location)
		r.Locations = append(r.Locations, location)
	}
	return r, errors.Join(errs...)
}

func groupResults(results []TestResult) []GroupTotals {
	groups := []GroupTotals{}
	index := make(map[string]int)
	for _, r := range results {
		i, ok := index[r.group]
		if !ok {
			i = len(groups)
			index[r.group] = i
			groups = append(groups, GroupTotals{Group: r.group})
		}
		groups[i].Totals = groups[i].Totals.add(r.passed)
	}
	return groups
}

func sumGroups(groups []GroupTotals) Totals {
	var t Totals
	for _, g := range groups {
		t.Total += g.Total
		t.Passed += g.Passed
		t.Failed += g.Failed
	}
	return t
}
