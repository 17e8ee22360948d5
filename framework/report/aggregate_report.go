package report

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// AggregateReport is the summary of a run plus every result in it.
type AggregateReport struct {
	RunID     string
	Timestamp string
	Transport string
	Totals
	Groups   []GroupTotals
	Results  []TestResult
	Failures []TestResult

	// Locations lists where Finalize saved the report. It is not part of the persisted form.
	Locations []string
}

// newAggregateReport derives the totals from the group counts, so that they always agree.
func newAggregateReport(runID, transport, timestamp string, results []TestResult) AggregateReport {
	groups := groupResults(results)
	failures := []TestResult{}
	for _, r := range results {
		if !r.passed {
			failures = append(failures, r)
		}
	}
	if results == nil {
		results = []TestResult{}
	}
	return AggregateReport{
		RunID:     runID,
		Timestamp: timestamp,
		Transport: transport,
		Totals:    sumGroups(groups),
		Groups:    groups,
		Results:   results,
		Failures:  failures,
	}
}

// OK returns true if the run had no failures.
func (r AggregateReport) OK() bool { return r.Failed == 0 }

// MarshalJSON writes the persisted form of the report. Properties are always in the same order:
// timestamp, runId, transport, total, passed, failed, results.
func (r AggregateReport) MarshalJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	obj := w.Object()
	obj.Name("timestamp").String(r.Timestamp)
	obj.Name("runId").String(r.RunID)
	obj.Name("transport").String(r.Transport)
	obj.Name("total").Int(r.Total)
	obj.Name("passed").Int(r.Passed)
	obj.Name("failed").Int(r.Failed)
	arr := obj.Name("results").Array()
	for _, result := range r.Results {
		ro := w.Object()
		ro.Name("group").String(result.group)
		ro.Name("operation").String(result.operation)
		ro.Name("name").String(result.name)
		ro.Name("passed").Bool(result.passed)
		ro.Name("expected").String(result.expected)
		ro.Name("actual").String(result.actual)
		ro.Maybe("error", result.errText != "").String(result.errText)
		ro.End()
	}
	arr.End()
	obj.End()
	return w.Bytes(), w.Error()
}

// ParseReport reads a report in the persisted form. The group breakdown and the failure list are
// recomputed from the results.
func ParseReport(data []byte) (AggregateReport, error) {
	var runID, timestamp, transport string
	var results []TestResult
	r := jreader.NewReader(data)
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "timestamp":
			timestamp = r.String()
		case "runId":
			runID = r.String()
		case "transport":
			transport = r.String()
		case "results":
			for arr := r.Array(); arr.Next(); {
				results = append(results, readTestResult(&r))
			}
		default:
			_ = r.SkipValue()
		}
	}
	if err := r.Error(); err != nil {
		return AggregateReport{}, fmt.Errorf("malformed report: %w", err)
	}
	return newAggregateReport(runID, transport, timestamp, results), nil
}

func readTestResult(r *jreader.Reader) TestResult {
	var result TestResult
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "group":
			result.group = r.String()
		case "operation":
			result.operation = r.String()
		case "name":
			result.name = r.String()
		case "passed":
			result.passed = r.Bool()
		case "expected":
			result.expected = r.String()
		case "actual":
			result.actual = r.String()
		case "error":
			result.errText, _ = r.StringOrNull()
		default:
			_ = r.SkipValue()
		}
	}
	return result
}
