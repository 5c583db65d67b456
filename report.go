package main

import (
	"encoding/json"
	"io"
	"time"

	"sjsage522/toriwatch/pkg/parser"
	"sjsage522/toriwatch/services/worker"
)

// pageReport is one line of output, one per page
type pageReport struct {
	Page      string        `json:"page"`
	FetchedAt *time.Time    `json:"fetched_at,omitempty"`
	Items     []parser.Item `json:"items"`
	Failures  []string      `json:"failures,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func newPageReport(r worker.Result) pageReport {
	report := pageReport{Page: r.Job.Path, Items: []parser.Item{}}
	if r.Err != nil {
		report.Error = r.Err.Error()
		return report
	}

	ref := r.Outcome.Reference
	report.FetchedAt = &ref
	report.Items = r.Outcome.Items
	for _, f := range r.Outcome.Failures {
		report.Failures = append(report.Failures, f.Error())
	}
	return report
}

// writeReports writes the results as JSON lines in job order
func writeReports(w io.Writer, results []worker.Result) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range results {
		if err := enc.Encode(newPageReport(r)); err != nil {
			return err
		}
	}
	return nil
}

func countFailed(results []worker.Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
