// Package report turns aggregated findings and run accounting into a
// rendered audit report.
package report

import (
	"fmt"
	"time"

	"github.com/kayneai/code-auditor/internal/agent"
	"github.com/kayneai/code-auditor/internal/findings"
)

// Format selects the output renderer.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat maps a config/flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMarkdown, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// RunInfo carries the run-level facts the report header needs.
type RunInfo struct {
	RunID      string         `json:"run_id"`
	Model      string         `json:"model"`
	Provider   string         `json:"provider"`
	Root       string         `json:"root"`
	Reason     string         `json:"termination_reason"`
	Rounds     int            `json:"rounds"`
	ToolCalls  int            `json:"tool_calls"`
	Elapsed    time.Duration  `json:"-"`
	ElapsedMS  int64          `json:"elapsed_ms"`
	Summary    string         `json:"summary,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	Counts     map[string]int `json:"severity_counts"`
	ByCategory map[string]int `json:"category_counts"`
	Partial    bool           `json:"partial"`
}

// Report is the synthesized result of a run. Issues are in final order:
// severity descending, then file path, line, and title ascending.
type Report struct {
	Run    RunInfo          `json:"run"`
	Issues []findings.Issue `json:"issues"`
}

// Synthesize builds a Report from the run state and the aggregator. It is
// called for every terminated run, including aborted ones, so whatever was
// reported before the failure still lands in the output.
func Synthesize(state *agent.RunState, agg *findings.Aggregator, info RunInfo) *Report {
	issues := agg.Finalize()

	counts := make(map[string]int, len(findings.Severities))
	for _, sev := range findings.Severities {
		counts[string(sev)] = 0
	}
	byCategory := make(map[string]int, len(findings.Categories))
	for _, cat := range findings.Categories {
		byCategory[string(cat)] = 0
	}
	for _, issue := range issues {
		counts[string(issue.Severity)]++
		byCategory[string(issue.Category)]++
	}

	info.RunID = state.RunID
	info.Reason = string(state.Reason)
	info.Rounds = state.Rounds
	info.ToolCalls = state.ToolCalls
	info.Elapsed = state.Elapsed
	info.ElapsedMS = state.Elapsed.Milliseconds()
	info.Summary = state.ClosingSummary
	info.StartedAt = state.StartedAt
	info.Counts = counts
	info.ByCategory = byCategory
	info.Partial = state.Reason != agent.ReasonSuccess

	return &Report{Run: info, Issues: issues}
}

// Render serializes the report in the requested format.
func (r *Report) Render(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return r.renderJSON()
	case FormatMarkdown:
		return r.renderMarkdown()
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}
