package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/kayneai/code-auditor/internal/findings"
)

const timeRounding = 10 * time.Millisecond

func (r *Report) renderMarkdown() ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Code Audit Report\n\n")
	fmt.Fprintf(&b, "- **Date:** %s\n", r.Run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Model:** %s (%s)\n", r.Run.Model, r.Run.Provider)
	if r.Run.Root != "" {
		fmt.Fprintf(&b, "- **Target:** %s\n", r.Run.Root)
	}
	fmt.Fprintf(&b, "- **Rounds:** %d, tool calls: %d, elapsed: %s\n", r.Run.Rounds, r.Run.ToolCalls, r.Run.Elapsed.Round(timeRounding))
	fmt.Fprintf(&b, "- **Outcome:** %s\n", r.Run.Reason)
	if r.Run.Partial {
		b.WriteString("\n> **Note:** this run ended before the analysis completed. Findings below may be partial.\n")
	}
	b.WriteString("\n")

	b.WriteString("## Summary\n\n")
	if r.Run.Summary != "" {
		b.WriteString(r.Run.Summary)
		b.WriteString("\n\n")
	}
	if len(r.Issues) == 0 {
		b.WriteString("No issues were reported.\n")
		return []byte(b.String()), nil
	}
	fmt.Fprintf(&b, "%d issue(s) found:\n\n", len(r.Issues))
	b.WriteString("| Severity | Count |\n|---|---|\n")
	for _, sev := range findings.Severities {
		if n := r.Run.Counts[string(sev)]; n > 0 {
			fmt.Fprintf(&b, "| %s | %d |\n", sev, n)
		}
	}
	b.WriteString("\n| Category | Count |\n|---|---|\n")
	for _, cat := range findings.Categories {
		if n := r.Run.ByCategory[string(cat)]; n > 0 {
			fmt.Fprintf(&b, "| %s | %d |\n", cat, n)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Findings\n")
	for _, sev := range findings.Severities {
		group := issuesWithSeverity(r.Issues, sev)
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n", strings.ToUpper(string(sev)))
		for _, issue := range group {
			writeIssue(&b, issue)
		}
	}

	return []byte(b.String()), nil
}

func writeIssue(b *strings.Builder, issue findings.Issue) {
	fmt.Fprintf(b, "\n#### %s\n\n", issue.Title)
	if issue.Line > 0 {
		fmt.Fprintf(b, "- **Location:** `%s:%d`\n", issue.FilePath, issue.Line)
	} else {
		fmt.Fprintf(b, "- **Location:** `%s`\n", issue.FilePath)
	}
	fmt.Fprintf(b, "- **Category:** %s\n\n", issue.Category)
	if issue.Description != "" {
		b.WriteString(issue.Description)
		b.WriteString("\n")
	}
	if issue.SuggestedFix != "" {
		fmt.Fprintf(b, "\n**Suggested fix:** %s\n", issue.SuggestedFix)
	}
}

func issuesWithSeverity(issues []findings.Issue, sev findings.Severity) []findings.Issue {
	var out []findings.Issue
	for _, issue := range issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}
