package findings

import (
	"fmt"
	"strings"
)

// Severity ranks an issue's impact.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists all severities from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
	SeverityInfo:     4,
}

// ParseSeverity normalizes a severity string.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := severityRank[sev]; !ok {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// Rank returns the sort rank of a severity (0 = most severe).
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Category classifies the kind of defect.
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryBug         Category = "bug"
	CategoryPerformance Category = "performance"
	CategoryStyle       Category = "style"
)

// Categories lists all recognized categories.
var Categories = []Category{CategorySecurity, CategoryBug, CategoryPerformance, CategoryStyle}

// ParseCategory normalizes a category string.
func ParseCategory(s string) (Category, error) {
	cat := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if cat == known {
			return cat, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Issue is a single reported code defect.
type Issue struct {
	ID           string   `json:"id"`
	Severity     Severity `json:"severity"`
	Category     Category `json:"category"`
	FilePath     string   `json:"file_path"`
	Line         int      `json:"line_number,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
}

// Key returns the dedup identity: file path, line, normalized title.
func (i Issue) Key() string {
	return fmt.Sprintf("%s:%d:%s", i.FilePath, i.Line, NormalizeTitle(i.Title))
}

// NormalizeTitle lowercases a title, collapses interior whitespace, and
// strips trailing punctuation so trivially reworded duplicates collapse.
func NormalizeTitle(title string) string {
	fields := strings.Fields(strings.ToLower(title))
	joined := strings.Join(fields, " ")
	return strings.TrimRight(joined, ".!?:;,")
}
