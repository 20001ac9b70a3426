package findings

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// AddResult reports the outcome of an Add call.
type AddResult int

const (
	Accepted AddResult = iota
	DuplicateIgnored
)

// Aggregator accumulates issues reported during a run, dropping duplicates.
// First report wins; the model has no channel to revise an earlier report.
type Aggregator struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	issues []Issue
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]struct{})}
}

// Add records a candidate issue. Candidates sharing the identity key of an
// existing issue are ignored. Missing IDs are assigned.
func (a *Aggregator) Add(issue Issue) AddResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := issue.Key()
	if _, ok := a.seen[key]; ok {
		return DuplicateIgnored
	}
	a.seen[key] = struct{}{}

	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	a.issues = append(a.issues, issue)
	return Accepted
}

// Len reports the number of accepted issues.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.issues)
}

// Finalize returns the accepted issues sorted by severity (most severe
// first), then file path, line, and title. The ordering depends only on
// the issue set, never on insertion order.
func (a *Aggregator) Finalize() []Issue {
	a.mu.Lock()
	out := make([]Issue, len(a.issues))
	copy(out, a.issues)
	a.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() < out[j].Severity.Rank()
		}
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Title < out[j].Title
	})
	return out
}
