package agent

import (
	"time"

	"github.com/google/uuid"
)

// TerminationReason explains why a run stopped.
type TerminationReason string

const (
	ReasonSuccess         TerminationReason = "success"
	ReasonBudgetExhausted TerminationReason = "budget_exhausted"
	ReasonStalled         TerminationReason = "stalled"
	ReasonBackendFailure  TerminationReason = "backend_failure"
	ReasonCancelled       TerminationReason = "cancelled"
)

// RunState tracks loop progress. Owned exclusively by the loop while running;
// the final snapshot is handed to report synthesis.
type RunState struct {
	RunID          string
	Rounds         int
	ToolCalls      int
	StartedAt      time.Time
	Elapsed        time.Duration
	Terminated     bool
	Reason         TerminationReason
	ClosingSummary string
}

// newRunState starts the clock for a fresh run.
func newRunState() *RunState {
	return &RunState{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// terminate marks the run finished exactly once; later calls are ignored.
func (s *RunState) terminate(reason TerminationReason) {
	if s.Terminated {
		return
	}
	s.Terminated = true
	s.Reason = reason
	s.Elapsed = time.Since(s.StartedAt)
}
