package agent

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/kayneai/code-auditor/internal/llm"
	"github.com/kayneai/code-auditor/internal/tools"
	"github.com/kayneai/code-auditor/internal/worktree"
)

// Config bounds a single analysis run.
type Config struct {
	Model        string
	Temperature  float64
	MaxRounds    int
	MaxToolCalls int
	Retry        llm.RetryPolicy
}

// Event reports loop progress to an optional sink (CLI verbose output,
// daemon streaming).
type Event struct {
	Type    string // message|tool|done
	Round   int
	Tool    string
	Content string
	IsError bool
	Reason  TerminationReason
}

// EventFunc receives loop events.
type EventFunc func(Event)

// MetricsRecorder receives run accounting. Implementations must tolerate
// being called from a single goroutine per run.
type MetricsRecorder interface {
	RecordRun(reason string, duration time.Duration, rounds, toolCalls int)
	RecordToolCall(tool string, isError bool)
	RecordBackendFailure(provider string)
}

// Loop drives the round-trip between the model and the tool registry until
// the run terminates. Strictly sequential: one outstanding model request,
// tool calls executed in requested order.
type Loop struct {
	provider llm.Provider
	registry *tools.Registry
	tree     *worktree.Tree
	cfg      Config
	logger   *zap.Logger

	// Optional collaborators.
	Metrics MetricsRecorder
	OnEvent EventFunc
}

// NewLoop constructs a loop over the given provider and tool registry.
func NewLoop(provider llm.Provider, registry *tools.Registry, tree *worktree.Tree, cfg Config, logger *zap.Logger) *Loop {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 50
	}
	if cfg.MaxToolCalls <= 0 {
		cfg.MaxToolCalls = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		provider: provider,
		registry: registry,
		tree:     tree,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes the analysis until a termination condition fires. The
// returned state is always populated; err is non-nil only for backend
// failures, and issues aggregated before the failure are preserved in the
// registry's aggregator either way.
func (l *Loop) Run(ctx context.Context) (*RunState, error) {
	state := newRunState()
	conv := NewConversation(buildSystemPrompt(), buildUserPrompt(l.tree))
	toolSchemas := tools.LLMTools()
	repeats := &repeatTracker{}
	stalledRounds := 0

	l.logger.Info("starting analysis run",
		zap.String("run_id", state.RunID),
		zap.String("model", l.cfg.Model),
		zap.Int("max_rounds", l.cfg.MaxRounds),
		zap.Int("max_tool_calls", l.cfg.MaxToolCalls))

	for {
		if err := ctx.Err(); err != nil {
			state.terminate(ReasonCancelled)
			l.finish(state)
			return state, nil
		}

		req := llm.ChatRequest{
			Model:       l.cfg.Model,
			Messages:    conv.Messages(),
			Tools:       toolSchemas,
			Temperature: l.cfg.Temperature,
		}

		resp, err := llm.Chat(ctx, l.provider, req, l.cfg.Retry)
		if err != nil {
			if ctx.Err() != nil {
				state.terminate(ReasonCancelled)
				l.finish(state)
				return state, nil
			}
			l.logger.Error("backend request failed", zap.String("run_id", state.RunID), zap.Error(err))
			if l.Metrics != nil {
				l.Metrics.RecordBackendFailure(l.provider.Name())
			}
			state.terminate(ReasonBackendFailure)
			l.finish(state)
			return state, err
		}

		conv.AppendAssistant(resp.Message)
		state.Rounds++

		if resp.Message.Content != "" {
			l.emit(Event{Type: "message", Round: state.Rounds, Content: resp.Message.Content})
		}

		finished := false
		looping := false

		if len(resp.Message.ToolCalls) == 0 {
			stalledRounds++
			if stalledRounds <= 1 {
				conv.AppendUser(stallNudge)
			}
		} else {
			stalledRounds = 0
			// Sequential execution in call order; each result is appended
			// immediately so the model's next turn correlates positionally.
			for _, call := range resp.Message.ToolCalls {
				res := l.registry.Execute(ctx, call)
				conv.AppendToolResult(call.ID, call.Function.Name, res.Content)
				state.ToolCalls++

				if l.Metrics != nil {
					l.Metrics.RecordToolCall(call.Function.Name, res.IsError)
				}
				l.emit(Event{Type: "tool", Round: state.Rounds, Tool: call.Function.Name, Content: res.Content, IsError: res.IsError})

				if repeats.observe(callSignature(call)) {
					looping = true
				}
				if call.Function.Name == tools.ToolFinishAnalysis && !res.IsError {
					finished = true
					state.ClosingSummary = closingSummary(call)
				}
			}
		}

		// Termination conditions, first match wins.
		switch {
		case finished:
			state.terminate(ReasonSuccess)
		case state.Rounds >= l.cfg.MaxRounds:
			state.terminate(ReasonBudgetExhausted)
		case state.ToolCalls >= l.cfg.MaxToolCalls:
			state.terminate(ReasonBudgetExhausted)
		case stalledRounds > 1:
			state.terminate(ReasonStalled)
		case looping:
			l.logger.Warn("repeated identical tool calls, stopping", zap.String("run_id", state.RunID))
			state.terminate(ReasonStalled)
		}

		if state.Terminated {
			l.finish(state)
			return state, nil
		}
	}
}

func (l *Loop) finish(state *RunState) {
	l.logger.Info("analysis run terminated",
		zap.String("run_id", state.RunID),
		zap.String("reason", string(state.Reason)),
		zap.Int("rounds", state.Rounds),
		zap.Int("tool_calls", state.ToolCalls),
		zap.Duration("elapsed", state.Elapsed))
	if l.Metrics != nil {
		l.Metrics.RecordRun(string(state.Reason), state.Elapsed, state.Rounds, state.ToolCalls)
	}
	l.emit(Event{Type: "done", Round: state.Rounds, Reason: state.Reason})
}

func (l *Loop) emit(ev Event) {
	if l.OnEvent != nil {
		l.OnEvent(ev)
	}
}

// closingSummary extracts the optional summary argument of finish_analysis.
func closingSummary(call llm.ToolCall) string {
	var args struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(call.Function.Arguments, &args); err != nil {
		return ""
	}
	return args.Summary
}
