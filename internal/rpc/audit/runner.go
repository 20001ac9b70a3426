package audit

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kayneai/code-auditor/internal/agent"
	"github.com/kayneai/code-auditor/internal/config"
	"github.com/kayneai/code-auditor/internal/findings"
	"github.com/kayneai/code-auditor/internal/llm/configbuilder"
	"github.com/kayneai/code-auditor/internal/observability"
	"github.com/kayneai/code-auditor/internal/report"
	"github.com/kayneai/code-auditor/internal/rpc"
	"github.com/kayneai/code-auditor/internal/tools"
	"github.com/kayneai/code-auditor/internal/worktree"
)

// Runner executes an audit and yields streamed events.
type Runner interface {
	Run(r *http.Request, req rpc.RunAuditRequest) (<-chan rpc.AuditEvent, error)
}

// AuditRunner drives a full audit run per request: scan, agent loop,
// report synthesis. Each request gets its own aggregator and tool registry.
type AuditRunner struct {
	Cfg     *config.Config
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Run starts the audit in a goroutine and streams progress events. The
// final "report" event carries the rendered report even when the run
// terminated early.
func (r *AuditRunner) Run(reqCtx *http.Request, req rpc.RunAuditRequest) (<-chan rpc.AuditEvent, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	cfg := r.effectiveConfig(req)
	provider, err := configbuilder.BuildProvider(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("build provider: %w", err)
	}

	tree, err := worktree.Scan(req.Path, worktree.ScanOptions{
		MaxFiles:   cfg.Scan.MaxFiles,
		Extensions: cfg.EffectiveExtensions(),
		Excludes:   cfg.EffectiveExcludes(),
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", req.Path, err)
	}

	aggregator := findings.NewAggregator()
	registry, err := tools.NewRegistry(tree, aggregator, cfg.Run.MaxResultBytes)
	if err != nil {
		return nil, fmt.Errorf("build tools: %w", err)
	}

	format := report.FormatJSON
	if req.Format != "" {
		format, err = report.ParseFormat(req.Format)
		if err != nil {
			return nil, err
		}
	}

	out := make(chan rpc.AuditEvent, 16)
	go func() {
		defer close(out)

		loop := agent.NewLoop(provider, registry, tree, agent.Config{
			Model:        cfg.Model.Name,
			Temperature:  cfg.Model.Temperature,
			MaxRounds:    cfg.Run.MaxRounds,
			MaxToolCalls: cfg.Run.MaxToolCalls,
			Retry:        configbuilder.BuildRetryPolicy(cfg.Model),
		}, r.Logger)
		loop.Metrics = r.Metrics
		loop.OnEvent = func(ev agent.Event) {
			switch ev.Type {
			case "message":
				out <- rpc.AuditEvent{Type: "message", RunID: req.RunID, Round: ev.Round, Message: ev.Content}
			case "tool":
				out <- rpc.AuditEvent{Type: "tool", RunID: req.RunID, Round: ev.Round, ToolName: ev.Tool, ToolOutput: ev.Content, ToolError: ev.IsError}
			}
		}

		state, runErr := loop.Run(reqCtx.Context())
		if runErr != nil {
			out <- rpc.AuditEvent{Type: "error", RunID: req.RunID, Error: runErr.Error()}
		}

		rep := report.Synthesize(state, aggregator, report.RunInfo{
			Model:    cfg.Model.Name,
			Provider: provider.Name(),
			Root:     tree.Root(),
		})
		for _, issue := range rep.Issues {
			r.Metrics.RecordIssue(string(issue.Severity))
		}
		rendered, renderErr := rep.Render(format)
		if renderErr != nil {
			out <- rpc.AuditEvent{Type: "error", RunID: req.RunID, Error: renderErr.Error()}
		} else {
			out <- rpc.AuditEvent{Type: "report", RunID: req.RunID, Report: string(rendered)}
		}

		out <- rpc.AuditEvent{
			Type:   "done",
			RunID:  req.RunID,
			Round:  state.Rounds,
			Reason: string(state.Reason),
			Done:   true,
		}
	}()
	return out, nil
}

// effectiveConfig overlays request overrides on the daemon configuration.
func (r *AuditRunner) effectiveConfig(req rpc.RunAuditRequest) config.Config {
	cfg := *r.Cfg
	if req.Model != "" {
		cfg.Model.Name = req.Model
	}
	if req.Provider != "" {
		cfg.Model.Provider = req.Provider
	}
	if req.BaseURL != "" {
		cfg.Model.BaseURL = req.BaseURL
	}
	if req.MaxRounds > 0 {
		cfg.Run.MaxRounds = req.MaxRounds
	}
	if req.MaxToolCalls > 0 {
		cfg.Run.MaxToolCalls = req.MaxToolCalls
	}
	if req.MaxFiles > 0 {
		cfg.Scan.MaxFiles = req.MaxFiles
	}
	if len(req.Extensions) > 0 {
		cfg.Scan.Extensions = req.Extensions
	}
	if len(req.Excludes) > 0 {
		cfg.Scan.Excludes = req.Excludes
	}
	return cfg
}
