package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kayneai/code-auditor/internal/agent"
	"github.com/kayneai/code-auditor/internal/config"
	"github.com/kayneai/code-auditor/internal/findings"
	"github.com/kayneai/code-auditor/internal/llm/configbuilder"
	"github.com/kayneai/code-auditor/internal/logging"
	"github.com/kayneai/code-auditor/internal/report"
	"github.com/kayneai/code-auditor/internal/tools"
	"github.com/kayneai/code-auditor/internal/worktree"
)

// NewAuditCmd runs a full audit against a local directory.
func NewAuditCmd(opts *Options) *cobra.Command {
	var (
		path         string
		model        string
		provider     string
		backendURL   string
		outputPath   string
		format       string
		maxFiles     int
		maxRounds    int
		maxToolCalls int
		temperature  float64
		timeout      int
		extensions   []string
		excludes     []string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "audit [path]",
		Short: "Analyze a codebase and write an audit report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				path = args[0]
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if repoCfg, err := config.LoadFromRepo(path); err != nil {
				return err
			} else if repoCfg != nil {
				cfg = repoCfg
			}
			applyAuditFlags(cmd, cfg, auditFlags{
				model: model, provider: provider, backendURL: backendURL,
				outputPath: outputPath, format: format,
				maxFiles: maxFiles, maxRounds: maxRounds, maxToolCalls: maxToolCalls,
				temperature: temperature, timeout: timeout,
				extensions: extensions, excludes: excludes,
			})
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runAudit(ctx, cmd, cfg, path, verbose, logger)
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Directory to audit")
	cmd.Flags().StringVar(&model, "model", "", "Model identifier override")
	cmd.Flags().StringVar(&provider, "provider", "", "Backend provider (ollama or openai)")
	cmd.Flags().StringVar(&backendURL, "backend-url", "", "Backend API base URL")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Report output path ('-' for stdout)")
	cmd.Flags().StringVar(&format, "format", "", "Report format (markdown or json)")
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "Maximum number of files to surface")
	cmd.Flags().IntVar(&maxRounds, "max-rounds", 0, "Maximum model round-trips")
	cmd.Flags().IntVar(&maxToolCalls, "max-tool-calls", 0, "Maximum tool invocations")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Per-request timeout in seconds")
	cmd.Flags().StringSliceVar(&extensions, "extensions", nil, "File extensions to include")
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Names or glob patterns to exclude")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print tool activity while running")

	return cmd
}

type auditFlags struct {
	model, provider, backendURL string
	outputPath, format          string
	maxFiles, maxRounds         int
	maxToolCalls, timeout       int
	temperature                 float64
	extensions, excludes        []string
}

// applyAuditFlags overlays explicitly set flags on the loaded configuration.
func applyAuditFlags(cmd *cobra.Command, cfg *config.Config, f auditFlags) {
	if cmd.Flags().Changed("model") {
		cfg.Model.Name = f.model
	}
	if cmd.Flags().Changed("provider") {
		cfg.Model.Provider = f.provider
	}
	if cmd.Flags().Changed("backend-url") {
		cfg.Model.BaseURL = f.backendURL
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Path = f.outputPath
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = f.format
	}
	if cmd.Flags().Changed("max-files") {
		cfg.Scan.MaxFiles = f.maxFiles
	}
	if cmd.Flags().Changed("max-rounds") {
		cfg.Run.MaxRounds = f.maxRounds
	}
	if cmd.Flags().Changed("max-tool-calls") {
		cfg.Run.MaxToolCalls = f.maxToolCalls
	}
	if cmd.Flags().Changed("temperature") {
		cfg.Model.Temperature = f.temperature
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Model.TimeoutSeconds = f.timeout
	}
	if cmd.Flags().Changed("extensions") {
		cfg.Scan.Extensions = f.extensions
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Scan.Excludes = f.excludes
	}
}

func runAudit(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path string, verbose bool, logger *zap.Logger) error {
	provider, err := configbuilder.BuildProvider(cfg.Model)
	if err != nil {
		return err
	}

	tree, err := worktree.Scan(path, worktree.ScanOptions{
		MaxFiles:   cfg.Scan.MaxFiles,
		Extensions: cfg.EffectiveExtensions(),
		Excludes:   cfg.EffectiveExcludes(),
	})
	if err != nil {
		return err
	}
	logger.Info("scanned working tree",
		zap.String("root", tree.Root()),
		zap.Int("files", len(tree.Entries())))
	if len(tree.Entries()) == 0 {
		return fmt.Errorf("no auditable files found under %s", path)
	}

	aggregator := findings.NewAggregator()
	registry, err := tools.NewRegistry(tree, aggregator, cfg.Run.MaxResultBytes)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	loop := agent.NewLoop(provider, registry, tree, agent.Config{
		Model:        cfg.Model.Name,
		Temperature:  cfg.Model.Temperature,
		MaxRounds:    cfg.Run.MaxRounds,
		MaxToolCalls: cfg.Run.MaxToolCalls,
		Retry:        configbuilder.BuildRetryPolicy(cfg.Model),
	}, logger)
	if verbose {
		loop.OnEvent = func(ev agent.Event) {
			switch ev.Type {
			case "message":
				fmt.Fprintf(cmd.ErrOrStderr(), "[round %d] %s\n", ev.Round, ev.Content)
			case "tool":
				fmt.Fprintf(cmd.ErrOrStderr(), "[tool %s] %s\n", ev.Tool, firstLine(ev.Content))
			}
		}
	}

	state, runErr := loop.Run(ctx)

	// Synthesize and write the report even for aborted runs so partial
	// findings are never lost.
	rep := report.Synthesize(state, aggregator, report.RunInfo{
		Model:    cfg.Model.Name,
		Provider: provider.Name(),
		Root:     tree.Root(),
	})
	rendered, err := rep.Render(format)
	if err != nil {
		return err
	}
	if err := writeReport(cmd, cfg.Output.Path, rendered); err != nil {
		return err
	}

	printSummary(cmd, rep, cfg.Output.Path)

	if runErr != nil {
		return fmt.Errorf("analysis aborted: %w", runErr)
	}
	return nil
}

func writeReport(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// printSummary prints the per-severity issue counts and outcome to stdout.
func printSummary(cmd *cobra.Command, rep *report.Report, outputPath string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Audit finished: %s (%d rounds, %d tool calls, %s)\n",
		rep.Run.Reason, rep.Run.Rounds, rep.Run.ToolCalls, rep.Run.Elapsed.Round(10*time.Millisecond))
	if len(rep.Issues) == 0 {
		fmt.Fprintln(out, "No issues reported.")
	} else {
		fmt.Fprintf(out, "%d issue(s):", len(rep.Issues))
		for _, sev := range findings.Severities {
			if n := rep.Run.Counts[string(sev)]; n > 0 {
				fmt.Fprintf(out, " %s=%d", sev, n)
			}
		}
		fmt.Fprintln(out)
	}
	if outputPath != "-" {
		fmt.Fprintf(out, "Report written to %s\n", outputPath)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
