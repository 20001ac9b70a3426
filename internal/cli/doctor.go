package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// NewDoctorCmd returns a health-check command validating config and backend reachability.
func NewDoctorCmd(opts *Options) *cobra.Command {
	var skipBackend bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and backend connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Provider: %s, model: %s\n", cfg.Model.Provider, cfg.Model.Name)
			fmt.Fprintf(out, "Run bounds: %d rounds, %d tool calls, %d result bytes\n",
				cfg.Run.MaxRounds, cfg.Run.MaxToolCalls, cfg.Run.MaxResultBytes)
			fmt.Fprintf(out, "Scan: up to %d files, %d extensions, %d exclude patterns\n",
				cfg.Scan.MaxFiles, len(cfg.EffectiveExtensions()), len(cfg.EffectiveExcludes()))

			if skipBackend {
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Model.BaseURL, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("backend %s unreachable: %w", cfg.Model.BaseURL, err)
			}
			resp.Body.Close()
			fmt.Fprintf(out, "Backend %s reachable (status %d)\n", cfg.Model.BaseURL, resp.StatusCode)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipBackend, "skip-backend", false, "Skip the backend connectivity probe")
	return cmd
}
