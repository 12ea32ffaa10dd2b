package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bookreel/internal/services/imagegen"
	"bookreel/internal/services/scriptgen"
	"bookreel/internal/services/videogen"
)

const healthCheckTimeout = 15 * time.Second

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to the configured providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			checks := []struct {
				name  string
				check func(context.Context) error
			}{
				{"script provider", scriptgen.NewClient(cfg.Providers.Script).HealthCheck},
				{"image provider", imagegen.NewClient(cfg.Providers.Image).HealthCheck},
				{"video provider", videogen.NewClient(cfg.Providers.Video).HealthCheck},
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Provider Health", colorize) {
				fmt.Fprintln(out, line)
			}

			var failures []error
			for _, probe := range checks {
				checkCtx, cancel := context.WithTimeout(cmd.Context(), healthCheckTimeout)
				err := probe.check(checkCtx)
				cancel()

				if err != nil {
					failures = append(failures, fmt.Errorf("%s: %w", probe.name, err))
					fmt.Fprintln(out, renderStatusLine(probe.name, statusError, err.Error(), colorize))
					continue
				}
				fmt.Fprintln(out, renderStatusLine(probe.name, statusOK, "", colorize))
			}

			if len(failures) > 0 {
				return errors.Join(failures...)
			}
			return nil
		},
	}
}
