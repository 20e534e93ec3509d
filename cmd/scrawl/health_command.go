package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scrawl/internal/deps"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check interpreter and backend availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			healthy := true

			interp, err := ctx.newInterpreter()
			if err != nil {
				return err
			}
			switch {
			case interp == nil:
				healthy = false
				fmt.Fprintln(out, "interpreter: not configured (set interpreter.api_key)")
			default:
				if err := interp.HealthCheck(cmd.Context()); err != nil {
					healthy = false
					fmt.Fprintf(out, "interpreter: unreachable (%v)\n", err)
				} else {
					fmt.Fprintf(out, "interpreter: ok (%s)\n", cfg.Interpreter.Model)
				}
			}

			backends, err := ctx.newBackends()
			if err != nil {
				return err
			}
			if len(backends) == 0 {
				fmt.Fprintln(out, "recognition: no backends enabled (text input only)")
			}
			for _, backend := range backends {
				fmt.Fprintf(out, "recognition: %s enabled\n", backend.Name())
			}

			for _, status := range deps.CheckBinaries(deps.Default(cfg)) {
				if status.Available {
					fmt.Fprintf(out, "tool: %s ok\n", status.Name)
					continue
				}
				if !status.Optional {
					healthy = false
				}
				fmt.Fprintf(out, "tool: %s missing (%s)\n", status.Name, status.Detail)
			}

			if !healthy {
				return fmt.Errorf("health check failed")
			}
			return nil
		},
	}
}
