package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// commandContext is cancelled on SIGINT/SIGTERM and, when timeout > 0, after timeout.
func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func newHealthCmd(g *globals) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Send the health-check alert to every channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd, timeout)
			defer cancel()

			h, _, _, cleanup, err := g.newHub(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := h.HealthCheck(ctx)
			if report != nil {
				if perr := printReport(cmd.OutOrStdout(), report, g.jsonOutput); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall dispatch timeout")
	return cmd
}

func newChannelsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List the channels the configuration builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, f, _, cleanup, err := g.newHub(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			channels := h.Channels()
			out := cmd.OutOrStdout()
			if g.jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(channels)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tTYPE\tSERVICE\tENVIRONMENT")
			for i, c := range channels {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, c.Type, c.Service, c.Environment)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if skipped := len(f.Channels) - len(channels); skipped > 0 {
				fmt.Fprintf(out, "%d configured channel(s) skipped, see warnings above\n", skipped)
			}
			return nil
		},
	}
}
