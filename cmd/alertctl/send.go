package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channels/builtin"
	"github.com/kart-io/alerthub/pkg/receipt"
)

const shutdownTimeout = 10 * time.Second

func newSendCmd(g *globals) *cobra.Command {
	var (
		data    string
		message string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "send <kind> [key=value...]",
		Short: "Send one alert to every channel",
		Long: `Send one alert of kind error, info, warn or success.

Fields come from --data (a JSON object, or @file), then key=value arguments.
Values that parse as JSON keep their type; anything else is a string.`,
		Example: `  alertctl send error message="DB down" error_code=E1 attempts=3
  alertctl send info --data @event.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := alert.ParseKind(args[0])
			if err != nil {
				return err
			}
			event, err := buildEvent(data, args[1:])
			if err != nil {
				return err
			}
			if message != "" {
				event["message"] = message
			}

			ctx, cancel := commandContext(cmd, timeout)
			defer cancel()

			h, _, _, cleanup, err := g.newHub(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := h.Dispatch(ctx, kind, event)
			if report != nil {
				if perr := printReport(cmd.OutOrStdout(), report, g.jsonOutput); perr != nil {
					return perr
				}
			}
			if err != nil {
				return err
			}
			if !report.Success && report.Summary.Total > 0 {
				return fmt.Errorf("alert was not delivered to any channel")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "event fields as a JSON object, or @path to read them from a file")
	cmd.Flags().StringVarP(&message, "message", "m", "", "shorthand for message=...")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall dispatch timeout")
	return cmd
}

// buildEvent merges the --data object with key=value pairs.
func buildEvent(data string, pairs []string) (alert.Event, error) {
	event := alert.Event{}
	if data != "" {
		raw := []byte(data)
		if path, ok := strings.CutPrefix(data, "@"); ok {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read event data: %w", err)
			}
			raw = b
		}
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, fmt.Errorf("event data must be a JSON object: %w", err)
		}
		if event == nil {
			event = alert.Event{}
		}
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q: want key=value", p)
		}
		event[key] = parseValue(value)
	}
	return event, nil
}

func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func printReport(w io.Writer, r *receipt.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	fmt.Fprintf(w, "report %s: %s (%d/%d delivered in %s)\n",
		r.ID, r.Status, r.Summary.Successful, r.Summary.Total, r.Duration().Round(time.Millisecond))
	for _, res := range r.Results {
		if res.Success {
			fmt.Fprintf(w, "  ✓ %-12s %s\n", res.Type, res.Duration.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(w, "  ✗ %-12s %s\n", res.Type, res.Error)
	}
	return nil
}

var builtins = builtin.Registry()

func knownType(tag string) bool {
	_, ok := builtins.Lookup(tag)
	return ok
}
