// Command alertctl sends alerts through a configured hub and serves the
// alert API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kart-io/alerthub/pkg/config"
	"github.com/kart-io/alerthub/pkg/hub"
	"github.com/kart-io/alerthub/pkg/logger"
	"github.com/kart-io/alerthub/pkg/observability"
)

var version = "dev"

type globals struct {
	configPath string
	logLevel   string
	jsonOutput bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "alertctl",
		Short:         "Dispatch alerts to every configured channel",
		Long:          "alertctl loads a hub configuration and fans alerts out to Slack, Discord, Telegram, email and webhook channels.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "alerthub.yaml", "path to the hub configuration file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override the configured log level")
	root.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		newSendCmd(g),
		newHealthCmd(g),
		newChannelsCmd(g),
		newServeCmd(g),
	)
	return root
}

// load reads the configuration and builds the logger for it.
func (g *globals) load(stderr io.Writer) (*config.File, logger.Logger, error) {
	f, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	level := f.LogLevel
	if g.logLevel != "" {
		level = g.logLevel
	}
	return f, logger.NewConsole(stderr, logger.ParseLevel(level, logger.Info)), nil
}

// newHub builds the hub described by the configuration. The returned
// cleanup closes the hub and flushes telemetry.
func (g *globals) newHub(ctx context.Context, stderr io.Writer, extra ...hub.Option) (*hub.Hub, *config.File, logger.Logger, func(), error) {
	f, log, err := g.load(stderr)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	for _, w := range f.Warnings(knownType) {
		log.Warn("Configuration warning", "warning", w)
	}

	h, tel, err := hub.NewFromConfig(ctx, f, log, extra...)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cleanup := func() {
		if err := h.Close(); err != nil {
			log.Warn("Failed to close hub", "error", err)
		}
		shutdown(tel, log)
	}
	return h, f, log, cleanup, nil
}

func shutdown(tel *observability.Telemetry, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		log.Warn("Failed to flush telemetry", "error", err)
	}
}
