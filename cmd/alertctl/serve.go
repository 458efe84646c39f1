package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kart-io/alerthub/pkg/config"
	transporthttp "github.com/kart-io/alerthub/transport/http"
)

func newServeCmd(g *globals) *cobra.Command {
	var (
		addr    string
		apiKeys []string
		cors    bool
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the alert API",
		Long: `Serve the alert API over HTTP.

With --watch the configuration file is watched and the channel list is
rebuilt whenever it changes. Global settings (service, environment, flags)
only change on restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd, 0)
			defer cancel()

			h, f, log, cleanup, err := g.newHub(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			if addr == "" {
				addr = f.HTTP.Addr
			}
			srv := transporthttp.NewServer(h, transporthttp.Config{
				Addr:         addr,
				ReadTimeout:  f.HTTP.ReadTimeout,
				WriteTimeout: f.HTTP.WriteTimeout,
				EnableCORS:   cors,
				APIKeys:      apiKeys,
				RateLimit:    f.HTTP.RateLimit,
				RateBurst:    f.HTTP.RateBurst,
			}, log)

			if watch {
				w := config.NewWatcher(g.configPath, config.WithWatchLogger(log))
				go func() {
					err := w.Watch(ctx, func(next *config.File) {
						if n, err := h.Reload(next.Channels); err != nil {
							log.Error("Channel reload failed, keeping current channels", "error", err)
						} else {
							log.Info("Channels reloaded from configuration", "channels", n)
						}
					})
					if err != nil {
						log.Error("Configuration watcher stopped", "error", err)
					}
				}()
			}

			errc := make(chan error, 1)
			go func() { errc <- srv.Start() }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			stopCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			log.Info("Shutting down")
			if err := srv.Stop(stopCtx); err != nil {
				return err
			}
			return <-errc
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from configuration)")
	cmd.Flags().StringSliceVar(&apiKeys, "api-key", nil, "accepted API keys; empty disables authentication")
	cmd.Flags().BoolVar(&cors, "cors", false, "allow cross-origin requests")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload channels when the configuration file changes")
	return cmd
}

