package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/bibly/internal/httpapi"
	"github.com/HendryAvila/bibly/internal/server"
)

func newServeCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the A2A JSON-RPC endpoint over HTTP",
		Long: `Serve the agent over HTTP.

Endpoints:
  POST /a2a/scripture              JSON-RPC 2.0 (message/send, execute)
  GET  /a2a/metadata               agent metadata
  GET  /.well-known/agent-card.json A2A agent card
  GET  /a2a/plans/{contextId}      plan progress
  DELETE /a2a/plans/{contextId}    forget a plan
  GET  /healthz                    liveness

The port comes from --port, BIBLY_SERVER_PORT, PORT or the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			log := logger(cmd, cfg)

			app, cleanup, err := server.Build(cfg, log)
			if err != nil {
				return fmt.Errorf("creating agent: %w", err)
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("starting agent",
				"name", app.Identity.Name, "version", app.Identity.Version, "url", app.Identity.URL)
			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			return httpapi.ListenAndServe(ctx, addr, app.HTTPHandler(), app.HTTPTimeouts(), log)
		},
	}

	cmd.Flags().IntP("port", "p", 0, "port to listen on")
	_ = o.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}
