package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/bibly/internal/server"
	"github.com/HendryAvila/bibly/internal/updater"
)

func newMCPCommand(o *rootOptions) *cobra.Command {
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the agent as an MCP server over stdio",
		Long: `Serve the agent over the Model Context Protocol (stdio transport).

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "bibly": {
        "command": "bibly",
        "args": ["mcp"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			// stdout carries the protocol stream.
			log := logger(cmd, cfg)

			app, cleanup, err := server.Build(cfg, log)
			if err != nil {
				return fmt.Errorf("creating agent: %w", err)
			}
			defer cleanup()

			if !skipCheck {
				go notifyUpdate(cmd.Context(), cmd.ErrOrStderr())
			}
			return mcpserver.ServeStdio(server.NewMCP(app))
		},
	}

	cmd.Flags().BoolVar(&skipCheck, "no-update-check", false, "skip the background release check")
	return cmd
}

// notifyUpdate prints a notice to w if a newer release exists.
func notifyUpdate(ctx context.Context, w io.Writer) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	result := newChecker().Check(ctx, server.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(w,
			"\n  📦 Update available: v%s → v%s\n"+
				"     Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}

// newChecker is a package-level var to allow test injection.
var newChecker = func() *updater.Checker {
	return updater.NewChecker("", nil)
}
