package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/bibly/internal/intent"
)

func newParseCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Show how a message would be interpreted",
		Example: `  bibly parse "Create a 7-day plan about faith"
  bibly parse next 3 days`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			p := intent.New(cfg.Agent.MaxDays,
				intent.WithDefaultDays(cfg.Agent.DefaultDays),
				intent.WithDefaultTopic(cfg.Agent.DefaultTopic),
			)

			switch c := p.Parse(strings.Join(args, " ")).(type) {
			case intent.CreatePlan:
				fmt.Fprintf(cmd.OutOrStdout(), "create\ttopic=%q\tdays=%d\n", c.Topic, c.NumDays)
			case intent.ContinuePlan:
				fmt.Fprintf(cmd.OutOrStdout(), "continue\tdays=%d\n", c.NumDays)
			}
			return nil
		},
	}
}
