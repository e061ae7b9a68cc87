// Package cmd implements the bibly command line.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HendryAvila/bibly/internal/config"
	"github.com/HendryAvila/bibly/internal/logging"
)

// rootOptions is the state shared by every subcommand.
type rootOptions struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCommand builds the command tree with a fresh configuration
// instance.
func NewRootCommand() *cobra.Command {
	o := &rootOptions{v: viper.New()}

	root := &cobra.Command{
		Use:   "bibly",
		Short: "Bible reading-plan agent",
		Long: `Bibly builds themed, multi-day Bible reading plans.

It speaks JSON-RPC 2.0 (A2A) over HTTP and the Model Context Protocol over
stdio. Say "create a 7 day plan about faith" and then "next 3 days".`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&o.cfgFile, "config", "c", "",
		"config file (default is "+config.ConfigFile()+")")
	root.PersistentFlags().String("log-level", "", "log level: DEBUG, INFO, WARN or ERROR")
	_ = o.v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		newServeCommand(o),
		newMCPCommand(o),
		newParseCommand(o),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// load resolves the configuration: defaults, then the config file, then
// BIBLY_* environment variables, then flags.
func (o *rootOptions) load() (*config.Config, error) {
	config.SetDefaults(o.v)

	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
	} else {
		o.v.SetConfigName("config")
		o.v.SetConfigType("yaml")
		o.v.AddConfigPath(config.ConfigDir())
		o.v.AddConfigPath(".")
	}
	config.BindEnv(o.v)

	if err := o.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := config.Load(o.v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// logger builds the process logger. Logs always go to stderr.
func logger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.New(cfg.Logging, cmd.ErrOrStderr())
}
