package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pollux/enigma/internal/config"
	"github.com/pollux/enigma/internal/logging"
)

// app is the state shared by every subcommand once the root has loaded the
// configuration.
type app struct {
	configPath string
	logLevel   string
	logJSON    bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "enigma",
		Short:         "Enigma machine simulator and Bombe search",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "write logs as JSON")

	root.AddCommand(newEncryptCmd(a), newBombeCmd(a), newRotorsCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = a.logJSON
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		JSON:   cfg.Log.JSON,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
