package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Alp4ka/sloth/internal/config"
	"github.com/Alp4ka/sloth/internal/logging"
)

var configPath string

// env is what every subcommand runs with, loaded once per invocation.
type env struct {
	cfg    *config.Config
	logger *logrus.Logger
}

type envKey struct{}

// envFrom returns the env stored by the root command's PersistentPreRunE.
func envFrom(cmd *cobra.Command) env {
	ctx := cmd.Context()
	if ctx == nil {
		return env{}
	}

	e, _ := ctx.Value(envKey{}).(env)
	return e
}

var rootCmd = &cobra.Command{
	Use:           "sloth",
	Short:         "A small blog with cached page cursors",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(context.WithValue(ctx, envKey{}, env{cfg: cfg, logger: logger}))

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to settings.yaml")
}
