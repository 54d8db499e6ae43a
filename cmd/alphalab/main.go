package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/alphalab/internal/config"
	"github.com/yourusername/alphalab/internal/logging"
	"github.com/yourusername/alphalab/internal/models"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "alphalab",
		Short:         "Deterministic backtests and robustness analysis for daily futures strategies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to config file")

	rootCmd.AddCommand(
		newRunCommand(),
		newRobustnessCommand(),
		newExperimentsCommand(),
		newRerunCommand(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(models.ExitCode(err))
	}
}

// loadApp loads and validates the configuration and builds the logger.
func loadApp() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.App.Environment, cfg.App.LogLevel), nil
}
