package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/alphalab/internal/backtest"
	"github.com/yourusername/alphalab/internal/experiments"
	"github.com/yourusername/alphalab/internal/strategy"
)

func newRunCommand() *cobra.Command {
	var noStore bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single backtest and record it as an experiment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadApp()
			if err != nil {
				return err
			}
			maybeServeMetrics(ctx, cfg, logger)

			strat, err := strategy.Resolve(cfg.Strategy.Name)
			if err != nil {
				return err
			}
			data, err := fetchData(ctx, cfg, logger)
			if err != nil {
				return err
			}

			engine, err := backtest.NewEngine(backtest.FromConfig(cfg), strat, logger)
			if err != nil {
				return err
			}
			result, err := engine.Run(ctx, data)
			if err != nil {
				return err
			}

			if noStore {
				return printJSON(result.Metrics)
			}

			manager, closeStore, err := openManager(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			record, err := manager.BuildRecord(cfg, result.Metrics, nil)
			if err != nil {
				return err
			}
			equityPath, err := writeArtifact(
				cfg.Output.ArtifactsDir, record.ExperimentID, "equity_curve.csv", result.EquityCurveCSV())
			if err != nil {
				return err
			}
			record.ArtifactPaths = append(record.ArtifactPaths, equityPath)

			manifest := experiments.NewManifest("run", record.ExperimentID)
			manifest.SetInputs(configPath, "")
			manifest.SetContext(cfg.Strategy.Name, cfg.Data.Symbols, cfg.Data.Start, cfg.Data.End)
			manifest.MarkSuccess(result.Metrics.Map(), record.ArtifactPaths)
			manifestPath, err := writeManifest(cfg.Output.ArtifactsDir, record.ExperimentID, manifest)
			if err != nil {
				return err
			}
			record.ArtifactPaths = append(record.ArtifactPaths, manifestPath)

			if err := manager.Persist(ctx, record); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "experiment: %s\n", record.ExperimentID)
			return printJSON(result.Metrics)
		},
	}

	cmd.Flags().BoolVar(&noStore, "no-store", false, "skip experiment persistence")
	return cmd
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
