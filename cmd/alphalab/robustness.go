package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/alphalab/internal/backtest"
	"github.com/yourusername/alphalab/internal/experiments"
	"github.com/yourusername/alphalab/internal/robustness"
	"github.com/yourusername/alphalab/internal/strategy"
)

func newRobustnessCommand() *cobra.Command {
	var noStore bool

	cmd := &cobra.Command{
		Use:   "robustness",
		Short: "Run the full robustness suite and record it as an experiment",
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

			suite, err := robustness.NewSuite(
				robustness.SettingsFromConfig(cfg), backtest.FromConfig(cfg), strat, logger)
			if err != nil {
				return err
			}
			result, err := suite.Run(ctx, data)
			if err != nil {
				return err
			}

			report := robustness.RenderMarkdown(result, time.Now())
			if noStore {
				fmt.Fprint(os.Stdout, report)
				return nil
			}

			manager, closeStore, err := openManager(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			var baselineMetrics backtest.Metrics
			if result.Baseline != nil {
				baselineMetrics = result.Baseline.Metrics
			}
			record, err := manager.BuildRecord(cfg, baselineMetrics, nil)
			if err != nil {
				return err
			}

			reportPath, err := writeArtifact(
				cfg.Output.ArtifactsDir, record.ExperimentID, "robustness_report.md", report)
			if err != nil {
				return err
			}
			csvPath, err := writeArtifact(
				cfg.Output.ArtifactsDir, record.ExperimentID, "scenarios.csv", robustness.RenderCSV(result))
			if err != nil {
				return err
			}
			record.ArtifactPaths = append(record.ArtifactPaths, reportPath, csvPath)

			if result.Baseline != nil {
				equityPath, err := writeArtifact(
					cfg.Output.ArtifactsDir, record.ExperimentID, "equity_curve.csv", result.Baseline.EquityCurveCSV())
				if err != nil {
					return err
				}
				record.ArtifactPaths = append(record.ArtifactPaths, equityPath)
			}

			manifest := experiments.NewManifest("robustness", record.ExperimentID)
			manifest.SetInputs(configPath, "")
			manifest.SetContext(cfg.Strategy.Name, cfg.Data.Symbols, cfg.Data.Start, cfg.Data.End)
			manifest.MarkSuccess(baselineMetrics.Map(), record.ArtifactPaths)
			manifestPath, err := writeManifest(cfg.Output.ArtifactsDir, record.ExperimentID, manifest)
			if err != nil {
				return err
			}
			record.ArtifactPaths = append(record.ArtifactPaths, manifestPath)

			if err := manager.Persist(ctx, record); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "experiment: %s\nreport: %s\n", record.ExperimentID, reportPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noStore, "no-store", false, "print the report instead of persisting an experiment")
	return cmd
}
