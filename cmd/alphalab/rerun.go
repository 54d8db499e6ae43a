package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/alphalab/internal/backtest"
	"github.com/yourusername/alphalab/internal/experiments"
	"github.com/yourusername/alphalab/internal/strategy"
)

func newRerunCommand() *cobra.Command {
	var noStore bool

	cmd := &cobra.Command{
		Use:   "rerun <experiment-id>",
		Short: "Replay a stored experiment and record the replay as a new experiment",
		Long: "Replay a stored experiment using only its recorded configuration. " +
			"With unchanged source data the replay reproduces the recorded metrics exactly. " +
			"The replay is persisted as a new experiment tagged with the source id.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			currentCfg, logger, err := loadApp()
			if err != nil {
				return err
			}
			manager, closeStore, err := openManager(ctx, currentCfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			storedCfg, source, err := manager.LoadConfig(ctx, args[0])
			if err != nil {
				return err
			}
			logger.WithField("experiment_id", source.ExperimentID).Info("Replaying stored configuration")

			strat, err := strategy.Resolve(storedCfg.Strategy.Name)
			if err != nil {
				return err
			}
			data, err := fetchData(ctx, storedCfg, logger)
			if err != nil {
				return err
			}
			engine, err := backtest.NewEngine(backtest.FromConfig(storedCfg), strat, logger)
			if err != nil {
				return err
			}
			result, err := engine.Run(ctx, data)
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "METRIC\tRECORDED\tREPLAY\tDELTA")
			replayMetrics := result.Metrics.Map()
			for _, key := range backtest.MetricKeys() {
				recorded := source.Metrics[key]
				fmt.Fprintf(writer, "%s\t%.6f\t%.6f\t%.2e\n",
					key, recorded, replayMetrics[key], math.Abs(replayMetrics[key]-recorded))
			}
			if err := writer.Flush(); err != nil {
				return err
			}

			if noStore {
				return nil
			}

			record, err := manager.BuildRerunRecord(storedCfg, source.ExperimentID, result.Metrics, nil)
			if err != nil {
				return err
			}
			equityPath, err := writeArtifact(
				storedCfg.Output.ArtifactsDir, record.ExperimentID, "equity_curve.csv", result.EquityCurveCSV())
			if err != nil {
				return err
			}
			record.ArtifactPaths = append(record.ArtifactPaths, equityPath)

			manifest := experiments.NewManifest("rerun", record.ExperimentID)
			manifest.SetInputs(configPath, source.ExperimentID)
			manifest.SetContext(storedCfg.Strategy.Name, storedCfg.Data.Symbols, storedCfg.Data.Start, storedCfg.Data.End)
			manifest.MarkSuccess(replayMetrics, record.ArtifactPaths)
			manifestPath, err := writeManifest(storedCfg.Output.ArtifactsDir, record.ExperimentID, manifest)
			if err != nil {
				return err
			}
			record.ArtifactPaths = append(record.ArtifactPaths, manifestPath)

			if err := manager.Persist(ctx, record); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "experiment: %s\nrerun_of: %s\n", record.ExperimentID, source.ExperimentID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noStore, "no-store", false, "compare only, skip persisting the replay")
	return cmd
}
