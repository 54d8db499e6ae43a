package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newExperimentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiments",
		Short: "Inspect stored experiments",
	}
	cmd.AddCommand(newExperimentsListCommand(), newExperimentsShowCommand())
	return cmd
}

func newExperimentsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored experiments, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadApp()
			if err != nil {
				return err
			}
			manager, closeStore, err := openManager(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			summaries, err := manager.List(ctx, limit)
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "EXPERIMENT\tCREATED\tSTRATEGY\tSHARPE\tTAGS")
			for _, summary := range summaries {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%.3f\t%v\n",
					summary.ExperimentID,
					summary.CreatedAt.UTC().Format(time.RFC3339),
					summary.StrategyName,
					summary.SharpeRatio,
					summary.Tags,
				)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of experiments to list")
	return cmd
}

func newExperimentsShowCommand() *cobra.Command {
	var showConfig bool

	cmd := &cobra.Command{
		Use:   "show <experiment-id>",
		Short: "Show one experiment's metrics and stored configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadApp()
			if err != nil {
				return err
			}
			manager, closeStore, err := openManager(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			record, err := manager.Get(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "experiment: %s\ncreated: %s\nstrategy: %s\ntags: %v\nartifacts: %v\n",
				record.ExperimentID,
				record.CreatedAt.UTC().Format(time.RFC3339),
				record.StrategyName,
				record.Tags,
				record.ArtifactPaths,
			)
			if err := printJSON(record.Metrics); err != nil {
				return err
			}
			if showConfig {
				fmt.Fprintln(os.Stdout, "---")
				fmt.Fprint(os.Stdout, record.ConfigYAML)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showConfig, "show-config", false, "print the stored configuration YAML")
	return cmd
}
