package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/alphalab/internal/config"
	"github.com/yourusername/alphalab/internal/database"
	"github.com/yourusername/alphalab/internal/experiments"
	"github.com/yourusername/alphalab/internal/marketdata"
	telemetry "github.com/yourusername/alphalab/internal/metrics"
	"github.com/yourusername/alphalab/internal/models"
)

// fetchData resolves the configured provider and fetches every symbol.
func fetchData(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (map[string]*models.PriceSeries, error) {
	start, end, err := cfg.Data.DateRange()
	if err != nil {
		return nil, err
	}
	provider, err := marketdata.FromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"provider": provider.Name(),
		"symbols":  cfg.Data.Symbols,
		"start":    cfg.Data.Start,
		"end":      cfg.Data.End,
	}).Info("Fetching market data")

	return marketdata.FetchAll(ctx, provider, cfg.Data.Symbols, start, end)
}

// openManager connects the experiment store. The returned closer must be
// called once the manager is no longer needed.
func openManager(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*experiments.Manager, func(), error) {
	db, err := database.NewPostgres(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	store, err := experiments.NewPostgresStore(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return experiments.NewManager(store, logger), store.Close, nil
}

// writeArtifact writes one artifact file under the experiment's directory
// and returns its path.
func writeArtifact(artifactsDir, experimentID, name, content string) (string, error) {
	dir := filepath.Join(artifactsDir, experimentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.WrapError(models.KindExperimentStore, err, "failed to create artifact dir %s", dir)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", models.WrapError(models.KindExperimentStore, err, "failed to write artifact %s", path)
	}
	return path, nil
}

// writeManifest finalizes and writes the run manifest into the run's
// artifact directory.
func writeManifest(artifactsDir, experimentID string, manifest *experiments.Manifest) (string, error) {
	content, err := manifest.Render()
	if err != nil {
		return "", err
	}
	return writeArtifact(artifactsDir, experimentID, experiments.ManifestName, content)
}

// maybeServeMetrics starts the Prometheus exposition server when enabled.
func maybeServeMetrics(ctx context.Context, cfg *config.Config, logger *logrus.Logger) {
	if !cfg.Metrics.Enabled || cfg.Metrics.Port == 0 {
		return
	}
	go func() {
		if err := telemetry.Serve(ctx, cfg.Metrics.Port, cfg.Metrics.Path, logger); err != nil {
			logger.WithError(err).Warn("Metrics server stopped")
		}
	}()
}
