package experiments

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/alphalab/internal/database"
	"github.com/yourusername/alphalab/internal/models"
)

const uniqueViolationCode = "23505"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS experiments (
    experiment_id  TEXT PRIMARY KEY,
    created_at     TIMESTAMPTZ NOT NULL,
    strategy_name  TEXT NOT NULL,
    config_yaml    TEXT NOT NULL,
    metrics        JSONB NOT NULL,
    artifact_paths TEXT[] NOT NULL DEFAULT '{}',
    tags           TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_experiments_created_at ON experiments (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_experiments_strategy ON experiments (strategy_name);
`

// PostgresStore persists experiment records in PostgreSQL.
type PostgresStore struct {
	db     *database.Postgres
	logger *logrus.Logger
}

// NewPostgresStore creates the store and ensures the schema exists.
func NewPostgresStore(ctx context.Context, db *database.Postgres, logger *logrus.Logger) (*PostgresStore, error) {
	if _, err := db.Pool().Exec(ctx, schemaSQL); err != nil {
		return nil, models.WrapError(models.KindExperimentStore, err, "failed to ensure experiments schema")
	}
	return &PostgresStore{db: db, logger: logger}, nil
}

// Insert stores a record, rejecting duplicate experiment ids.
func (s *PostgresStore) Insert(ctx context.Context, record *Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	metricsJSON, err := json.Marshal(record.Metrics)
	if err != nil {
		return models.WrapError(models.KindExperimentStore, err, "failed to encode metrics for experiment %s", record.ExperimentID)
	}

	_, err = s.db.Pool().Exec(ctx, `
		INSERT INTO experiments (experiment_id, created_at, strategy_name, config_yaml, metrics, artifact_paths, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ExperimentID, record.CreatedAt, record.StrategyName,
		record.ConfigYAML, metricsJSON, record.ArtifactPaths, record.Tags,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return models.NewExperimentStoreError("experiment %s already exists", record.ExperimentID)
		}
		return models.WrapError(models.KindExperimentStore, err, "failed to insert experiment %s", record.ExperimentID)
	}

	s.logger.WithFields(logrus.Fields{
		"experiment_id": record.ExperimentID,
		"strategy":      record.StrategyName,
	}).Info("Experiment persisted")
	return nil
}

// Get retrieves a record by experiment id.
func (s *PostgresStore) Get(ctx context.Context, experimentID string) (*Record, error) {
	record := &Record{}
	var metricsJSON []byte

	err := s.db.Pool().QueryRow(ctx, `
		SELECT experiment_id, created_at, strategy_name, config_yaml, metrics, artifact_paths, tags
		FROM experiments
		WHERE experiment_id = $1`,
		experimentID,
	).Scan(
		&record.ExperimentID, &record.CreatedAt, &record.StrategyName,
		&record.ConfigYAML, &metricsJSON, &record.ArtifactPaths, &record.Tags,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.NewExperimentStoreError("experiment %s not found", experimentID)
		}
		return nil, models.WrapError(models.KindExperimentStore, err, "failed to fetch experiment %s", experimentID)
	}

	if err := json.Unmarshal(metricsJSON, &record.Metrics); err != nil {
		return nil, models.WrapError(models.KindExperimentStore, err, "failed to decode metrics for experiment %s", experimentID)
	}
	return record, nil
}

// List returns up to limit summaries, newest first.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Pool().Query(ctx, `
		SELECT experiment_id, created_at, strategy_name, COALESCE((metrics->>'sharpe_ratio')::float8, 0), tags
		FROM experiments
		ORDER BY created_at DESC, experiment_id DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, models.WrapError(models.KindExperimentStore, err, "failed to list experiments")
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var summary Summary
		if err := rows.Scan(
			&summary.ExperimentID, &summary.CreatedAt, &summary.StrategyName,
			&summary.SharpeRatio, &summary.Tags,
		); err != nil {
			return nil, models.WrapError(models.KindExperimentStore, err, "failed to scan experiment row")
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, models.WrapError(models.KindExperimentStore, err, "failed to iterate experiment rows")
	}
	return summaries, nil
}

// Close releases the underlying database connections.
func (s *PostgresStore) Close() {
	s.db.Close()
}
