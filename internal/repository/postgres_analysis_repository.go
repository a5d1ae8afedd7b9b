package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/walkforward/internal/database"
	"github.com/yourusername/walkforward/internal/models"
)

const errScanAnalysis = "failed to scan analysis: %w"

// PostgresAnalysisRepository implements AnalysisRepository for PostgreSQL.
// Config and results are stored as JSONB documents; the analysis is an
// opaque record to the store.
type PostgresAnalysisRepository struct {
	db *database.DB
}

// NewPostgresAnalysisRepository creates a new analysis repository
func NewPostgresAnalysisRepository(db *database.DB) AnalysisRepository {
	return &PostgresAnalysisRepository{db: db}
}

// Save inserts an analysis record
func (r *PostgresAnalysisRepository) Save(ctx context.Context, analysis *models.WalkForwardAnalysis) error {
	configJSON, err := json.Marshal(analysis.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis config: %w", err)
	}
	resultsJSON, err := json.Marshal(analysis.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis results: %w", err)
	}

	query := `
		INSERT INTO walk_forward_analyses (
			id, block_id, config, results, started_at, completed_at, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`
	_, err = r.db.GetPool().Exec(ctx, query,
		analysis.ID, analysis.BlockID, configJSON, resultsJSON,
		analysis.StartedAt, analysis.CompletedAt, analysis.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetByID retrieves one analysis by its ID
func (r *PostgresAnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WalkForwardAnalysis, error) {
	query := `
		SELECT id, block_id, config, results, started_at, completed_at, created_at
		FROM walk_forward_analyses WHERE id = $1
	`
	row := r.db.GetPool().QueryRow(ctx, query, id)
	return scanAnalysis(row)
}

// GetAllByBlockID retrieves every analysis for one trade log
func (r *PostgresAnalysisRepository) GetAllByBlockID(ctx context.Context, blockID uuid.UUID) ([]*models.WalkForwardAnalysis, error) {
	query := `
		SELECT id, block_id, config, results, started_at, completed_at, created_at
		FROM walk_forward_analyses WHERE block_id = $1 ORDER BY created_at DESC
	`
	rows, err := r.db.GetPool().Query(ctx, query, blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*models.WalkForwardAnalysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
	}
	return analyses, rows.Err()
}

// DeleteByBlockID removes every analysis for one trade log
func (r *PostgresAnalysisRepository) DeleteByBlockID(ctx context.Context, blockID uuid.UUID) error {
	_, err := r.db.GetPool().Exec(ctx,
		`DELETE FROM walk_forward_analyses WHERE block_id = $1`, blockID)
	if err != nil {
		return fmt.Errorf("failed to delete analyses: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*models.WalkForwardAnalysis, error) {
	analysis := &models.WalkForwardAnalysis{}
	var configJSON, resultsJSON []byte
	if err := row.Scan(
		&analysis.ID, &analysis.BlockID, &configJSON, &resultsJSON,
		&analysis.StartedAt, &analysis.CompletedAt, &analysis.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf(errScanAnalysis, err)
	}
	if err := json.Unmarshal(configJSON, &analysis.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis config: %w", err)
	}
	if err := json.Unmarshal(resultsJSON, &analysis.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis results: %w", err)
	}
	return analysis, nil
}
