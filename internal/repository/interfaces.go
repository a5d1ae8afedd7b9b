// Package repository provides persistence for walk-forward analyses.
// The engine itself never touches storage; callers persist the immutable
// analysis record through this interface.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/walkforward/internal/models"
)

// AnalysisRepository defines the interface for analysis persistence
type AnalysisRepository interface {
	Save(ctx context.Context, analysis *models.WalkForwardAnalysis) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WalkForwardAnalysis, error)
	GetAllByBlockID(ctx context.Context, blockID uuid.UUID) ([]*models.WalkForwardAnalysis, error)
	DeleteByBlockID(ctx context.Context, blockID uuid.UUID) error
}
