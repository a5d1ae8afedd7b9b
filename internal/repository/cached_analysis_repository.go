package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/walkforward/internal/models"
)

// CachedAnalysisRepository decorates an AnalysisRepository with an
// in-memory TTL cache on block-level reads. Writes and deletes
// invalidate the affected block's entry.
type CachedAnalysisRepository struct {
	inner AnalysisRepository
	cache *cache.Cache
	ttl   time.Duration
}

// NewCachedAnalysisRepository wraps a repository with a read cache
func NewCachedAnalysisRepository(inner AnalysisRepository, ttl time.Duration) *CachedAnalysisRepository {
	return &CachedAnalysisRepository{
		inner: inner,
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Save persists an analysis and invalidates the block's cached listing
func (r *CachedAnalysisRepository) Save(ctx context.Context, analysis *models.WalkForwardAnalysis) error {
	if err := r.inner.Save(ctx, analysis); err != nil {
		return err
	}
	r.cache.Delete(blockKey(analysis.BlockID))
	return nil
}

// GetByID delegates to the inner repository; single records are not cached
func (r *CachedAnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WalkForwardAnalysis, error) {
	return r.inner.GetByID(ctx, id)
}

// GetAllByBlockID returns the cached block listing when fresh
func (r *CachedAnalysisRepository) GetAllByBlockID(ctx context.Context, blockID uuid.UUID) ([]*models.WalkForwardAnalysis, error) {
	key := blockKey(blockID)
	if cached, found := r.cache.Get(key); found {
		if analyses, ok := cached.([]*models.WalkForwardAnalysis); ok {
			return analyses, nil
		}
	}

	analyses, err := r.inner.GetAllByBlockID(ctx, blockID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, analyses, r.ttl)
	return analyses, nil
}

// DeleteByBlockID removes the block's analyses and its cache entry
func (r *CachedAnalysisRepository) DeleteByBlockID(ctx context.Context, blockID uuid.UUID) error {
	if err := r.inner.DeleteByBlockID(ctx, blockID); err != nil {
		return err
	}
	r.cache.Delete(blockKey(blockID))
	return nil
}

func blockKey(blockID uuid.UUID) string {
	return "block:" + blockID.String()
}
