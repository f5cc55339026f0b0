package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spokesbot/internal/model"
)

// ChunkEmbeddingRepository persists the embedding cache.
type ChunkEmbeddingRepository struct {
	db *gorm.DB
}

func NewChunkEmbeddingRepository(db *gorm.DB) *ChunkEmbeddingRepository {
	return &ChunkEmbeddingRepository{db: db}
}

// Find returns the cached embedding for (content hash, model), or nil when
// none is stored.
func (r *ChunkEmbeddingRepository) Find(contentHash, embeddingModel string) (*model.ChunkEmbedding, error) {
	var rec model.ChunkEmbedding
	err := r.db.Where("content_hash = ? AND model = ?", contentHash, embeddingModel).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find chunk embedding failed: %w", err)
	}
	return &rec, nil
}

// Save upserts one cached embedding. Rebuilds over an unchanged corpus hit
// the same (hash, model) keys, so conflicts just refresh the row.
func (r *ChunkEmbeddingRepository) Save(rec *model.ChunkEmbedding) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "content_hash"}, {Name: "model"}},
		DoUpdates: clause.AssignmentColumns([]string{"dimension", "vector"}),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("save chunk embedding failed: %w", err)
	}
	return nil
}

// DeleteByModel drops every cached embedding produced by one model, for use
// when a deployment switches embedding models.
func (r *ChunkEmbeddingRepository) DeleteByModel(embeddingModel string) error {
	if err := r.db.Where("model = ?", embeddingModel).Delete(&model.ChunkEmbedding{}).Error; err != nil {
		return fmt.Errorf("delete chunk embeddings by model failed: %w", err)
	}
	return nil
}
