package model

import (
	"encoding/json"
	"time"
)

// ChunkEmbedding caches an embedding vector for a chunk's exact text so a
// corpus rebuild does not re-call the embedding API for unchanged content.
// Vector is stored as a JSON array of float32 for portability.
type ChunkEmbedding struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ContentHash string    `gorm:"size:64;not null;uniqueIndex:idx_hash_model" json:"content_hash"`
	Model       string    `gorm:"size:128;not null;uniqueIndex:idx_hash_model" json:"model"`
	Dimension   int       `gorm:"not null" json:"dimension"`
	Vector      string    `gorm:"type:text" json:"-"` // JSON array of float32
	CreatedAt   time.Time `json:"created_at"`
}

// VectorSlice returns the parsed vector; empty on parse error.
func (e *ChunkEmbedding) VectorSlice() []float32 {
	if e.Vector == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(e.Vector), &v)
	return v
}

// SetVector stores the vector as JSON and records its dimensionality.
func (e *ChunkEmbedding) SetVector(vec []float32) {
	e.Dimension = len(vec)
	if len(vec) == 0 {
		e.Vector = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	e.Vector = string(b)
}
