package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spokesbot/internal/model"
)

func chunk(id string, seq int, label model.Label) model.Chunk {
	return model.Chunk{DocumentID: id, Seq: seq, Label: label, Text: id}
}

func TestInsertEstablishesDimension(t *testing.T) {
	ix := New(0)
	require.NoError(t, ix.Insert(chunk("a", 0, model.LabelPlatform), []float32{1, 0, 0}))
	assert.Equal(t, 3, ix.Dimension())

	err := ix.Insert(chunk("b", 0, model.LabelPlatform), []float32{1, 0})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 1, ix.Len(), "failed insert must not corrupt existing entries")
}

func TestInsertRejectsEmptyVector(t *testing.T) {
	ix := New(4)
	err := ix.Insert(chunk("a", 0, model.LabelPlatform), nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSearchFiltersByLabel(t *testing.T) {
	ix := New(0)
	require.NoError(t, ix.Insert(chunk("hist", 0, model.LabelHistorical), []float32{1, 0}))
	require.NoError(t, ix.Insert(chunk("plat", 0, model.LabelPlatform), []float32{1, 0}))

	res := ix.Search([]float32{1, 0}, []model.Label{model.LabelHistorical}, 10)
	require.Len(t, res, 1)
	assert.Equal(t, "hist", res[0].Chunk.DocumentID)

	res = ix.Search([]float32{1, 0}, []model.Label{model.LabelHistorical, model.LabelPlatform}, 10)
	assert.Len(t, res, 2)
}

func TestSearchEmptyFilterReturnsNothing(t *testing.T) {
	ix := New(0)
	require.NoError(t, ix.Insert(chunk("a", 0, model.LabelPlatform), []float32{1, 0}))

	assert.Empty(t, ix.Search([]float32{1, 0}, nil, 5))
	assert.Empty(t, ix.Search([]float32{1, 0}, []model.Label{"unknown"}, 5))
}

func TestSearchCapsAtKAndSortsDescending(t *testing.T) {
	ix := New(0)
	// Similarities to the query {1, 0}: 1.0, 0.0, ~0.707, ~0.994, -1.0.
	vectors := [][]float32{
		{1, 0},
		{0, 1},
		{0.7, 0.7},
		{0.9, 0.1},
		{-1, 0},
	}
	for i, v := range vectors {
		require.NoError(t, ix.Insert(chunk("d", i, model.LabelPlatform), v))
	}

	res := ix.Search([]float32{1, 0}, []model.Label{model.LabelPlatform}, 3)
	require.Len(t, res, 3)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}
	assert.Equal(t, 0, res[0].Chunk.Seq)
	assert.Equal(t, 3, res[1].Chunk.Seq)
}

func TestSearchBreaksTiesByInsertionOrder(t *testing.T) {
	ix := New(0)
	// Identical vectors give identical scores; earlier insert must rank first.
	for i := 0; i < 4; i++ {
		require.NoError(t, ix.Insert(chunk("d", i, model.LabelPlatform), []float32{1, 1}))
	}

	res := ix.Search([]float32{1, 1}, []model.Label{model.LabelPlatform}, 4)
	require.Len(t, res, 4)
	for i, r := range res {
		assert.Equal(t, i, r.Chunk.Seq)
	}
}

func TestHolderSwapPublishesNewIndex(t *testing.T) {
	h := NewHolder()
	assert.Equal(t, 0, h.Current().Len())

	fresh := New(0)
	require.NoError(t, fresh.Insert(chunk("a", 0, model.LabelPlatform), []float32{1}))
	h.Swap(fresh)
	assert.Equal(t, 1, h.Current().Len())
}
