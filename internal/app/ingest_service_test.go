package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spokesbot/internal/chunker"
	"spokesbot/internal/index"
	"spokesbot/internal/model"
)

type memStore struct {
	recs  map[string]*model.ChunkEmbedding
	finds int
	saves int
}

func storeKey(hash, embeddingModel string) string { return hash + "|" + embeddingModel }

func (m *memStore) Find(hash, embeddingModel string) (*model.ChunkEmbedding, error) {
	m.finds++
	return m.recs[storeKey(hash, embeddingModel)], nil
}

func (m *memStore) Save(rec *model.ChunkEmbedding) error {
	if m.recs == nil {
		m.recs = map[string]*model.ChunkEmbedding{}
	}
	m.saves++
	m.recs[storeKey(rec.ContentHash, rec.Model)] = rec
	return nil
}

type blockingSource struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingSource) Load() ([]model.Document, error) {
	close(s.started)
	<-s.release
	return nil, nil
}

func newIngest(t *testing.T, docs []model.Document, embedder *fakeEmbedder, store EmbeddingStore) (*IngestService, *index.Holder) {
	t.Helper()
	ck, err := chunker.New(chunker.Config{WindowSize: 50, Overlap: 10})
	require.NoError(t, err)
	holder := index.NewHolder()
	svc := NewIngestService(IngestDeps{
		Source:         fixedSource{docs: docs},
		Chunker:        ck,
		Embedder:       embedder,
		Holder:         holder,
		Store:          store,
		EmbeddingModel: "test-embed",
	})
	return svc, holder
}

func TestRebuildBuildsAndSwapsIndex(t *testing.T) {
	docs := []model.Document{historyDoc(), platformDoc()}
	svc, holder := newIngest(t, docs, &fakeEmbedder{}, nil)

	res, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Documents)
	assert.Zero(t, res.EmptyDocuments)
	assert.Equal(t, res.Chunks, holder.Current().Len())
	assert.Equal(t, testVectorDim, res.Dimension)

	infos := svc.Documents()
	require.Len(t, infos, 2)
	assert.Equal(t, "01_party_history.txt", infos[0].ID)
	assert.Equal(t, model.LabelHistorical, infos[0].Label)
	assert.Greater(t, infos[0].Chunks, 0)
}

func TestRebuildSkipsEmptyDocuments(t *testing.T) {
	docs := []model.Document{
		{ID: "empty.txt", Label: model.LabelPlatform, Text: "   "},
		platformDoc(),
	}
	svc, holder := newIngest(t, docs, &fakeEmbedder{}, nil)

	res, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Documents)
	assert.Equal(t, 1, res.EmptyDocuments)
	assert.Greater(t, holder.Current().Len(), 0)
}

func TestRebuildSkipsBlankChunks(t *testing.T) {
	// With a 50-rune window and stride 40, the middle window of this text
	// lands entirely inside the whitespace run.
	text := strings.Repeat("a", 40) + strings.Repeat(" ", 50) + strings.Repeat("b", 40)
	docs := []model.Document{
		{ID: "gappy.txt", Label: model.LabelPlatform, Text: text},
	}
	embedder := &fakeEmbedder{}
	svc, holder := newIngest(t, docs, embedder, nil)

	res, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Documents)
	assert.Equal(t, 1, res.BlankChunks)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, 2, holder.Current().Len())
	for _, batch := range embedder.batches {
		for _, text := range batch {
			assert.NotEmpty(t, strings.TrimSpace(text))
		}
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	docs := []model.Document{historyDoc(), platformDoc()}
	svc, holder := newIngest(t, docs, &fakeEmbedder{}, nil)

	first, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	firstHits := holder.Current().Search(wordVector("party founded 1792"), []model.Label{model.LabelHistorical, model.LabelPlatform}, 10)

	second, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	secondHits := holder.Current().Search(wordVector("party founded 1792"), []model.Label{model.LabelHistorical, model.LabelPlatform}, 10)

	assert.Equal(t, first.Chunks, second.Chunks)
	assert.Equal(t, first.Dimension, second.Dimension)
	assert.Equal(t, firstHits, secondHits, "identical corpus must produce identical index contents")
}

func TestRebuildServesRepeatEmbeddingsFromCache(t *testing.T) {
	docs := []model.Document{historyDoc(), platformDoc()}
	embedder := &fakeEmbedder{}
	store := &memStore{}
	svc, _ := newIngest(t, docs, embedder, store)

	_, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	callsAfterFirst := embedder.batchCalls
	require.Greater(t, callsAfterFirst, 0)
	require.Greater(t, store.saves, 0)

	_, err = svc.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, embedder.batchCalls,
		"unchanged corpus must be served entirely from the embedding cache")
}

func TestRebuildDimensionMismatchDropsRestOfDocument(t *testing.T) {
	long := model.Document{
		ID:    "long.txt",
		Label: model.LabelPlatform,
		Text:  "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" + "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}
	embedder := &fakeEmbedder{}
	svc, holder := newIngest(t, []model.Document{long, platformDoc()}, embedder, nil)

	// The second chunk of long.txt gets a wrong-length vector.
	ck, err := chunker.New(chunker.Config{WindowSize: 50, Overlap: 10})
	require.NoError(t, err)
	chunks := ck.Chunk(long)
	require.Greater(t, len(chunks), 1)
	embedder.override = map[string][]float32{chunks[1].Text: {1, 2, 3}}

	res, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Greater(t, res.FailedInserts, 0)
	assert.Equal(t, 2, res.Documents)
	// The first chunk of the bad document and all of the good document
	// survive.
	assert.Equal(t, res.Chunks, holder.Current().Len())
	assert.Greater(t, holder.Current().Len(), 1)
}

func TestRebuildEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{fail: true}
	svc, holder := newIngest(t, []model.Document{platformDoc()}, embedder, nil)

	_, err := svc.Rebuild(context.Background())
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
	assert.Zero(t, holder.Current().Len(), "failed rebuild must not swap in a partial index")
}

func TestConcurrentRebuildFailsFast(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	ck, err := chunker.New(chunker.Config{WindowSize: 50, Overlap: 10})
	require.NoError(t, err)
	svc := NewIngestService(IngestDeps{
		Source:   src,
		Chunker:  ck,
		Embedder: &fakeEmbedder{},
		Holder:   index.NewHolder(),
	})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Rebuild(context.Background())
		done <- err
	}()

	<-src.started
	_, err = svc.Rebuild(context.Background())
	assert.ErrorIs(t, err, ErrRebuildInProgress)

	close(src.release)
	require.NoError(t, <-done)
}
