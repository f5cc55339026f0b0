package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"spokesbot/internal/chunker"
	"spokesbot/internal/index"
	"spokesbot/internal/model"
)

const embeddingBatchSize = 10 // DashScope and similar APIs often limit batch size

// BatchEmbedder embeds many texts per call; used on the ingestion path where
// per-chunk calls would be wasteful.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentSource yields the full corpus. Implementations load from disk;
// tests supply fixed document sets.
type DocumentSource interface {
	Load() ([]model.Document, error)
}

// EmbeddingStore caches chunk embeddings across rebuilds. Find returns nil
// without error on a miss.
type EmbeddingStore interface {
	Find(contentHash, embeddingModel string) (*model.ChunkEmbedding, error)
	Save(rec *model.ChunkEmbedding) error
}

// IngestDeps wires an IngestService. Store is optional.
type IngestDeps struct {
	Source         DocumentSource
	Chunker        *chunker.Chunker
	Embedder       BatchEmbedder
	Holder         *index.Holder
	Store          EmbeddingStore
	EmbeddingModel string
}

// IngestService builds the corpus index: load documents, chunk, embed,
// insert, swap. Rebuilds are serialized; queries keep reading the previous
// index snapshot until the swap.
type IngestService struct {
	source         DocumentSource
	chunker        *chunker.Chunker
	embedder       BatchEmbedder
	holder         *index.Holder
	store          EmbeddingStore
	embeddingModel string

	rebuildMu sync.Mutex

	mu   sync.RWMutex
	docs []DocumentInfo
}

func NewIngestService(deps IngestDeps) *IngestService {
	return &IngestService{
		source:         deps.Source,
		chunker:        deps.Chunker,
		embedder:       deps.Embedder,
		holder:         deps.Holder,
		store:          deps.Store,
		embeddingModel: deps.EmbeddingModel,
	}
}

// DocumentInfo is the corpus summary exposed to the service layer.
type DocumentInfo struct {
	ID      string      `json:"id"`
	Section string      `json:"section"`
	Label   model.Label `json:"label"`
	Chunks  int         `json:"chunks"`
	Length  int         `json:"length"`
}

// RebuildResult summarizes one index build.
type RebuildResult struct {
	Documents      int           `json:"documents"`
	EmptyDocuments int           `json:"empty_documents"`
	BlankChunks    int           `json:"blank_chunks"`
	FailedInserts  int           `json:"failed_inserts"`
	Chunks         int           `json:"chunks"`
	Dimension      int           `json:"dimension"`
	Took           time.Duration `json:"-"`
	TookMs         int64         `json:"took_ms"`
}

// Documents reports the corpus loaded by the last successful rebuild.
func (s *IngestService) Documents() []DocumentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DocumentInfo, len(s.docs))
	copy(out, s.docs)
	return out
}

// Rebuild constructs a fresh index from the full document set and atomically
// swaps it in. Empty documents are logged and skipped. A dimension mismatch
// aborts the remaining chunks of that document but keeps what was already
// inserted and continues with the other documents. Only one rebuild may run
// at a time; a concurrent call fails fast with ErrRebuildInProgress.
func (s *IngestService) Rebuild(ctx context.Context) (*RebuildResult, error) {
	if !s.rebuildMu.TryLock() {
		return nil, ErrRebuildInProgress
	}
	defer s.rebuildMu.Unlock()
	started := time.Now()

	docs, err := s.source.Load()
	if err != nil {
		return nil, fmt.Errorf("load corpus failed: %w", err)
	}

	fresh := index.New(0)
	res := &RebuildResult{}
	infos := make([]DocumentInfo, 0, len(docs))

	for _, doc := range docs {
		chunks := s.chunker.Chunk(doc)

		// A long whitespace run inside a document can produce a blank
		// window. Blank chunks carry no content to retrieve and would be
		// rejected by the embedding endpoint, so they are dropped here the
		// same way an empty document is.
		kept := make([]model.Chunk, 0, len(chunks))
		for _, ch := range chunks {
			if strings.TrimSpace(ch.Text) == "" {
				log.Printf("warning: document %s chunk %d is blank, skipping", doc.ID, ch.Seq)
				res.BlankChunks++
				continue
			}
			kept = append(kept, ch)
		}
		chunks = kept

		if len(chunks) == 0 {
			log.Printf("warning: document %s is empty, skipping", doc.ID)
			res.EmptyDocuments++
			continue
		}

		vectors, err := s.embedChunks(ctx, chunks)
		if err != nil {
			return nil, err
		}

		inserted := 0
		for i, ch := range chunks {
			if err := fresh.Insert(ch, vectors[i]); err != nil {
				if errors.Is(err, index.ErrDimensionMismatch) {
					log.Printf("insert chunk %s#%d failed: %v; dropping rest of document", doc.ID, ch.Seq, err)
					res.FailedInserts += len(chunks) - i
					break
				}
				return nil, err
			}
			inserted++
		}
		res.Documents++
		res.Chunks += inserted
		infos = append(infos, DocumentInfo{
			ID:      doc.ID,
			Section: doc.Section,
			Label:   doc.Label,
			Chunks:  inserted,
			Length:  len([]rune(doc.Text)),
		})
	}

	s.holder.Swap(fresh)
	s.mu.Lock()
	s.docs = infos
	s.mu.Unlock()

	res.Dimension = fresh.Dimension()
	res.Took = time.Since(started)
	res.TookMs = res.Took.Milliseconds()
	return res, nil
}

// embedChunks resolves one document's chunk vectors, serving what it can from
// the embedding cache and batching the rest through the remote service.
func (s *IngestService) embedChunks(ctx context.Context, chunks []model.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	hashes := make([]string, len(chunks))

	var missing []int
	for i, ch := range chunks {
		hashes[i] = contentHash(ch.Text)
		if s.store == nil {
			missing = append(missing, i)
			continue
		}
		rec, err := s.store.Find(hashes[i], s.embeddingModel)
		if err != nil {
			log.Printf("embedding cache lookup failed: %v", err)
		}
		if rec != nil {
			if v := rec.VectorSlice(); len(v) > 0 {
				vectors[i] = v
				continue
			}
		}
		missing = append(missing, i)
	}

	for start := 0; start < len(missing); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		texts := make([]string, len(batch))
		for j, idx := range batch {
			texts[j] = chunks[idx].Text
		}
		embedded, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
		}
		if len(embedded) != len(batch) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingUnavailable, len(embedded), len(batch))
		}
		for j, idx := range batch {
			vectors[idx] = embedded[j]
			if s.store == nil {
				continue
			}
			rec := &model.ChunkEmbedding{ContentHash: hashes[idx], Model: s.embeddingModel}
			rec.SetVector(embedded[j])
			if err := s.store.Save(rec); err != nil {
				log.Printf("embedding cache save failed: %v", err)
			}
		}
	}
	return vectors, nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
