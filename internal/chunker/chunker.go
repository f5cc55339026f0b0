package chunker

import (
	"fmt"
	"strings"

	"spokesbot/internal/model"
)

const (
	DefaultWindowSize = 2000
	DefaultOverlap    = 200
)

// Config controls the sliding window. Sizes are in runes so multi-byte text
// never gets cut mid-character.
type Config struct {
	WindowSize int
	Overlap    int
}

// Chunker splits a document into fixed-size overlapping windows.
type Chunker struct {
	window  int
	overlap int
}

// New validates the window configuration. Overlap must stay below the window
// size or the stride would be zero.
func New(cfg Config) (*Chunker, error) {
	if cfg.WindowSize <= 0 {
		return nil, fmt.Errorf("chunker window size must be positive, got %d", cfg.WindowSize)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.WindowSize {
		return nil, fmt.Errorf("chunker overlap must be in [0, %d), got %d", cfg.WindowSize, cfg.Overlap)
	}
	return &Chunker{window: cfg.WindowSize, overlap: cfg.Overlap}, nil
}

// Chunk slides a window of the configured size over the document text with
// stride window-overlap. The final chunk takes whatever text remains and may
// be shorter than the window, never empty. A document whose text is empty or
// whitespace-only yields zero chunks. Output is deterministic for a given
// document and configuration.
func (c *Chunker) Chunk(doc model.Document) []model.Chunk {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}

	runes := []rune(doc.Text)
	stride := c.window - c.overlap

	var chunks []model.Chunk
	for start, seq := 0, 0; ; start, seq = start+stride, seq+1 {
		end := start + c.window
		if end >= len(runes) {
			chunks = append(chunks, c.newChunk(doc, seq, runes[start:]))
			break
		}
		chunks = append(chunks, c.newChunk(doc, seq, runes[start:end]))
	}
	return chunks
}

func (c *Chunker) newChunk(doc model.Document, seq int, text []rune) model.Chunk {
	return model.Chunk{
		DocumentID: doc.ID,
		Label:      doc.Label,
		Seq:        seq,
		Text:       string(text),
		Length:     len(text),
	}
}
