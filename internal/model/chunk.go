package model

// Chunk is a contiguous piece of a document used as the retrieval unit.
// Identity is (DocumentID, Seq); chunks are immutable once produced.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Label      Label  `json:"label"`
	Seq        int    `json:"seq"`
	Text       string `json:"text"`
	Length     int    `json:"length"` // rune count of Text
}
