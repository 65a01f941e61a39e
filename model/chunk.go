package model

import (
	"time"
)

// ChunkDraft is a chunk produced by a chunker before embedding and
// persistence. Offsets point into the text the chunker was given.
type ChunkDraft struct {
	Content    string `json:"content"`
	ChunkIndex int    `json:"chunk_index"`
	StartPos   int    `json:"start_pos"`
	EndPos     int    `json:"end_pos"`
}

// Chunk represents a persisted span of a paper's text with its embedding.
// A paper's chunks always form a contiguous sequence 0..n-1.
type Chunk struct {
	ID         int64     `json:"id"`
	PaperID    int64     `json:"paper_id"`
	ArxivID    string    `json:"arxiv_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	StartPos   int       `json:"start_pos"`
	EndPos     int       `json:"end_pos"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
}
