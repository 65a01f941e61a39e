package pipeline

import (
	"context"
	"fmt"

	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
)

// ChunkFunc is a function that splits text into chunk drafts.
// Drafts carry their offset range into the original text and a zero-based,
// contiguous sequence index.
type ChunkFunc func(text string) ([]model.ChunkDraft, error)

// EmbedFunc is a function that generates embeddings for a batch of texts.
// Output is order-preserving: output[i] is the embedding of texts[i].
// Implementations must never substitute placeholder vectors on failure.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Pipeline combines chunking and embedding functions
type Pipeline struct {
	Chunker  ChunkFunc
	Embedder EmbedFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
	}
}

// Process splits text into chunks and embeds all of them in a single
// batched provider call. The chunk-to-embedding correspondence is
// index-aligned. An embedding failure aborts the whole unit of work.
func (p *Pipeline) Process(ctx context.Context, text string) ([]*model.Chunk, error) {
	drafts, err := p.Chunker(text)
	if err != nil {
		return nil, err
	}

	if len(drafts) == 0 {
		return []*model.Chunk{}, nil
	}

	texts := make([]string, len(drafts))
	for i, draft := range drafts {
		texts[i] = draft.Content
	}

	embeddings, err := p.Embedder(ctx, texts)
	if err != nil {
		return nil, err
	}

	if len(embeddings) != len(drafts) {
		return nil, helper.NewError("process",
			fmt.Errorf("%w: got %d embeddings for %d chunks", helper.ErrProviderError, len(embeddings), len(drafts)))
	}

	chunks := make([]*model.Chunk, 0, len(drafts))
	for i, draft := range drafts {
		if len(embeddings[i]) != len(embeddings[0]) {
			return nil, helper.NewError("process",
				fmt.Errorf("%w: embedding %d has dimension %d, expected %d", helper.ErrProviderError, i, len(embeddings[i]), len(embeddings[0])))
		}

		chunks = append(chunks, &model.Chunk{
			ChunkIndex: draft.ChunkIndex,
			Content:    draft.Content,
			StartPos:   draft.StartPos,
			EndPos:     draft.EndPos,
			Embedding:  embeddings[i],
			Metadata:   model.Metadata{},
		})
	}

	return chunks, nil
}
