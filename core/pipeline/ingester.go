package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
)

// PaperStore persists a paper together with its full chunk set.
type PaperStore interface {
	UpsertPaper(paper *model.Paper, chunks []*model.Chunk) (int, error)
}

// Ingester runs the chunk-embed-persist pipeline over batches of papers
type Ingester struct {
	pipeline   *Pipeline
	store      PaperStore
	maxWorkers int
	logger     *slog.Logger
}

// NewIngester creates a new ingester. maxWorkers bounds the number of papers
// processed concurrently; values below 1 are clamped to 1.
func NewIngester(pipeline *Pipeline, store PaperStore, maxWorkers int, logger *slog.Logger) *Ingester {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		pipeline:   pipeline,
		store:      store,
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

// IngestPaper processes and persists a single paper.
// Returns the number of chunks stored.
func (in *Ingester) IngestPaper(ctx context.Context, paper *model.Paper) (int, error) {
	if paper == nil {
		return 0, helper.NewError("ingest",
			fmt.Errorf("%w: paper is nil", helper.ErrInvalidInput))
	}
	if err := paper.Validate(); err != nil {
		return 0, err
	}

	chunks, err := in.pipeline.Process(ctx, paper.Text())
	if err != nil {
		return 0, err
	}

	stored, err := in.store.UpsertPaper(paper, chunks)
	if err != nil {
		return 0, err
	}

	in.logger.Info("Ingested paper",
		slog.String("arxiv_id", paper.ArxivID),
		slog.Int("chunks", stored))

	return stored, nil
}

// IngestPapers processes a batch of papers with bounded concurrency.
// A failure for one paper never aborts the others; outcomes[i] reports the
// result for papers[i]. The returned error is non-nil only when the context
// is cancelled before all papers were scheduled.
func (in *Ingester) IngestPapers(ctx context.Context, papers []*model.Paper) ([]model.IngestionOutcome, error) {
	outcomes := make([]model.IngestionOutcome, len(papers))

	var wg sync.WaitGroup
	sem := make(chan struct{}, in.maxWorkers)

	for i, paper := range papers {
		arxivID := ""
		if paper != nil {
			arxivID = paper.ArxivID
		}
		outcomes[i] = model.IngestionOutcome{ArxivID: arxivID}

		acquired := false
		if ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case sem <- struct{}{}:
				acquired = true
			}
		}
		if !acquired {
			for j := i; j < len(papers); j++ {
				if papers[j] != nil {
					outcomes[j].ArxivID = papers[j].ArxivID
				}
				outcomes[j].Err = ctx.Err()
			}
			wg.Wait()
			return outcomes, ctx.Err()
		}

		wg.Add(1)
		go func(i int, paper *model.Paper) {
			defer wg.Done()
			defer func() { <-sem }()

			stored, err := in.IngestPaper(ctx, paper)
			if err != nil {
				in.logger.Warn("Paper ingestion failed",
					slog.String("arxiv_id", outcomes[i].ArxivID),
					slog.Any("error", err))
				outcomes[i].Err = err
				return
			}
			outcomes[i].ChunksStored = stored
		}(i, paper)
	}

	wg.Wait()
	return outcomes, nil
}
