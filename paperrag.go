package paperrag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/siherrmann/paperrag/core/generation"
	"github.com/siherrmann/paperrag/core/pipeline"
	"github.com/siherrmann/paperrag/core/retrieval"
	"github.com/siherrmann/paperrag/database"
	"github.com/siherrmann/paperrag/fetch"
	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
	"github.com/siherrmann/paperrag/provider/ollama"
	loadSql "github.com/siherrmann/paperrag/sql"
)

// PaperRAG provides a unified interface to ingestion, retrieval and answer
// generation over a corpus of arXiv papers.
type PaperRAG struct {
	DB        *helper.Database
	Papers    *database.PapersDBHandler
	Chunks    *database.ChunksDBHandler
	Pipeline  *pipeline.Pipeline // Optional chunking pipeline
	Engine    *retrieval.Engine  // Retrieval engine for similarity search
	Ingester  *pipeline.Ingester
	Generator *generation.Generator // Optional answer generation
	Fetcher   *fetch.ArxivFetcher
	// Logging
	log *slog.Logger

	embeddingDim  int
	ingestWorkers int
}

// NewPaperRAG creates a new PaperRAG instance with all handlers initialized.
// embeddingDim fixes the vector dimensionality of the corpus; every ingested
// chunk and every query embedding must match it.
func NewPaperRAG(config *helper.DatabaseConfiguration, embeddingDim int) (*PaperRAG, error) {
	if embeddingDim < 1 {
		return nil, helper.NewError("validate embedding dimension",
			fmt.Errorf("%w: embedding dimension must be >= 1, got %d", helper.ErrInvalidInput, embeddingDim))
	}

	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("paperrag", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (papers first, then chunks)
	// force=false to not reload if functions already exist
	papers, err := database.NewPapersDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create papers handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	// Create retrieval engine with the chunks handler
	engine := retrieval.NewEngine(chunks)

	return &PaperRAG{
		DB:            db,
		Papers:        papers,
		Chunks:        chunks,
		Engine:        engine,
		Fetcher:       fetch.NewArxivFetcher(),
		log:           logger,
		embeddingDim:  embeddingDim,
		ingestWorkers: 4,
	}, nil
}

// Close closes the database connection
func (p *PaperRAG) Close() error {
	if p.DB != nil && p.DB.Instance != nil {
		return p.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the chunking and embedding pipeline for paper processing
func (p *PaperRAG) SetPipeline(pl *pipeline.Pipeline) {
	p.Pipeline = pl
	if pl == nil {
		p.Ingester = nil
		return
	}
	p.Ingester = pipeline.NewIngester(pl, p.Papers, p.ingestWorkers, p.log)
}

// SetIngestWorkers bounds the number of papers ingested concurrently
func (p *PaperRAG) SetIngestWorkers(workers int) {
	p.ingestWorkers = workers
	if p.Pipeline != nil {
		p.Ingester = pipeline.NewIngester(p.Pipeline, p.Papers, workers, p.log)
	}
}

// SetGenerator sets the answer generation function used by Ask
func (p *PaperRAG) SetGenerator(generate generation.GenerateFunc) {
	p.Generator = generation.NewGenerator(generate, p.Papers, p.log)
}

// UseLocalPipeline sets up token chunking with a local sentence transformer
// embedder (all-MiniLM-L6-v2, 384 dimensions).
func (p *PaperRAG) UseLocalPipeline() error {
	if p.embeddingDim != 384 {
		return helper.NewError("use local pipeline",
			fmt.Errorf("%w: local embedder produces 384 dimensions, corpus expects %d", helper.ErrInvalidInput, p.embeddingDim))
	}

	chunker := pipeline.TokenChunker(250, 50)
	embedder, err := pipeline.LocalEmbedder()
	if err != nil {
		return helper.NewError("create local embedder", err)
	}

	p.SetPipeline(pipeline.NewPipeline(chunker, embedder))
	return nil
}

// UseOllamaPipeline sets up token chunking with Ollama embedding and answer
// generation. A nil config loads OLLAMA_* environment variables.
func (p *PaperRAG) UseOllamaPipeline(cfg *ollama.Config) error {
	if cfg == nil {
		loaded, err := ollama.NewConfigFromEnv()
		if err != nil {
			return err
		}
		cfg = loaded
	}

	embedding := ollama.NewEmbeddingService(cfg)
	if embedding.Dimensions() != p.embeddingDim {
		return helper.NewError("use ollama pipeline",
			fmt.Errorf("%w: embedding model produces %d dimensions, corpus expects %d", helper.ErrInvalidInput, embedding.Dimensions(), p.embeddingDim))
	}

	chunker := pipeline.TokenChunker(250, 50)
	p.SetPipeline(pipeline.NewPipeline(chunker, embedding.EmbedFunc()))

	llm := ollama.NewLLMService(cfg)
	p.SetGenerator(llm.GenerateFunc())

	return nil
}

// Ingest processes and persists a batch of papers with bounded concurrency.
// A failure for one paper never aborts the others; outcomes[i] reports the
// result for papers[i].
func (p *PaperRAG) Ingest(ctx context.Context, papers []*model.Paper) ([]model.IngestionOutcome, error) {
	if p.Ingester == nil {
		return nil, helper.NewError("ingest", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return p.Ingester.IngestPapers(ctx, papers)
}

// IngestPaper processes and persists a single paper.
// Returns the number of chunks stored.
func (p *PaperRAG) IngestPaper(ctx context.Context, paper *model.Paper) (int, error) {
	if p.Ingester == nil {
		return 0, helper.NewError("ingest", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return p.Ingester.IngestPaper(ctx, paper)
}

// FetchAndIngest searches arXiv with the given query and ingests the results
func (p *PaperRAG) FetchAndIngest(ctx context.Context, query string, maxResults int) ([]model.IngestionOutcome, error) {
	papers, err := p.Fetcher.Search(ctx, query, maxResults, fetch.SortSubmittedDate)
	if err != nil {
		return nil, err
	}
	return p.Ingest(ctx, papers)
}

// FetchAndIngestCategory fetches recent papers from an arXiv category and
// ingests them.
func (p *PaperRAG) FetchAndIngestCategory(ctx context.Context, category string, maxResults int) ([]model.IngestionOutcome, error) {
	papers, err := p.Fetcher.FetchByCategory(ctx, category, maxResults)
	if err != nil {
		return nil, err
	}
	return p.Ingest(ctx, papers)
}

// Search performs vector similarity search
func (p *PaperRAG) Search(ctx context.Context, query string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if p.Pipeline == nil || p.Pipeline.Embedder == nil {
		return nil, helper.NewError("vector search", fmt.Errorf("pipeline with embedder not set, use SetPipeline() first"))
	}

	retriever := retrieval.NewRetriever(retrieval.NewVectorOnlyStrategy(p.Engine), p.Pipeline.Embedder)
	return retriever.Retrieve(ctx, query, config)
}

// ContextualSearch performs vector search expanded with the chunks adjacent
// to each hit in the source paper.
func (p *PaperRAG) ContextualSearch(ctx context.Context, query string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if p.Pipeline == nil || p.Pipeline.Embedder == nil {
		return nil, helper.NewError("contextual search", fmt.Errorf("pipeline with embedder not set, use SetPipeline() first"))
	}

	retriever := retrieval.NewRetriever(retrieval.NewContextualStrategy(p.Engine, p.log), p.Pipeline.Embedder)
	return retriever.Retrieve(ctx, query, config)
}

// Ask retrieves relevant chunks and generates a grounded answer with
// citations. When generation fails the returned answer still carries the
// retrieval results and the error wraps ErrGenerationUnavailable.
func (p *PaperRAG) Ask(ctx context.Context, query string, config *model.QueryConfig) (*model.Answer, error) {
	if p.Generator == nil {
		return nil, helper.NewError("ask", fmt.Errorf("generator not set, use SetGenerator() first"))
	}

	results, err := p.Search(ctx, query, config)
	if err != nil {
		return nil, err
	}

	return p.Generator.Answer(ctx, query, results, config)
}

// GetPaper retrieves a paper by arXiv ID
func (p *PaperRAG) GetPaper(arxivID string) (*model.Paper, error) {
	return p.Papers.SelectPaper(arxivID)
}

// GetPaperChunks retrieves all chunks of a paper in sequence order
func (p *PaperRAG) GetPaperChunks(arxivID string) ([]*model.Chunk, error) {
	return p.Chunks.SelectChunksByPaper(arxivID)
}

// ListPapers retrieves papers with keyset pagination, newest first
func (p *PaperRAG) ListPapers(lastCreatedAt *time.Time, limit int) ([]*model.Paper, error) {
	return p.Papers.SelectAllPapers(lastCreatedAt, limit)
}

// DeletePaper deletes a paper and all its chunks
func (p *PaperRAG) DeletePaper(arxivID string) error {
	return p.Papers.DeletePaper(arxivID)
}

// CountPapers returns the number of papers in the corpus
func (p *PaperRAG) CountPapers() (int64, error) {
	return p.Papers.CountPapers()
}

// CountChunks returns the number of chunks in the corpus
func (p *PaperRAG) CountChunks() (int64, error) {
	return p.Chunks.CountChunks()
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (p *PaperRAG) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return p.Chunks.ChangeIndexType(ctx, indexType, params)
}
