package database

import (
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
	loadSql "github.com/siherrmann/paperrag/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	SelectChunksByPaper(arxivID string) ([]*model.Chunk, error)
	SelectAdjacentChunks(arxivID string, chunkIndex int, window int) ([]*model.Chunk, error)
	SelectChunksBySimilarity(embedding []float32, limit int, threshold float64, categories []string) ([]*model.Chunk, error)
	CountChunks() (int64, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// It also creates the vector index over the embedding column.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	_, err := h.db.Instance.Exec(`SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// SelectChunksByPaper retrieves all chunks for a paper, ordered by sequence index
func (h *ChunksDBHandler) SelectChunksByPaper(arxivID string) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_paper($1)`,
		arxivID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		err := scanChunk(rows, chunk)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectAdjacentChunks retrieves the chunks surrounding a sequence index
// within the same paper, up to window positions in each direction.
func (h *ChunksDBHandler) SelectAdjacentChunks(arxivID string, chunkIndex int, window int) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_adjacent_chunks($1, $2, $3)`,
		arxivID,
		chunkIndex,
		window,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		err := scanChunk(rows, chunk)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectChunksBySimilarity performs vector similarity search.
// Results are ordered by ascending cosine distance; exact ties are broken by
// lower chunk sequence index, then arXiv ID.
// A zero threshold disables the similarity filter (similarity ranges over
// [-1, 1], so filtering at zero would silently drop dissimilar chunks).
// If categories is nil or empty, searches across all papers.
func (h *ChunksDBHandler) SelectChunksBySimilarity(embedding []float32, limit int, threshold float64, categories []string) ([]*model.Chunk, error) {
	if limit < 1 {
		return nil, helper.NewError("similarity search",
			fmt.Errorf("%w: topK must be >= 1, got %d", helper.ErrInvalidInput, limit))
	}

	embeddingVector := pgvector.NewVector(embedding)

	var categoriesParam interface{}
	if len(categories) > 0 {
		categoriesParam = pq.Array(categories)
	} else {
		categoriesParam = nil
	}

	var thresholdParam interface{}
	if threshold != 0 {
		thresholdParam = threshold
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_similarity($1, $2, $3, $4)`,
		embeddingVector,
		limit,
		thresholdParam,
		categoriesParam,
	)
	if err != nil {
		return nil, helper.NewError("query", fmt.Errorf("%w: %v", helper.ErrStorage, err))
	}
	defer rows.Close()

	var results []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.PaperID,
			&chunk.ArxivID,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.StartPos,
			&chunk.EndPos,
			pq.Array(&chunk.Embedding),
			&chunk.Metadata,
			&chunk.CreatedAt,
			&chunk.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		results = append(results, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// CountChunks returns the total number of chunks in the database
func (h *ChunksDBHandler) CountChunks() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_chunks()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// scanChunk scans a full chunks row into a model.Chunk
func scanChunk(row rowScanner, chunk *model.Chunk) error {
	return row.Scan(
		&chunk.ID,
		&chunk.PaperID,
		&chunk.ArxivID,
		&chunk.ChunkIndex,
		&chunk.Content,
		&chunk.StartPos,
		&chunk.EndPos,
		pq.Array(&chunk.Embedding),
		&chunk.Metadata,
		&chunk.CreatedAt,
	)
}
