package database

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
	loadSql "github.com/siherrmann/paperrag/sql"
)

// PapersDBHandlerFunctions defines the interface for Papers database operations.
type PapersDBHandlerFunctions interface {
	UpsertPaper(paper *model.Paper, chunks []*model.Chunk) (int, error)
	SelectPaper(arxivID string) (*model.Paper, error)
	SelectAllPapers(lastCreatedAt *time.Time, limit int) ([]*model.Paper, error)
	DeletePaper(arxivID string) error
	CountPapers() (int64, error)
}

// PapersDBHandler handles paper-related database operations
type PapersDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewPapersDBHandler creates a new papers database handler.
// It initializes the database connection and loads paper-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewPapersDBHandler(db *helper.Database, embeddingDim int, force bool) (*PapersDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	papersDbHandler := &PapersDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadPapersSql(papersDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load papers sql", err)
	}

	err = papersDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized PapersDBHandler")

	return papersDbHandler, nil
}

// CreateTable creates the 'papers' table in the database.
// If the table already exists, it does not create it again.
func (h *PapersDBHandler) CreateTable() error {
	_, err := h.db.Instance.Exec(`SELECT init_papers();`)
	if err != nil {
		log.Panicf("error initializing papers table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table papers")

	return nil
}

// UpsertPaper atomically replaces a paper and its chunk set.
// Existing chunks for the same arXiv ID are deleted and the new set is
// inserted inside a single transaction, so a concurrent search sees either
// the old full set or the new full set, never a mix.
// Returns the number of chunks stored.
func (h *PapersDBHandler) UpsertPaper(paper *model.Paper, chunks []*model.Chunk) (int, error) {
	if err := paper.Validate(); err != nil {
		return 0, err
	}
	if err := h.validateChunks(chunks); err != nil {
		return 0, err
	}

	tx, err := h.db.Instance.Begin()
	if err != nil {
		return 0, helper.NewError("begin transaction", fmt.Errorf("%w: %v", helper.ErrStorage, err))
	}
	defer tx.Rollback()

	err = scanPaper(tx.QueryRow(
		`SELECT * FROM upsert_paper($1, $2, $3, $4, $5, $6, $7, $8)`,
		paper.ArxivID,
		paper.Title,
		paper.Abstract,
		paper.FullText,
		pq.Array(paper.Authors),
		pq.Array(paper.Categories),
		paper.PublishedDate,
		paper.SourceURL,
	), paper)
	if err != nil {
		return 0, helper.NewError("upsert paper", fmt.Errorf("%w: %v", helper.ErrStorage, err))
	}

	_, err = tx.Exec(`SELECT delete_chunks_by_paper($1)`, paper.ID)
	if err != nil {
		return 0, helper.NewError("delete prior chunks", fmt.Errorf("%w: %v", helper.ErrStorage, err))
	}

	for i, chunk := range chunks {
		chunk.PaperID = paper.ID
		err = scanChunk(tx.QueryRow(
			`SELECT * FROM insert_chunk($1, $2, $3, $4, $5, $6, $7)`,
			chunk.PaperID,
			chunk.ChunkIndex,
			chunk.Content,
			chunk.StartPos,
			chunk.EndPos,
			pq.Array(chunk.Embedding),
			chunk.Metadata,
		), chunk)
		if err != nil {
			return 0, helper.NewError(fmt.Sprintf("insert chunk %d", i), fmt.Errorf("%w: %v", helper.ErrStorage, err))
		}
	}

	err = tx.Commit()
	if err != nil {
		return 0, helper.NewError("commit transaction", fmt.Errorf("%w: %v", helper.ErrStorage, err))
	}

	h.db.Logger.Info("Upserted paper",
		slog.String("arxiv_id", paper.ArxivID),
		slog.Int("num_chunks", len(chunks)))

	return len(chunks), nil
}

// validateChunks checks the contiguous-sequence and dimensionality invariants
// before anything touches the database.
func (h *PapersDBHandler) validateChunks(chunks []*model.Chunk) error {
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			return helper.NewError("validate chunks",
				fmt.Errorf("%w: chunk at position %d has index %d, expected contiguous sequence", helper.ErrInvalidInput, i, chunk.ChunkIndex))
		}
		if len(chunk.Embedding) != h.embeddingDim {
			return helper.NewError("validate chunks",
				fmt.Errorf("%w: chunk %d has embedding dimension %d, expected %d", helper.ErrInvalidInput, i, len(chunk.Embedding), h.embeddingDim))
		}
	}
	return nil
}

// SelectPaper retrieves a paper by arXiv ID
func (h *PapersDBHandler) SelectPaper(arxivID string) (*model.Paper, error) {
	paper := &model.Paper{}
	err := scanPaper(h.db.Instance.QueryRow(
		`SELECT * FROM select_paper($1)`,
		arxivID,
	), paper)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return paper, nil
}

// SelectAllPapers retrieves all papers with keyset pagination, newest first
func (h *PapersDBHandler) SelectAllPapers(lastCreatedAt *time.Time, limit int) ([]*model.Paper, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_papers($1, $2)`,
		lastCreatedAt,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var papers []*model.Paper
	for rows.Next() {
		paper := &model.Paper{}
		err := scanPaper(rows, paper)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		papers = append(papers, paper)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return papers, nil
}

// DeletePaper deletes a paper and all its chunks by arXiv ID.
// The chunks and their index entries are removed in the same statement via
// the foreign key cascade.
func (h *PapersDBHandler) DeletePaper(arxivID string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_paper($1)`,
		arxivID,
	)
	if err != nil {
		return helper.NewError("exec", fmt.Errorf("%w: %v", helper.ErrStorage, err))
	}
	return nil
}

// CountPapers returns the total number of papers in the database
func (h *PapersDBHandler) CountPapers() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_papers()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPaper scans a full papers row into a model.Paper
func scanPaper(row rowScanner, paper *model.Paper) error {
	var fullText, sourceURL sql.NullString
	var publishedDate sql.NullTime

	err := row.Scan(
		&paper.ID,
		&paper.RID,
		&paper.ArxivID,
		&paper.Title,
		&paper.Abstract,
		&fullText,
		pq.Array(&paper.Authors),
		pq.Array(&paper.Categories),
		&publishedDate,
		&sourceURL,
		&paper.CreatedAt,
		&paper.UpdatedAt,
	)
	if err != nil {
		return err
	}

	paper.FullText = fullText.String
	paper.SourceURL = sourceURL.String
	paper.PublishedDate = publishedDate.Time

	return nil
}
