package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/siherrmann/paperrag/helper"
)

// Paper represents a scientific paper identified by its arXiv ID.
// Papers are immutable once persisted; re-ingesting the same arXiv ID
// replaces the paper and all of its chunks.
type Paper struct {
	ID            int64     `json:"id"`
	RID           uuid.UUID `json:"rid"`
	ArxivID       string    `json:"arxiv_id"`
	Title         string    `json:"title"`
	Abstract      string    `json:"abstract"`
	FullText      string    `json:"full_text,omitempty"`
	Authors       []string  `json:"authors"`
	Categories    []string  `json:"categories"`
	PublishedDate time.Time `json:"published_date"`
	SourceURL     string    `json:"source_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks that the paper carries enough data to be ingested
func (p *Paper) Validate() error {
	if strings.TrimSpace(p.ArxivID) == "" {
		return helper.NewError("validate paper", fmt.Errorf("%w: arxiv id is empty", helper.ErrInvalidInput))
	}
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Abstract) == "" {
		return helper.NewError("validate paper", fmt.Errorf("%w: paper %s has neither title nor abstract", helper.ErrInvalidInput, p.ArxivID))
	}
	return nil
}

// Text assembles the text used for chunking and embedding.
// Title and abstract are always included, the full text follows when present.
func (p *Paper) Text() string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(p.Title)
	b.WriteString("\n\nAbstract: ")
	b.WriteString(p.Abstract)
	if p.FullText != "" {
		b.WriteString("\n\n")
		b.WriteString(p.FullText)
	}
	return b.String()
}
