package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
)

// GenerateFunc is a function that produces a completion for a prompt.
// Implementations must never substitute placeholder answers on failure.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// PaperLookup resolves paper metadata for prompt construction
type PaperLookup interface {
	SelectPaper(arxivID string) (*model.Paper, error)
}

// Generator assembles a grounded prompt from retrieval results and asks a
// language model to answer from the provided passages only.
type Generator struct {
	generate GenerateFunc
	papers   PaperLookup
	logger   *slog.Logger
}

// NewGenerator creates a new generator
func NewGenerator(generate GenerateFunc, papers PaperLookup, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		generate: generate,
		papers:   papers,
		logger:   logger,
	}
}

// promptPaper groups the passages of one source paper for the prompt
type promptPaper struct {
	arxivID  string
	title    string
	authors  []string
	passages []string
}

// Answer generates a grounded answer for the query from the given retrieval
// results. The returned answer always carries the retrieval results; when the
// model call fails the error wraps ErrGenerationUnavailable and the results
// remain usable on their own.
func (g *Generator) Answer(ctx context.Context, query string, results []*model.RetrievalResult, config *model.QueryConfig) (*model.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, helper.NewError("generate",
			fmt.Errorf("%w: query is empty", helper.ErrInvalidInput))
	}
	if config == nil {
		defaultConfig := model.DefaultQueryConfig()
		config = &defaultConfig
	}

	answer := &model.Answer{Results: results}

	if len(results) == 0 {
		answer.Text = "No relevant papers were found for this question."
		return answer, nil
	}

	papers, cited := g.collectPapers(results, config.ContextBudget)
	prompt := buildPrompt(query, papers)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("Answer generation failed",
			slog.String("query", query),
			slog.Any("error", err))
		return answer, helper.NewError("generate",
			fmt.Errorf("%w: %v", helper.ErrGenerationUnavailable, err))
	}

	answer.Text = strings.TrimSpace(text)
	answer.CitedPapers = cited

	return answer, nil
}

// collectPapers groups result passages by source paper in first-appearance
// order and truncates to the word budget. At least one passage is always
// included so the prompt is never empty.
func (g *Generator) collectPapers(results []*model.RetrievalResult, budget int) ([]*promptPaper, []string) {
	var papers []*promptPaper
	var cited []string
	byID := make(map[string]*promptPaper)

	words := 0
	for i, result := range results {
		passage := result.Chunk.Content
		passageWords := len(strings.Fields(passage))
		if budget > 0 && i > 0 && words+passageWords > budget {
			break
		}
		words += passageWords

		paper, exists := byID[result.Chunk.ArxivID]
		if !exists {
			paper = &promptPaper{
				arxivID: result.Chunk.ArxivID,
				title:   result.Chunk.ArxivID,
			}
			if g.papers != nil {
				if stored, err := g.papers.SelectPaper(result.Chunk.ArxivID); err == nil {
					paper.title = stored.Title
					paper.authors = stored.Authors
				}
			}
			byID[result.Chunk.ArxivID] = paper
			papers = append(papers, paper)
			cited = append(cited, result.Chunk.ArxivID)
		}
		paper.passages = append(paper.passages, passage)
	}

	return papers, cited
}

// buildPrompt renders the grounded prompt with numbered paper sections
func buildPrompt(query string, papers []*promptPaper) string {
	var sb strings.Builder

	sb.WriteString("You are a scientific assistant. Answer the question using only the excerpts below. ")
	sb.WriteString("Cite sources inline as [Paper N]. If the excerpts do not contain the answer, say so.\n\n")

	for i, paper := range papers {
		sb.WriteString(fmt.Sprintf("[Paper %d] %s\n", i+1, paper.title))
		if len(paper.authors) > 0 {
			sb.WriteString(fmt.Sprintf("Authors: %s\n", formatAuthors(paper.authors)))
		}
		sb.WriteString(fmt.Sprintf("arXiv: %s\n", paper.arxivID))
		for _, passage := range paper.passages {
			sb.WriteString(passage)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Question: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAnswer:")

	return sb.String()
}

// formatAuthors lists up to three authors, then "et al."
func formatAuthors(authors []string) string {
	if len(authors) <= 3 {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:3], ", ") + " et al."
}
