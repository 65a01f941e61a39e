// Package fetch retrieves paper metadata from the arXiv Atom API.
package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
)

// DefaultBaseURL is the arXiv API query endpoint
const DefaultBaseURL = "http://export.arxiv.org/api/query"

// Sort criteria accepted by the arXiv API
const (
	SortSubmittedDate   = "submittedDate"
	SortLastUpdatedDate = "lastUpdatedDate"
	SortRelevance       = "relevance"
)

// PopularCategories maps common arXiv category codes to their names
var PopularCategories = map[string]string{
	"cs.AI":          "Artificial Intelligence",
	"cs.LG":          "Machine Learning",
	"cs.CL":          "Computation and Language",
	"cs.CV":          "Computer Vision",
	"cs.NE":          "Neural and Evolutionary Computing",
	"stat.ML":        "Machine Learning (Statistics)",
	"cs.RO":          "Robotics",
	"cs.IR":          "Information Retrieval",
	"cs.HC":          "Human-Computer Interaction",
	"physics.gen-ph": "General Physics",
	"math.OC":        "Optimization and Control",
	"quant-ph":       "Quantum Physics",
}

// ArxivFetcher fetches papers from the arXiv API
type ArxivFetcher struct {
	client  *http.Client
	baseURL string
}

// NewArxivFetcher creates a new fetcher against the public arXiv API
func NewArxivFetcher() *ArxivFetcher {
	return &ArxivFetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: DefaultBaseURL,
	}
}

// NewArxivFetcherWithURL creates a fetcher against a custom endpoint
func NewArxivFetcherWithURL(baseURL string) *ArxivFetcher {
	return &ArxivFetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
	}
}

// atomFeed is the arXiv API Atom response format
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Published  string         `xml:"published"`
	Authors    []atomAuthor   `xml:"author"`
	Categories []atomCategory `xml:"category"`
	Links      []atomLink     `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// Search queries arXiv with the given query string (arXiv query syntax)
// and returns up to maxResults papers sorted by the given criterion,
// newest first.
func (f *ArxivFetcher) Search(ctx context.Context, query string, maxResults int, sortBy string) ([]*model.Paper, error) {
	if strings.TrimSpace(query) == "" {
		return nil, helper.NewError("search",
			fmt.Errorf("%w: query is empty", helper.ErrInvalidInput))
	}
	if maxResults < 1 {
		return nil, helper.NewError("search",
			fmt.Errorf("%w: max results must be >= 1, got %d", helper.ErrInvalidInput, maxResults))
	}
	if sortBy == "" {
		sortBy = SortSubmittedDate
	}

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("sortBy", sortBy)
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, helper.NewError("create request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, helper.NewError("send request",
			fmt.Errorf("%w: %v", helper.ErrProviderUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, helper.NewError("search",
			fmt.Errorf("%w: arxiv API returned status %d", helper.ErrProviderError, resp.StatusCode))
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, helper.NewError("decode response",
			fmt.Errorf("%w: %v", helper.ErrProviderError, err))
	}

	papers := make([]*model.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		papers = append(papers, entryToPaper(entry))
	}

	return papers, nil
}

// FetchByCategory fetches papers from a specific arXiv category, e.g. "cs.AI"
func (f *ArxivFetcher) FetchByCategory(ctx context.Context, category string, maxResults int) ([]*model.Paper, error) {
	return f.Search(ctx, "cat:"+category, maxResults, SortSubmittedDate)
}

// FetchRecent fetches the most recently submitted papers, optionally filtered
// by categories.
func (f *ArxivFetcher) FetchRecent(ctx context.Context, categories []string, maxResults int) ([]*model.Paper, error) {
	query := "all"
	if len(categories) > 0 {
		parts := make([]string, len(categories))
		for i, category := range categories {
			parts[i] = "cat:" + category
		}
		query = strings.Join(parts, " OR ")
	}
	return f.Search(ctx, query, maxResults, SortSubmittedDate)
}

// entryToPaper converts an Atom entry into a paper model.
// The arXiv ID is the last path segment of the entry ID URL; newlines in
// title and abstract are collapsed like the API docs recommend.
func entryToPaper(entry atomEntry) *model.Paper {
	idParts := strings.Split(strings.TrimSpace(entry.ID), "/")
	arxivID := idParts[len(idParts)-1]

	authors := make([]string, 0, len(entry.Authors))
	for _, author := range entry.Authors {
		authors = append(authors, strings.TrimSpace(author.Name))
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, category := range entry.Categories {
		if category.Term != "" {
			categories = append(categories, category.Term)
		}
	}

	sourceURL := strings.TrimSpace(entry.ID)
	for _, link := range entry.Links {
		if link.Rel == "alternate" && link.Href != "" {
			sourceURL = link.Href
			break
		}
	}

	publishedDate, _ := time.Parse(time.RFC3339, strings.TrimSpace(entry.Published))

	return &model.Paper{
		ArxivID:       arxivID,
		Title:         collapseWhitespace(entry.Title),
		Abstract:      collapseWhitespace(entry.Summary),
		Authors:       authors,
		Categories:    categories,
		PublishedDate: publishedDate,
		SourceURL:     sourceURL,
	}
}

// collapseWhitespace joins wrapped lines into single-space separated text
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
