package model

// RetrievalResult represents a chunk retrieved by a query
type RetrievalResult struct {
	Chunk           *Chunk  `json:"chunk"`
	Score           float64 `json:"score"`            // Combined score from ranking
	SimilarityScore float64 `json:"similarity_score"` // Cosine similarity score
	Rank            int     `json:"rank"`             // 1-based position in the result list
	RetrievalMethod string  `json:"retrieval_method"` // How it was retrieved (vector, neighbor)
}

// Answer is the result of a retrieval-augmented generation query.
// Results are populated even when generation fails, so source passages
// can still be rendered.
type Answer struct {
	Text        string             `json:"text"`
	CitedPapers []string           `json:"cited_papers"` // ArXiv IDs of papers included in the prompt
	Results     []*RetrievalResult `json:"results"`
}
