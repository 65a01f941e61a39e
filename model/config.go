package model

// QueryConfig represents configuration for a retrieval query
type QueryConfig struct {
	// Vector search parameters
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"` // Minimum similarity kept; zero disables the filter

	// Category filtering (arXiv category codes, e.g. "cs.AI")
	Categories []string `json:"categories,omitempty"`

	// Contextual retrieval parameters
	NeighborWindow int     `json:"neighbor_window,omitempty"` // Adjacent chunks pulled per hit
	NeighborWeight float64 `json:"neighbor_weight,omitempty"` // Score factor for neighbors

	// Generation parameters
	ContextBudget int `json:"context_budget,omitempty"` // Max prompt context in words
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:                5,
		SimilarityThreshold: 0,
		NeighborWindow:      1,
		NeighborWeight:      0.5,
		ContextBudget:       2000,
	}
}
