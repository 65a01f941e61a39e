package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/paperrag"
	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
)

var samplePapers = []*model.Paper{
	{
		ArxivID:    "1706.03762",
		Title:      "Attention Is All You Need",
		Abstract:   "The dominant sequence transduction models are based on complex recurrent or convolutional neural networks. We propose a new simple network architecture, the Transformer, based solely on attention mechanisms.",
		Authors:    []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar"},
		Categories: []string{"cs.CL", "cs.LG"},
	},
	{
		ArxivID:    "1810.04805",
		Title:      "BERT: Pre-training of Deep Bidirectional Transformers for Language Understanding",
		Abstract:   "We introduce a new language representation model called BERT, which stands for Bidirectional Encoder Representations from Transformers.",
		Authors:    []string{"Jacob Devlin", "Ming-Wei Chang"},
		Categories: []string{"cs.CL"},
	},
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	p, err := paperrag.NewPaperRAG(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create paperrag: %v", err)
	}
	defer p.Close()

	// Set up the local pipeline (token chunking + sentence transformer embeddings)
	if err := p.UseLocalPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	ctx := context.Background()

	// Ingest the sample papers
	outcomes, err := p.Ingest(ctx, samplePapers)
	if err != nil {
		log.Fatalf("Failed to ingest papers: %v", err)
	}
	for _, outcome := range outcomes {
		if outcome.Failed() {
			fmt.Printf("Ingestion failed for %s: %v\n", outcome.ArxivID, outcome.Err)
			continue
		}
		fmt.Printf("Ingested %s with %d chunks\n", outcome.ArxivID, outcome.ChunksStored)
	}

	// Search the corpus
	config := model.DefaultQueryConfig()
	config.TopK = 3

	results, err := p.Search(ctx, "How do attention mechanisms replace recurrence?", &config)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	fmt.Println("\nTop results:")
	for _, result := range results {
		fmt.Printf("  %d. [%s] score=%.3f %q\n",
			result.Rank, result.Chunk.ArxivID, result.Score, truncate(result.Chunk.Content, 80))
	}

	// Contextual search pulls in the surrounding chunks of each hit
	contextual, err := p.ContextualSearch(ctx, "bidirectional language representations", &config)
	if err != nil {
		log.Fatalf("Contextual search failed: %v", err)
	}
	fmt.Printf("\nContextual search returned %d chunks\n", len(contextual))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
