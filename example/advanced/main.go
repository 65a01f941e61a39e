// Fetches recent papers from arXiv, ingests them with an Ollama embedding
// pipeline and answers a question over the corpus. Requires a running Ollama
// server (OLLAMA_URL, default http://localhost:11434) with the configured
// embedding and LLM models pulled.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/siherrmann/paperrag"
	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// nomic-embed-text produces 768-dimensional embeddings
	p, err := paperrag.NewPaperRAG(dbConfig, 768)
	if err != nil {
		log.Fatalf("Failed to create paperrag: %v", err)
	}
	defer p.Close()

	// Embedding and generation through Ollama, configured via OLLAMA_* envs
	if err := p.UseOllamaPipeline(nil); err != nil {
		log.Fatalf("Failed to set up ollama pipeline: %v", err)
	}

	ctx := context.Background()

	// Pull the latest machine learning papers from arXiv
	fmt.Println("Fetching recent cs.LG papers from arXiv...")
	outcomes, err := p.FetchAndIngestCategory(ctx, "cs.LG", 10)
	if err != nil {
		log.Fatalf("Fetch and ingest failed: %v", err)
	}

	ingested := 0
	for _, outcome := range outcomes {
		if outcome.Failed() {
			fmt.Printf("  failed %s: %v\n", outcome.ArxivID, outcome.Err)
			continue
		}
		ingested++
	}
	fmt.Printf("Ingested %d of %d papers\n", ingested, len(outcomes))

	// Ask a question over the freshly ingested corpus
	config := model.DefaultQueryConfig()
	config.TopK = 5

	answer, err := p.Ask(ctx, "What are the most recent approaches to efficient training?", &config)
	if err != nil {
		if errors.Is(err, helper.ErrGenerationUnavailable) && answer != nil {
			// Generation failed but retrieval still worked
			fmt.Println("Generation unavailable, showing retrieved passages instead:")
			for _, result := range answer.Results {
				fmt.Printf("  [%s] %s\n", result.Chunk.ArxivID, result.Chunk.Content)
			}
			return
		}
		log.Fatalf("Ask failed: %v", err)
	}

	fmt.Println("\nAnswer:")
	fmt.Println(answer.Text)
	fmt.Println("\nCited papers:")
	for _, arxivID := range answer.CitedPapers {
		fmt.Printf("  https://arxiv.org/abs/%s\n", arxivID)
	}
}
