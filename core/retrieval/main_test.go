package retrieval

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/paperrag/database"
	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
	loadSql "github.com/siherrmann/paperrag/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

func initEngine(t *testing.T) (*Engine, *database.PapersDBHandler) {
	db := initDB(t)

	papers, err := database.NewPapersDBHandler(db, 384, true)
	require.NoError(t, err)

	chunks, err := database.NewChunksDBHandler(db, 384, true)
	require.NoError(t, err)

	return NewEngine(chunks), papers
}

// basisEmbedding returns a 384-dimension unit vector along the given axis
func basisEmbedding(axis int) []float32 {
	embedding := make([]float32, 384)
	embedding[axis%384] = 1
	return embedding
}

func storePaper(t *testing.T, papers *database.PapersDBHandler, arxivID string, contents []string, axes []int) {
	paper := &model.Paper{
		ArxivID:  arxivID,
		Title:    "Fixture " + arxivID,
		Abstract: "Retrieval fixture paper.",
	}
	chunks := make([]*model.Chunk, len(contents))
	pos := 0
	for i, content := range contents {
		chunks[i] = &model.Chunk{
			ChunkIndex: i,
			Content:    content,
			StartPos:   pos,
			EndPos:     pos + len(content),
			Embedding:  basisEmbedding(axes[i]),
			Metadata:   model.Metadata{},
		}
		pos += len(content)
	}
	_, err := papers.UpsertPaper(paper, chunks)
	require.NoError(t, err)
}
