package database

import (
	"strings"
	"testing"
	"time"

	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPapersNewPapersDBHandler(t *testing.T) {
	db := initDB(t)

	t.Run("Valid call NewPapersDBHandler", func(t *testing.T) {
		papersDbHandler, err := NewPapersDBHandler(db, 384, true)
		assert.NoError(t, err, "Expected NewPapersDBHandler to not return an error")
		require.NotNil(t, papersDbHandler, "Expected NewPapersDBHandler to return a non-nil instance")
		require.NotNil(t, papersDbHandler.db, "Expected NewPapersDBHandler to have a non-nil database instance")
	})

	t.Run("Invalid call NewPapersDBHandler with nil database", func(t *testing.T) {
		_, err := NewPapersDBHandler(nil, 384, false)
		assert.Error(t, err, "Expected error when creating PapersDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestPapersUpsert(t *testing.T) {
	papers, _ := initHandlers(t)

	t.Run("Upsert paper with chunks", func(t *testing.T) {
		paper := &model.Paper{
			ArxivID:    "2301.00001",
			Title:      "Attention Is All You Need",
			Abstract:   "We propose the Transformer, a model architecture based solely on attention.",
			Authors:    []string{"Ashish Vaswani", "Noam Shazeer"},
			Categories: []string{"cs.CL", "cs.LG"},
		}
		chunks := testChunks([]string{"First chunk.", "Second chunk."}, []int{0, 1})

		stored, err := papers.UpsertPaper(paper, chunks)
		assert.NoError(t, err, "Expected UpsertPaper to not return an error")
		assert.Equal(t, 2, stored, "Expected two chunks to be stored")
		assert.NotEmpty(t, paper.ID, "Expected upserted paper to have an ID")
		assert.WithinDuration(t, paper.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
	})

	t.Run("Re-ingest replaces chunk set atomically", func(t *testing.T) {
		paper := &model.Paper{
			ArxivID:  "2301.00002",
			Title:    "Replaced Paper",
			Abstract: "First version.",
		}
		first := testChunks([]string{"One.", "Two.", "Three."}, []int{0, 1, 2})
		_, err := papers.UpsertPaper(paper, first)
		require.NoError(t, err)

		paper.Abstract = "Second version."
		second := testChunks([]string{"New one.", "New two."}, []int{3, 4})
		stored, err := papers.UpsertPaper(paper, second)
		assert.NoError(t, err, "Expected re-ingest to not return an error")
		assert.Equal(t, 2, stored, "Expected new chunk count after replacement")

		db := papers.db
		chunksHandler, err := NewChunksDBHandler(db, 384, false)
		require.NoError(t, err)

		remaining, err := chunksHandler.SelectChunksByPaper("2301.00002")
		require.NoError(t, err)
		assert.Len(t, remaining, 2, "Expected old chunks to be fully replaced")
		assert.Equal(t, "New one.", remaining[0].Content)
		assert.Equal(t, 0, remaining[0].ChunkIndex)
		assert.Equal(t, 1, remaining[1].ChunkIndex)
	})

	t.Run("Invalid paper without arxiv ID", func(t *testing.T) {
		paper := &model.Paper{Title: "No ID", Abstract: "Missing identifier."}
		_, err := papers.UpsertPaper(paper, nil)
		assert.Error(t, err, "Expected error for paper without arxiv ID")
		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})

	t.Run("Invalid chunk sequence", func(t *testing.T) {
		paper := &model.Paper{
			ArxivID:  "2301.00003",
			Title:    "Gap Paper",
			Abstract: "Has a gap in its chunk sequence.",
		}
		chunks := testChunks([]string{"A.", "B."}, []int{0, 1})
		chunks[1].ChunkIndex = 2

		_, err := papers.UpsertPaper(paper, chunks)
		assert.Error(t, err, "Expected error for non-contiguous chunk indices")
		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})

	t.Run("Invalid embedding dimension", func(t *testing.T) {
		paper := &model.Paper{
			ArxivID:  "2301.00004",
			Title:    "Wrong Dimension Paper",
			Abstract: "Carries a chunk with the wrong embedding size.",
		}
		chunks := testChunks([]string{"A."}, []int{0})
		chunks[0].Embedding = []float32{1, 2, 3}

		_, err := papers.UpsertPaper(paper, chunks)
		assert.Error(t, err, "Expected error for mismatched embedding dimension")
		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})
}

func TestPapersUpsertIsolation(t *testing.T) {
	papers, chunks := initHandlers(t)

	paper := &model.Paper{
		ArxivID:  "2306.00001",
		Title:    "Concurrently Replaced Paper",
		Abstract: "Readers must see a full chunk set, never a mix.",
	}
	oldSet := testChunks([]string{"old zero.", "old one.", "old two."}, []int{15, 15, 15})
	newSet := testChunks([]string{"new zero.", "new one.", "new two.", "new three."}, []int{16, 16, 16, 16})

	_, err := papers.UpsertPaper(paper, oldSet)
	require.NoError(t, err)

	// Replace the chunk set back and forth while reading concurrently. Every
	// read must observe either the complete old set or the complete new set.
	done := make(chan error, 1)
	go func() {
		for i := 0; i < 20; i++ {
			set := oldSet
			if i%2 == 0 {
				set = newSet
			}
			if _, err := papers.UpsertPaper(paper, set); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for {
		found, err := chunks.SelectChunksByPaper("2306.00001")
		require.NoError(t, err)
		require.NotEmpty(t, found, "Expected the paper to always have chunks")

		generation, wantLen := "old ", len(oldSet)
		if strings.HasPrefix(found[0].Content, "new ") {
			generation, wantLen = "new ", len(newSet)
		}
		require.Len(t, found, wantLen, "Expected a complete chunk set of one generation")
		for _, chunk := range found {
			require.True(t, strings.HasPrefix(chunk.Content, generation),
				"Expected all chunks from the same generation, never a mix")
		}

		select {
		case err := <-done:
			require.NoError(t, err, "Expected concurrent upserts to not return an error")

			final, err := chunks.SelectChunksByPaper("2306.00001")
			require.NoError(t, err)
			assert.Len(t, final, len(oldSet), "Expected the last written set to win")
			return
		default:
		}
	}
}

func TestPapersGet(t *testing.T) {
	papers, _ := initHandlers(t)

	paper := &model.Paper{
		ArxivID:       "2302.00001",
		Title:         "Retrievable Paper",
		Abstract:      "Can be fetched by its arxiv ID.",
		Authors:       []string{"Jane Doe"},
		Categories:    []string{"cs.AI"},
		PublishedDate: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
		SourceURL:     "https://arxiv.org/abs/2302.00001",
	}
	_, err := papers.UpsertPaper(paper, testChunks([]string{"Body."}, []int{0}))
	require.NoError(t, err)

	t.Run("Select existing paper", func(t *testing.T) {
		found, err := papers.SelectPaper("2302.00001")
		assert.NoError(t, err, "Expected SelectPaper to not return an error")
		require.NotNil(t, found)
		assert.Equal(t, "Retrievable Paper", found.Title)
		assert.Equal(t, []string{"Jane Doe"}, found.Authors)
		assert.Equal(t, []string{"cs.AI"}, found.Categories)
		assert.Equal(t, "https://arxiv.org/abs/2302.00001", found.SourceURL)
	})

	t.Run("Select missing paper", func(t *testing.T) {
		_, err := papers.SelectPaper("9999.99999")
		assert.Error(t, err, "Expected error when selecting a missing paper")
	})
}

func TestPapersList(t *testing.T) {
	papers, _ := initHandlers(t)

	for i, arxivID := range []string{"2303.00001", "2303.00002", "2303.00003"} {
		paper := &model.Paper{
			ArxivID:  arxivID,
			Title:    "Listed Paper",
			Abstract: "One of several.",
		}
		_, err := papers.UpsertPaper(paper, testChunks([]string{"Body."}, []int{i}))
		require.NoError(t, err)
	}

	t.Run("List papers with limit", func(t *testing.T) {
		listed, err := papers.SelectAllPapers(nil, 2)
		assert.NoError(t, err, "Expected SelectAllPapers to not return an error")
		assert.Len(t, listed, 2, "Expected the limit to cap the result count")
	})

	t.Run("Keyset pagination continues after last created", func(t *testing.T) {
		firstPage, err := papers.SelectAllPapers(nil, 2)
		require.NoError(t, err)
		require.Len(t, firstPage, 2)

		secondPage, err := papers.SelectAllPapers(&firstPage[1].CreatedAt, 100)
		assert.NoError(t, err)
		for _, paper := range secondPage {
			assert.True(t, paper.CreatedAt.Before(firstPage[1].CreatedAt),
				"Expected second page papers to be older than the cursor")
		}
	})
}

func TestPapersDelete(t *testing.T) {
	papers, chunks := initHandlers(t)

	paper := &model.Paper{
		ArxivID:  "2304.00001",
		Title:    "Deletable Paper",
		Abstract: "Will be removed together with its chunks.",
	}
	_, err := papers.UpsertPaper(paper, testChunks([]string{"A.", "B."}, []int{0, 1}))
	require.NoError(t, err)

	t.Run("Delete removes paper and chunks", func(t *testing.T) {
		err := papers.DeletePaper("2304.00001")
		assert.NoError(t, err, "Expected DeletePaper to not return an error")

		_, err = papers.SelectPaper("2304.00001")
		assert.Error(t, err, "Expected paper to be gone after delete")

		remaining, err := chunks.SelectChunksByPaper("2304.00001")
		assert.NoError(t, err)
		assert.Empty(t, remaining, "Expected chunks to be cascade deleted")
	})

	t.Run("Delete missing paper is a no-op", func(t *testing.T) {
		err := papers.DeletePaper("9999.99999")
		assert.NoError(t, err, "Expected deleting a missing paper to not return an error")
	})
}

func TestPapersCount(t *testing.T) {
	papers, _ := initHandlers(t)

	before, err := papers.CountPapers()
	require.NoError(t, err)

	paper := &model.Paper{
		ArxivID:  "2305.00001",
		Title:    "Counted Paper",
		Abstract: "Increments the corpus count.",
	}
	_, err = papers.UpsertPaper(paper, testChunks([]string{"Body."}, []int{0}))
	require.NoError(t, err)

	after, err := papers.CountPapers()
	assert.NoError(t, err)
	assert.Equal(t, before+1, after, "Expected count to increase by one")
}
