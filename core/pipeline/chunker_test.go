package pipeline

import (
	"strings"
	"testing"

	"github.com/siherrmann/paperrag/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenChunker(t *testing.T) {
	t.Run("Short text fits a single chunk", func(t *testing.T) {
		chunker := TokenChunker(50, 10)
		text := "This is a short text. It fits comfortably in one chunk."

		chunks, err := chunker(text)

		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, 0, chunks[0].ChunkIndex)
		assert.Equal(t, 0, chunks[0].StartPos)
		assert.Equal(t, len(text), chunks[0].EndPos)
		assert.Equal(t, text, chunks[0].Content)
	})

	t.Run("Long text splits into contiguous chunks", func(t *testing.T) {
		chunker := TokenChunker(20, 5)
		var sb strings.Builder
		for i := 0; i < 30; i++ {
			sb.WriteString("This sentence adds a handful of words to the text. ")
		}
		text := sb.String()

		chunks, err := chunker(text)

		require.NoError(t, err)
		assert.Greater(t, len(chunks), 1, "Expected multiple chunks")

		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.ChunkIndex, "Expected contiguous chunk indices")
			assert.NotEmpty(t, chunk.Content)
			assert.Less(t, chunk.StartPos, chunk.EndPos)
		}

		// Offset ranges cover the text without gaps
		assert.Equal(t, 0, chunks[0].StartPos)
		assert.Equal(t, len(text), chunks[len(chunks)-1].EndPos)
		for i := 1; i < len(chunks); i++ {
			assert.LessOrEqual(t, chunks[i].StartPos, chunks[i-1].EndPos,
				"Expected no gap between consecutive chunks")
		}
	})

	t.Run("Chunks overlap by configured token count", func(t *testing.T) {
		chunker := TokenChunker(10, 3)
		words := make([]string, 25)
		for i := range words {
			words[i] = "word"
		}
		text := strings.Join(words, " ")

		chunks, err := chunker(text)

		require.NoError(t, err)
		require.Greater(t, len(chunks), 1)

		// The second chunk starts before the first one ends
		assert.Less(t, chunks[1].StartPos, chunks[0].EndPos+1,
			"Expected overlapping content between consecutive chunks")
	})

	t.Run("Cut prefers sentence boundary", func(t *testing.T) {
		chunker := TokenChunker(10, 2)
		text := "One two three four five six seven. Eight nine ten eleven twelve thirteen fourteen fifteen sixteen."

		chunks, err := chunker(text)

		require.NoError(t, err)
		require.Greater(t, len(chunks), 1)
		assert.True(t, strings.HasSuffix(strings.TrimSpace(chunks[0].Content), "seven."),
			"Expected first chunk to end at the sentence boundary")
	})

	t.Run("Error with non-positive max tokens", func(t *testing.T) {
		chunker := TokenChunker(0, 0)
		_, err := chunker("Some text.")

		assert.Error(t, err)
		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})

	t.Run("Error with overlap not below max tokens", func(t *testing.T) {
		chunker := TokenChunker(10, 10)
		_, err := chunker("Some text.")

		assert.Error(t, err)
		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})

	t.Run("Error with empty text", func(t *testing.T) {
		chunker := TokenChunker(10, 2)
		_, err := chunker("   \n\t  ")

		assert.Error(t, err)
		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})
}

func TestSentenceChunker(t *testing.T) {
	t.Run("Valid chunking with multiple sentences", func(t *testing.T) {
		chunker := SentenceChunker(2)
		text := "This is sentence one. This is sentence two. This is sentence three."

		chunks, err := chunker(text)

		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Contains(t, chunks[0].Content, "sentence one")
		assert.Contains(t, chunks[0].Content, "sentence two")
		assert.Contains(t, chunks[1].Content, "sentence three")

		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.ChunkIndex)
			assert.Less(t, chunk.StartPos, chunk.EndPos)
		}
	})

	t.Run("Single sentence", func(t *testing.T) {
		chunker := SentenceChunker(1)
		text := "This is a single sentence."

		chunks, err := chunker(text)

		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Contains(t, chunks[0].Content, "single sentence")
	})

	t.Run("Different punctuation marks", func(t *testing.T) {
		chunker := SentenceChunker(1)
		text := "Question one? Statement two. Exclamation three!"

		chunks, err := chunker(text)

		require.NoError(t, err)
		assert.Len(t, chunks, 3)
	})

	t.Run("Error with zero max sentences", func(t *testing.T) {
		chunker := SentenceChunker(0)
		_, err := chunker("Some text.")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("Error with empty text", func(t *testing.T) {
		chunker := SentenceChunker(2)
		_, err := chunker("")

		assert.Error(t, err)
		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})
}
