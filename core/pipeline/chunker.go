package pipeline

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/siherrmann/paperrag/helper"
	"github.com/siherrmann/paperrag/model"
)

// wordSpan is a whitespace-delimited token with its byte offsets
type wordSpan struct {
	start       int
	end         int
	sentenceEnd bool
}

// tokenizeWords splits text into word spans. A word ends a sentence when it
// terminates in '.', '!' or '?', optionally followed by closing quotes or
// brackets.
func tokenizeWords(text string) []wordSpan {
	var words []wordSpan
	start := -1

	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, newWordSpan(text, start, i))
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, newWordSpan(text, start, len(text)))
	}

	return words
}

func newWordSpan(text string, start, end int) wordSpan {
	word := strings.TrimRight(text[start:end], `"')]`+"`")
	sentenceEnd := false
	if len(word) > 0 {
		switch word[len(word)-1] {
		case '.', '!', '?':
			sentenceEnd = true
		}
	}
	return wordSpan{start: start, end: end, sentenceEnd: sentenceEnd}
}

// TokenChunker creates a chunker that packs up to maxTokens words per chunk,
// preferring sentence boundaries and falling back to a hard cut when a single
// sentence exceeds maxTokens. Each chunk after the first begins overlapTokens
// words before the previous chunk's end, so cross-boundary context survives
// retrieval. The returned offset ranges cover the input text without gaps.
func TokenChunker(maxTokens int, overlapTokens int) ChunkFunc {
	return func(text string) ([]model.ChunkDraft, error) {
		if maxTokens <= 0 {
			return nil, helper.NewError("chunk",
				fmt.Errorf("%w: max tokens must be positive, got %d", helper.ErrInvalidInput, maxTokens))
		}
		if overlapTokens < 0 || overlapTokens >= maxTokens {
			return nil, helper.NewError("chunk",
				fmt.Errorf("%w: overlap tokens must be in [0, %d), got %d", helper.ErrInvalidInput, maxTokens, overlapTokens))
		}
		if strings.TrimSpace(text) == "" {
			return nil, helper.NewError("chunk",
				fmt.Errorf("%w: text is empty", helper.ErrInvalidInput))
		}

		words := tokenizeWords(text)

		var drafts []model.ChunkDraft
		begin := 0
		chunkIdx := 0

		for begin < len(words) {
			end := begin + maxTokens
			if end >= len(words) {
				end = len(words)
			} else {
				// Prefer the last sentence boundary that still leaves the
				// next chunk room to make progress past the overlap prefix.
				for i := end; i > begin+overlapTokens+1; i-- {
					if words[i-1].sentenceEnd {
						end = i
						break
					}
				}
			}

			startPos := words[begin].start
			if chunkIdx == 0 {
				startPos = 0
			}
			endPos := len(text)
			if end < len(words) {
				endPos = words[end].start
			}

			drafts = append(drafts, model.ChunkDraft{
				Content:    strings.TrimSpace(text[startPos:endPos]),
				ChunkIndex: chunkIdx,
				StartPos:   startPos,
				EndPos:     endPos,
			})

			if end == len(words) {
				break
			}
			begin = end - overlapTokens
			chunkIdx++
		}

		return drafts, nil
	}
}

// SentenceChunker creates a chunker that groups a fixed number of sentences
// per chunk, without overlap. Useful for short texts like abstracts.
func SentenceChunker(maxSentencesPerChunk int) ChunkFunc {
	return func(text string) ([]model.ChunkDraft, error) {
		if maxSentencesPerChunk <= 0 {
			return nil, helper.NewError("chunk",
				fmt.Errorf("%w: max sentences per chunk must be positive, got %d", helper.ErrInvalidInput, maxSentencesPerChunk))
		}
		if strings.TrimSpace(text) == "" {
			return nil, helper.NewError("chunk",
				fmt.Errorf("%w: text is empty", helper.ErrInvalidInput))
		}

		words := tokenizeWords(text)

		var drafts []model.ChunkDraft
		begin := 0
		chunkIdx := 0
		sentences := 0

		for i, word := range words {
			if word.sentenceEnd {
				sentences++
			}
			if sentences < maxSentencesPerChunk && i < len(words)-1 {
				continue
			}
			if i < len(words)-1 && !word.sentenceEnd {
				continue
			}

			startPos := words[begin].start
			if chunkIdx == 0 {
				startPos = 0
			}
			endPos := len(text)
			if i < len(words)-1 {
				endPos = words[i+1].start
			}

			drafts = append(drafts, model.ChunkDraft{
				Content:    strings.TrimSpace(text[startPos:endPos]),
				ChunkIndex: chunkIdx,
				StartPos:   startPos,
				EndPos:     endPos,
			})

			begin = i + 1
			chunkIdx++
			sentences = 0
		}

		return drafts, nil
	}
}
