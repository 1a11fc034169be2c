package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ChunkerVersion tracks which chunking algorithm produced a stored passage,
// so re-indexing can detect stale content after an algorithm change.
type ChunkerVersion string

// ChunkerVersionV1 splits on paragraphs with min/max length constraints.
const ChunkerVersionV1 ChunkerVersion = "v1"

const (
	// MinPassageLength is the minimum passage length in characters.
	// Shorter paragraphs are merged into a neighbor.
	MinPassageLength = 80
	// MaxPassageLength is the maximum passage length in characters.
	// Longer paragraphs are split at sentence boundaries.
	MaxPassageLength = 1000
)

// Passage is a single indexable piece of a handbook section.
type Passage struct {
	Ordinal int
	Content string
	Hash    string
}

// Chunker splits handbook section text into indexable passages.
type Chunker interface {
	Chunk(body string) ([]Passage, error)
	Version() ChunkerVersion
}

type paragraphChunker struct{}

// NewChunker creates the default paragraph-based chunker.
func NewChunker() Chunker {
	return &paragraphChunker{}
}

func (c *paragraphChunker) Version() ChunkerVersion {
	return ChunkerVersionV1
}

// Chunk splits the body on blank lines, merges short paragraphs into their
// neighbors, splits overlong paragraphs at sentence boundaries, and hashes
// each resulting passage.
func (c *paragraphChunker) Chunk(body string) ([]Passage, error) {
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var paragraphs []string
	for _, part := range strings.Split(normalized, "\n\n") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	contents := splitLongPassages(mergeShortPassages(paragraphs))

	var passages []Passage
	for i, content := range contents {
		sum := sha256.Sum256([]byte(content))
		passages = append(passages, Passage{
			Ordinal: i,
			Content: content,
			Hash:    hex.EncodeToString(sum[:]),
		})
	}
	return passages, nil
}

// mergeShortPassages folds paragraphs shorter than MinPassageLength into the
// following paragraph (or the preceding one for a short tail).
func mergeShortPassages(paragraphs []string) []string {
	if len(paragraphs) == 0 {
		return nil
	}

	var merged []string
	carry := ""
	for _, p := range paragraphs {
		if carry != "" {
			p = carry + "\n\n" + p
			carry = ""
		}
		if len(p) < MinPassageLength {
			carry = p
			continue
		}
		merged = append(merged, p)
	}
	if carry != "" {
		if len(merged) > 0 {
			merged[len(merged)-1] = merged[len(merged)-1] + "\n\n" + carry
		} else {
			merged = append(merged, carry)
		}
	}
	return merged
}

// splitLongPassages breaks paragraphs above MaxPassageLength at sentence
// boundaries, falling back to a hard cut for pathological unbroken text.
func splitLongPassages(paragraphs []string) []string {
	var out []string
	for _, p := range paragraphs {
		if len(p) <= MaxPassageLength {
			out = append(out, p)
			continue
		}

		var current strings.Builder
		for _, sentence := range splitSentences(p) {
			if current.Len() > 0 && current.Len()+len(sentence)+1 > MaxPassageLength {
				out = append(out, strings.TrimSpace(current.String()))
				current.Reset()
			}
			if len(sentence) > MaxPassageLength {
				// No sentence boundary to cut at; hard-split.
				for len(sentence) > MaxPassageLength {
					out = append(out, sentence[:MaxPassageLength])
					sentence = sentence[MaxPassageLength:]
				}
			}
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(sentence)
		}
		if current.Len() > 0 {
			out = append(out, strings.TrimSpace(current.String()))
		}
	}
	return out
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			end := i + 1
			for end < len(text) && (text[end] == ' ' || text[end] == '\n') {
				end++
			}
			s := strings.TrimSpace(text[start:end])
			if s != "" {
				sentences = append(sentences, s)
			}
			start = end
			i = end - 1
		}
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
