package chunker

import (
	"regexp"
	"strings"
)

// Chunker splits text into fixed-size chunks that prefer sentence
// boundaries, with a character overlap between consecutive chunks.
type Chunker struct {
	chunkSize int
	overlap   int
	splitter  *regexp.Regexp
}

// New creates a chunker. Overlap must be smaller than the chunk size;
// out-of-range values fall back to defaults.
func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 8
	}
	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
		splitter:  regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?]+)`),
	}
}

// Chunk splits text into overlapping windows built from whole sentences.
// A single sentence longer than the chunk size becomes its own chunk.
func (c *Chunker) Chunk(text string) []string {
	sentences := c.splitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		end := i
		size := 0
		for end < len(sentences) {
			next := len(sentences[end])
			if size > 0 {
				next++ // joining space
			}
			if size+next > c.chunkSize && size > 0 {
				break
			}
			size += next
			end++
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		next := c.backUp(sentences, end)
		if next <= i {
			// overlap would stall the window; drop it for this step
			next = end
		}
		i = next
	}
	return chunks
}

// backUp walks back whole sentences from end until roughly overlap
// characters are covered, so consecutive chunks share context.
func (c *Chunker) backUp(sentences []string, end int) int {
	covered := 0
	start := end
	for start > 0 && covered < c.overlap {
		covered += len(sentences[start-1]) + 1
		start--
	}
	if start == end {
		// overlap shorter than one sentence: still advance
		return end
	}
	return start
}
