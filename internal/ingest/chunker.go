package ingest

import (
	"strings"
)

// Chunker splits extracted text into overlapping pieces sized for
// embedding. Splits land on paragraph boundaries when possible; the
// tail of each chunk is carried into the next so boundary sentences
// stay searchable from both sides.
type Chunker struct {
	maxSize int
	overlap int
}

func NewChunker(maxSize, overlap int) *Chunker {
	if overlap >= maxSize {
		overlap = maxSize / 4
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}
}

func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.maxSize {
		return []string{text}
	}

	paragraphs := splitParagraphs(text)
	if len(paragraphs) <= 1 {
		return c.splitFixed(text)
	}

	var chunks []string
	var current strings.Builder
	for _, para := range paragraphs {
		if len(para) > c.maxSize {
			// Oversized paragraph: flush what we have and slice it.
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			pieces := c.splitFixed(para)
			chunks = append(chunks, pieces...)
			current.WriteString(c.tail(pieces[len(pieces)-1]))
			continue
		}
		needed := len(para)
		if current.Len() > 0 {
			needed += 2
		}
		if current.Len()+needed > c.maxSize {
			chunk := current.String()
			chunks = append(chunks, chunk)
			current.Reset()
			current.WriteString(c.tail(chunk))
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if strings.TrimSpace(current.String()) != "" {
		last := current.String()
		// Avoid a trailing chunk that is pure overlap of the previous one.
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], strings.TrimSpace(last)) {
			chunks = append(chunks, last)
		}
	}
	return chunks
}

func (c *Chunker) splitFixed(text string) []string {
	var chunks []string
	step := c.maxSize - c.overlap
	for start := 0; start < len(text); start += step {
		end := start + c.maxSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}

// tail returns the overlap prefix carried into the next chunk,
// trimmed back to a word boundary.
func (c *Chunker) tail(chunk string) string {
	if len(chunk) <= c.overlap {
		return chunk
	}
	t := chunk[len(chunk)-c.overlap:]
	if idx := strings.IndexAny(t, " \n"); idx >= 0 && idx < len(t)-1 {
		t = t[idx+1:]
	}
	return t
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
