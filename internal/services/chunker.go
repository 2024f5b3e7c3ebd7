package services

import "strings"

// Chunk is a slice of one page's text.
type Chunk struct {
	Page    int
	Content string
}

var chunkSeparators = []string{"\n\n", "\n", ". ", " "}

// ChunkPages splits every page into pieces of at most size bytes, preferring
// paragraph, line, sentence and word boundaries, with overlap bytes carried
// from the end of one piece into the next. Pages are 1-based.
func ChunkPages(pages []string, size, overlap int) []Chunk {
	var out []Chunk
	for i, p := range pages {
		for _, c := range splitText(strings.TrimSpace(p), size, overlap) {
			out = append(out, Chunk{Page: i + 1, Content: c})
		}
	}
	return out
}

func splitText(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	if overlap >= size {
		overlap = size / 10
	}

	var out []string
	for len(text) > size {
		cut := cutPoint(text, size)
		out = append(out, strings.TrimSpace(text[:cut]))

		next := cut - overlap
		if next <= 0 {
			next = cut
		}
		// start the overlap on a word boundary
		if i := strings.IndexByte(text[next:cut], ' '); i >= 0 && next+i+1 < cut {
			next += i + 1
		}
		text = strings.TrimSpace(text[next:])
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

func cutPoint(text string, size int) int {
	window := text[:size]
	for _, sep := range chunkSeparators {
		if i := strings.LastIndex(window, sep); i > size/2 {
			return i + len(sep)
		}
	}
	for size > 0 && text[size]&0xC0 == 0x80 {
		size--
	}
	return size
}
