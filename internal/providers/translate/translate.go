package translate

import (
	"context"
	"strings"
)

type Provider interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// SplitChunks cuts text into pieces of at most limit bytes on spaces. A
// single word longer than limit becomes its own piece.
func SplitChunks(text string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// SplitSentences breaks text after '.', '!', '?' and the devanagari danda.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		switch r {
		case '.', '!', '?', '।':
			end := i + len(string(r))
			if s := strings.TrimSpace(text[start:end]); s != "" {
				out = append(out, s)
			}
			start = end
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
