package translate

import (
	"context"
	"fmt"
	"html"
	"strings"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
)

// maxChunkBytes keeps each request below the API's per-call payload limit.
const maxChunkBytes = 5000

type Google struct {
	c *translate.Client
}

func NewGoogle(ctx context.Context) (*Google, error) {
	c, err := translate.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Google{c: c}, nil
}

func (g *Google) Close() error { return g.c.Close() }

// Translate translates text chunk by chunk and joins the pieces with blank
// lines.
func (g *Google) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	tag, err := language.Parse(targetLanguage)
	if err != nil {
		return "", fmt.Errorf("target language %q: %w", targetLanguage, err)
	}
	chunks := SplitChunks(text, maxChunkBytes)
	if len(chunks) == 0 {
		return "", nil
	}

	res, err := g.c.Translate(ctx, chunks, tag, &translate.Options{Format: translate.Text})
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(res))
	for _, r := range res {
		parts = append(parts, html.UnescapeString(r.Text))
	}
	return strings.Join(parts, "\n\n"), nil
}
