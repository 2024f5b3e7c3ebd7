package embed

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	defaultModel = "text-embedding-004"
	maxBatch     = 100
)

type GenAI struct {
	client *genai.Client
	model  string
	dim    int32
}

// NewGenAI uses the Gemini API when apiKey is set and Vertex AI otherwise.
func NewGenAI(ctx context.Context, apiKey, project, location, model string, dim int) (*GenAI, error) {
	cfg := &genai.ClientConfig{Backend: genai.BackendVertexAI, Project: project, Location: location}
	if apiKey != "" {
		cfg = &genai.ClientConfig{Backend: genai.BackendGeminiAPI, APIKey: apiKey}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = defaultModel
	}
	return &GenAI{client: c, model: model, dim: int32(dim)}, nil
}

func (g *GenAI) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		vecs, err := g.embed(ctx, texts[start:end], "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (g *GenAI) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.embed(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (g *GenAI) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}
	cfg := &genai.EmbedContentConfig{TaskType: task}
	if g.dim > 0 {
		cfg.OutputDimensionality = &g.dim
	}

	res, err := g.client.Models.EmbedContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if res == nil || len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed content: expected %d embeddings", len(texts))
	}
	out := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}
