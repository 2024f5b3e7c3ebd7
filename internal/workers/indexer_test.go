package workers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Phoenix-070/Edutranscribe/internal/logger"
	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

type memDocs struct {
	status map[string]models.DocumentStatus
	reason string
	chunks int
}

func (m *memDocs) Create(ctx context.Context, d *models.Document) error { return nil }
func (m *memDocs) GetByPdfID(ctx context.Context, pdfID string) (*models.Document, error) {
	return nil, utils.ErrNotFound
}
func (m *memDocs) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Document, error) {
	return nil, nil
}
func (m *memDocs) MarkReady(ctx context.Context, pdfID string, pages, chunks int) error {
	m.status[pdfID], m.chunks = models.DocumentReady, chunks
	return nil
}
func (m *memDocs) MarkFailed(ctx context.Context, pdfID, reason string) error {
	m.status[pdfID], m.reason = models.DocumentFailed, reason
	return nil
}

type memObjects map[string][]byte

func (m memObjects) Upload(ctx context.Context, name, contentType string, r io.Reader) error {
	var buf bytes.Buffer
	_, err := io.Copy(&buf, r)
	m[name] = buf.Bytes()
	return err
}
func (m memObjects) Download(ctx context.Context, name string) ([]byte, error) {
	b, ok := m[name]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return b, nil
}
func (m memObjects) Delete(ctx context.Context, name string) error { delete(m, name); return nil }
func (m memObjects) URI(name string) string                        { return "mem://" + name }

type memChunks struct{ rows []models.DocumentChunk }

func (m *memChunks) ReplaceForDocument(ctx context.Context, pdfID string, chunks []models.DocumentChunk) error {
	m.rows = chunks
	return nil
}
func (m *memChunks) Nearest(ctx context.Context, pdfID string, embedding []float32, k int) ([]models.DocumentChunk, error) {
	return nil, nil
}
func (m *memChunks) ListByDocument(ctx context.Context, pdfID string) ([]models.DocumentChunk, error) {
	return m.rows, nil
}

type fakeEmbed struct{ err error }

func (f fakeEmbed) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}
func (f fakeEmbed) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{0}, nil
}

func newTestIndexer(e fakeEmbed, pages []string) (*Indexer, *memDocs, *memChunks, *[]models.IndexStatus) {
	docs := &memDocs{status: map[string]models.DocumentStatus{}}
	chunks := &memChunks{}
	var events []models.IndexStatus
	ix := &Indexer{
		Docs:    docs,
		Store:   memObjects{"papers/u1/p1.pdf": []byte("%PDF-1.4")},
		Chunks:  chunks,
		Embed:   e,
		Extract: func([]byte) ([]string, error) { return pages, nil },
		Notify:  func(ctx context.Context, st models.IndexStatus) { events = append(events, st) },
		Logger:  logger.Discard(),
		now:     func() time.Time { return time.Unix(0, 0) },
	}
	return ix, docs, chunks, &events
}

var testJob = models.IndexJob{PdfID: "p1", UserID: "u1", ObjectPath: "papers/u1/p1.pdf"}

func TestIndexStoresChunks(t *testing.T) {
	pages := []string{strings.Repeat("Transformers use attention. ", 40), "", "Short closing page."}
	ix, docs, chunks, events := newTestIndexer(fakeEmbed{}, pages)

	if err := ix.Index(context.Background(), testJob); err != nil {
		t.Fatal(err)
	}
	if docs.status["p1"] != models.DocumentReady || docs.chunks != len(chunks.rows) {
		t.Fatalf("doc status=%s chunks=%d rows=%d", docs.status["p1"], docs.chunks, len(chunks.rows))
	}
	last := chunks.rows[len(chunks.rows)-1]
	if last.Page != 3 || last.ChunkIndex != len(chunks.rows)-1 || last.PdfID != "p1" {
		t.Fatalf("last chunk = %+v", last)
	}
	if len(last.Embedding.Slice()) != 1 {
		t.Fatal("chunk missing embedding")
	}
	got := *events
	if len(got) != 2 || got[0].Status != models.DocumentProcessing || got[1].Status != models.DocumentReady {
		t.Fatalf("events = %+v", got)
	}
}

func TestIndexFailures(t *testing.T) {
	tests := []struct {
		name  string
		embed fakeEmbed
		pages []string
		path  string
		want  string
	}{
		{"missing object", fakeEmbed{}, []string{"text"}, "papers/u1/gone.pdf", "download"},
		{"no text", fakeEmbed{}, []string{"", "  "}, testJob.ObjectPath, "no extractable text"},
		{"embed error", fakeEmbed{err: errors.New("quota")}, []string{"text"}, testJob.ObjectPath, "embed: quota"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, docs, chunks, events := newTestIndexer(tt.embed, tt.pages)
			j := testJob
			j.ObjectPath = tt.path

			if err := ix.Index(context.Background(), j); err == nil {
				t.Fatal("expected error")
			}
			if docs.status["p1"] != models.DocumentFailed || !strings.Contains(docs.reason, tt.want) {
				t.Fatalf("status=%s reason=%q", docs.status["p1"], docs.reason)
			}
			if len(chunks.rows) != 0 {
				t.Fatal("failed index must not store chunks")
			}
			got := *events
			if got[len(got)-1].Status != models.DocumentFailed {
				t.Fatalf("events = %+v", got)
			}
		})
	}
}

func TestDecodeJob(t *testing.T) {
	got, ok := decodeJob(jobValues(testJob))
	if !ok || got != testJob {
		t.Fatalf("got %+v ok=%v", got, ok)
	}
	if _, ok := decodeJob(map[string]any{"pdf_id": "p1"}); ok {
		t.Fatal("entry without object_path should be rejected")
	}
	if _, ok := decodeJob(map[string]any{"pdf_id": 7, "object_path": "x"}); ok {
		t.Fatal("non-string id should be rejected")
	}
}

func TestTrimReason(t *testing.T) {
	long := strings.Repeat("é", 200)
	got := trimReason(long)
	if len(got) > 300 || !strings.HasPrefix(long, got) {
		t.Fatalf("bad trim: %d bytes", len(got))
	}
}
