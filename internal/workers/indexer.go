package workers

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/providers/embed"
	mongorepo "github.com/Phoenix-070/Edutranscribe/internal/repositories/mongo"
	pgrepo "github.com/Phoenix-070/Edutranscribe/internal/repositories/postgres"
	"github.com/Phoenix-070/Edutranscribe/internal/services"
	"github.com/Phoenix-070/Edutranscribe/internal/storage"
)

const (
	chunkSize    = 500
	chunkOverlap = 50
)

// Indexer turns one uploaded PDF into embedded chunks and flips the
// document to ready or failed.
type Indexer struct {
	Docs   mongorepo.DocumentRepository
	Store  storage.ObjectStore
	Chunks pgrepo.ChunkRepo
	Embed  embed.Provider

	// Extract defaults to services.ExtractPages.
	Extract func(data []byte) ([]string, error)
	// Notify receives every status transition; nil drops them.
	Notify func(ctx context.Context, st models.IndexStatus)

	Logger logrus.FieldLogger
	now    func() time.Time
}

func (ix *Indexer) Index(ctx context.Context, job models.IndexJob) error {
	log := ix.logger().WithField("pdf_id", job.PdfID)
	ix.notify(ctx, models.IndexStatus{PdfID: job.PdfID, Status: models.DocumentProcessing})

	pages, chunks, err := ix.build(ctx, job)
	if err != nil {
		log.WithError(err).Error("indexing failed")
		reason := trimReason(err.Error())
		if mErr := ix.Docs.MarkFailed(context.WithoutCancel(ctx), job.PdfID, reason); mErr != nil {
			log.WithError(mErr).Warn("failed to mark document failed")
		}
		ix.notify(ctx, models.IndexStatus{PdfID: job.PdfID, Status: models.DocumentFailed, Error: reason})
		return err
	}

	if err := ix.Docs.MarkReady(ctx, job.PdfID, pages, chunks); err != nil {
		log.WithError(err).Error("failed to mark document ready")
		return err
	}
	ix.notify(ctx, models.IndexStatus{PdfID: job.PdfID, Status: models.DocumentReady, Chunks: chunks})
	log.WithFields(logrus.Fields{"pages": pages, "chunks": chunks}).Info("paper indexed")
	return nil
}

func (ix *Indexer) build(ctx context.Context, job models.IndexJob) (pages, chunks int, err error) {
	data, err := ix.Store.Download(ctx, job.ObjectPath)
	if err != nil {
		return 0, 0, indexError("download", err)
	}
	extract := ix.Extract
	if extract == nil {
		extract = services.ExtractPages
	}
	text, err := extract(data)
	if err != nil {
		return 0, 0, indexError("extract", err)
	}

	pieces := services.ChunkPages(text, chunkSize, chunkOverlap)
	if len(pieces) == 0 {
		return 0, 0, indexError("extract", errNoText)
	}
	contents := make([]string, len(pieces))
	for i, p := range pieces {
		contents[i] = p.Content
	}
	vecs, err := ix.Embed.EmbedDocuments(ctx, contents)
	if err != nil {
		return 0, 0, indexError("embed", err)
	}
	if len(vecs) != len(pieces) {
		return 0, 0, indexError("embed", errVectorCount)
	}

	rows := make([]models.DocumentChunk, len(pieces))
	for i, p := range pieces {
		rows[i] = models.DocumentChunk{
			ID:         uuid.NewString(),
			PdfID:      job.PdfID,
			ChunkIndex: i,
			Page:       p.Page,
			Content:    p.Content,
			Embedding:  pgvector.NewVector(vecs[i]),
		}
	}
	if err := ix.Chunks.ReplaceForDocument(ctx, job.PdfID, rows); err != nil {
		return 0, 0, indexError("store chunks", err)
	}
	return len(text), len(rows), nil
}

func (ix *Indexer) notify(ctx context.Context, st models.IndexStatus) {
	if ix.Notify == nil {
		return
	}
	if ix.now == nil {
		ix.now = time.Now
	}
	st.At = ix.now().UTC()
	ix.Notify(ctx, st)
}

func (ix *Indexer) logger() logrus.FieldLogger {
	if ix.Logger == nil {
		return logrus.StandardLogger()
	}
	return ix.Logger
}

type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return e.step + ": " + e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }

func indexError(step string, err error) error { return &stepError{step: step, err: err} }

type constError string

func (e constError) Error() string { return string(e) }

const (
	errNoText      constError = "no extractable text"
	errVectorCount constError = "embedding count mismatch"
)

// trimReason keeps stored failure reasons short.
func trimReason(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 300 {
		return s
	}
	n := 300
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
