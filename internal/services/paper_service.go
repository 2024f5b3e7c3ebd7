package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Phoenix-070/Edutranscribe/internal/cache"
	"github.com/Phoenix-070/Edutranscribe/internal/models"
	mongorepo "github.com/Phoenix-070/Edutranscribe/internal/repositories/mongo"
	"github.com/Phoenix-070/Edutranscribe/internal/storage"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

const previewWords = 500

// IndexQueue hands uploaded documents to the indexing workers.
type IndexQueue interface {
	Enqueue(ctx context.Context, job models.IndexJob) error
}

type UploadResult struct {
	Document *models.Document
	Preview  string
}

type PaperService interface {
	Upload(ctx context.Context, userID, filename string, r io.Reader) (*UploadResult, error)
	List(ctx context.Context, userID string) ([]models.Document, error)
	Get(ctx context.Context, userID, pdfID string) (*models.Document, error)
	Summary(ctx context.Context, userID, pdfID string) (string, error)
}

type PaperConfig struct {
	MaxBytes        int64
	SummaryCacheTTL time.Duration
}

type paperService struct {
	docs    mongorepo.DocumentRepository
	store   storage.ObjectStore
	queue   IndexQueue
	cache   cache.Cache
	summary SummaryService
	cfg     PaperConfig
	log     logrus.FieldLogger
}

func NewPaperService(docs mongorepo.DocumentRepository, store storage.ObjectStore, queue IndexQueue, c cache.Cache, summary SummaryService, cfg PaperConfig, log logrus.FieldLogger) PaperService {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 20 << 20
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &paperService{docs: docs, store: store, queue: queue, cache: c, summary: summary, cfg: cfg, log: log}
}

func (s *paperService) Upload(ctx context.Context, userID, filename string, r io.Reader) (*UploadResult, error) {
	const op = "PaperService.Upload"

	if userID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "missing user", nil)
	}
	filename = filepath.Base(strings.TrimSpace(filename))
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Only PDF files are allowed", nil)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxBytes+1))
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "failed to read upload", err)
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "file too large", nil)
	}
	if len(data) == 0 || http.DetectContentType(data) != "application/pdf" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "file is not a PDF", nil)
	}

	pages, err := ExtractPages(data)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "unable to read PDF", err)
	}
	preview := PreviewWords(strings.Join(pages, " "), previewWords)

	pdfID := uuid.NewString()
	object := "papers/" + userID + "/" + pdfID + ".pdf"
	if err := s.store.Upload(ctx, object, "application/pdf", bytes.NewReader(data)); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to store file", err)
	}

	doc := &models.Document{
		PdfID:       pdfID,
		UserID:      userID,
		Filename:    filename,
		ObjectPath:  object,
		SizeBytes:   int64(len(data)),
		PreviewText: preview,
		Status:      models.DocumentProcessing,
		PageCount:   len(pages),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		_ = s.store.Delete(context.WithoutCancel(ctx), object)
		return nil, utils.E(utils.CodeInternal, op, "failed to persist document", err)
	}

	if err := s.queue.Enqueue(ctx, models.IndexJob{PdfID: pdfID, UserID: userID, ObjectPath: object}); err != nil {
		_ = s.docs.MarkFailed(context.WithoutCancel(ctx), pdfID, "failed to enqueue indexing")
		return nil, utils.E(utils.CodeUnavailable, op, "failed to schedule indexing", err)
	}

	s.log.WithFields(logrus.Fields{"pdf_id": pdfID, "pages": len(pages), "bytes": len(data)}).Info("paper uploaded")
	return &UploadResult{Document: doc, Preview: preview}, nil
}

func (s *paperService) List(ctx context.Context, userID string) ([]models.Document, error) {
	const op = "PaperService.List"

	docs, err := s.docs.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list papers", err)
	}
	return docs, nil
}

// Get returns NOT_FOUND for documents owned by someone else.
func (s *paperService) Get(ctx context.Context, userID, pdfID string) (*models.Document, error) {
	const op = "PaperService.Get"

	if pdfID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "pdf_id is required", nil)
	}
	doc, err := s.docs.GetByPdfID(ctx, pdfID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "PDF not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load paper", err)
	}
	if doc.UserID != userID {
		return nil, utils.E(utils.CodeNotFound, op, "PDF not found", nil)
	}
	return doc, nil
}

func (s *paperService) Summary(ctx context.Context, userID, pdfID string) (string, error) {
	const op = "PaperService.Summary"

	doc, err := s.Get(ctx, userID, pdfID)
	if err != nil {
		return "", err
	}

	key := cache.Key("paper", pdfID, "summary")
	var cached string
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	data, err := s.store.Download(ctx, doc.ObjectPath)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to load paper", err)
	}
	pages, err := ExtractPages(data)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "unable to read PDF", err)
	}
	summary, err := s.summary.SummarizePaper(ctx, strings.Join(pages, " "))
	if err != nil {
		return "", err
	}
	if err := s.cache.SetJSON(ctx, key, summary, s.cfg.SummaryCacheTTL); err != nil {
		s.log.WithError(err).WithField("pdf_id", pdfID).Warn("failed to cache paper summary")
	}
	return summary, nil
}
