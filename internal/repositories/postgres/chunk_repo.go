package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
)

type ChunkRepo interface {
	// ReplaceForDocument swaps a document's chunks in one transaction so a
	// re-index never leaves a mix of old and new rows.
	ReplaceForDocument(ctx context.Context, pdfID string, chunks []models.DocumentChunk) error
	// Nearest returns the k chunks closest to embedding by cosine distance.
	Nearest(ctx context.Context, pdfID string, embedding []float32, k int) ([]models.DocumentChunk, error)
	ListByDocument(ctx context.Context, pdfID string) ([]models.DocumentChunk, error)
}

type chunkRepo struct {
	db *gorm.DB
}

func NewChunkRepo(db *gorm.DB) ChunkRepo {
	return &chunkRepo{db: db}
}

func (r *chunkRepo) ReplaceForDocument(ctx context.Context, pdfID string, chunks []models.DocumentChunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pdf_id = ?", pdfID).Delete(&models.DocumentChunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.CreateInBatches(chunks, 100).Error
	})
}

func (r *chunkRepo) Nearest(ctx context.Context, pdfID string, embedding []float32, k int) ([]models.DocumentChunk, error) {
	if k <= 0 {
		k = 3
	}
	var rows []models.DocumentChunk
	err := r.db.WithContext(ctx).
		Where("pdf_id = ?", pdfID).
		Order(gorm.Expr("embedding <=> ?", pgvector.NewVector(embedding))).
		Limit(k).
		Find(&rows).Error
	return rows, err
}

func (r *chunkRepo) ListByDocument(ctx context.Context, pdfID string) ([]models.DocumentChunk, error) {
	var rows []models.DocumentChunk
	err := r.db.WithContext(ctx).
		Where("pdf_id = ?", pdfID).
		Order("chunk_index ASC").
		Find(&rows).Error
	return rows, err
}
