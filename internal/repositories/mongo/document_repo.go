package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

type DocumentRepository interface {
	Create(ctx context.Context, d *models.Document) error
	GetByPdfID(ctx context.Context, pdfID string) (*models.Document, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.Document, error)
	MarkReady(ctx context.Context, pdfID string, pages, chunks int) error
	MarkFailed(ctx context.Context, pdfID, reason string) error
}

type documentRepo struct {
	col *mongo.Collection
}

func NewDocumentRepo(db *mongo.Database) DocumentRepository {
	return &documentRepo{col: db.Collection("papers")}
}

func (r *documentRepo) Create(ctx context.Context, d *models.Document) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.Status == "" {
		d.Status = models.DocumentProcessing
	}
	_, err := r.col.InsertOne(ctx, d)
	return err
}

func (r *documentRepo) GetByPdfID(ctx context.Context, pdfID string) (*models.Document, error) {
	var d models.Document
	err := r.col.FindOne(ctx, bson.M{"pdf_id": pdfID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Document
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) MarkReady(ctx context.Context, pdfID string, pages, chunks int) error {
	return r.update(ctx, pdfID, bson.M{
		"status":      models.DocumentReady,
		"page_count":  pages,
		"chunk_count": chunks,
		"indexed_at":  time.Now().UTC(),
		"error":       "",
	})
}

func (r *documentRepo) MarkFailed(ctx context.Context, pdfID, reason string) error {
	return r.update(ctx, pdfID, bson.M{
		"status": models.DocumentFailed,
		"error":  reason,
	})
}

func (r *documentRepo) update(ctx context.Context, pdfID string, set bson.M) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"pdf_id": pdfID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}
