package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

type ChatLogRepo interface {
	Insert(ctx context.Context, log *models.ChatLog) error
	// ListByDocument returns the exchanges oldest first.
	ListByDocument(ctx context.Context, userID, pdfID string, limit int) ([]models.ChatLog, error)
	// LatestN returns the n most recent exchanges, oldest first.
	LatestN(ctx context.Context, userID, pdfID string, n int) ([]models.ChatLog, error)
	GetByID(ctx context.Context, id string) (*models.ChatLog, error)
}

type chatLogRepo struct {
	db *gorm.DB
}

func NewChatLogRepo(db *gorm.DB) ChatLogRepo {
	return &chatLogRepo{db: db}
}

func (r *chatLogRepo) Insert(ctx context.Context, log *models.ChatLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListByDocument keeps the most recent limit exchanges so new answers always
// show up once the history outgrows the limit.
func (r *chatLogRepo) ListByDocument(ctx context.Context, userID, pdfID string, limit int) ([]models.ChatLog, error) {
	if limit <= 0 {
		limit = 200
	}
	return r.latest(ctx, userID, pdfID, limit)
}

func (r *chatLogRepo) LatestN(ctx context.Context, userID, pdfID string, n int) ([]models.ChatLog, error) {
	if n <= 0 {
		n = 2
	}
	return r.latest(ctx, userID, pdfID, n)
}

// latest returns the n newest rows, oldest first.
func (r *chatLogRepo) latest(ctx context.Context, userID, pdfID string, n int) ([]models.ChatLog, error) {
	var rows []models.ChatLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND pdf_id = ?", userID, pdfID).
		Order("created_at DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	reverseLogs(rows)
	return rows, nil
}

func reverseLogs(rows []models.ChatLog) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

func (r *chatLogRepo) GetByID(ctx context.Context, id string) (*models.ChatLog, error) {
	var row models.ChatLog
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}
