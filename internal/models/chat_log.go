package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ChatLog is one answered question about a document. Rows are append-only.
type ChatLog struct {
	ID          string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID      string         `gorm:"column:user_id;type:text;index" json:"user_id"`
	PdfID       string         `gorm:"column:pdf_id;type:uuid;index" json:"pdf_id"`
	Question    string         `gorm:"column:question;type:text" json:"question"`
	Answer      string         `gorm:"column:answer;type:text" json:"answer"`
	SourcePages pq.Int64Array  `gorm:"column:source_pages;type:bigint[]" json:"source_pages"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt   time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (ChatLog) TableName() string { return "chat_logs" }

func (l ChatLog) Exchange() Exchange {
	return Exchange{Question: l.Question, Answer: l.Answer}
}
