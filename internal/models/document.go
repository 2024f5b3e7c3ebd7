package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DocumentStatus string

const (
	DocumentProcessing DocumentStatus = "processing"
	DocumentReady      DocumentStatus = "ready"
	DocumentFailed     DocumentStatus = "failed"
)

// Document is an uploaded paper. PdfID is the public identifier.
type Document struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	PdfID      string             `bson:"pdf_id" json:"id"`       // uuid v4
	UserID     string             `bson:"user_id" json:"user_id"` // jwt subject
	Filename   string             `bson:"filename" json:"filename"`
	ObjectPath string             `bson:"object_path" json:"-"` // papers/<user>/<pdf_id>.pdf
	SizeBytes  int64              `bson:"size_bytes" json:"size_bytes"`

	PreviewText string         `bson:"preview_text" json:"preview_text,omitempty"`
	Status      DocumentStatus `bson:"status" json:"status"`
	Error       string         `bson:"error,omitempty" json:"error,omitempty"`
	PageCount   int            `bson:"page_count" json:"page_count"`
	ChunkCount  int            `bson:"chunk_count" json:"chunk_count"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	IndexedAt *time.Time `bson:"indexed_at,omitempty" json:"indexed_at,omitempty"`
}
