package models

import "github.com/pgvector/pgvector-go"

// DocumentChunk is a retrievable slice of a document's text.
type DocumentChunk struct {
	ID         string          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PdfID      string          `gorm:"column:pdf_id;type:uuid;index" json:"pdf_id"`
	ChunkIndex int             `gorm:"column:chunk_index;type:integer" json:"chunk_index"`
	Page       int             `gorm:"column:page;type:integer" json:"page"`
	Content    string          `gorm:"column:content;type:text" json:"content"`
	Embedding  pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"-"`
}

func (DocumentChunk) TableName() string { return "document_chunks" }
