package models

import "time"

// IndexJob asks a worker to chunk and embed an uploaded document.
type IndexJob struct {
	PdfID      string `json:"pdf_id"`
	UserID     string `json:"user_id"`
	ObjectPath string `json:"object_path"`
}

// IndexStatus is published on paper:<pdf_id>:status while a job runs.
type IndexStatus struct {
	PdfID  string         `json:"pdf_id"`
	Status DocumentStatus `json:"status"`
	Chunks int            `json:"chunks,omitempty"`
	Error  string         `json:"error,omitempty"`
	At     time.Time      `json:"at"`
}
