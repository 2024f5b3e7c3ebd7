package storage

import (
	"context"
	"io"
)

// ObjectStore keeps uploaded papers and intermediate audio. Objects are
// private; callers address them by name.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) error
	Download(ctx context.Context, objectName string) ([]byte, error)
	Delete(ctx context.Context, objectName string) error
	// URI returns the gs:// address other Google APIs read the object from.
	URI(objectName string) string
}
