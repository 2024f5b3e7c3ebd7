package workers

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

const (
	DefaultStream = "papers:index"
	DefaultGroup  = "indexers"
)

// StatusChannel is the pub/sub channel carrying IndexStatus updates for a document.
func StatusChannel(pdfID string) string {
	return "paper:" + pdfID + ":status"
}

// StreamQueue appends index jobs to a Redis stream.
type StreamQueue struct {
	Redis  redis.Cmdable
	Stream string
}

func NewStreamQueue(rdb redis.Cmdable, stream string) *StreamQueue {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamQueue{Redis: rdb, Stream: stream}
}

func (q *StreamQueue) Enqueue(ctx context.Context, job models.IndexJob) error {
	const op = "StreamQueue.Enqueue"

	if job.PdfID == "" || job.ObjectPath == "" {
		return utils.E(utils.CodeInvalidArgument, op, "pdf_id and object_path are required", nil)
	}
	err := q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: q.Stream,
		Values: jobValues(job),
	}).Err()
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to enqueue index job", err)
	}
	return nil
}

func jobValues(job models.IndexJob) map[string]any {
	return map[string]any{
		"pdf_id":      job.PdfID,
		"user_id":     job.UserID,
		"object_path": job.ObjectPath,
	}
}

// decodeJob reads a stream entry back into a job; ok is false for entries
// missing the document id or object path.
func decodeJob(values map[string]any) (models.IndexJob, bool) {
	get := func(k string) string {
		v, ok := values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}
	job := models.IndexJob{
		PdfID:      get("pdf_id"),
		UserID:     get("user_id"),
		ObjectPath: get("object_path"),
	}
	return job, job.PdfID != "" && job.ObjectPath != ""
}
