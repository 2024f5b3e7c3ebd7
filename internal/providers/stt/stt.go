package stt

import "context"

type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	// TranscribeURI runs long-running recognition on audio already in object
	// storage (gs://bucket/object).
	TranscribeURI(ctx context.Context, uri, language string) (text string, err error)
	Close() error
}
