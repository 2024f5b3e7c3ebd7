package tts

import "context"

type Provider interface {
	// Synthesize returns MP3 audio of text spoken in language.
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
	Close() error
}
