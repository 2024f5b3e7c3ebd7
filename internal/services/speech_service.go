package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/Phoenix-070/Edutranscribe/internal/cache"
	"github.com/Phoenix-070/Edutranscribe/internal/providers/tts"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

const speechCacheTTL = time.Hour

type SpeechService interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

type speechService struct {
	tts   tts.Provider
	cache cache.Cache
}

// NewSpeechService caches synthesized audio when c is non-nil.
func NewSpeechService(p tts.Provider, c cache.Cache) SpeechService {
	return &speechService{tts: p, cache: c}
}

func (s *speechService) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	const op = "SpeechService.Synthesize"

	if strings.TrimSpace(text) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}
	lang := tts.VoiceLanguage(language)

	key := speechKey(text, lang)
	if s.cache != nil {
		var cached []byte
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit && len(cached) > 0 {
			return cached, nil
		}
	}

	audio, err := s.tts.Synthesize(ctx, text, lang)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "speech synthesis failed", err)
	}
	if len(audio) == 0 {
		return nil, utils.E(utils.CodeUnavailable, op, "speech synthesis returned no audio", nil)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, audio, speechCacheTTL)
	}
	return audio, nil
}

func speechKey(text, lang string) string {
	sum := sha256.Sum256([]byte(lang + "\x00" + text))
	return cache.Key("tts", lang, hex.EncodeToString(sum[:16]))
}
