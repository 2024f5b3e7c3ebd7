package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/providers/translate"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

type TranslationService interface {
	Translate(ctx context.Context, text, targetLanguage string, method models.TranslationMethod) (string, error)
}

type translationService struct {
	providers map[models.TranslationMethod]translate.Provider
}

// NewTranslationService registers one provider per method; a nil provider
// leaves its method unavailable.
func NewTranslationService(google, nllb translate.Provider) TranslationService {
	p := map[models.TranslationMethod]translate.Provider{}
	if google != nil {
		p[models.MethodGoogle] = google
	}
	if nllb != nil {
		p[models.MethodNLLB] = nllb
	}
	return &translationService{providers: p}
}

func (s *translationService) Translate(ctx context.Context, text, targetLanguage string, method models.TranslationMethod) (string, error) {
	const op = "TranslationService.Translate"

	lang := models.NormalizeLanguage(targetLanguage)
	if strings.TrimSpace(text) == "" || lang == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "text and target_language are required", nil)
	}
	if method == "" {
		method = models.MethodGoogle
	}
	if !method.Valid() {
		return "", utils.E(utils.CodeInvalidArgument, op, "Invalid translation method", nil)
	}
	p, ok := s.providers[method]
	if !ok {
		return "", utils.E(utils.CodeUnavailable, op, "translation method "+string(method)+" is not configured", nil)
	}

	out, err := p.Translate(ctx, text, lang)
	if err != nil {
		var unsupported translate.ErrUnsupportedLanguage
		if errors.As(err, &unsupported) {
			return "", utils.E(utils.CodeInvalidArgument, op, "Unsupported language for NLLB", err)
		}
		return "", utils.E(utils.CodeUnavailable, op, "translation failed", err)
	}
	return out, nil
}
