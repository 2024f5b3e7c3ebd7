package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
)

const nllbSourceLanguage = "eng_Latn"

// ErrUnsupportedLanguage is returned for targets NLLB has no code for.
type ErrUnsupportedLanguage struct {
	Language string
}

func (e ErrUnsupportedLanguage) Error() string {
	return fmt.Sprintf("language %q is not supported by nllb", e.Language)
}

// NLLB calls a hosted NLLB-200 inference endpoint sentence by sentence.
type NLLB struct {
	endpoint string
	token    string
	hc       *http.Client
}

func NewNLLB(endpoint, token string) *NLLB {
	return &NLLB{
		endpoint: endpoint,
		token:    token,
		hc: &http.Client{
			Timeout:   2 * time.Minute,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type nllbRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters nllbParameters `json:"parameters"`
}

type nllbParameters struct {
	SrcLang string `json:"src_lang"`
	TgtLang string `json:"tgt_lang"`
}

type nllbResult struct {
	TranslationText string `json:"translation_text"`
}

func (n *NLLB) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	code, ok := models.NLLBLanguageCodes[models.NormalizeLanguage(targetLanguage)]
	if !ok {
		return "", ErrUnsupportedLanguage{Language: targetLanguage}
	}
	if n.endpoint == "" {
		return "", fmt.Errorf("nllb endpoint is not configured")
	}

	sentences := SplitSentences(text)
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		t, err := n.translateOne(ctx, s, code)
		if err != nil {
			return "", err
		}
		out = append(out, t)
	}
	return strings.Join(out, " "), nil
}

func (n *NLLB) translateOne(ctx context.Context, sentence, target string) (string, error) {
	body, err := json.Marshal(nllbRequest{
		Inputs:     sentence,
		Parameters: nllbParameters{SrcLang: nllbSourceLanguage, TgtLang: target},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("nllb: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var results []nllbResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("nllb: decode response: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("nllb: empty response")
	}
	return strings.TrimSpace(results[0].TranslationText), nil
}
