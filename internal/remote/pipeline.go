package remote

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

type transcribeRequest struct {
	URL string `json:"url"`
}

type transcribeResponse struct {
	Transcript *string `json:"transcript"`
	Source     *string `json:"source"`
}

// Transcript is the output of the transcribe endpoint. Source names the
// backend that produced it ("captions", "speech", "whisper", ...).
type Transcript struct {
	Text   string
	Source string
}

func (c *Client) Transcribe(ctx context.Context, videoURL string) (Transcript, error) {
	const op = "Client.Transcribe"

	var resp transcribeResponse
	if err := c.postJSON(ctx, op, "/transcribe", transcribeRequest{URL: videoURL}, &resp); err != nil {
		return Transcript{}, err
	}
	if resp.Transcript == nil {
		return Transcript{}, missing(op, "transcript")
	}
	if resp.Source == nil {
		return Transcript{}, missing(op, "source")
	}
	return Transcript{Text: *resp.Transcript, Source: *resp.Source}, nil
}

type summarizeRequest struct {
	Text string `json:"text"`
}

type summaryResponse struct {
	Summary *string `json:"summary"`
}

func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	const op = "Client.Summarize"

	var resp summaryResponse
	if err := c.postJSON(ctx, op, "/summarize", summarizeRequest{Text: text}, &resp); err != nil {
		return "", err
	}
	if resp.Summary == nil {
		return "", missing(op, "summary")
	}
	return *resp.Summary, nil
}

type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
	Method         string `json:"method"`
}

type translateResponse struct {
	TranslatedText *string `json:"translated_text"`
}

func (c *Client) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	const op = "Client.Translate"

	var resp translateResponse
	if err := c.postJSON(ctx, op, "/translate", req, &resp); err != nil {
		return "", err
	}
	if resp.TranslatedText == nil {
		return "", missing(op, "translated_text")
	}
	return *resp.TranslatedText, nil
}

// Synthesize returns encoded audio (audio/mpeg) for text spoken in lang.
func (c *Client) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	const op = "Client.Synthesize"

	form := url.Values{}
	form.Set("text", text)
	form.Set("lang", lang)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/gtts_speech", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, utils.E(utils.CodeNetwork, op, "failed to read audio", err)
	}
	if len(audio) == 0 {
		return nil, missing(op, "audio body")
	}
	return audio, nil
}
