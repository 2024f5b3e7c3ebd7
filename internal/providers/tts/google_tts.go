package tts

import (
	"context"
	"strings"
	"unicode/utf8"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

// maxRequestBytes stays under the API's 5000-byte input limit.
const maxRequestBytes = 4800

type GoogleTTS struct {
	c *texttospeech.Client
}

func NewGoogleTTS(ctx context.Context) (*GoogleTTS, error) {
	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleTTS{c: c}, nil
}

func (g *GoogleTTS) Close() error { return g.c.Close() }

// Synthesize splits long text into sentence-aligned pieces and concatenates
// the MP3 frames of each answer.
func (g *GoogleTTS) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	lang := VoiceLanguage(language)
	var out []byte
	for _, part := range splitBytes(text, maxRequestBytes) {
		resp, err := g.c.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: part},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: lang,
				SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
			},
			AudioConfig: &texttospeechpb.AudioConfig{
				AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, resp.AudioContent...)
	}
	return out, nil
}

var voiceRegions = map[string]string{
	"en": "en-US",
	"hi": "hi-IN",
	"ta": "ta-IN",
	"te": "te-IN",
	"gu": "gu-IN",
	"bn": "bn-IN",
	"mr": "mr-IN",
	"kn": "kn-IN",
	"ml": "ml-IN",
	"pa": "pa-IN",
}

// VoiceLanguage turns a short code into a BCP-47 voice locale ("hi" -> "hi-IN").
// Codes that already carry a region pass through.
func VoiceLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "en-US"
	}
	if strings.Contains(code, "-") {
		return code
	}
	if v, ok := voiceRegions[strings.ToLower(code)]; ok {
		return v
	}
	return code
}

// splitBytes cuts text at sentence ends, then spaces, so no piece exceeds
// limit bytes.
func splitBytes(text string, limit int) []string {
	text = strings.TrimSpace(text)
	var parts []string
	for len(text) > limit {
		window := text[:limit]
		cut := 0
		if i := strings.LastIndexAny(window, ".!?।\n"); i > 0 {
			_, size := utf8.DecodeRuneInString(text[i:])
			cut = i + size
		} else if i := strings.LastIndex(window, " "); i > 0 {
			cut = i + 1
		} else {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
