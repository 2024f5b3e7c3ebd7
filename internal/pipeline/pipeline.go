// Package pipeline wires the transcribe, summarize and translate stages to the
// workspace and the remote service, and hands finished text to the audio
// manager.
package pipeline

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Phoenix-070/Edutranscribe/internal/audio"
	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/remote"
	"github.com/Phoenix-070/Edutranscribe/internal/stage"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
	"github.com/Phoenix-070/Edutranscribe/internal/workspace"
)

// Remote is the subset of the service client the stages call.
type Remote interface {
	Transcribe(ctx context.Context, videoURL string) (remote.Transcript, error)
	Summarize(ctx context.Context, text string) (string, error)
	Translate(ctx context.Context, req remote.TranslateRequest) (string, error)
}

// Source names a piece of text a stage or the speaker can start from.
type Source string

const (
	SourceTranscript  Source = "transcript"
	SourceSummary     Source = "summary"
	SourceTranslation Source = "translation"
)

// Transcription is the committed output of the transcribe stage.
type Transcription struct {
	SourceReference string
	Text            string
	Source          string
}

type TranslateRequest struct {
	Text           string
	TargetLanguage string
	Method         models.TranslationMethod
}

// Translation is held by the translate executor only; it is never written to
// the workspace.
type Translation struct {
	Text           string
	TargetLanguage string
	Method         models.TranslationMethod
}

type summarizeRequest struct {
	transcript string
}

// summaryResult remembers the transcript it was made from so the commit can refuse a
// result that a newer transcribe has made stale.
type summaryResult struct {
	text       string
	transcript string
}

type Pipeline struct {
	store  *workspace.Store
	remote Remote
	player *audio.Manager
	log    logrus.FieldLogger

	transcribe *stage.Executor[string, Transcription]
	summarize  *stage.Executor[*summarizeRequest, summaryResult]
	translate  *stage.Executor[TranslateRequest, Translation]
}

// New builds the pipeline. player may be nil when nothing is spoken.
func New(store *workspace.Store, rc Remote, player *audio.Manager, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Pipeline{store: store, remote: rc, player: player, log: log}

	p.transcribe = stage.New(stage.Stage[string, Transcription]{
		Name:     "transcribe",
		Validate: p.validateTranscribe,
		Call:     p.callTranscribe,
		Apply:    p.applyTranscribe,
	}, log)
	p.summarize = stage.New(stage.Stage[*summarizeRequest, summaryResult]{
		Name:     "summarize",
		Validate: p.validateSummarize,
		Call:     p.callSummarize,
		Apply:    p.applySummarize,
	}, log)
	p.translate = stage.New(stage.Stage[TranslateRequest, Translation]{
		Name:     "translate",
		Validate: p.validateTranslate,
		Call:     p.callTranslate,
	}, log)
	return p
}

func (p *Pipeline) Store() *workspace.Store { return p.store }

// Transcribe fetches the transcript of the video at url and commits the
// source reference, transcript and its origin as one update.
func (p *Pipeline) Transcribe(ctx context.Context, url string) (Transcription, error) {
	return p.transcribe.Execute(ctx, strings.TrimSpace(url))
}

func (p *Pipeline) validateTranscribe(_ context.Context, url string) error {
	if url == "" {
		return utils.E(utils.CodeEmptyInput, "Pipeline.Transcribe", "video url is empty", nil)
	}
	return nil
}

func (p *Pipeline) callTranscribe(ctx context.Context, url string) (Transcription, error) {
	t, err := p.remote.Transcribe(ctx, url)
	if err != nil {
		return Transcription{}, err
	}
	return Transcription{SourceReference: url, Text: t.Text, Source: t.Source}, nil
}

// applyTranscribe drops the summary when the transcript it was made from is
// replaced by different text.
func (p *Pipeline) applyTranscribe(ctx context.Context, t Transcription) error {
	values := map[workspace.Key]string{
		workspace.KeySourceReference:  t.SourceReference,
		workspace.KeyTranscript:       t.Text,
		workspace.KeyTranscriptSource: t.Source,
	}
	return p.store.CommitFunc(ctx, func(st workspace.State) (map[workspace.Key]string, []workspace.Key, error) {
		if prev, ok := st.Value(workspace.KeyTranscript); ok && prev == t.Text {
			return values, nil, nil
		}
		return values, []workspace.Key{workspace.KeySummary}, nil
	})
}

// Summarize summarizes the stored transcript and stores the result. If the
// transcript is replaced while the call is out, nothing is stored and the
// stage ends with a conflict.
func (p *Pipeline) Summarize(ctx context.Context) (string, error) {
	s, err := p.summarize.Execute(ctx, &summarizeRequest{})
	return s.text, err
}

func (p *Pipeline) callSummarize(ctx context.Context, req *summarizeRequest) (summaryResult, error) {
	text, err := p.remote.Summarize(ctx, req.transcript)
	if err != nil {
		return summaryResult{}, err
	}
	return summaryResult{text: text, transcript: req.transcript}, nil
}

func (p *Pipeline) applySummarize(ctx context.Context, s summaryResult) error {
	return p.store.CommitIf(ctx, func(st workspace.State) error {
		if cur, ok := st.Value(workspace.KeyTranscript); !ok || cur != s.transcript {
			return utils.E(utils.CodeConflict, "Pipeline.Summarize", "transcript changed while summarizing", nil)
		}
		return nil
	}, map[workspace.Key]string{workspace.KeySummary: s.text})
}

func (p *Pipeline) validateSummarize(ctx context.Context, req *summarizeRequest) error {
	text, ok, err := p.store.Get(ctx, workspace.KeyTranscript)
	if err != nil {
		return err
	}
	if !ok || strings.TrimSpace(text) == "" {
		return utils.E(utils.CodeEmptyInput, "Pipeline.Summarize", "no transcript to summarize", nil)
	}
	req.transcript = text
	return nil
}

// Translate translates text that must be the stored transcript or summary.
func (p *Pipeline) Translate(ctx context.Context, req TranslateRequest) (Translation, error) {
	req.TargetLanguage = models.NormalizeLanguage(req.TargetLanguage)
	if req.Method == "" {
		req.Method = models.MethodGoogle
	}
	return p.translate.Execute(ctx, req)
}

// TranslateFrom translates the stored transcript or summary.
func (p *Pipeline) TranslateFrom(ctx context.Context, src Source, lang string, method models.TranslationMethod) (Translation, error) {
	text, err := p.stored(ctx, src)
	if err != nil {
		return Translation{}, err
	}
	return p.Translate(ctx, TranslateRequest{Text: text, TargetLanguage: lang, Method: method})
}

func (p *Pipeline) validateTranslate(ctx context.Context, req TranslateRequest) error {
	const op = "Pipeline.Translate"

	if strings.TrimSpace(req.Text) == "" {
		return utils.E(utils.CodeEmptyInput, op, "nothing to translate", nil)
	}
	st, err := p.store.Snapshot(ctx)
	if err != nil {
		return err
	}
	transcript, _ := st.Value(workspace.KeyTranscript)
	summary, hasSummary := st.Value(workspace.KeySummary)
	if req.Text != transcript && (!hasSummary || req.Text != summary) {
		return utils.E(utils.CodeEmptyInput, op, "text is neither the current transcript nor the current summary", nil)
	}
	if req.TargetLanguage == "" {
		return utils.E(utils.CodeInvalidArgument, op, "target language is required", nil)
	}
	if !req.Method.Valid() {
		return utils.E(utils.CodeInvalidArgument, op, "unknown translation method "+string(req.Method), nil)
	}
	return nil
}

func (p *Pipeline) callTranslate(ctx context.Context, req TranslateRequest) (Translation, error) {
	out, err := p.remote.Translate(ctx, remote.TranslateRequest{
		Text:           req.Text,
		TargetLanguage: req.TargetLanguage,
		Method:         string(req.Method),
	})
	if err != nil {
		return Translation{}, err
	}
	return Translation{Text: out, TargetLanguage: req.TargetLanguage, Method: req.Method}, nil
}

// Speak starts playback of the current transcript, summary or translation.
// An empty lang falls back to the translation's language, then "en".
func (p *Pipeline) Speak(ctx context.Context, src Source, lang string) error {
	const op = "Pipeline.Speak"

	if p.player == nil {
		return utils.E(utils.CodeUnavailable, op, "audio playback is not configured", nil)
	}
	var text string
	switch src {
	case SourceTranslation:
		r := p.translate.Result()
		if r.Status != stage.StatusSuccess {
			return utils.E(utils.CodeEmptyInput, op, "no translation to speak", nil)
		}
		text = r.Value.Text
		if lang == "" {
			lang = r.Value.TargetLanguage
		}
	default:
		var err error
		if text, err = p.stored(ctx, src); err != nil {
			return err
		}
	}
	if lang == "" {
		lang = "en"
	}
	return p.player.Start(ctx, text, lang)
}

// StopSpeaking interrupts playback, if any.
func (p *Pipeline) StopSpeaking() {
	if p.player != nil {
		p.player.Stop()
	}
}

// WaitSpeaking blocks until the current playback ends.
func (p *Pipeline) WaitSpeaking(ctx context.Context) (audio.Outcome, error) {
	if p.player == nil {
		return audio.OutcomeNone, nil
	}
	return p.player.Wait(ctx)
}

func (p *Pipeline) stored(ctx context.Context, src Source) (string, error) {
	const op = "Pipeline.Source"

	var key workspace.Key
	switch src {
	case SourceTranscript:
		key = workspace.KeyTranscript
	case SourceSummary:
		key = workspace.KeySummary
	default:
		return "", utils.E(utils.CodeInvalidArgument, op, "unknown source "+string(src), nil)
	}
	text, ok, err := p.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(text) == "" {
		return "", utils.E(utils.CodeEmptyInput, op, "no "+string(src)+" in the workspace", nil)
	}
	return text, nil
}

func (p *Pipeline) TranscribeResult() stage.Result[Transcription] { return p.transcribe.Result() }
func (p *Pipeline) TranslateResult() stage.Result[Translation]    { return p.translate.Result() }

func (p *Pipeline) SummarizeResult() stage.Result[string] {
	r := p.summarize.Result()
	return stage.Result[string]{Status: r.Status, Value: r.Value.text, Err: r.Err, Code: r.Code}
}

// Reset clears the workspace and returns every settled stage to idle.
func (p *Pipeline) Reset(ctx context.Context) error {
	p.StopSpeaking()
	if err := p.store.Reset(ctx); err != nil {
		return err
	}
	p.transcribe.Reset()
	p.summarize.Reset()
	p.translate.Reset()
	return nil
}
