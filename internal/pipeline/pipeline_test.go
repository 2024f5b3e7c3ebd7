package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Phoenix-070/Edutranscribe/internal/audio"
	"github.com/Phoenix-070/Edutranscribe/internal/logger"
	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/remote"
	"github.com/Phoenix-070/Edutranscribe/internal/stage"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
	"github.com/Phoenix-070/Edutranscribe/internal/workspace"
)

type stubRemote struct {
	mu    sync.Mutex
	calls map[string]int

	transcript remote.Transcript
	summary    string
	translated string
	err        error
	lastReq    remote.TranslateRequest

	gate          chan struct{}
	summarizeGate chan struct{}
}

func newStubRemote() *stubRemote {
	return &stubRemote{
		calls:      map[string]int{},
		transcript: remote.Transcript{Text: "hello world", Source: "whisper"},
		summary:    "hello",
		translated: "नमस्ते",
	}
}

func (r *stubRemote) hit(name string) error {
	r.mu.Lock()
	r.calls[name]++
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return r.err
}

func (r *stubRemote) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func (r *stubRemote) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *stubRemote) Transcribe(ctx context.Context, url string) (remote.Transcript, error) {
	if err := r.hit("transcribe"); err != nil {
		return remote.Transcript{}, err
	}
	return r.transcript, nil
}

func (r *stubRemote) Summarize(ctx context.Context, text string) (string, error) {
	if err := r.hit("summarize"); err != nil {
		return "", err
	}
	if r.summarizeGate != nil {
		<-r.summarizeGate
	}
	return r.summary, nil
}

func (r *stubRemote) Translate(ctx context.Context, req remote.TranslateRequest) (string, error) {
	r.mu.Lock()
	r.lastReq = req
	r.mu.Unlock()
	if err := r.hit("translate"); err != nil {
		return "", err
	}
	return r.translated, nil
}

type stubPort struct {
	mu       sync.Mutex
	texts    []string
	released int
}

func (p *stubPort) Acquire(ctx context.Context, text, lang string) (audio.Handle, error) {
	p.mu.Lock()
	p.texts = append(p.texts, text+"|"+lang)
	p.mu.Unlock()
	return len(p.texts), nil
}

func (p *stubPort) Play(ctx context.Context, h audio.Handle) error {
	<-ctx.Done()
	return ctx.Err()
}

func (p *stubPort) Release(h audio.Handle) error {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
	return nil
}

func newPipeline(rc Remote, port audio.Port) *Pipeline {
	var player *audio.Manager
	if port != nil {
		player = audio.NewManager(port, logger.Discard())
	}
	return New(workspace.NewMemory(), rc, player, logger.Discard())
}

func mustGet(t *testing.T, s *workspace.Store, k workspace.Key) string {
	t.Helper()
	v, ok, err := s.Get(context.Background(), k)
	if err != nil || !ok {
		t.Fatalf("get %s: ok=%v err=%v", k, ok, err)
	}
	return v
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	rc := newStubRemote()
	port := &stubPort{}
	p := newPipeline(rc, port)

	if _, err := p.Transcribe(ctx, "https://video/x"); err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if got := mustGet(t, p.Store(), workspace.KeyTranscript); got != "hello world" {
		t.Fatalf("transcript = %q", got)
	}
	if got := mustGet(t, p.Store(), workspace.KeyTranscriptSource); got != "whisper" {
		t.Fatalf("source = %q", got)
	}
	if got := mustGet(t, p.Store(), workspace.KeySourceReference); got != "https://video/x" {
		t.Fatalf("reference = %q", got)
	}

	if summary, err := p.Summarize(ctx); err != nil || summary != "hello" {
		t.Fatalf("summarize = %q err=%v", summary, err)
	}
	if got := mustGet(t, p.Store(), workspace.KeySummary); got != "hello" {
		t.Fatalf("summary = %q", got)
	}

	tr, err := p.TranslateFrom(ctx, SourceSummary, "hi", models.MethodGoogle)
	if err != nil || tr.Text != "नमस्ते" {
		t.Fatalf("translate = %+v err=%v", tr, err)
	}
	if rc.lastReq != (remote.TranslateRequest{Text: "hello", TargetLanguage: "hi", Method: "google"}) {
		t.Fatalf("translate request = %+v", rc.lastReq)
	}

	if err := p.Speak(ctx, SourceTranslation, ""); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if p.player.State() != audio.StatePlaying {
		t.Fatalf("state = %s", p.player.State())
	}
	if port.texts[0] != "नमस्ते|hi" {
		t.Fatalf("spoke %q", port.texts[0])
	}
	p.StopSpeaking()
	if p.player.State() != audio.StateIdle || port.released != 1 {
		t.Fatalf("state=%s released=%d", p.player.State(), port.released)
	}
}

func TestSummarizeWithoutTranscript(t *testing.T) {
	rc := newStubRemote()
	p := newPipeline(rc, nil)

	_, err := p.Summarize(context.Background())
	if !utils.IsCode(err, utils.CodeEmptyInput) {
		t.Fatalf("expected empty input, got %v", err)
	}
	if rc.total() != 0 {
		t.Fatalf("calls = %d", rc.total())
	}
	if r := p.SummarizeResult(); r.Status != stage.StatusError || r.Code != utils.CodeEmptyInput {
		t.Fatalf("result = %+v", r)
	}
}

func TestTranslateWithEmptyWorkspace(t *testing.T) {
	rc := newStubRemote()
	p := newPipeline(rc, nil)

	for _, text := range []string{"", "hello"} {
		_, err := p.Translate(context.Background(), TranslateRequest{Text: text, TargetLanguage: "hi", Method: models.MethodGoogle})
		if !utils.IsCode(err, utils.CodeEmptyInput) {
			t.Fatalf("text %q: expected empty input, got %v", text, err)
		}
	}
	if _, err := p.TranslateFrom(context.Background(), SourceTranscript, "hi", models.MethodNLLB); !utils.IsCode(err, utils.CodeEmptyInput) {
		t.Fatalf("expected empty input, got %v", err)
	}
	if rc.total() != 0 {
		t.Fatalf("calls = %d", rc.total())
	}
}

func TestTranslateRejectsUnknownMethod(t *testing.T) {
	ctx := context.Background()
	rc := newStubRemote()
	p := newPipeline(rc, nil)
	_ = p.Store().Set(ctx, workspace.KeyTranscript, "hello world")

	_, err := p.Translate(ctx, TranslateRequest{Text: "hello world", TargetLanguage: "hi", Method: "deepl"})
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if rc.count("translate") != 0 {
		t.Fatal("no call expected")
	}
}

func TestFailureLeavesWorkspaceUnchanged(t *testing.T) {
	ctx := context.Background()
	rc := newStubRemote()
	p := newPipeline(rc, nil)

	if _, err := p.Transcribe(ctx, "https://video/x"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Summarize(ctx); err != nil {
		t.Fatal(err)
	}
	before, _ := p.Store().Snapshot(ctx)

	rc.err = utils.E(utils.CodeNetwork, "Client.Transcribe", "service returned 500", nil)
	if _, err := p.Transcribe(ctx, "https://video/y"); !utils.IsCode(err, utils.CodeNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if _, err := p.Summarize(ctx); !utils.IsCode(err, utils.CodeNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}

	after, _ := p.Store().Snapshot(ctx)
	for _, k := range workspace.Keys {
		b, _ := before.Value(k)
		a, _ := after.Value(k)
		if a != b {
			t.Fatalf("%s changed from %q to %q", k, b, a)
		}
	}
}

func TestNewTranscriptClearsSummary(t *testing.T) {
	ctx := context.Background()
	rc := newStubRemote()
	p := newPipeline(rc, nil)

	if _, err := p.Transcribe(ctx, "https://video/x"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Summarize(ctx); err != nil {
		t.Fatal(err)
	}

	// Same text keeps the summary.
	if _, err := p.Transcribe(ctx, "https://video/x"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := p.Store().Get(ctx, workspace.KeySummary); !ok {
		t.Fatal("summary dropped for an unchanged transcript")
	}

	rc.transcript = remote.Transcript{Text: "something else", Source: "captions"}
	if _, err := p.Transcribe(ctx, "https://video/z"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := p.Store().Get(ctx, workspace.KeySummary); ok {
		t.Fatal("summary of the previous transcript survived")
	}
}

func TestSummarizeSingleFlight(t *testing.T) {
	ctx := context.Background()
	rc := newStubRemote()
	p := newPipeline(rc, nil)
	_ = p.Store().Set(ctx, workspace.KeyTranscript, "hello world")

	rc.gate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := p.Summarize(ctx)
		done <- err
	}()
	for p.SummarizeResult().Status != stage.StatusPending {
	}

	if _, err := p.Summarize(ctx); !errors.Is(err, stage.ErrInFlight) {
		t.Fatalf("expected in-flight, got %v", err)
	}
	close(rc.gate)
	if err := <-done; err != nil {
		t.Fatalf("first summarize: %v", err)
	}
	if rc.count("summarize") != 1 {
		t.Fatalf("summarize calls = %d", rc.count("summarize"))
	}
	if r := p.SummarizeResult(); r.Status != stage.StatusSuccess || r.Value != "hello" {
		t.Fatalf("result = %+v", r)
	}
}

func TestSummaryOfReplacedTranscriptIsDropped(t *testing.T) {
	ctx := context.Background()
	rc := newStubRemote()
	p := newPipeline(rc, nil)

	rc.transcript = remote.Transcript{Text: "video A", Source: "captions"}
	if _, err := p.Transcribe(ctx, "https://video/a"); err != nil {
		t.Fatal(err)
	}

	rc.summary = "summary of video A"
	rc.summarizeGate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := p.Summarize(ctx)
		done <- err
	}()
	for rc.count("summarize") == 0 {
	}

	rc.transcript = remote.Transcript{Text: "video B", Source: "captions"}
	if _, err := p.Transcribe(ctx, "https://video/b"); err != nil {
		t.Fatal(err)
	}
	close(rc.summarizeGate)

	if err := <-done; !utils.IsCode(err, utils.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if r := p.SummarizeResult(); r.Status != stage.StatusError || r.Code != utils.CodeConflict {
		t.Fatalf("result = %+v", r)
	}
	st, _ := p.Store().Snapshot(ctx)
	if v, _ := st.Value(workspace.KeyTranscript); v != "video B" {
		t.Fatalf("transcript = %q", v)
	}
	if v, ok := st.Value(workspace.KeySummary); ok {
		t.Fatalf("stale summary %q was committed", v)
	}
}

func TestSpeakWithoutTranslation(t *testing.T) {
	p := newPipeline(newStubRemote(), &stubPort{})
	if err := p.Speak(context.Background(), SourceTranslation, ""); !utils.IsCode(err, utils.CodeEmptyInput) {
		t.Fatalf("expected empty input, got %v", err)
	}
}

func TestResetClearsEverything(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(newStubRemote(), nil)
	if _, err := p.Transcribe(ctx, "https://video/x"); err != nil {
		t.Fatal(err)
	}
	if err := p.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	st, _ := p.Store().Snapshot(ctx)
	if st != (workspace.State{}) {
		t.Fatalf("state = %+v", st)
	}
	if p.TranscribeResult().Status != stage.StatusIdle {
		t.Fatal("transcribe should be idle after reset")
	}
}
