package audio

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"
	"testing"

	"github.com/Phoenix-070/Edutranscribe/pkg/executor"
)

type stubSynth struct {
	audio []byte
	err   error
}

func (s stubSynth) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	return s.audio, s.err
}

type stubProcess struct {
	once   sync.Once
	killed chan struct{}
}

func (p *stubProcess) Wait() error {
	<-p.killed
	return nil
}

func (p *stubProcess) Kill() error {
	p.once.Do(func() { close(p.killed) })
	return nil
}

type stubExec struct {
	mu      sync.Mutex
	started [][]string
	proc    *stubProcess
	missing bool
}

func (e *stubExec) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return "", nil
}

func (e *stubExec) ExecuteInDir(ctx context.Context, dir, name string, args ...string) (string, error) {
	return "", nil
}

func (e *stubExec) Start(ctx context.Context, name string, args ...string) (executor.Process, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = append(e.started, append([]string{name}, args...))
	return e.proc, nil
}

func (e *stubExec) LookPath(name string) (string, error) {
	if e.missing {
		return "", errors.New("not found")
	}
	return "/usr/bin/" + name, nil
}

func TestRemotePortLifecycle(t *testing.T) {
	ex := &stubExec{proc: &stubProcess{killed: make(chan struct{})}}
	port := NewRemotePort(stubSynth{audio: []byte("ID3")}, "", ex)
	port.TempDir = t.TempDir()

	h, err := port.Acquire(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	path := h.(*fileHandle).path
	if raw, err := os.ReadFile(path); err != nil || string(raw) != "ID3" {
		t.Fatalf("audio file = %q err=%v", raw, err)
	}

	done := make(chan error, 1)
	go func() { done <- port.Play(context.Background(), h) }()

	for {
		ex.mu.Lock()
		n := len(ex.started)
		ex.mu.Unlock()
		if n == 1 {
			break
		}
		runtime.Gosched()
	}
	if err := port.Release(h); err != nil {
		t.Fatalf("release: %v", err)
	}
	// Play may not have registered the process before Release ran.
	ex.proc.Kill()
	if err := <-done; err != nil {
		t.Fatalf("play: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("temp file still present: %v", err)
	}
	if got := ex.started[0]; got[0] != "ffplay" || got[len(got)-1] != path {
		t.Fatalf("player invocation = %v", got)
	}
}

func TestRemotePortSynthesisError(t *testing.T) {
	port := NewRemotePort(stubSynth{err: errors.New("boom")}, "", &stubExec{})
	port.TempDir = t.TempDir()
	if _, err := port.Acquire(context.Background(), "x", "en"); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(port.TempDir)
	if len(entries) != 0 {
		t.Fatalf("no file should be written, found %d", len(entries))
	}
}

func TestLocalPortMissingEngine(t *testing.T) {
	port := NewLocalPort("", &stubExec{missing: true})
	if _, err := port.Acquire(context.Background(), "x", "en"); err == nil {
		t.Fatal("expected acquisition to fail without a speech engine")
	}
}

func TestLocalPortVoiceArgs(t *testing.T) {
	port := NewLocalPort("", &stubExec{})
	h, err := port.Acquire(context.Background(), "namaste", "hi-IN")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	lh := h.(*localHandle)
	if lh.path != "/usr/bin/espeak-ng" {
		t.Fatalf("path = %q", lh.path)
	}
	want := []string{"-v", "hi", "--", "namaste"}
	if len(lh.args) != len(want) {
		t.Fatalf("args = %v", lh.args)
	}
	for i := range want {
		if lh.args[i] != want[i] {
			t.Fatalf("args = %v, want %v", lh.args, want)
		}
	}
	if err := port.Release(h); err != nil {
		t.Fatalf("release before play: %v", err)
	}
}
