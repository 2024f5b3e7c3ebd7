package audio

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Phoenix-070/Edutranscribe/pkg/executor"
)

const defaultPlayerCommand = "ffplay"

var defaultPlayerArgs = []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// RemotePort fetches synthesized audio from the service, parks it in a
// temporary file and plays it with an external player. Release stops the
// player and deletes the file.
type RemotePort struct {
	synth      Synthesizer
	exec       executor.Executor
	Player     string
	PlayerArgs []string
	TempDir    string
}

func NewRemotePort(synth Synthesizer, player string, exec executor.Executor) *RemotePort {
	if strings.TrimSpace(player) == "" {
		player = defaultPlayerCommand
	}
	if exec == nil {
		exec = executor.New()
	}
	return &RemotePort{
		synth:      synth,
		exec:       exec,
		Player:     player,
		PlayerArgs: append([]string(nil), defaultPlayerArgs...),
	}
}

type fileHandle struct {
	path string

	mu   sync.Mutex
	proc executor.Process
}

func (p *RemotePort) Acquire(ctx context.Context, text, lang string) (Handle, error) {
	audio, err := p.synth.Synthesize(ctx, text, lang)
	if err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(p.TempDir, "edutranscribe-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("create audio file: %w", err)
	}
	if _, err := f.Write(audio); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close audio file: %w", err)
	}
	return &fileHandle{path: f.Name()}, nil
}

func (p *RemotePort) Play(ctx context.Context, h Handle) error {
	fh, ok := h.(*fileHandle)
	if !ok {
		return fmt.Errorf("unexpected handle %T", h)
	}
	args := append(append([]string(nil), p.PlayerArgs...), fh.path)
	proc, err := p.exec.Start(ctx, p.Player, args...)
	if err != nil {
		return err
	}
	fh.mu.Lock()
	fh.proc = proc
	fh.mu.Unlock()
	return proc.Wait()
}

func (p *RemotePort) Release(h Handle) error {
	fh, ok := h.(*fileHandle)
	if !ok {
		return nil
	}
	fh.mu.Lock()
	proc := fh.proc
	fh.proc = nil
	fh.mu.Unlock()

	var killErr error
	if proc != nil {
		killErr = proc.Kill()
	}
	if err := os.Remove(fh.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return killErr
}
