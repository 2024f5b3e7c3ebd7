package audio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Phoenix-070/Edutranscribe/pkg/executor"
)

const defaultSpeechCommand = "espeak-ng"

// LocalPort speaks through an on-device engine. No network is involved.
type LocalPort struct {
	Command string
	exec    executor.Executor
}

func NewLocalPort(command string, exec executor.Executor) *LocalPort {
	if strings.TrimSpace(command) == "" {
		command = defaultSpeechCommand
	}
	if exec == nil {
		exec = executor.New()
	}
	return &LocalPort{Command: command, exec: exec}
}

type localHandle struct {
	path string
	args []string

	mu   sync.Mutex
	proc executor.Process
}

func (p *LocalPort) Acquire(ctx context.Context, text, lang string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := p.exec.LookPath(p.Command)
	if err != nil {
		return nil, fmt.Errorf("speech engine %q not found: %w", p.Command, err)
	}
	args := []string{}
	if v := espeakVoice(lang); v != "" {
		args = append(args, "-v", v)
	}
	args = append(args, "--", text)
	return &localHandle{path: path, args: args}, nil
}

func (p *LocalPort) Play(ctx context.Context, h Handle) error {
	lh, ok := h.(*localHandle)
	if !ok {
		return fmt.Errorf("unexpected handle %T", h)
	}
	proc, err := p.exec.Start(ctx, lh.path, lh.args...)
	if err != nil {
		return err
	}
	lh.mu.Lock()
	lh.proc = proc
	lh.mu.Unlock()
	return proc.Wait()
}

func (p *LocalPort) Release(h Handle) error {
	lh, ok := h.(*localHandle)
	if !ok {
		return nil
	}
	lh.mu.Lock()
	proc := lh.proc
	lh.proc = nil
	lh.mu.Unlock()
	if proc == nil {
		return nil
	}
	return proc.Kill()
}

// espeakVoice maps pipeline language codes onto espeak-ng voice names.
func espeakVoice(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		return lang[:i]
	}
	return lang
}
