package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

type implExecutor struct{}

// New creates a new Executor instance
func New() Executor {
	return &implExecutor{}
}

// Execute runs an external command with the given arguments
func (e *implExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return e.ExecuteInDir(ctx, "", name, args...)
}

// ExecuteInDir runs an external command in a specific working directory
func (e *implExecutor) ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", commandError(name, err, stderr.String())
	}
	return stdout.String(), nil
}

func (e *implExecutor) Start(ctx context.Context, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, commandError(name, err, "")
	}
	return &process{name: name, cmd: cmd, stderr: &stderr}, nil
}

func (e *implExecutor) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

type process struct {
	name   string
	cmd    *exec.Cmd
	stderr *bytes.Buffer
}

func (p *process) Wait() error {
	if err := p.cmd.Wait(); err != nil {
		return commandError(p.name, err, p.stderr.String())
	}
	return nil
}

// Kill is safe to call on a process that already exited.
func (p *process) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func commandError(name string, err error, stderr string) error {
	// Include stderr in error message for debugging
	if s := strings.TrimSpace(stderr); s != "" {
		return fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, s)
	}
	return fmt.Errorf("command '%s' failed: %w", name, err)
}
