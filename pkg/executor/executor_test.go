package executor

import (
	"context"
	"strings"
	"testing"
)

func TestExecuteCapturesStdout(t *testing.T) {
	e := New()
	if _, err := e.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	out, err := e.Execute(context.Background(), "sh", "-c", "printf hello")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "hello" {
		t.Fatalf("out = %q", out)
	}
}

func TestExecuteIncludesStderr(t *testing.T) {
	e := New()
	if _, err := e.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	_, err := e.Execute(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestStartKillAfterExit(t *testing.T) {
	e := New()
	if _, err := e.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	p, err := e.Start(context.Background(), "sh", "-c", "exit 0")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if err := p.Kill(); err != nil {
		t.Fatalf("kill after exit: %v", err)
	}
}
