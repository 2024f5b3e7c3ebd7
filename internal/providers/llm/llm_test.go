package llm

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	chunks []string
	err    error
}

func (s stubProvider) StreamAnswer(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, len(s.chunks))
	errs := make(chan error, 1)
	for _, c := range s.chunks {
		out <- c
	}
	if s.err != nil {
		errs <- s.err
	}
	close(out)
	close(errs)
	return out, errs
}

func (stubProvider) Close() error { return nil }

func TestComplete(t *testing.T) {
	got, err := Complete(context.Background(), stubProvider{chunks: []string{" - first", "\n- second "}}, "p")
	if err != nil {
		t.Fatal(err)
	}
	if got != "- first\n- second" {
		t.Fatalf("got %q", got)
	}
}

func TestCompleteError(t *testing.T) {
	_, err := Complete(context.Background(), stubProvider{chunks: []string{"x"}, err: errors.New("rpc error: code = ResourceExhausted desc = Quota exceeded")}, "p")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsQuotaError(err) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestIsQuotaError(t *testing.T) {
	tests := map[string]bool{
		"googleapi: Error 429: Too Many Requests": true,
		"RESOURCE_EXHAUSTED":                      true,
		"rate limit reached":                      true,
		"permission denied":                       false,
	}
	for msg, want := range tests {
		if got := IsQuotaError(errors.New(msg)); got != want {
			t.Errorf("IsQuotaError(%q) = %v", msg, got)
		}
	}
	if IsQuotaError(nil) {
		t.Error("nil is not a quota error")
	}
}
