package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{"all fields", &AppError{Op: "Client.Summarize", Message: "request failed", Err: cause}, "Client.Summarize: request failed: dial tcp: refused"},
		{"op and message", &AppError{Op: "Pipeline.Translate", Message: "no transcript"}, "Pipeline.Translate: no transcript"},
		{"message only", &AppError{Message: "boom"}, "boom"},
		{"empty", &AppError{}, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("stage summarize: %w", E(CodeMalformedResponse, "Client.Summarize", "missing summary", nil))
	if !IsCode(err, CodeMalformedResponse) {
		t.Fatal("expected wrapped error to keep its code")
	}
	if IsCode(err, CodeNetwork) {
		t.Fatal("unexpected code match")
	}
	if got := CodeOf(err); got != CodeMalformedResponse {
		t.Fatalf("CodeOf = %s", got)
	}
	if got := CodeOf(errors.New("plain")); got != CodeInternal {
		t.Fatalf("CodeOf(plain) = %s, want INTERNAL", got)
	}
}

func TestMessage(t *testing.T) {
	if got := Message(E(CodeEmptyInput, "op", "transcript is empty", errors.New("x"))); got != "transcript is empty" {
		t.Fatalf("Message = %q", got)
	}
	if got := Message(errors.New("raw")); got != "raw" {
		t.Fatalf("Message = %q", got)
	}
	if got := Message(nil); got != "" {
		t.Fatalf("Message(nil) = %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{E(CodeEmptyInput, "", "", nil), http.StatusBadRequest},
		{E(CodeInvalidArgument, "", "", nil), http.StatusBadRequest},
		{E(CodeNetwork, "", "", nil), http.StatusBadGateway},
		{E(CodeMalformedResponse, "", "", nil), http.StatusBadGateway},
		{E(CodeUnavailable, "", "", nil), http.StatusServiceUnavailable},
		{E(CodeForbidden, "", "", nil), http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
