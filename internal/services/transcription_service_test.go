package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Phoenix-070/Edutranscribe/internal/logger"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://m.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://vimeo.com/12345", "", false},
		{"https://www.youtube.com/watch?v=short", "", false},
		{"not a url", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractVideoID(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExtractVideoID(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

type stubMedia struct {
	captions    string
	captionsErr error
	audioCalls  int
}

func (m *stubMedia) Captions(ctx context.Context, url, dir string) (string, error) {
	return m.captions, m.captionsErr
}

func (m *stubMedia) DownloadAudio(ctx context.Context, url, dir string) (string, error) {
	m.audioCalls++
	p := filepath.Join(dir, "audio.wav")
	return p, os.WriteFile(p, []byte("RIFF"), 0o600)
}

type stubSTT struct {
	text string
	uri  string
}

func (s *stubSTT) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	return s.text, 1, nil
}

func (s *stubSTT) TranscribeURI(ctx context.Context, uri, language string) (string, error) {
	s.uri = uri
	return s.text, nil
}

func (s *stubSTT) Close() error { return nil }

type memStore struct {
	objects map[string][]byte
	deleted []string
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (m *memStore) Upload(ctx context.Context, name, contentType string, r io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m.objects[name] = buf.Bytes()
	return nil
}

func (m *memStore) Download(ctx context.Context, name string) ([]byte, error) {
	b, ok := m.objects[name]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return b, nil
}

func (m *memStore) Delete(ctx context.Context, name string) error {
	delete(m.objects, name)
	m.deleted = append(m.deleted, name)
	return nil
}

func (m *memStore) URI(name string) string { return "gs://bucket/" + name }

const testVideo = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestTranscribePrefersCaptions(t *testing.T) {
	media := &stubMedia{captions: "hello from captions"}
	svc := NewTranscriptionService(media, &stubSTT{}, newMemStore(), "en-US", t.TempDir(), logger.Discard())

	got, err := svc.Transcribe(context.Background(), testVideo)
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != SourceCaptions || got.Text != "hello from captions" {
		t.Fatalf("got %+v", got)
	}
	if media.audioCalls != 0 {
		t.Fatal("audio should not be downloaded when captions exist")
	}
}

func TestTranscribeFallsBackToSpeech(t *testing.T) {
	media := &stubMedia{captionsErr: errors.New("no subtitles")}
	sttp := &stubSTT{text: "hello from audio"}
	store := newMemStore()
	svc := NewTranscriptionService(media, sttp, store, "en-US", t.TempDir(), logger.Discard())

	got, err := svc.Transcribe(context.Background(), testVideo)
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != SourceSpeech || got.Text != "hello from audio" {
		t.Fatalf("got %+v", got)
	}
	if len(store.objects) != 0 || len(store.deleted) != 1 {
		t.Fatalf("staged audio not cleaned up: objects=%v deleted=%v", store.objects, store.deleted)
	}
	if sttp.uri != "gs://bucket/"+store.deleted[0] {
		t.Fatalf("recognized %q", sttp.uri)
	}
}

func TestTranscribeRejectsInvalidURL(t *testing.T) {
	svc := NewTranscriptionService(&stubMedia{}, &stubSTT{}, newMemStore(), "", t.TempDir(), logger.Discard())
	_, err := svc.Transcribe(context.Background(), "https://example.com/video")
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestTranscribeNoSpeech(t *testing.T) {
	svc := NewTranscriptionService(&stubMedia{}, &stubSTT{text: "  "}, newMemStore(), "", t.TempDir(), logger.Discard())
	_, err := svc.Transcribe(context.Background(), testVideo)
	if !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
