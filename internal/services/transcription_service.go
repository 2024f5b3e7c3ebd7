package services

import (
	"context"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Phoenix-070/Edutranscribe/internal/providers/stt"
	"github.com/Phoenix-070/Edutranscribe/internal/storage"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

const (
	SourceCaptions = "captions"
	SourceSpeech   = "speech"
)

type Transcript struct {
	Text   string `json:"transcript"`
	Source string `json:"source"`
}

type TranscriptionService interface {
	Transcribe(ctx context.Context, videoURL string) (*Transcript, error)
}

// MediaFetcher pulls captions or audio for a video into a work directory.
type MediaFetcher interface {
	Captions(ctx context.Context, videoURL, dir string) (string, error)
	DownloadAudio(ctx context.Context, videoURL, dir string) (string, error)
}

type transcriptionService struct {
	media    MediaFetcher
	stt      stt.Provider
	store    storage.ObjectStore
	language string
	workDir  string
	log      logrus.FieldLogger
}

func NewTranscriptionService(media MediaFetcher, sttp stt.Provider, store storage.ObjectStore, language, workDir string, log logrus.FieldLogger) TranscriptionService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &transcriptionService{media: media, stt: sttp, store: store, language: language, workDir: workDir, log: log}
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID accepts youtube.com/watch?v=, youtu.be/, /shorts/ and
// /embed/ links.
func ExtractVideoID(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/embed/"), strings.HasPrefix(u.Path, "/live/"):
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) >= 2 {
				id = parts[1]
			}
		}
	}
	if !videoIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

func (s *transcriptionService) Transcribe(ctx context.Context, videoURL string) (*Transcript, error) {
	const op = "TranscriptionService.Transcribe"

	videoID, ok := ExtractVideoID(videoURL)
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid YouTube URL", nil)
	}
	log := s.log.WithField("video_id", videoID)

	dir, err := os.MkdirTemp(s.workDir, "transcribe-"+videoID+"-")
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create work dir", err)
	}
	defer os.RemoveAll(dir)

	text, err := s.media.Captions(ctx, videoURL, dir)
	if err != nil {
		log.WithError(err).Warn("captions unavailable, falling back to speech recognition")
	}
	if strings.TrimSpace(text) != "" {
		return &Transcript{Text: text, Source: SourceCaptions}, nil
	}

	audioPath, err := s.media.DownloadAudio(ctx, videoURL, dir)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to download audio", err)
	}
	text, err = s.recognize(ctx, videoID, audioPath)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "speech recognition failed", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, utils.E(utils.CodeUnavailable, op, "no speech detected in the video", nil)
	}
	log.WithField("chars", len(text)).Info("transcribed from audio")
	return &Transcript{Text: text, Source: SourceSpeech}, nil
}

// recognize stages the audio in object storage for long-running recognition
// and removes it afterwards.
func (s *transcriptionService) recognize(ctx context.Context, videoID, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	object := "audio/" + videoID + "-" + uuid.NewString() + ".wav"
	if err := s.store.Upload(ctx, object, "audio/wav", f); err != nil {
		return "", err
	}
	defer func() {
		if err := s.store.Delete(context.WithoutCancel(ctx), object); err != nil {
			s.log.WithError(err).WithField("object", object).Warn("failed to delete staged audio")
		}
	}()

	return s.stt.TranscribeURI(ctx, s.store.URI(object), s.language)
}
