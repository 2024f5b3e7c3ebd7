package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Phoenix-070/Edutranscribe/pkg/executor"
)

// Tools fetches captions and audio for online videos with yt-dlp and
// normalizes audio with ffmpeg.
type Tools struct {
	exec   executor.Executor
	ytdlp  string
	ffmpeg string
}

func NewTools(exec executor.Executor, ytdlpPath, ffmpegPath string) *Tools {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Tools{exec: exec, ytdlp: ytdlpPath, ffmpeg: ffmpegPath}
}

// Captions downloads English subtitles (manual first, then automatic) into
// dir and returns them as plain text. An empty string means the video has none.
func (t *Tools) Captions(ctx context.Context, videoURL, dir string) (string, error) {
	args := []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", "en.*,en",
		"--sub-format", "vtt",
		"--no-playlist",
		"-o", filepath.Join(dir, "captions.%(ext)s"),
		videoURL,
	}
	if _, err := t.exec.Execute(ctx, t.ytdlp, args...); err != nil {
		return "", fmt.Errorf("yt-dlp captions: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "captions*.vtt"))
	if err != nil || len(files) == 0 {
		return "", nil
	}
	// captions.en.vtt sorts before captions.en-orig.vtt and friends
	sort.Strings(files)
	raw, err := os.ReadFile(files[0])
	if err != nil {
		return "", fmt.Errorf("read captions: %w", err)
	}
	return ParseVTT(string(raw)), nil
}

// DownloadAudio fetches the best audio stream and converts it to 16 kHz mono
// PCM WAV, the format the speech recognizer is configured for.
func (t *Tools) DownloadAudio(ctx context.Context, videoURL, dir string) (string, error) {
	src := filepath.Join(dir, "source.%(ext)s")
	if _, err := t.exec.Execute(ctx, t.ytdlp, "-f", "bestaudio", "--no-playlist", "-o", src, videoURL); err != nil {
		return "", fmt.Errorf("yt-dlp audio: %w", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "source.*"))
	if len(matches) == 0 {
		return "", fmt.Errorf("yt-dlp audio: no file written")
	}

	out := filepath.Join(dir, "audio.wav")
	args := []string{
		"-i", matches[0],
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		out,
	}
	if _, err := t.exec.Execute(ctx, t.ffmpeg, args...); err != nil {
		return "", fmt.Errorf("ffmpeg extract audio: %w", err)
	}
	return out, nil
}

// ParseVTT strips WebVTT framing and inline tags, and drops the repeated
// lines automatic captions carry from one cue into the next.
func ParseVTT(raw string) string {
	var lines []string
	last := ""
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "",
			strings.HasPrefix(line, "WEBVTT"),
			strings.HasPrefix(line, "Kind:"),
			strings.HasPrefix(line, "Language:"),
			strings.HasPrefix(line, "NOTE"),
			strings.Contains(line, "-->"):
			continue
		}
		if isCueNumber(line) {
			continue
		}
		line = strings.TrimSpace(stripTags(line))
		if line == "" || line == last {
			continue
		}
		lines = append(lines, line)
		last = line
	}
	return strings.Join(lines, " ")
}

func stripTags(s string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return strings.ReplaceAll(sb.String(), "&nbsp;", " ")
}

func isCueNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
