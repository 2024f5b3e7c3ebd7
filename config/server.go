package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds the service settings that are not connection strings.
type ServerConfig struct {
	Port         string
	JWTSecret    string
	AuthDisabled bool
	CORSOrigins  []string

	GCPProject  string
	GCPLocation string
	GCSBucket   string

	GeminiModel     string
	GeminiAPIKey    string // optional; embeddings use Vertex AI when empty
	EmbeddingModel  string
	EmbeddingDim    int
	SpeechLanguage  string
	NLLBEndpoint    string
	NLLBToken       string
	SummaryCacheTTL time.Duration

	MaxUploadBytes int64
	IndexWorkers   int
	IndexStream    string
	IndexGroup     string

	YTDLPPath  string
	FFmpegPath string
	TempDir    string
}

// LoadServer reads ServerConfig from the environment and validates it.
func LoadServer() (ServerConfig, error) {
	cfg := ServerConfig{
		Port:         envOr("PORT", "8000"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AuthDisabled: envBool("AUTH_DISABLED", false),
		CORSOrigins:  envList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		GCPProject:  firstEnv("GCP_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
		GCPLocation: envOr("GCP_LOCATION", "us-central1"),
		GCSBucket:   os.Getenv("GCS_BUCKET"),

		GeminiModel:     envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		EmbeddingModel:  envOr("EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingDim:    envInt("EMBEDDING_DIM", 768),
		SpeechLanguage:  envOr("SPEECH_LANGUAGE", "en-US"),
		NLLBEndpoint:    os.Getenv("NLLB_ENDPOINT"),
		NLLBToken:       os.Getenv("NLLB_TOKEN"),
		SummaryCacheTTL: envDuration("SUMMARY_CACHE_TTL", 24*time.Hour),

		MaxUploadBytes: int64(envInt("MAX_UPLOAD_MB", 20)) << 20,
		IndexWorkers:   envInt("INDEX_WORKERS", 2),
		IndexStream:    envOr("INDEX_STREAM", "papers:index"),
		IndexGroup:     envOr("INDEX_GROUP", "indexers"),

		YTDLPPath:  envOr("YTDLP_PATH", "yt-dlp"),
		FFmpegPath: envOr("FFMPEG_PATH", "ffmpeg"),
		TempDir:    os.Getenv("WORK_DIR"),
	}
	return cfg, cfg.Validate()
}

func (c ServerConfig) Validate() error {
	var errs []error
	if !c.AuthDisabled && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required unless AUTH_DISABLED=true"))
	}
	if c.GCPProject == "" {
		errs = append(errs, errors.New("GCP_PROJECT_ID is not set"))
	}
	if c.GCSBucket == "" {
		errs = append(errs, errors.New("GCS_BUCKET is not set"))
	}
	if c.EmbeddingDim <= 0 {
		errs = append(errs, errors.New("EMBEDDING_DIM must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	if c.IndexWorkers <= 0 {
		errs = append(errs, errors.New("INDEX_WORKERS must be positive"))
	}
	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envList(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
