package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("GCP_PROJECT_ID", "proj")
	t.Setenv("GCS_BUCKET", "bucket")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("MAX_UPLOAD_MB", "")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8000" || cfg.EmbeddingDim != 768 || cfg.MaxUploadBytes != 20<<20 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.IndexStream != "papers:index" || cfg.SummaryCacheTTL != 24*time.Hour {
		t.Fatalf("queue defaults = %+v", cfg)
	}
}

func TestLoadServerOverrides(t *testing.T) {
	t.Setenv("AUTH_DISABLED", "true")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GCP_PROJECT_ID", "proj")
	t.Setenv("GCS_BUCKET", "bucket")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("SUMMARY_CACHE_TTL", "90m")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.AuthDisabled {
		t.Fatal("expected auth disabled")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("origins = %v", cfg.CORSOrigins)
	}
	if cfg.SummaryCacheTTL != 90*time.Minute {
		t.Fatalf("ttl = %v", cfg.SummaryCacheTTL)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	err := ServerConfig{EmbeddingDim: 768, MaxUploadBytes: 1, IndexWorkers: 1}.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"JWT_SECRET", "GCP_PROJECT_ID", "GCS_BUCKET"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %s in %q", want, err)
		}
	}
}

func TestRedisOptions(t *testing.T) {
	opt, err := redisOptions("redis://:pw@cache.local:6380/2")
	if err != nil {
		t.Fatal(err)
	}
	if opt.Addr != "cache.local:6380" || opt.DB != 2 || opt.Password != "pw" {
		t.Fatalf("opts = %+v", opt)
	}
	if opt, _ := redisOptions("localhost:6379"); opt.Addr != "localhost:6379" {
		t.Fatalf("addr = %s", opt.Addr)
	}
	if _, err := redisOptions(""); err == nil {
		t.Fatal("expected error for empty address")
	}
}
