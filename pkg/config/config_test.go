package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Redis.CacheTTL != 5*time.Minute {
		t.Errorf("expected default cache TTL 5m, got %s", cfg.Redis.CacheTTL)
	}
	if cfg.Catalog.DefaultPageSize != 10 || cfg.Catalog.MaxPageSize != 100 {
		t.Errorf("unexpected page size bounds %d/%d",
			cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
redis:
  cacheTTL: 30s
catalog:
  defaultPageSize: 25
  maxPageSize: 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Redis.CacheTTL != 30*time.Second {
		t.Errorf("expected TTL 30s, got %s", cfg.Redis.CacheTTL)
	}
	if cfg.Catalog.DefaultPageSize != 25 || cfg.Catalog.MaxPageSize != 50 {
		t.Errorf("unexpected page size bounds %d/%d",
			cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize)
	}
	// Untouched sections keep their defaults.
	if len(cfg.Elastic.Addresses) == 0 {
		t.Error("elastic defaults were lost")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache.internal:6380")
	t.Setenv("ELASTIC_ADDRESSES", "http://es1:9200,http://es2:9200")
	t.Setenv("REDIS_CACHE_TTL", "90s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Redis.Addr != "cache.internal:6380" {
		t.Errorf("REDIS_ADDR override ignored, got %q", cfg.Redis.Addr)
	}
	if len(cfg.Elastic.Addresses) != 2 || cfg.Elastic.Addresses[1] != "http://es2:9200" {
		t.Errorf("ELASTIC_ADDRESSES override ignored, got %v", cfg.Elastic.Addresses)
	}
	if cfg.Redis.CacheTTL != 90*time.Second {
		t.Errorf("REDIS_CACHE_TTL override ignored, got %s", cfg.Redis.CacheTTL)
	}
}

func TestValidationRejectsBadPageBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
catalog:
  defaultPageSize: 50
  maxPageSize: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for max < default page size")
	}
}

func TestMissingFileIsAnError(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
