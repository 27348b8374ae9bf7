package internal

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestStorageConfig_EmptyDriverDefaultsToFile(t *testing.T) {
	cfg := StorageConfig{Dir: "./data"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty driver should default to file: %v", err)
	}
	if cfg.Driver != DriverFile {
		t.Errorf("driver = %q, want %q", cfg.Driver, DriverFile)
	}
	if cfg.Namespace != "media-tracker-storage" {
		t.Errorf("namespace = %q", cfg.Namespace)
	}
}

func TestStorageConfig_InvalidDriver(t *testing.T) {
	cfg := StorageConfig{Driver: "redis", Dir: "./data"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown driver should fail validation")
	}
}

func TestStorageConfig_DirRequiredUnlessMemory(t *testing.T) {
	cfg := StorageConfig{Driver: DriverSQLite}
	if err := cfg.Validate(); err == nil {
		t.Fatal("sqlite without dir should fail")
	}
	cfg = StorageConfig{Driver: DriverMemory}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("memory without dir should pass: %v", err)
	}
}

func TestSearchConfig_BadProviderURL(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Search.Books.BaseURL = "not a url"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("bad books URL should fail")
	}
	if !strings.Contains(err.Error(), "search") {
		t.Errorf("error should name the section: %v", err)
	}
}

func TestSearchConfig_Limits(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Search.MaxResults = 100
	if err := cfg.Validate(); err == nil {
		t.Error("max_results above 40 should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Search.Timeout = time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Error("tiny timeout should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Search.CacheTTL = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero cache_ttl disables the cache and should pass: %v", err)
	}
}

func TestFullConfig_HTTPValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch port error")
	}
}

func TestTMDBKeyIsOptional(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Search.TMDB.APIKey = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("missing TMDB key should not fail config: %v", err)
	}
}
