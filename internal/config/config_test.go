package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("UPSTREAM_API_KEY", " sk-test ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr)
	}
	if cfg.UpstreamAPIKey != "sk-test" {
		t.Fatalf("expected trimmed api key, got %q", cfg.UpstreamAPIKey)
	}
	if cfg.TranscriptionModel != "whisper-1" || cfg.GenerationModel != "gpt-3.5-turbo" {
		t.Fatalf("unexpected models: %q %q", cfg.TranscriptionModel, cfg.GenerationModel)
	}
	if cfg.GenerationTimeout != 55*time.Second {
		t.Fatalf("unexpected generation timeout: %v", cfg.GenerationTimeout)
	}
}

func TestLoadFallsBackToOpenAIAPIKey(t *testing.T) {
	t.Setenv("UPSTREAM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UpstreamAPIKey != "sk-openai" {
		t.Fatalf("unexpected api key: %q", cfg.UpstreamAPIKey)
	}
}

func TestLoadTrimsBaseURL(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:9000/v1/ ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UpstreamBaseURL != "http://localhost:9000/v1" {
		t.Fatalf("unexpected base url: %q", cfg.UpstreamBaseURL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"GENERATION_MODEL":           "GENERATION_MODEL",
		"GENERATION_TEMPERATURE":     "GENERATION_TEMPERATURE",
		"GENERATION_TIMEOUT_SECONDS": "GENERATION_TIMEOUT_SECONDS",
		"MAX_TEXT_CHARS":             "MAX_TEXT_CHARS",
	}
	values := map[string]string{
		"GENERATION_MODEL":           " ",
		"GENERATION_TEMPERATURE":     "3",
		"GENERATION_TIMEOUT_SECONDS": "0",
		"MAX_TEXT_CHARS":             "-1",
	}

	for key, wantInError := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, values[key])
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), wantInError) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
