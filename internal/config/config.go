package config

import (
	"errors"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr            string
	UpstreamBaseURL       string
	UpstreamAPIKey        string
	TranscriptionModel    string
	GenerationModel       string
	GenerationTemperature float64
	RequestTimeout        time.Duration
	TranscriptionTimeout  time.Duration
	GenerationTimeout     time.Duration
	MaxUploadBytes        int64
	MaxTextChars          int
	LogLevel              string
}

type envConfig struct {
	ListenAddr                  string  `env:"LISTEN_ADDR" envDefault:":8080"`
	UpstreamBaseURL             string  `env:"UPSTREAM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	UpstreamAPIKey              string  `env:"UPSTREAM_API_KEY"`
	OpenAIAPIKey                string  `env:"OPENAI_API_KEY"`
	TranscriptionModel          string  `env:"TRANSCRIPTION_MODEL" envDefault:"whisper-1"`
	GenerationModel             string  `env:"GENERATION_MODEL" envDefault:"gpt-3.5-turbo"`
	GenerationTemperature       float64 `env:"GENERATION_TEMPERATURE" envDefault:"1"`
	RequestTimeoutSeconds       int     `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"60"`
	TranscriptionTimeoutSeconds int     `env:"TRANSCRIPTION_TIMEOUT_SECONDS" envDefault:"55"`
	GenerationTimeoutSeconds    int     `env:"GENERATION_TIMEOUT_SECONDS" envDefault:"55"`
	MaxUploadBytes              int64   `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
	MaxTextChars                int     `env:"MAX_TEXT_CHARS" envDefault:"20000"`
	LogLevel                    string  `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var raw envConfig
	if err := cenv.Parse(&raw); err != nil {
		return Config{}, err
	}

	apiKey := strings.TrimSpace(raw.UpstreamAPIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(raw.OpenAIAPIKey)
	}

	cfg := Config{
		ListenAddr:            strings.TrimSpace(raw.ListenAddr),
		UpstreamBaseURL:       strings.TrimRight(strings.TrimSpace(raw.UpstreamBaseURL), "/"),
		UpstreamAPIKey:        apiKey,
		TranscriptionModel:    strings.TrimSpace(raw.TranscriptionModel),
		GenerationModel:       strings.TrimSpace(raw.GenerationModel),
		GenerationTemperature: raw.GenerationTemperature,
		RequestTimeout:        time.Duration(raw.RequestTimeoutSeconds) * time.Second,
		TranscriptionTimeout:  time.Duration(raw.TranscriptionTimeoutSeconds) * time.Second,
		GenerationTimeout:     time.Duration(raw.GenerationTimeoutSeconds) * time.Second,
		MaxUploadBytes:        raw.MaxUploadBytes,
		MaxTextChars:          raw.MaxTextChars,
		LogLevel:              strings.ToLower(strings.TrimSpace(raw.LogLevel)),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	if c.UpstreamBaseURL == "" {
		return errors.New("UPSTREAM_BASE_URL must not be empty")
	}
	if c.TranscriptionModel == "" {
		return errors.New("TRANSCRIPTION_MODEL must not be empty")
	}
	if c.GenerationModel == "" {
		return errors.New("GENERATION_MODEL must not be empty")
	}
	if c.GenerationTemperature < 0 || c.GenerationTemperature > 2 {
		return errors.New("GENERATION_TEMPERATURE must be between 0 and 2")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be > 0")
	}
	if c.TranscriptionTimeout <= 0 {
		return errors.New("TRANSCRIPTION_TIMEOUT_SECONDS must be > 0")
	}
	if c.GenerationTimeout <= 0 {
		return errors.New("GENERATION_TIMEOUT_SECONDS must be > 0")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	if c.MaxTextChars <= 0 {
		return errors.New("MAX_TEXT_CHARS must be > 0")
	}
	return nil
}
