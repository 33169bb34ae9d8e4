// Package pipeline is the gateway between HTTP requests and the external AI
// capabilities. Each operation validates its input, performs exactly one
// upstream call and normalizes the outcome into a result or one of the
// sentinel errors below.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"voicenotes/internal/audiofile"
	"voicenotes/internal/generation"
	"voicenotes/internal/prompt"
	"voicenotes/internal/transcription"
	"voicenotes/internal/validation"
)

var (
	ErrValidation          = errors.New("invalid request")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrGenerationFailed    = errors.New("generation failed")
	ErrRenderFailed        = errors.New("render failed")
)

type Transcriber interface {
	Transcribe(ctx context.Context, in transcription.Input) (string, error)
}

type Generator interface {
	Generate(ctx context.Context, in generation.Input) (generation.Result, error)
}

type Renderer interface {
	HTML(md string) (string, error)
}

type Service struct {
	transcriber  Transcriber
	generator    Generator
	renderer     Renderer
	maxTextChars int
}

type TranscribeInput struct {
	File     io.Reader
	FileName string
	MIMEType string
	Model    string
}

type TransformInput struct {
	Text   string `json:"text" validate:"required"`
	Format string `json:"format" validate:"required,oneof=journal article note tweet todo"`
	Model  string `json:"model"`
}

type TransformResult struct {
	HTML     string
	Markdown string
	Format   prompt.Format
	Usage    *generation.TokenUsage
}

type TranslateInput struct {
	Text  string `json:"text" validate:"required"`
	Lang  string `json:"lang" validate:"required"`
	Model string `json:"model"`
}

type TranslateResult struct {
	Text     string
	Language string
	Usage    *generation.TokenUsage
}

func New(transcriber Transcriber, generator Generator, renderer Renderer, maxTextChars int) *Service {
	return &Service{
		transcriber:  transcriber,
		generator:    generator,
		renderer:     renderer,
		maxTextChars: maxTextChars,
	}
}

func (s *Service) Transcribe(ctx context.Context, in TranscribeInput) (string, error) {
	if in.File == nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, audiofile.ErrEmpty)
	}

	text, err := s.transcriber.Transcribe(ctx, transcription.Input{
		File:     in.File,
		FileName: in.FileName,
		MIMEType: in.MIMEType,
		Model:    in.Model,
	})
	if errors.Is(err, audiofile.ErrEmpty) {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}
	return text, nil
}

// Transform rewrites text in the requested format and returns it as HTML.
func (s *Service) Transform(ctx context.Context, in TransformInput) (TransformResult, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.Format = strings.ToLower(strings.TrimSpace(in.Format))
	if err := s.validate(in, in.Text); err != nil {
		return TransformResult{}, err
	}

	format, _ := prompt.ParseFormat(in.Format)
	promptText, err := prompt.Conversion(format, in.Text)
	if err != nil {
		return TransformResult{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	generated, err := s.generator.Generate(ctx, generation.Input{Prompt: promptText, Model: in.Model})
	if err != nil {
		return TransformResult{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	html, err := s.renderer.HTML(generated.Text)
	if err != nil {
		return TransformResult{}, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	return TransformResult{
		HTML:     html,
		Markdown: generated.Text,
		Format:   format,
		Usage:    generated.Usage,
	}, nil
}

// Translate returns the generated translation as plain text; unlike
// Transform, no markdown rendering is applied.
func (s *Service) Translate(ctx context.Context, in TranslateInput) (TranslateResult, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.Lang = strings.TrimSpace(in.Lang)
	if err := s.validate(in, in.Text); err != nil {
		return TranslateResult{}, err
	}

	language := prompt.LanguageName(in.Lang)
	generated, err := s.generator.Generate(ctx, generation.Input{
		Prompt: prompt.Translation(in.Lang, in.Text),
		Model:  in.Model,
	})
	if err != nil {
		return TranslateResult{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	return TranslateResult{Text: generated.Text, Language: language, Usage: generated.Usage}, nil
}

func (s *Service) validate(in any, text string) error {
	if err := validation.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if s.maxTextChars > 0 && utf8.RuneCountInString(text) > s.maxTextChars {
		return fmt.Errorf("%w: %w", ErrValidation, &validation.Error{Fields: []validation.FieldError{{
			Field:   "text",
			Message: "must be at most " + strconv.Itoa(s.maxTextChars) + " characters",
		}}})
	}
	return nil
}
