package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"voicenotes/internal/upstream/openai"
)

var ErrEmptyPrompt = errors.New("generation prompt is empty")

type ChatClient interface {
	ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Input struct {
	Prompt string
	Model  string
}

type Result struct {
	Text  string
	Usage *TokenUsage
}

type Service struct {
	client       ChatClient
	defaultModel string
	temperature  float64
	timeout      time.Duration
}

func New(client ChatClient, defaultModel string, temperature float64, timeout time.Duration) *Service {
	return &Service{
		client:       client,
		defaultModel: strings.TrimSpace(defaultModel),
		temperature:  temperature,
		timeout:      timeout,
	}
}

// Generate sends the prompt as a single user message and returns the
// model's reply untouched.
func (s *Service) Generate(ctx context.Context, in Input) (Result, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return Result{}, ErrEmptyPrompt
	}
	model := strings.TrimSpace(in.Model)
	if model == "" {
		model = s.defaultModel
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	chatResp, err := s.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: s.temperature,
		Messages: []openai.ChatMessage{
			{Role: "user", Content: in.Prompt},
		},
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{Text: chatResp.Content}
	if chatResp.Usage != nil {
		result.Usage = &TokenUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		}
	}
	return result, nil
}
