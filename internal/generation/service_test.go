package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"voicenotes/internal/upstream/openai"
)

type fakeChatClient struct {
	request openai.ChatCompletionRequest
	resp    openai.ChatCompletionResponse
	err     error
	calls   int
}

func (f *fakeChatClient) ChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.request = req
	return f.resp, f.err
}

func TestGenerateSendsSingleUserMessage(t *testing.T) {
	client := &fakeChatClient{resp: openai.ChatCompletionResponse{
		Content: "# Title\n",
		Usage: &openai.TokenUsage{
			PromptTokens:     30,
			CompletionTokens: 5,
			TotalTokens:      35,
		},
	}}
	svc := New(client, "gpt-3.5-turbo", 0.7, 2*time.Second)

	result, err := svc.Generate(context.Background(), Input{Prompt: "write a title"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Text != "# Title\n" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Usage == nil || result.Usage.TotalTokens != 35 {
		t.Fatalf("unexpected usage: %+v", result.Usage)
	}
	if client.request.Model != "gpt-3.5-turbo" || client.request.Temperature != 0.7 {
		t.Fatalf("unexpected request: %+v", client.request)
	}
	if len(client.request.Messages) != 1 {
		t.Fatalf("unexpected message count: %d", len(client.request.Messages))
	}
	msg := client.request.Messages[0]
	if msg.Role != "user" || msg.Content != "write a title" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestGenerateModelOverride(t *testing.T) {
	client := &fakeChatClient{resp: openai.ChatCompletionResponse{Content: "ok"}}
	svc := New(client, "default", 1, time.Second)

	if _, err := svc.Generate(context.Background(), Input{Prompt: "p", Model: " gpt-4o-mini "}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if client.request.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %q", client.request.Model)
	}
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	client := &fakeChatClient{}
	svc := New(client, "m", 1, time.Second)

	if _, err := svc.Generate(context.Background(), Input{Prompt: "   "}); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("expected no upstream call, got %d", client.calls)
	}
}

func TestGeneratePropagatesClientError(t *testing.T) {
	upErr := &openai.Error{StatusCode: 500}
	svc := New(&fakeChatClient{err: upErr}, "m", 1, time.Second)

	_, err := svc.Generate(context.Background(), Input{Prompt: "p"})
	var got *openai.Error
	if !errors.As(err, &got) || got.StatusCode != 500 {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
