package transcription

import (
	"context"
	"io"
	"strings"
	"time"

	"voicenotes/internal/audiofile"
)

type Client interface {
	Transcribe(ctx context.Context, file io.Reader, fileName, model string) (string, error)
}

type Service struct {
	client       Client
	defaultModel string
	timeout      time.Duration
}

type Input struct {
	File     io.Reader
	FileName string
	MIMEType string
	Model    string
}

func New(client Client, defaultModel string, timeout time.Duration) *Service {
	return &Service{
		client:       client,
		defaultModel: strings.TrimSpace(defaultModel),
		timeout:      timeout,
	}
}

// Transcribe uploads the audio under a file name whose extension matches its
// media type. audiofile.ErrEmpty is returned, without calling the client,
// when the payload has no bytes.
func (s *Service) Transcribe(ctx context.Context, in Input) (string, error) {
	selectedModel := strings.TrimSpace(in.Model)
	if selectedModel == "" {
		selectedModel = s.defaultModel
	}

	sniffed, file, err := audiofile.Sniff(in.File)
	if err != nil {
		return "", err
	}
	mimeType := in.MIMEType
	if audiofile.NeedsSniffing(mimeType) {
		mimeType = sniffed
	}
	fileName := audiofile.FileName(in.FileName, mimeType)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.client.Transcribe(ctx, file, fileName, selectedModel)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
