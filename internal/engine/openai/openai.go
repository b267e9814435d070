// Package openai recognizes images with an OpenAI-compatible vision chat
// completion endpoint.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/julianknutsen/latexocr/internal/engine/prompt"
	"github.com/julianknutsen/latexocr/internal/ocr"
)

// Name is the backend name.
const Name = "openai"

const defaultMaxRetries = 2

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY is empty")

// Backend is an OpenAI-compatible vision model.
type Backend struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// MaxRetries for transient failures. Negative means the client default.
	MaxRetries int

	// Options are appended to the client options.
	Options []openaiopt.RequestOption
}

// New returns a backend for model.
func New(apiKey, baseURL, model string, timeout time.Duration) *Backend {
	return &Backend{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Model:      model,
		Timeout:    timeout,
		MaxRetries: defaultMaxRetries,
	}
}

// Name implements ocr.Backend.
func (b *Backend) Name() string { return Name }

// Probe checks the configuration. Nothing is sent over the network.
func (b *Backend) Probe(context.Context) (ocr.Versions, error) {
	if b.APIKey == "" {
		return ocr.Versions{}, ErrNoAPIKey
	}
	if strings.TrimSpace(b.Model) == "" {
		return ocr.Versions{}, errors.New("openai model is empty")
	}
	return ocr.Versions{Library: Name + "/" + b.Model, Runtime: runtime.Version()}, nil
}

// Load builds the API client.
func (b *Backend) Load(context.Context) (ocr.Model, error) {
	if b.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	clientOpts := []openaiopt.RequestOption{openaiopt.WithAPIKey(b.APIKey)}
	if b.BaseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(b.BaseURL))
	}
	if b.Timeout > 0 {
		clientOpts = append(clientOpts, openaiopt.WithRequestTimeout(b.Timeout))
	}
	if b.MaxRetries >= 0 {
		clientOpts = append(clientOpts, openaiopt.WithMaxRetries(b.MaxRetries))
	}
	clientOpts = append(clientOpts, b.Options...)

	return &model{
		client: openai.NewClient(clientOpts...),
		name:   strings.TrimSpace(b.Model),
	}, nil
}

type model struct {
	client openai.Client
	name   string
}

// dataURL inlines the image, which the API accepts in place of a URL.
func dataURL(img ocr.Image) string {
	return "data:" + img.MIME() + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func (m *model) request(img ocr.Image) openai.ChatCompletionNewParams {
	parts := []openai.ChatCompletionContentPartUnionParam{
		{OfText: &openai.ChatCompletionContentPartTextParam{Text: prompt.User}},
		{OfImageURL: &openai.ChatCompletionContentPartImageParam{
			ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
				URL:    dataURL(img),
				Detail: "high",
			},
		}},
	}
	return openai.ChatCompletionNewParams{
		Model: shared.ChatModel(m.name),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(prompt.LaTeX),
				},
			}},
			{OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: parts,
				},
			}},
		},
		Temperature: openai.Float(0),
	}
}

// Predict implements ocr.Model.
func (m *model) Predict(ctx context.Context, img ocr.Image) (string, error) {
	resp, err := m.client.Chat.Completions.New(ctx, m.request(img))
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("openai refused: %s", choice.Message.Refusal)
	}
	return choice.Message.Content, nil
}
