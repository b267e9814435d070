// Package gemini recognizes images with Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/julianknutsen/latexocr/internal/engine/prompt"
	"github.com/julianknutsen/latexocr/internal/ocr"
)

// Name is the backend name.
const Name = "gemini"

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("GEMINI_API_KEY is empty")

// Backend is a Gemini vision model.
type Backend struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// Options are appended to the client options.
	Options []option.ClientOption
}

// New returns a backend for model.
func New(apiKey, model string, timeout time.Duration) *Backend {
	return &Backend{APIKey: apiKey, Model: model, Timeout: timeout}
}

// Name implements ocr.Backend.
func (b *Backend) Name() string { return Name }

// Probe checks the configuration. Nothing is sent over the network.
func (b *Backend) Probe(context.Context) (ocr.Versions, error) {
	if b.APIKey == "" {
		return ocr.Versions{}, ErrNoAPIKey
	}
	if strings.TrimSpace(b.Model) == "" {
		return ocr.Versions{}, errors.New("gemini model is empty")
	}
	return ocr.Versions{Library: Name + "/" + b.Model, Runtime: runtime.Version()}, nil
}

// Load creates the client and configures the model for deterministic
// LaTeX output.
func (b *Backend) Load(ctx context.Context) (ocr.Model, error) {
	if b.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(b.APIKey)}, b.Options...)...)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	m := cl.GenerativeModel(strings.TrimSpace(b.Model))
	configure(m)
	return &model{client: cl, gen: m, timeout: b.Timeout}, nil
}

func configure(m *genai.GenerativeModel) {
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "text/plain",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt.LaTeX)},
	}
}

// generator is the part of *genai.GenerativeModel used for prediction.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type model struct {
	client  *genai.Client
	gen     generator
	timeout time.Duration
}

func parts(img ocr.Image) []genai.Part {
	return []genai.Part{
		genai.Text(prompt.User),
		&genai.Blob{MIMEType: img.MIME(), Data: img.Data},
	}
}

// Predict implements ocr.Model.
func (m *model) Predict(ctx context.Context, img ocr.Image) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	resp, err := m.gen.GenerateContent(ctx, parts(img)...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	txt := firstText(resp)
	if txt == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return txt, nil
}

// Close releases the client.
func (m *model) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
