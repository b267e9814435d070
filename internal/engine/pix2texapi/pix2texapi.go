// Package pix2texapi talks to a running pix2tex API server
// (python -m pix2tex.api.run).
package pix2texapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/julianknutsen/latexocr/internal/ocr"
)

// Name is the backend name.
const Name = "pix2tex-api"

// Backend is a pix2tex API endpoint.
type Backend struct {
	// URL is the server base URL, e.g. http://127.0.0.1:8502.
	URL string
	// Timeout bounds each request. Zero means no limit.
	Timeout time.Duration
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// New returns a backend for the server at url.
func New(url string, timeout time.Duration) *Backend {
	return &Backend{URL: strings.TrimRight(url, "/"), Timeout: timeout}
}

// Name implements ocr.Backend.
func (b *Backend) Name() string { return Name }

// Probe reports static versions. The server does not expose its library
// version, so the library field names the endpoint and the runtime is
// this binary's Go version.
func (b *Backend) Probe(context.Context) (ocr.Versions, error) {
	if b.URL == "" {
		return ocr.Versions{}, fmt.Errorf("pix2tex api url is not set")
	}
	return ocr.Versions{Library: "pix2tex-api@" + b.URL, Runtime: runtime.Version()}, nil
}

// healthResponse is the body of GET /.
type healthResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status-code"`
}

func (b *Backend) client() *http.Client {
	if b.Client != nil {
		return b.Client
	}
	return http.DefaultClient
}

func (b *Backend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.Timeout > 0 {
		return context.WithTimeout(ctx, b.Timeout)
	}
	return ctx, func() {}
}

// Load checks that the server is up. The server holds the model, so the
// returned handle is the backend itself.
func (b *Backend) Load(ctx context.Context) (ocr.Model, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.URL+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("building health request: %w", err)
	}
	resp, err := b.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling pix2tex api: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("pix2tex api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decoding pix2tex api health: %w", err)
	}
	if health.StatusCode != 0 && health.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pix2tex api unhealthy: %d %s", health.StatusCode, health.Message)
	}
	return b, nil
}

// Predict uploads the image to POST /predict/.
func (b *Backend) Predict(ctx context.Context, img ocr.Image) (string, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", img.Filename())
	if err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL+"/predict/", &body)
	if err != nil {
		return "", fmt.Errorf("building predict request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := b.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("calling pix2tex api: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading pix2tex api response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pix2tex api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return decodePrediction(raw), nil
}

// decodePrediction accepts the server's JSON string body and falls back to
// the raw text.
func decodePrediction(raw []byte) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
