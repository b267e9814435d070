package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianknutsen/latexocr/internal/config"
	"github.com/julianknutsen/latexocr/internal/ocr"
)

// fakeBackend implements ocr.Backend for CLI tests.
type fakeBackend struct {
	probeErr error
	loadErr  error
	latex    string
	predErr  error
	panicMsg string
	loads    int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Probe(context.Context) (ocr.Versions, error) {
	if f.probeErr != nil {
		return ocr.Versions{}, f.probeErr
	}
	return ocr.Versions{Library: "0.1.4", Runtime: "3.11.4"}, nil
}

func (f *fakeBackend) Load(context.Context) (ocr.Model, error) {
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f, nil
}

func (f *fakeBackend) Predict(context.Context, ocr.Image) (string, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.latex, f.predErr
}

// useBackend routes backendFactory to b for the rest of the test. Tests
// using it mutate package state and must not run in parallel.
func useBackend(t *testing.T, b ocr.Backend) {
	t.Helper()
	old := backendFactory
	backendFactory = func(*config.Config) (ocr.Backend, error) { return b, nil }
	t.Cleanup(func() { backendFactory = old })
}

// isolateEnv clears settings that would leak into config.Load.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{
		"LATEXOCR_BACKEND", "LATEXOCR_PYTHON", "LATEXOCR_MODEL_DIR", "LATEXOCR_API_URL",
		"LATEXOCR_LOG_LEVEL", "LATEXOCR_TIMEOUT", "SENTRY_DSN",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "GEMINI_API_KEY", "GEMINI_MODEL",
	} {
		t.Setenv(k, "")
	}
}

// writePNG writes a small grayscale PNG into dir and returns its path.
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type notFoundErr struct{}

func (*notFoundErr) Error() string { return "not found" }

var errBoom = errors.New("boom")
