package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

type fakeModel struct {
	latex  string
	err    error
	calls  []Image
	closed bool
}

func (m *fakeModel) Predict(_ context.Context, img Image) (string, error) {
	m.calls = append(m.calls, img)
	if m.err != nil {
		return "", m.err
	}
	return m.latex, nil
}

func (m *fakeModel) Close() error {
	m.closed = true
	return nil
}

type fakeBackend struct {
	versions Versions
	probeErr error
	loadErr  error
	loads    int
	model    *fakeModel
}

func newFakeBackend(latex string) *fakeBackend {
	return &fakeBackend{
		versions: Versions{Library: "0.1.2", Runtime: "3.11.4"},
		model:    &fakeModel{latex: latex},
	}
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Probe(context.Context) (Versions, error) {
	if b.probeErr != nil {
		return Versions{}, b.probeErr
	}
	return b.versions, nil
}

func (b *fakeBackend) Load(context.Context) (Model, error) {
	b.loads++
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return b.model, nil
}

func openFake(t *testing.T, b *fakeBackend) *Recognizer {
	t.Helper()
	r, err := Open(context.Background(), b)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return r
}

// pngBytes returns a small valid PNG.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func pngBase64(t *testing.T) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString(pngBytes(t))
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}
