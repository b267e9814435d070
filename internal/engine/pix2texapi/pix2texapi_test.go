package pix2texapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianknutsen/latexocr/internal/ocr"
)

func newServer(t *testing.T, predict http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "OK", "status-code": 200, "data": map[string]any{}})
	})
	mux.HandleFunc("POST /predict/", predict)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProbe(t *testing.T) {
	t.Parallel()
	v, err := New("http://127.0.0.1:8502/", 0).Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pix2tex-api@http://127.0.0.1:8502", v.Library)

	_, err = New("", 0).Probe(context.Background())
	assert.Error(t, err, "empty url")
}

func TestLoadAndPredict(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		assert.Equal(t, "eq.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(data))
		_ = json.NewEncoder(w).Encode(`\frac{a}{b}`)
	})

	b := New(srv.URL, time.Second)
	m, err := b.Load(context.Background())
	require.NoError(t, err)
	got, err := m.Predict(context.Background(), ocr.Image{Path: "/tmp/eq.png", Data: []byte("PNGDATA"), Format: "png"})
	require.NoError(t, err)
	assert.Equal(t, `\frac{a}{b}`, got)
}

func TestPredict_RawTextBody(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `x^2`)
	})
	got, err := New(srv.URL, 0).Predict(context.Background(), ocr.Image{Data: []byte("x"), Format: "png"})
	require.NoError(t, err)
	assert.Equal(t, "x^2", got)
}

func TestPredict_ServerError(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	})
	_, err := New(srv.URL, 0).Predict(context.Background(), ocr.Image{Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model exploded")
}

func TestPredict_Timeout(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := newServer(t, func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	_, err := New(srv.URL, 50*time.Millisecond).Predict(context.Background(), ocr.Image{Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestLoad_Unreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calling pix2tex api")
}

func TestLoad_BadStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "starting", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL, 0).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestDecodePrediction(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want string }{
		{`"a+b"`, "a+b"},
		{`"\\alpha"`, `\alpha`},
		{`a+b`, "a+b"},
		{``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, decodePrediction([]byte(tt.in)), "decodePrediction(%q)", tt.in)
	}
}
