package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianknutsen/latexocr/internal/engine/prompt"
	"github.com/julianknutsen/latexocr/internal/ocr"
)

type fakeGenerator struct {
	resp     *genai.GenerateContentResponse
	err      error
	parts    []genai.Part
	deadline bool
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	_, f.deadline = ctx.Deadline()
	return f.resp, f.err
}

func response(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()
	_, err := New("", "gemini-2.5-flash", 0).Probe(context.Background())
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = New("key", "", 0).Probe(context.Background())
	assert.Error(t, err)

	v, err := New("key", "gemini-2.5-flash", 0).Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gemini/gemini-2.5-flash", v.Library)
	assert.True(t, strings.HasPrefix(v.Runtime, "go"))
}

func TestLoad_NoKey(t *testing.T) {
	t.Parallel()
	_, err := New("", "m", 0).Load(context.Background())
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestConfigure(t *testing.T) {
	t.Parallel()
	m := &genai.GenerativeModel{}
	configure(m)
	require.NotNil(t, m.Temperature)
	assert.Zero(t, *m.Temperature)
	require.NotNil(t, m.SystemInstruction)
	assert.Equal(t, []genai.Part{genai.Text(prompt.LaTeX)}, m.SystemInstruction.Parts)
}

func TestPredict(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{resp: response(genai.Text(`e^{i\pi}+1=0`))}
	m := &model{gen: gen, timeout: time.Second}

	got, err := m.Predict(context.Background(), ocr.Image{Data: []byte{1, 2}, Format: "png"})
	require.NoError(t, err)
	assert.Equal(t, `e^{i\pi}+1=0`, got)
	assert.True(t, gen.deadline, "timeout not applied")

	require.Len(t, gen.parts, 2)
	assert.Equal(t, genai.Text(prompt.User), gen.parts[0])
	assert.Equal(t, &genai.Blob{MIMEType: "image/png", Data: []byte{1, 2}}, gen.parts[1])
}

func TestPredict_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		gen  *fakeGenerator
		want string
	}{
		{"api error", &fakeGenerator{err: errors.New("quota exceeded")}, "gemini generate: quota exceeded"},
		{"nil response", &fakeGenerator{}, "gemini returned an empty response"},
		{"no text", &fakeGenerator{resp: response(&genai.Blob{})}, "gemini returned an empty response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := (&model{gen: tt.gen}).Predict(context.Background(), ocr.Image{Data: []byte{1}})
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestFirstText(t *testing.T) {
	t.Parallel()
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: nil},
		{Content: &genai.Content{Parts: []genai.Part{&genai.Blob{}, genai.Text("x")}}},
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("y")}}},
	}}
	assert.Equal(t, "x", firstText(resp))
	assert.Equal(t, "", firstText(nil))
}

func TestClose_NilClient(t *testing.T) {
	t.Parallel()
	assert.NoError(t, (&model{}).Close())
}
