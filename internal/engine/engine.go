// Package engine builds the recognition backend selected by configuration.
package engine

import (
	"fmt"
	"time"

	"github.com/julianknutsen/latexocr/internal/config"
	"github.com/julianknutsen/latexocr/internal/engine/gemini"
	"github.com/julianknutsen/latexocr/internal/engine/openai"
	"github.com/julianknutsen/latexocr/internal/engine/pix2tex"
	"github.com/julianknutsen/latexocr/internal/engine/pix2texapi"
	"github.com/julianknutsen/latexocr/internal/log"
	"github.com/julianknutsen/latexocr/internal/ocr"
)

// New returns the backend named by cfg.Backend.
func New(cfg *config.Config) (ocr.Backend, error) {
	timeout := time.Duration(cfg.Timeout)
	switch cfg.Backend {
	case config.BackendPix2Tex:
		b := pix2tex.New(cfg.Python.Command, cfg.Python.ModelDir, timeout)
		b.Stderr = log.Writer("pix2tex")
		return b, nil
	case config.BackendPix2TexAPI:
		return pix2texapi.New(cfg.API.URL, timeout), nil
	case config.BackendOpenAI:
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, timeout), nil
	case config.BackendGemini:
		return gemini.New(cfg.Gemini.APIKey, cfg.Gemini.Model, timeout), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
