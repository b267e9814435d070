// Package config loads latexocr settings from an optional YAML or TOML
// file, then applies environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/julianknutsen/latexocr/internal/log"
	"github.com/julianknutsen/latexocr/internal/xdg"
)

// Backend names.
const (
	BackendPix2Tex    = "pix2tex"
	BackendPix2TexAPI = "pix2tex-api"
	BackendOpenAI     = "openai"
	BackendGemini     = "gemini"
)

// Backends lists every selectable backend.
var Backends = []string{BackendPix2Tex, BackendPix2TexAPI, BackendOpenAI, BackendGemini}

// Defaults.
const (
	DefaultModelDir    = "LaTeX-OCR"
	DefaultAPIURL      = "http://127.0.0.1:8502"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultLogLevel    = "warn"
)

// Duration is a time.Duration that decodes from strings such as "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	*d = Duration(v)
	return nil
}

// Config holds every latexocr setting.
type Config struct {
	// Backend selects the recognition model backend.
	Backend string `yaml:"backend" toml:"backend"`

	// Timeout bounds a single prediction. Zero means no limit.
	Timeout Duration `yaml:"timeout" toml:"timeout"`

	LogLevel  string `yaml:"log_level" toml:"log_level"`
	SentryDSN string `yaml:"sentry_dsn" toml:"sentry_dsn"`

	Python PythonConfig `yaml:"python" toml:"python"`
	API    APIConfig    `yaml:"api" toml:"api"`
	OpenAI OpenAIConfig `yaml:"openai" toml:"openai"`
	Gemini GeminiConfig `yaml:"gemini" toml:"gemini"`
}

// PythonConfig configures the pix2tex worker backend.
type PythonConfig struct {
	// Command is the interpreter. Empty means detect python3, python, py.
	Command string `yaml:"command" toml:"command"`
	// ModelDir is the LaTeX-OCR checkout added to the worker's import path.
	ModelDir string `yaml:"model_dir" toml:"model_dir"`
}

// APIConfig configures the pix2tex HTTP API backend.
type APIConfig struct {
	URL string `yaml:"url" toml:"url"`
}

// OpenAIConfig configures the OpenAI-compatible vision backend.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" toml:"api_key"`
	BaseURL string `yaml:"base_url" toml:"base_url"`
	Model   string `yaml:"model" toml:"model"`
}

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey string `yaml:"api_key" toml:"api_key"`
	Model  string `yaml:"model" toml:"model"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:  BackendPix2Tex,
		LogLevel: DefaultLogLevel,
		Python:   PythonConfig{ModelDir: DefaultModelDir},
		API:      APIConfig{URL: DefaultAPIURL},
		OpenAI:   OpenAIConfig{Model: DefaultOpenAIModel},
		Gemini:   GeminiConfig{Model: DefaultGeminiModel},
	}
}

// Load builds the configuration. When path is empty the XDG config file is
// used if one exists; an explicit path must exist. getenv supplies
// environment overrides (os.Getenv in production). The result is not
// validated: callers apply flag overrides first, then call Validate.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = xdg.ConfigFile()
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Backend, "LATEXOCR_BACKEND")
	set(&c.Python.Command, "LATEXOCR_PYTHON")
	set(&c.Python.ModelDir, "LATEXOCR_MODEL_DIR")
	set(&c.API.URL, "LATEXOCR_API_URL")
	set(&c.LogLevel, "LATEXOCR_LOG_LEVEL")
	set(&c.SentryDSN, "SENTRY_DSN")
	set(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	set(&c.OpenAI.Model, "OPENAI_MODEL")
	set(&c.Gemini.APIKey, "GEMINI_API_KEY")
	set(&c.Gemini.Model, "GEMINI_MODEL")

	var timeout string
	set(&timeout, "LATEXOCR_TIMEOUT")
	if timeout != "" {
		if err := c.Timeout.UnmarshalText([]byte(timeout)); err != nil {
			return fmt.Errorf("LATEXOCR_TIMEOUT: %w", err)
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !IsBackend(c.Backend) {
		return fmt.Errorf("unknown backend %q (supported: %s)", c.Backend, strings.Join(Backends, ", "))
	}
	if !log.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level %q: must be debug, info, warn, or error", c.LogLevel)
	}
	if c.Backend == BackendPix2TexAPI && c.API.URL == "" {
		return fmt.Errorf("backend %s requires api.url", c.Backend)
	}
	return nil
}

// IsBackend reports whether name is a known backend.
func IsBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}
