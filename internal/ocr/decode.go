package ocr

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode"

	// Formats accepted as model input.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var errEmptyImage = errors.New("empty image data")

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodeBase64 decodes an image payload. It accepts standard and URL-safe
// alphabets with or without padding, an optional "data:<mime>;base64,"
// prefix, and embedded whitespace such as line wrapping.
func DecodeBase64(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)
	if strings.HasPrefix(s, "data:") {
		idx := strings.IndexByte(s, ',')
		if idx < 0 {
			return nil, fmt.Errorf("malformed data URL: missing ','")
		}
		if meta := s[len("data:"):idx]; !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("data URL is not base64-encoded")
		}
		s = s[idx+1:]
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, errEmptyImage
	}

	var firstErr error
	for _, enc := range base64Encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("invalid base64 data: %w", firstErr)
}

// inspectImage validates data as a supported image and fills in its
// format and dimensions.
func inspectImage(path string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, errEmptyImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("cannot identify image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, fmt.Errorf("image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}
	return Image{
		Path:   path,
		Data:   data,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// cleanPrediction trims model output and strips Markdown code fences. A
// display-math wrapper ($$...$$ or \[...\]) is removed only when it encloses
// the whole output; multiple math spans are left as they are.
func cleanPrediction(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	for _, pair := range [][2]string{{"$$", "$$"}, {`\[`, `\]`}} {
		if inner, ok := displayMath(s, pair[0], pair[1]); ok {
			s = inner
		}
	}
	return s
}

// displayMath returns the body of s when s is exactly one left...right span.
func displayMath(s, left, right string) (string, bool) {
	if len(s) <= len(left)+len(right) || !strings.HasPrefix(s, left) || !strings.HasSuffix(s, right) {
		return "", false
	}
	inner := s[len(left) : len(s)-len(right)]
	for _, d := range []string{"$$", `\[`, `\]`} {
		if strings.Contains(inner, d) {
			return "", false
		}
	}
	inner = strings.TrimSpace(inner)
	return inner, inner != ""
}
