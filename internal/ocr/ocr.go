// Package ocr is the recognition façade: it owns a lazily loaded
// image-to-LaTeX model, decodes file and base64 inputs, and normalizes
// every outcome into a Result.
//
// The model itself is an external collaborator reached through Backend.
// A Recognizer serves one request at a time and is not safe for
// concurrent use.
package ocr

import (
	"context"
	"strings"
)

// Backend is an external recognition model library.
type Backend interface {
	// Name identifies the backend, e.g. "pix2tex".
	Name() string

	// Probe checks that the model library is importable and returns its
	// version constants. It must not load weights.
	Probe(ctx context.Context) (Versions, error)

	// Load constructs the model. It is called at most once per successful
	// Recognizer lifetime.
	Load(ctx context.Context) (Model, error)
}

// Model maps an image to LaTeX. Implementations may also implement
// io.Closer to release resources.
type Model interface {
	Predict(ctx context.Context, img Image) (string, error)
}

// Versions are the static version constants reported by Backend.Probe.
type Versions struct {
	Library string // model library version
	Runtime string // runtime hosting the model
}

// Image is a validated input image handed to the model.
type Image struct {
	// Path is the source file for file requests, empty for base64 input.
	Path string
	// Data holds the encoded image bytes.
	Data []byte
	// Format is the container format: png, jpeg, gif, bmp, tiff, or webp.
	Format string

	Width, Height int
}

// MIME returns the media type for the image's format.
func (i Image) MIME() string {
	if i.Format == "" {
		return "application/octet-stream"
	}
	return "image/" + i.Format
}

// Filename returns a name suitable for multipart uploads.
func (i Image) Filename() string {
	if i.Path != "" {
		if idx := strings.LastIndexAny(i.Path, `/\`); idx >= 0 {
			return i.Path[idx+1:]
		}
		return i.Path
	}
	ext := i.Format
	if ext == "jpeg" {
		ext = "jpg"
	}
	if ext == "" {
		return "image"
	}
	return "image." + ext
}

// Request is one recognition input: FileRequest or Base64Request.
type Request interface {
	// Source is the descriptor echoed in results: the path, or "base64".
	Source() string
	isRequest()
}

// SourceBase64 is the descriptor of base64 requests.
const SourceBase64 = "base64"

// FileRequest recognizes an image on disk.
type FileRequest struct {
	Path string
}

// Source returns the path.
func (r FileRequest) Source() string { return r.Path }
func (FileRequest) isRequest()       {}

// Base64Request recognizes an inline base64 image payload.
type Base64Request struct {
	Payload string
}

// Source returns "base64".
func (Base64Request) Source() string { return SourceBase64 }
func (Base64Request) isRequest()     {}

// VersionInfo is a read-only snapshot of version constants and state.
type VersionInfo struct {
	ModelLibraryVersion string `json:"latex_ocr_version"`
	RuntimeVersion      string `json:"python_version"`
	Initialized         bool   `json:"initialized"`
	Backend             string `json:"backend"`
}
