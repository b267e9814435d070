package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianknutsen/latexocr/internal/log"
)

// Recognizer is the recognition façade. The zero value is not usable;
// construct one with Open.
type Recognizer struct {
	backend  Backend
	versions Versions

	// model is the engine state: nil until Initialize succeeds.
	model Model

	loadHook func() (done func())
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithLoadHook registers a function invoked around every model load. The
// returned func runs when the load finishes, successful or not.
func WithLoadHook(hook func() (done func())) Option {
	return func(r *Recognizer) { r.loadHook = hook }
}

// Open probes the backend's model library and returns an uninitialized
// Recognizer. A failed probe is an *Error of kind ErrImport.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Recognizer, error) {
	versions, err := backend.Probe(ctx)
	if err != nil {
		return nil, importError(err)
	}
	r := &Recognizer{backend: backend, versions: versions}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Initialized reports whether the model is loaded.
func (r *Recognizer) Initialized() bool { return r.model != nil }

// Initialize loads the model once. Calls after a success are no-ops. A
// failure returns an *Error of kind ErrInit and leaves the Recognizer
// uninitialized, so a later call retries.
func (r *Recognizer) Initialize(ctx context.Context) error {
	if err := r.initialize(ctx); err != nil {
		return err
	}
	return nil
}

func (r *Recognizer) initialize(ctx context.Context) *Error {
	if r.model != nil {
		return nil
	}

	log.Debugf("loading %s model", r.backend.Name())
	start := time.Now()
	done := func() {}
	if r.loadHook != nil {
		done = r.loadHook()
	}
	m, err := r.backend.Load(ctx)
	done()
	if err != nil {
		log.Warnf("%s model failed to load: %v", r.backend.Name(), err)
		return initError(err)
	}
	if m == nil {
		return initError(errors.New("backend returned no model"))
	}

	r.model = m
	log.Infof("%s model ready in %s", r.backend.Name(), time.Since(start).Round(time.Millisecond))
	return nil
}

// Recognize dispatches req to RecognizeFile or RecognizeBase64.
func (r *Recognizer) Recognize(ctx context.Context, req Request) Result {
	switch req := req.(type) {
	case FileRequest:
		return r.RecognizeFile(ctx, req.Path)
	case Base64Request:
		return r.RecognizeBase64(ctx, req.Payload)
	default:
		return failed(req, Unexpected(fmt.Errorf("unsupported request type %T", req)))
	}
}

// RecognizeFile recognizes the image at path.
func (r *Recognizer) RecognizeFile(ctx context.Context, path string) Result {
	req := FileRequest{Path: path}
	if err := r.initialize(ctx); err != nil {
		return failed(req, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return failed(req, notFound(path, err))
	}
	if info.IsDir() {
		return failed(req, corruptImage(path, errors.New("is a directory")))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return failed(req, corruptImage(path, err))
	}
	img, err := inspectImage(path, data)
	if err != nil {
		return failed(req, corruptImage(path, err))
	}
	return r.predict(ctx, req, img)
}

// RecognizeBase64 recognizes an inline base64 image. Malformed payloads
// fail with ErrDecode before the model is loaded.
func (r *Recognizer) RecognizeBase64(ctx context.Context, payload string) Result {
	req := Base64Request{Payload: payload}
	data, err := DecodeBase64(payload)
	if err != nil {
		return failed(req, decodeError(err))
	}
	img, err := inspectImage("", data)
	if err != nil {
		return failed(req, decodeError(err))
	}
	if err := r.initialize(ctx); err != nil {
		return failed(req, err)
	}
	return r.predict(ctx, req, img)
}

func (r *Recognizer) predict(ctx context.Context, req Request, img Image) Result {
	log.Debugf("predicting %s (%s %dx%d, %d bytes)", req.Source(), img.Format, img.Width, img.Height, len(img.Data))
	start := time.Now()
	out, err := r.model.Predict(ctx, img)
	if err != nil {
		return failed(req, recognitionError(req, err))
	}
	latex := cleanPrediction(out)
	if latex == "" {
		return failed(req, recognitionError(req, errors.New("model returned an empty prediction")))
	}
	log.Infof("recognized %s in %s", req.Source(), time.Since(start).Round(time.Millisecond))
	return succeeded(req, latex)
}

// VersionInfo returns the probed version constants and the current
// initialization state. It has no side effects.
func (r *Recognizer) VersionInfo() VersionInfo {
	return VersionInfo{
		ModelLibraryVersion: r.versions.Library,
		RuntimeVersion:      r.versions.Runtime,
		Initialized:         r.model != nil,
		Backend:             r.backend.Name(),
	}
}

// Close releases the model if it holds resources. Process exit is an
// equally valid teardown.
func (r *Recognizer) Close() error {
	if c, ok := r.model.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
