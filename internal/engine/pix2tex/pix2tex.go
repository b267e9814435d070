// Package pix2tex runs the pix2tex LaTeX-OCR model in a long-lived Python
// worker process.
//
// The worker is the embedded worker.py, started as
// "<python> -c <script> <model_dir> <mode>". It speaks one JSON object per
// line on stdout. In probe mode it reports versions and exits; in serve
// mode it loads the model, reports readiness, and answers one request per
// stdin line.
package pix2tex

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/julianknutsen/latexocr/internal/ocr"
)

//go:embed worker.py
var workerScript string

// Name is the backend name.
const Name = "pix2tex"

// PythonCandidates are tried in order when no interpreter is configured.
var PythonCandidates = []string{"python3", "python", "py"}

// ErrNoPython is returned when no interpreter can be found.
var ErrNoPython = errors.New("no python interpreter found in PATH (tried python3, python, py)")

// Backend starts pix2tex workers.
type Backend struct {
	// Command is the interpreter and any leading arguments. Empty means
	// detect one of PythonCandidates.
	Command []string
	// ModelDir is the LaTeX-OCR checkout prepended to the worker's sys.path.
	ModelDir string
	// Timeout bounds each prediction. Zero means no limit.
	Timeout time.Duration
	// Env is appended to the inherited environment.
	Env []string
	// Stderr receives the worker's stderr. Nil discards it.
	Stderr io.Writer

	lookPath func(string) (string, error)
}

// New returns a backend using python (empty to detect) and modelDir.
func New(python, modelDir string, timeout time.Duration) *Backend {
	b := &Backend{ModelDir: modelDir, Timeout: timeout}
	if python != "" {
		b.Command = []string{python}
	}
	return b
}

// Name implements ocr.Backend.
func (b *Backend) Name() string { return Name }

// DetectPython returns the first interpreter in PythonCandidates found by
// lookPath.
func DetectPython(lookPath func(string) (string, error)) (string, error) {
	for _, c := range PythonCandidates {
		if p, err := lookPath(c); err == nil {
			return p, nil
		}
	}
	return "", ErrNoPython
}

func (b *Backend) command(ctx context.Context, mode string) (*exec.Cmd, error) {
	argv := b.Command
	if len(argv) == 0 {
		lookPath := b.lookPath
		if lookPath == nil {
			lookPath = exec.LookPath
		}
		py, err := DetectPython(lookPath)
		if err != nil {
			return nil, err
		}
		argv = []string{py}
	}
	args := append(append([]string{}, argv[1:]...), "-c", workerScript, b.ModelDir, mode)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	if len(b.Env) > 0 {
		cmd.Env = append(cmd.Environ(), b.Env...)
	}
	cmd.Stderr = b.Stderr
	return cmd, nil
}

// reply is one protocol line from the worker.
type reply struct {
	OK      bool   `json:"ok"`
	Stage   string `json:"stage,omitempty"`
	Error   string `json:"error,omitempty"`
	Version string `json:"version,omitempty"`
	Python  string `json:"python,omitempty"`
	Latex   string `json:"latex,omitempty"`
}

func (r reply) versions() ocr.Versions {
	return ocr.Versions{Library: r.Version, Runtime: r.Python}
}

func parseReply(line []byte) (reply, error) {
	var r reply
	if err := json.Unmarshal(bytes.TrimSpace(line), &r); err != nil {
		return reply{}, fmt.Errorf("malformed worker reply %q: %w", strings.TrimSpace(string(line)), err)
	}
	if !r.OK {
		if r.Error == "" {
			r.Error = "unknown worker error"
		}
		return r, errors.New(r.Error)
	}
	return r, nil
}

// Probe imports pix2tex in a short-lived worker and reports its versions.
func (b *Backend) Probe(ctx context.Context) (ocr.Versions, error) {
	cmd, err := b.command(ctx, "probe")
	if err != nil {
		return ocr.Versions{}, err
	}
	out, runErr := cmd.Output()

	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	last := lines[len(lines)-1]
	if len(last) == 0 {
		if runErr != nil {
			return ocr.Versions{}, fmt.Errorf("running python probe: %w", runErr)
		}
		return ocr.Versions{}, errors.New("python probe printed nothing")
	}
	r, err := parseReply(last)
	if err != nil {
		return ocr.Versions{}, err
	}
	return r.versions(), nil
}

// Load starts a serving worker and waits until the model is loaded.
func (b *Backend) Load(ctx context.Context) (ocr.Model, error) {
	// The worker outlives Load, so it must not be bound to ctx.
	cmd, err := b.command(context.WithoutCancel(ctx), "serve")
	if err != nil {
		return nil, err
	}
	w, err := startWorker(cmd, b.Timeout)
	if err != nil {
		return nil, err
	}

	line, err := w.next(ctx)
	if err != nil {
		_ = w.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("worker exited before the model was ready: %w", w.exitErr())
		}
		return nil, fmt.Errorf("waiting for worker: %w", err)
	}
	r, err := parseReply(line)
	if err != nil {
		_ = w.Close()
		if r.Stage != "" {
			return nil, fmt.Errorf("%s: %w", r.Stage, err)
		}
		return nil, err
	}
	w.versions = r.versions()
	return w, nil
}
