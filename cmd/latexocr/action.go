package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/julianknutsen/latexocr/internal/config"
	"github.com/julianknutsen/latexocr/internal/crash"
	"github.com/julianknutsen/latexocr/internal/engine"
	"github.com/julianknutsen/latexocr/internal/log"
	"github.com/julianknutsen/latexocr/internal/ocr"
	"github.com/julianknutsen/latexocr/internal/style"
)

// Actions accepted by --action.
const (
	actionFile    = "process_file"
	actionBase64  = "process_base64"
	actionVersion = "version"
	actionTest    = "test"
)

var actions = []string{actionFile, actionBase64, actionVersion, actionTest}

type actionOptions struct {
	action     string
	imagePath  string
	base64Data string
	format     string
}

func (o actionOptions) validate() error {
	switch o.action {
	case "", actionFile, actionBase64, actionVersion, actionTest:
	default:
		return fmt.Errorf("invalid --action value %q: must be process_file, process_base64, version, or test", o.action)
	}
	switch o.format {
	case formatJSON, formatPlain:
	default:
		return fmt.Errorf("invalid --output_format value %q: must be json or plain", o.format)
	}
	return nil
}

// missingArgument reports the argument an action requires but lacks.
func (o actionOptions) missingArgument() *ocr.Error {
	switch {
	case o.action == actionFile && o.imagePath == "":
		return ocr.MissingImagePath()
	case o.action == actionBase64 && o.base64Data == "":
		return ocr.MissingBase64Data()
	}
	return nil
}

// backendFactory builds the recognition backend. Tests replace it.
var backendFactory = engine.New

// runAction performs one action and renders its outcome. Handled failures
// are rendered and return nil; failures that must exit 1 are rendered and
// return errExit.
func runAction(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, opts actionOptions) error {
	p := &printer{w: stdout, format: opts.format}

	if e := opts.missingArgument(); e != nil {
		if err := p.failure(e); err != nil {
			return err
		}
		return errExit
	}

	requestID := uuid.NewString()
	log.SetFields("request_id", requestID)
	if err := crash.Init(crash.Options{
		DSN:     cfg.SentryDSN,
		Release: "latexocr@" + version,
		Tags:    map[string]string{"backend": cfg.Backend, "action": opts.action, "request_id": requestID},
	}); err != nil {
		log.Warnf("crash reporting disabled: %v", err)
	}
	defer crash.Flush()

	a := &app{cfg: cfg, opts: opts, out: p, stderr: stderr}
	return a.dispatch(ctx)
}

type app struct {
	cfg    *config.Config
	opts   actionOptions
	out    *printer
	stderr io.Writer
}

// dispatch runs the action. Any panic becomes an unexpected-failure result.
func (a *app) dispatch(ctx context.Context) (err error) {
	defer func() {
		if v := recover(); v != nil {
			log.Errorf("panic during %s: %v\n%s", a.opts.action, v, debug.Stack())
			crash.ReportPanic(v)
			err = a.unexpected(v)
		}
	}()

	backend, err := backendFactory(a.cfg)
	if err != nil {
		crash.Report(err)
		return a.unexpected(err)
	}

	rec, err := ocr.Open(ctx, backend, ocr.WithLoadHook(a.spinner(backend.Name())))
	if err != nil {
		var oe *ocr.Error
		if !errors.As(err, &oe) {
			crash.Report(err)
			return a.unexpected(err)
		}
		log.Errorf("%s backend unavailable: %v", backend.Name(), err)
		if err := a.out.failure(oe); err != nil {
			return err
		}
		return errExit
	}
	defer func() {
		if cerr := rec.Close(); cerr != nil {
			log.Debugf("closing recognizer: %v", cerr)
		}
	}()

	switch a.opts.action {
	case actionVersion:
		return a.out.version(rec.VersionInfo())
	case actionTest:
		return a.out.test(newTestReport(rec, rec.Initialize(ctx)))
	case actionFile:
		return a.recognize(ctx, rec, ocr.FileRequest{Path: a.opts.imagePath})
	case actionBase64:
		return a.recognize(ctx, rec, ocr.Base64Request{Payload: a.opts.base64Data})
	}
	return a.unexpected(fmt.Errorf("unknown action %q", a.opts.action))
}

func (a *app) recognize(ctx context.Context, rec *ocr.Recognizer, req ocr.Request) error {
	res := rec.Recognize(ctx, req)
	if res.OK() {
		log.Infof("%s", res)
	} else {
		log.Warnf("%s", res)
	}
	return a.out.result(res)
}

// unexpected renders v as an unexpected failure and exits 1.
func (a *app) unexpected(v any) error {
	if err := a.out.failure(ocr.Unexpected(v)); err != nil {
		return err
	}
	return errExit
}

// spinner animates on stderr while the model loads.
func (a *app) spinner(backend string) func() func() {
	return func() func() {
		s := style.StartSpinner(a.stderr, fmt.Sprintf("Loading %s model...", backend))
		return s.Stop
	}
}

// testReport is the result of --action test.
type testReport struct {
	TestResult  string          `json:"test_result"`
	Initialized bool            `json:"initialized"`
	Version     ocr.VersionInfo `json:"version"`
	Error       string          `json:"error,omitempty"`
	Suggestion  string          `json:"suggestion,omitempty"`
}

func newTestReport(rec *ocr.Recognizer, initErr error) testReport {
	r := testReport{
		TestResult:  "success",
		Initialized: rec.Initialized(),
		Version:     rec.VersionInfo(),
	}
	if initErr != nil {
		log.Warnf("model initialization failed: %v", initErr)
		r.TestResult = "failed"
		r.Error = initErr.Error()
		var oe *ocr.Error
		if errors.As(initErr, &oe) {
			r.Suggestion = oe.Hint
		}
	}
	return r
}
