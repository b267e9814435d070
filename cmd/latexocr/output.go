package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/julianknutsen/latexocr/internal/ocr"
	"github.com/julianknutsen/latexocr/internal/style"
)

// Output formats accepted by --output_format.
const (
	formatJSON  = "json"
	formatPlain = "plain"
)

// printer renders results on stdout.
type printer struct {
	w      io.Writer
	format string
}

// writeJSON writes v indented, leaving non-ASCII text and &<> unescaped.
func (p *printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

func (p *printer) envelope(env ocr.Envelope) error {
	if p.format == formatJSON {
		return p.writeJSON(env)
	}
	var err error
	if env.Success {
		_, err = fmt.Fprintln(p.w, env.LatexCode)
	} else {
		_, err = fmt.Fprintln(p.w, p.errorLine(env.Error))
	}
	return err
}

func (p *printer) result(r ocr.Result) error { return p.envelope(r.Envelope()) }

func (p *printer) failure(e *ocr.Error) error { return p.envelope(e.Envelope()) }

func (p *printer) version(v ocr.VersionInfo) error {
	if p.format == formatJSON {
		return p.writeJSON(v)
	}
	_, err := fmt.Fprintf(p.w, "LaTeX-OCR Version: %s\nPython Version: %s\n", v.ModelLibraryVersion, v.RuntimeVersion)
	return err
}

func (p *printer) test(r testReport) error {
	if p.format == formatJSON {
		return p.writeJSON(r)
	}
	_, err := fmt.Fprintf(p.w, "Test Result: %s\nInitialized: %t\n", r.TestResult, r.Initialized)
	return err
}

// errorLine styles the prefix only for terminals; piped consumers match on
// the literal "錯誤: ".
func (p *printer) errorLine(msg string) string {
	if style.IsTerminal(p.w) {
		return style.ErrorLine(msg)
	}
	return "錯誤: " + msg
}
