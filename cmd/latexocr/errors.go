package main

import (
	"errors"
	"fmt"
	"io/fs"
)

// HintedError wraps an error with a user-facing recovery hint.
type HintedError struct {
	Err  error
	Hint string
}

func (h *HintedError) Error() string { return h.Err.Error() }
func (h *HintedError) Unwrap() error { return h.Err }

// configHint wraps a config-loading error with an appropriate recovery hint.
func configHint(err error) error {
	if err == nil {
		return nil
	}
	var hint string
	switch {
	case errors.Is(err, fs.ErrNotExist):
		hint = "Check the --config path, or omit it to use $XDG_CONFIG_HOME/latexocr/config.yaml."
	default:
		hint = "Run 'latexocr doctor' to check your setup."
	}
	return &HintedError{Err: fmt.Errorf("loading config: %w", err), Hint: hint}
}
