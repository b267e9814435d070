package main

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestHintedError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("something failed")
	h := &HintedError{Err: inner, Hint: "try again"}
	if !errors.Is(h, inner) {
		t.Error("HintedError should unwrap to inner error")
	}
}

func TestHintedError_ErrorString(t *testing.T) {
	inner := fmt.Errorf("boom")
	h := &HintedError{Err: inner, Hint: "fix it"}
	if h.Error() != "boom" {
		t.Errorf("Error() = %q, want %q", h.Error(), "boom")
	}
}

func TestConfigHint_Nil(t *testing.T) {
	if got := configHint(nil); got != nil {
		t.Errorf("configHint(nil) = %v, want nil", got)
	}
}

func TestConfigHint_MissingFile(t *testing.T) {
	err := configHint(fmt.Errorf("reading config x.yaml: %w", fs.ErrNotExist))
	var h *HintedError
	if !errors.As(err, &h) {
		t.Fatal("expected HintedError")
	}
	if h.Hint != "Check the --config path, or omit it to use $XDG_CONFIG_HOME/latexocr/config.yaml." {
		t.Errorf("unexpected hint: %s", h.Hint)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("should unwrap to fs.ErrNotExist")
	}
}

func TestConfigHint_Other(t *testing.T) {
	err := configHint(errors.New(`unknown backend "x"`))
	var h *HintedError
	if !errors.As(err, &h) {
		t.Fatal("expected HintedError")
	}
	if h.Hint != "Run 'latexocr doctor' to check your setup." {
		t.Errorf("unexpected hint: %s", h.Hint)
	}
	if h.Error() != `loading config: unknown backend "x"` {
		t.Errorf("Error() = %q", h.Error())
	}
}
