package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand_RequiresAction(t *testing.T) {
	isolateEnv(t)
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)
	if code != 1 {
		t.Errorf("run(nil) exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), `required flag(s) "action" not set`) {
		t.Errorf("stderr = %q, want required flag error", stderr.String())
	}
}

func TestRootCommand_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--help"}, &stdout, &stderr)
	if code != 0 {
		t.Errorf("run(--help) exit code = %d, want 0", code)
	}
	for _, want := range []string{"process_file", "process_base64", "--output_format"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestRootCommand_RejectsPositionalArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"nonexistent"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("run(nonexistent) exit code = %d, want 1", code)
	}
}

func TestRootCommand_InvalidFlagValues(t *testing.T) {
	isolateEnv(t)
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--action", "explode"}, `invalid --action value "explode"`},
		{[]string{"--action", "version", "--output_format", "xml"}, `invalid --output_format value "xml"`},
		{[]string{"--action", "version", "--color", "sometimes"}, `invalid --color value "sometimes"`},
		{[]string{"--action", "version", "--backend", "tesseract"}, `unknown backend "tesseract"`},
		{[]string{"--action", "version", "--log-level", "loud"}, `invalid log level "loud"`},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.want)
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout = %q, want empty", stdout.String())
			}
		})
	}
}

func TestRootCommand_FlagsOverrideBadEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LATEXOCR_BACKEND", "bogus")
	t.Setenv("LATEXOCR_LOG_LEVEL", "loud")
	useBackend(t, &fakeBackend{})

	var stdout, stderr bytes.Buffer
	code := run([]string{"--action", "version", "--backend", "pix2tex", "--log-level", "error"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"backend": "fake"`) {
		t.Errorf("stdout = %q", stdout.String())
	}

	stdout.Reset()
	stderr.Reset()
	if code := run([]string{"--action", "version"}, &stdout, &stderr); code != 1 {
		t.Errorf("without flags: exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), `unknown backend "bogus"`) {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRootCommand_ConfigErrorHasHint(t *testing.T) {
	isolateEnv(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"--action", "version", "--config", "/nonexistent/config.yaml"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	out := stderr.String()
	if !strings.Contains(out, "latexocr: loading config: reading config") {
		t.Errorf("stderr = %q", out)
	}
	if !strings.Contains(out, "Check the --config path") {
		t.Errorf("stderr missing hint: %q", out)
	}
}

func TestSubcommandRegistration(t *testing.T) {
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)

	for _, name := range []string{"doctor", "version"} {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not found on root command", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "latexocr dev (commit: unknown") {
		t.Errorf("stdout = %q", stdout.String())
	}
}
