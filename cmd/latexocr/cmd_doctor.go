package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/latexocr/internal/config"
	"github.com/julianknutsen/latexocr/internal/engine/pix2tex"
	"github.com/julianknutsen/latexocr/internal/engine/pix2texapi"
	"github.com/julianknutsen/latexocr/internal/ocr"
	"github.com/julianknutsen/latexocr/internal/style"
	"github.com/julianknutsen/latexocr/internal/xdg"
)

const (
	probeTimeout = 60 * time.Second
	pingTimeout  = 3 * time.Second
)

func newDoctorCmd(stdout, _ io.Writer) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the recognition environment for common issues",
		Long: `Run diagnostic checks on the recognition environment.

Verifies the configuration, the Python interpreter, the pix2tex package,
the model directory, the pix2tex API server, and API keys for the
selected backend.

Use --check to exit non-zero if any check fails or warns (useful for CI).

Examples:
  latexocr doctor
  latexocr doctor --backend pix2tex-api
  latexocr doctor --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			configPath, _ := cmd.Flags().GetString("config")
			if configPath == "" {
				configPath = xdg.ConfigFile()
			}
			deps := &doctorDeps{
				cfg:        cfg,
				configPath: configPath,
				lookPath:   exec.LookPath,
				getenv:     os.Getenv,
				stat:       os.Stat,
				runVersion: pythonVersion,
				probe:      probePix2Tex,
				ping:       pingAPI,
			}
			return runDoctor(cmd.Context(), stdout, deps, check)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Exit non-zero if any warnings or failures")

	return cmd
}

// Check statuses. Skipped checks do not apply to the selected backend.
const (
	statusPass = "pass"
	statusWarn = "warn"
	statusFail = "fail"
	statusSkip = "skip"
)

// diagnostic holds a single check result.
type diagnostic struct {
	name    string
	status  string
	message string
	fixHint string // manual fix instructions
}

// doctorDeps holds injectable dependencies for testing.
type doctorDeps struct {
	cfg        *config.Config
	configPath string
	lookPath   func(string) (string, error)
	getenv     func(string) string
	stat       func(string) (os.FileInfo, error)
	runVersion func(python string) (string, error)
	probe      func(ctx context.Context, python, modelDir string) (ocr.Versions, error)
	ping       func(ctx context.Context, url string) error
}

func runDoctor(ctx context.Context, stdout io.Writer, deps *doctorDeps, check bool) error {
	results := runDoctorChecks(ctx, stdout, deps)

	if check {
		for _, d := range results {
			if d.status == statusFail || d.status == statusWarn {
				return errExit
			}
		}
	}
	return nil
}

func runDoctorChecks(ctx context.Context, stdout io.Writer, deps *doctorDeps) []diagnostic {
	var results []diagnostic
	add := func(d diagnostic) {
		printDiagnostic(stdout, d)
		results = append(results, d)
	}

	add(checkConfig(deps))

	d, python := checkPython(deps)
	add(d)
	if python != "" {
		add(checkPix2Tex(ctx, deps, python))
	}
	add(checkModelDir(deps))
	add(checkAPI(ctx, deps))

	add(checkKey(deps, config.BackendOpenAI, "OPENAI_API_KEY", deps.cfg.OpenAI.APIKey))
	add(checkKey(deps, config.BackendGemini, "GEMINI_API_KEY", deps.cfg.Gemini.APIKey))
	add(checkSentry(deps))

	return results
}

func printDiagnostic(w io.Writer, d diagnostic) {
	switch d.status {
	case statusPass:
		fmt.Fprintf(w, "  %s %s: %s\n", style.Success.Render(style.IconPass), d.name, d.message)
	case statusWarn:
		fmt.Fprintf(w, "  %s %s: %s\n", style.Warning.Render(style.IconWarn), d.name, d.message)
	case statusFail:
		fmt.Fprintf(w, "  %s %s: %s\n", style.Error.Render(style.IconFail), d.name, d.message)
	default:
		fmt.Fprintf(w, "  %s\n", style.Dim.Render("- "+d.name+": "+d.message))
	}
	if d.fixHint != "" && (d.status == statusFail || d.status == statusWarn) {
		fmt.Fprintf(w, "      %s\n", style.Dim.Render(d.fixHint))
	}
}

func checkConfig(deps *doctorDeps) diagnostic {
	source := "built-in defaults"
	if deps.configPath != "" {
		source = deps.configPath
	}
	return diagnostic{
		name:    "config",
		status:  statusPass,
		message: fmt.Sprintf("%s (backend %s)", source, deps.cfg.Backend),
	}
}

// checkPython resolves the interpreter and returns its path when usable.
func checkPython(deps *doctorDeps) (diagnostic, string) {
	if deps.cfg.Backend != config.BackendPix2Tex {
		return diagnostic{name: "python", status: statusSkip, message: "not used by backend " + deps.cfg.Backend}, ""
	}

	var path string
	var err error
	if cmd := deps.cfg.Python.Command; cmd != "" {
		path, err = deps.lookPath(cmd)
	} else {
		path, err = pix2tex.DetectPython(deps.lookPath)
	}
	if err != nil {
		return diagnostic{
			name: "python", status: statusFail, message: "not found in PATH",
			fixHint: "Install Python 3, or set python.command / LATEXOCR_PYTHON.",
		}, ""
	}
	ver, err := deps.runVersion(path)
	if err != nil {
		return diagnostic{name: "python", status: statusWarn, message: fmt.Sprintf("%s found but --version failed: %v", path, err)}, path
	}
	return diagnostic{name: "python", status: statusPass, message: fmt.Sprintf("%s (%s)", ver, path)}, path
}

func checkPix2Tex(ctx context.Context, deps *doctorDeps, python string) diagnostic {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	v, err := deps.probe(ctx, python, deps.cfg.Python.ModelDir)
	if err != nil {
		return diagnostic{
			name: "pix2tex", status: statusFail, message: err.Error(),
			fixHint: "Run: " + python + " -m pip install \"pix2tex[gui]\"",
		}
	}
	return diagnostic{name: "pix2tex", status: statusPass, message: "version " + v.Library}
}

func checkModelDir(deps *doctorDeps) diagnostic {
	if deps.cfg.Backend != config.BackendPix2Tex {
		return diagnostic{name: "model dir", status: statusSkip, message: "not used by backend " + deps.cfg.Backend}
	}
	dir := deps.cfg.Python.ModelDir
	fi, err := deps.stat(dir)
	if err != nil {
		return diagnostic{
			name: "model dir", status: statusWarn, message: fmt.Sprintf("%s not found", dir),
			fixHint: "Clone https://github.com/lukas-blecher/LaTeX-OCR there, or set python.model_dir / LATEXOCR_MODEL_DIR.",
		}
	}
	if !fi.IsDir() {
		return diagnostic{name: "model dir", status: statusFail, message: fmt.Sprintf("%s is not a directory", dir)}
	}
	return diagnostic{name: "model dir", status: statusPass, message: dir}
}

func checkAPI(ctx context.Context, deps *doctorDeps) diagnostic {
	if deps.cfg.Backend != config.BackendPix2TexAPI {
		return diagnostic{name: "pix2tex api", status: statusSkip, message: "not used by backend " + deps.cfg.Backend}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := deps.ping(ctx, deps.cfg.API.URL); err != nil {
		return diagnostic{
			name: "pix2tex api", status: statusFail, message: err.Error(),
			fixHint: "Start the server: python -m pix2tex.api.run",
		}
	}
	return diagnostic{name: "pix2tex api", status: statusPass, message: deps.cfg.API.URL + " is up"}
}

func checkKey(deps *doctorDeps, backend, env, value string) diagnostic {
	if value != "" {
		return diagnostic{name: env, status: statusPass, message: "set"}
	}
	if deps.cfg.Backend != backend {
		return diagnostic{name: env, status: statusSkip, message: "not set"}
	}
	return diagnostic{
		name: env, status: statusFail, message: "not set",
		fixHint: fmt.Sprintf("Export %s or set %s.api_key in the config file.", env, backend),
	}
}

func checkSentry(deps *doctorDeps) diagnostic {
	if deps.cfg.SentryDSN == "" && deps.getenv("SENTRY_DSN") == "" {
		return diagnostic{name: "SENTRY_DSN", status: statusSkip, message: "not set (crash reporting off)"}
	}
	return diagnostic{name: "SENTRY_DSN", status: statusPass, message: "set (crash reporting on)"}
}

func pythonVersion(python string) (string, error) {
	out, err := exec.Command(python, "--version").CombinedOutput()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func probePix2Tex(ctx context.Context, python, modelDir string) (ocr.Versions, error) {
	return pix2tex.New(python, modelDir, 0).Probe(ctx)
}

func pingAPI(ctx context.Context, url string) error {
	_, err := pix2texapi.New(url, pingTimeout).Load(ctx)
	return err
}
