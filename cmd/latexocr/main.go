// latexocr recognizes LaTeX markup in images with a pretrained model and
// prints the result as JSON for other programs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/latexocr/internal/config"
	"github.com/julianknutsen/latexocr/internal/log"
	"github.com/julianknutsen/latexocr/internal/style"
)

// Version metadata injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errExit is a sentinel error returned by cobra RunE functions to signal
// non-zero exit. The command has already written its own output.
var errExit = errors.New("exit")

// run executes the latexocr CLI with the given args.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer log.Sync()

	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errExit) {
			fmt.Fprintf(stderr, "latexocr: %v\n", err) //nolint:errcheck // best-effort stderr
			var h *HintedError
			if errors.As(err, &h) && h.Hint != "" {
				fmt.Fprintf(stderr, "  %s\n", style.Dim.Render(h.Hint)) //nolint:errcheck // best-effort stderr
			}
		}
		return 1
	}
	return 0
}

// newRootCmd creates the root cobra command. The root command itself runs
// one recognition action; subcommands are auxiliary.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts actionOptions

	root := &cobra.Command{
		Use:   "latexocr --action <action> [flags]",
		Short: "Recognize LaTeX in images with a pretrained model",
		Long: `Recognize LaTeX markup in an image and print the result.

Actions:
  process_file     recognize the image at --image_path
  process_base64   recognize the base64 image in --base64_data
  version          print model library and runtime versions
  test             load the model and report whether it initialized

Results go to stdout as JSON (default) or plain text. Application-level
failures are reported inside the result and exit 0; a missing argument,
a missing model library, or an unexpected failure exits 1.

Examples:
  latexocr --action process_file --image_path formula.png
  latexocr --action process_base64 --base64_data "$(base64 -w0 formula.png)"
  latexocr --action version --output_format plain`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runAction(cmd.Context(), stdout, stderr, cfg, opts)
		},
	}

	root.Flags().StringVar(&opts.action, "action", "", "Action: process_file, process_base64, version, test")
	root.Flags().StringVar(&opts.imagePath, "image_path", "", "Image file path (process_file)")
	root.Flags().StringVar(&opts.base64Data, "base64_data", "", "Base64 image data, optionally a data: URL (process_base64)")
	root.Flags().StringVar(&opts.format, "output_format", formatJSON, "Output format: json, plain")
	_ = root.MarkFlagRequired("action")
	_ = root.MarkFlagFilename("image_path")

	root.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/latexocr/config.yaml)")
	root.PersistentFlags().String("backend", "", "Model backend: "+strings.Join(config.Backends, ", "))
	root.PersistentFlags().String("log-level", "", "Log level on stderr: debug, info, warn, error")
	root.PersistentFlags().String("color", "auto", "Color output: always, auto, never")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		colorMode, _ := cmd.Flags().GetString("color")
		switch colorMode {
		case "always", "auto", "never":
			style.SetColorMode(colorMode)
		default:
			return fmt.Errorf("invalid --color value %q: must be always, auto, or never", colorMode)
		}
		if cmd.HasParent() {
			return nil
		}
		return opts.validate()
	}
	registerCompletions(root)

	root.AddCommand(
		newDoctorCmd(stdout, stderr),
		newVersionCmd(stdout),
	)
	return root
}

// loadConfig reads the config file and environment, then applies the
// persistent flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, os.Getenv)
	if err != nil {
		return nil, configHint(err)
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Backend = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, configHint(err)
	}
	log.SetLevel(cfg.LogLevel)
	return cfg, nil
}
