// Package style provides terminal styling for plain-text output and the
// doctor report.
package style

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPass = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorDim  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
)

// Semantic icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✖"
)

var (
	// Success marks passing checks.
	Success = newSuccess()
	// Warning marks checks that need attention.
	Warning = newWarning()
	// Error marks failures.
	Error = newError()
	// Dim marks secondary text.
	Dim = newDim()
)

func newSuccess() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorPass).Bold(true) }
func newWarning() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorWarn).Bold(true) }
func newError() lipgloss.Style   { return lipgloss.NewStyle().Foreground(colorFail).Bold(true) }
func newDim() lipgloss.Style     { return lipgloss.NewStyle().Foreground(colorDim) }

// SetColorMode applies the --color flag: "always", "never", or "auto".
func SetColorMode(mode string) {
	switch mode {
	case "never":
		_ = os.Setenv("NO_COLOR", "1")
		Success = lipgloss.NewStyle()
		Warning = lipgloss.NewStyle()
		Error = lipgloss.NewStyle()
		Dim = lipgloss.NewStyle()
	case "always":
		_ = os.Unsetenv("NO_COLOR")
		_ = os.Setenv("CLICOLOR_FORCE", "1")
		Success = newSuccess()
		Warning = newWarning()
		Error = newError()
		Dim = newDim()
	}
}

// ErrorLine renders the plain-text error line consumed by callers that
// match on the "錯誤: " prefix.
func ErrorLine(msg string) string {
	return Error.Render("錯誤:") + " " + msg
}
