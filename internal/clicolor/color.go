// Package clicolor gates and applies the CLI's colored output, mirroring
// the terminal-support check of the Python original (spec §6,
// "Environment") and a red/green/yellow/blue/white palette drawn from
// its colors (the original's cyan has no counterpart here).
package clicolor

import (
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Supported reports whether w should receive ANSI styling: the platform
// is not Windows, or the environment advertises a Windows Terminal
// session via WT_SESSION/WT_PROFILE_ID, AND w is itself a terminal
// rather than a file or pipe. This mirrors the Python original's
// `'win' not in sys.platform or any(os.getenv(x) is not None for x in
// ('WT_SESSION', 'WT_PROFILE_ID'))` check, extended with an isatty
// probe so redirected output never receives escape codes.
func Supported(w io.Writer) bool {
	platformOK := runtime.GOOS != "windows" || os.Getenv("WT_SESSION") != "" || os.Getenv("WT_PROFILE_ID") != ""
	if !platformOK {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Palette holds the styles the CLI uses for diagnostics, replacing the
// original's raw ANSI escape table (r, g, y, b, c, w, z) with named
// lipgloss styles.
type Palette struct {
	Error   lipgloss.Style
	Warn    lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Label   lipgloss.Style
}

// New returns the styled Palette if w supports color, or a Palette whose
// styles render as plain text otherwise.
func New(w io.Writer) Palette {
	if !Supported(w) {
		return Palette{}
	}
	return Palette{
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),  // red
		Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // yellow
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")), // blue
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")), // green
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")), // white
	}
}
