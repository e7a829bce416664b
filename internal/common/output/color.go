// Package output renders colored CLI summaries.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header  = color.New(color.FgWhite, color.Bold)
	Package = color.New(color.FgBlue, color.Bold)

	// Version colors
	Current   = color.New(color.FgGreen)
	Requested = color.New(color.FgYellow)
	Danger    = color.New(color.FgRed, color.Bold)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Printf("✓ "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	Warning.Printf("⚠ "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Printf("→ "+format+"\n", args...)
}

// FormatPackage formats "name (language)" with the name highlighted
func FormatPackage(name, language string) string {
	if language == "" {
		return Package.Sprint(name)
	}
	return Package.Sprint(name) + Dim.Sprintf(" (%s)", language)
}

// FormatVersions formats "requested → current" for an outdated dependency
func FormatVersions(requested, current string) string {
	if requested == "" {
		requested = "?"
	}
	return Requested.Sprint(requested) + " → " + Current.Sprint(current)
}

// FormatVulnerable returns a red marker for vulnerable packages, or "" otherwise
func FormatVulnerable(vulnerable bool) string {
	if !vulnerable {
		return ""
	}
	return Danger.Sprint("[vulnerable]")
}

// Section prints a bold title followed by a blank line
func Section(w io.Writer, title string) {
	fmt.Fprintln(w)
	Header.Fprintln(w, title)
	fmt.Fprintln(w)
}
