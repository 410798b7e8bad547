// Package output renders benchmark summaries to the terminal.
package output

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the colors used for the different summary elements.
type ColorScheme struct {
	Header  *color.Color
	Label   *color.Color
	Value   *color.Color
	Good    *color.Color
	Warn    *color.Color
	Bad     *color.Color
	Subtle  *color.Color
	Channel *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Header:  color.New(color.FgCyan, color.Bold),
		Label:   color.New(color.FgYellow),
		Value:   color.New(color.FgWhite),
		Good:    color.New(color.FgGreen),
		Warn:    color.New(color.FgYellow, color.Bold),
		Bad:     color.New(color.FgRed, color.Bold),
		Subtle:  color.New(color.Faint),
		Channel: color.New(color.FgMagenta, color.Bold),
	}
}

// NoColorScheme returns a color scheme with all colors disabled.
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()

	scheme.Header.DisableColor()
	scheme.Label.DisableColor()
	scheme.Value.DisableColor()
	scheme.Good.DisableColor()
	scheme.Warn.DisableColor()
	scheme.Bad.DisableColor()
	scheme.Subtle.DisableColor()
	scheme.Channel.DisableColor()

	return scheme
}

// SchemeFor picks the color scheme based on the noColor flag and whether
// stdout is a terminal.
func SchemeFor(noColor bool) *ColorScheme {
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		return NoColorScheme()
	}
	return DefaultColorScheme()
}
