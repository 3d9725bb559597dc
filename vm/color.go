package vm

import (
	"strings"

	"github.com/pterm/pterm"
)

// showColors maps the color names accepted by show(color) to terminal colors.
var showColors = map[string]pterm.Color{
	"black":   pterm.FgBlack,
	"red":     pterm.FgRed,
	"green":   pterm.FgGreen,
	"yellow":  pterm.FgYellow,
	"blue":    pterm.FgBlue,
	"magenta": pterm.FgMagenta,
	"purple":  pterm.FgMagenta,
	"cyan":    pterm.FgCyan,
	"white":   pterm.FgWhite,
	"gray":    pterm.FgGray,
	"grey":    pterm.FgGray,

	"bright_red":     pterm.FgLightRed,
	"bright_green":   pterm.FgLightGreen,
	"bright_yellow":  pterm.FgLightYellow,
	"bright_blue":    pterm.FgLightBlue,
	"bright_magenta": pterm.FgLightMagenta,
	"bright_cyan":    pterm.FgLightCyan,
	"bright_white":   pterm.FgLightWhite,
}

// IsColor reports whether name is a known show color.
func IsColor(name string) bool {
	_, ok := showColors[strings.ToLower(name)]
	return ok
}

// colorize wraps text in the named color. Unknown names leave text as is.
func colorize(name, text string) string {
	c, ok := showColors[strings.ToLower(name)]
	if !ok {
		return text
	}
	return c.Sprint(text)
}
