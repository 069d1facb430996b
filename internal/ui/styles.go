package ui

import "fmt"

// ANSI256 color codes.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorActive  = 167 // red, punishment in force
	colorRevoked = 107 // green, punishment lifted
	colorWarn    = 179 // yellow
)

var noColor bool

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorCmd, s)
}

// RenderStatus colors a punishment status: in-force red, lifted green,
// reinstated yellow, expired gray.
func RenderStatus(status string) string {
	if noColor {
		return status
	}
	var code int
	switch status {
	case "ACTIVE":
		code = colorActive
	case "REVERTED":
		code = colorRevoked
	case "REINSTATED":
		code = colorWarn
	default:
		code = colorMuted
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, status)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
