//go:build !windows

package colors

import "fmt"

var enabled = true

// EnableColor turns ANSI coloring on. Unix terminals support ANSI escape codes without any setup.
func EnableColor() {
	enabled = true
}

// Colorize returns the string s wrapped in ANSI code c, or s unchanged if coloring is disabled.
func Colorize(s any, c Color) string {
	if !enabled {
		return fmt.Sprintf("%v", s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}
