package colors

// Color is an ANSI SGR code.
type Color int

const (
	BLACK Color = iota + 30
	RED
	GREEN
	YELLOW
	BLUE
	MAGENTA
	CYAN
	WHITE

	BOLD      Color = 1
	DARK_GRAY Color = 90
)

// LEFT_ARROW is the glyph used in place of the "info" level name on the console.
const LEFT_ARROW = "⇾"
