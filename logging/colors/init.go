package colors

func init() {
	EnableColor()
}

// DisableColor turns ANSI coloring off for every ColorFunc.
func DisableColor() {
	enabled = false
}
