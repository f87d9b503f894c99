package server

import "fmt"

// ANSI colours for the DEV route listing
const (
	colourRed     = "\033[31m"
	colourGreen   = "\033[32m"
	colourYellow  = "\033[33m"
	colourBlue    = "\033[34m"
	colourMagenta = "\033[35m"
	colourCyan    = "\033[36m"
	colourGray    = "\033[90m"
	colourReset   = "\033[0m"
)

var methodColours = map[string]string{
	"GET":     colourGreen,
	"POST":    colourBlue,
	"PUT":     colourCyan,
	"DELETE":  colourYellow,
	"OPTIONS": colourMagenta,
}

// colourMethod pads method to a fixed width and wraps it in its colour
func colourMethod(method string) string {
	padded := fmt.Sprintf(" %-7s", method)
	colour, ok := methodColours[method]
	if !ok {
		colour = colourGray
	}
	return colour + padded + colourReset
}
