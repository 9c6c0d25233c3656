package core

// Color represents a foreground color for a screen cell.
type Color uint8

// Colors used by the flappy renderer and HUD.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorCyan
	ColorWhite
	ColorBrightGreen
	ColorBrightYellow
	ColorGray
)
