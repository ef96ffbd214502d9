package theme

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Tension groups interval colors by how far they pull from the chord
type Tension string

const (
	TensionStable  Tension = "stable"
	TensionMild    Tension = "mild"
	TensionStrong  Tension = "strong"
	TensionExtreme Tension = "extreme"
)

// IntervalColor is the fill and optional outline for one interval label
type IntervalColor struct {
	Fill    string
	Outline string
	Tension Tension
}

var intervalColors = map[string]IntervalColor{
	"1":  {Fill: "#ffffff", Outline: "#000000", Tension: TensionStable},
	"3":  {Fill: "#f2c14e", Tension: TensionStable},
	"b3": {Fill: "#f78154", Tension: TensionStable},
	"5":  {Fill: "#4d9de0", Tension: TensionStable},

	"2":  {Fill: "#7bc96f", Tension: TensionMild},
	"4":  {Fill: "#5fad56", Tension: TensionMild},
	"6":  {Fill: "#3bb7a8", Tension: TensionMild},
	"7":  {Fill: "#9c6ade", Tension: TensionMild},
	"b7": {Fill: "#b388eb", Tension: TensionMild},

	"b2": {Fill: "#e15554", Tension: TensionStrong},
	"#4": {Fill: "#d7263d", Tension: TensionStrong},
	"b5": {Fill: "#d7263d", Tension: TensionStrong},
	"b6": {Fill: "#c2185b", Tension: TensionStrong},
	"#5": {Fill: "#c2185b", Tension: TensionStrong},

	"#2":  {Fill: "#3a0ca3", Tension: TensionExtreme},
	"bb7": {Fill: "#240046", Tension: TensionExtreme},
	"b4":  {Fill: "#560bad", Tension: TensionExtreme},
	"#6":  {Fill: "#7209b7", Tension: TensionExtreme},
	"bb3": {Fill: "#480ca8", Tension: TensionExtreme},
}

// compound labels share the color of their simple interval
var compoundLabels = map[string]string{"8": "1", "9": "2", "11": "4", "13": "6"}

// IntervalColorFor looks up the color for a label such as "b3" or "#11"
func IntervalColorFor(label string) (IntervalColor, bool) {
	if c, ok := intervalColors[label]; ok {
		return c, true
	}
	digits := strings.TrimLeft(label, "#b")
	if simple, ok := compoundLabels[digits]; ok {
		c, ok := intervalColors[label[:len(label)-len(digits)]+simple]
		return c, ok
	}
	return IntervalColor{}, false
}

// ContrastText picks black or white text for a fill using WCAG relative
// luminance.
func ContrastText(fill string) string {
	c, err := colorful.Hex(fill)
	if err != nil {
		return "#ffffff"
	}
	if Luminance(c) > 0.179 {
		return "#000000"
	}
	return "#ffffff"
}

// Luminance is the WCAG relative luminance of a color
func Luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}
