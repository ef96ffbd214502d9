package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-fretboard/theme"
)

// legendIntervals is the order intervals appear in the color legend
var legendIntervals = []string{"1", "b2", "2", "b3", "3", "4", "#4", "5", "b6", "6", "b7", "7"}

// RenderSwatch renders a single colored square
func RenderSwatch(hex string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("■")
}

// RenderLegendItem renders a single legend item: "■ name - description"
func RenderLegendItem(hex, name, desc string) string {
	if desc == "" {
		return fmt.Sprintf("%s %s", RenderSwatch(hex), name)
	}
	return fmt.Sprintf("%s %s - %s", RenderSwatch(hex), name, desc)
}

// RenderIntervalLegend lists the interval colors on one line
func RenderIntervalLegend() string {
	items := make([]string, 0, len(legendIntervals))
	for _, l := range legendIntervals {
		if c, ok := theme.IntervalColorFor(l); ok {
			items = append(items, RenderLegendItem(c.Fill, l, ""))
		}
	}
	return strings.Join(items, "  ")
}

// RenderLayerLegend names the default fill of each overlay layer
func RenderLayerLegend(th *theme.Theme) string {
	c := th.Layers()
	return strings.Join([]string{
		RenderLegendItem(c.Active, "playing", ""),
		RenderLegendItem(c.Footprint, "bar", ""),
		RenderLegendItem(c.Scale, "scale", ""),
		RenderLegendItem(c.Chord, "chord", ""),
	}, "  ")
}
