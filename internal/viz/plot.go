// Package viz renders run series as terminal charts.
package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/plantsim/plantsim/internal/model"
)

const (
	plotHeight = 10
	plotWidth  = 80
)

// Series plots one time series with a caption.
func Series(values []float64, caption string) string {
	if len(values) < 2 {
		return fmt.Sprintf("%s: not enough samples to plot", caption)
	}
	return asciigraph.Plot(values,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)
}

// Sparkline is a compact single-series chart for dashboards.
func Sparkline(values []float64, width, height int) string {
	if len(values) < 2 {
		return ""
	}
	return asciigraph.Plot(values, asciigraph.Height(height), asciigraph.Width(width))
}

// Profile renders a layered snapshot as a horizontal bar per layer,
// surface first, for settler blanket inspection.
func Profile(snap model.Snapshot) string {
	if snap.Kind != model.KindLayered || len(snap.Values) == 0 {
		return ""
	}
	max := 0.0
	for _, v := range snap.Values {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		max = 1
	}

	const barWidth = 40
	var b strings.Builder
	for i, v := range snap.Values {
		label := fmt.Sprintf("layer %d", i+1)
		if i < len(snap.Labels) {
			label = snap.Labels[i]
		}
		filled := int(v / max * barWidth)
		fmt.Fprintf(&b, "%-10s %s%s %8.1f\n", label,
			strings.Repeat("#", filled), strings.Repeat(".", barWidth-filled), v)
	}
	return b.String()
}
