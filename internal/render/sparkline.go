package render

import (
	"math"
	"strings"
)

// Glyphs is the sparkline alphabet: a blank for missing data followed by
// eight bars of increasing height.
const Glyphs = " ▁▂▃▄▅▆▇█"

var glyphs = []rune(Glyphs)

// Glyph returns the bar for a normalized value in [0, 1]. Values outside
// the range are clamped; NaN renders as blank.
func Glyph(x float64) rune {
	if math.IsNaN(x) {
		return glyphs[0]
	}
	x = max(0, min(1, x))
	return glyphs[1+int(x*float64(len(glyphs)-2))]
}

// Sparkline renders normalized values as a run of bars.
func Sparkline(normalized []float64) string {
	var b strings.Builder
	b.Grow(len(normalized) * 3)
	for _, x := range normalized {
		b.WriteRune(Glyph(x))
	}
	return b.String()
}
