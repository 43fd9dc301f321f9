// Package export renders recorded runs to files other tools can open.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/orrery/internal/frame"
)

var ErrNoFrames = errors.New("export: no frames")

var palette = []string{"#ffcc00", "#00ccff", "#ff6688", "#00ff88", "#cc88ff", "#ff8844"}

// TrajectoriesToSVG draws the x/y path of every body across frames and a disc
// at its last position. Body 0 is drawn first so orbiting bodies stay on top.
func TrajectoriesToSVG(w io.Writer, frames []frame.Frame, width, height int) error {
	if len(frames) == 0 || frames[0].Len() == 0 {
		return ErrNoFrames
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, f := range frames {
		for _, row := range f {
			minX, maxX = math.Min(minX, row[0]), math.Max(maxX, row[0])
			minY, maxY = math.Min(minY, row[1]), math.Max(maxY, row[1])
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	// one scale for both axes keeps orbits round
	scale := math.Min(float64(width)/rangeX, float64(height)/rangeY)
	px := func(x float64) float64 { return (x - minX) * scale }
	py := func(y float64) float64 { return float64(height) - (y-minY)*scale }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	last := frames[len(frames)-1]
	for body := 0; body < frames[0].Len(); body++ {
		color := palette[body%len(palette)]
		if len(frames) > 1 {
			fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1" stroke-opacity="0.6" d="M`, color)
			for i, f := range frames {
				if body >= f.Len() {
					break
				}
				if i > 0 {
					sb.WriteString(" L")
				}
				fmt.Fprintf(&sb, "%.1f,%.1f", px(f[body][0]), py(f[body][1]))
			}
			sb.WriteString("\"/>\n")
		}
		if body < last.Len() {
			row := last[body]
			r := math.Max(1.5, row[3]*scale)
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, px(row[0]), py(row[1]), r, color)
		}
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
