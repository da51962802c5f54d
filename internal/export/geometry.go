package export

import (
	"math"

	"github.com/go-pdf/fpdf"
)

// wedge returns the polygon of a pie slice between two angles in degrees,
// measured clockwise from the positive x axis in page coordinates.
func wedge(cx, cy, radius, fromDeg, toDeg float64) []fpdf.PointType {
	steps := int(math.Ceil((toDeg-fromDeg)/2)) + 1
	if steps < 2 {
		steps = 2
	}

	points := make([]fpdf.PointType, 0, steps+1)
	points = append(points, fpdf.PointType{X: cx, Y: cy})
	for i := 0; i < steps; i++ {
		deg := fromDeg + (toDeg-fromDeg)*float64(i)/float64(steps-1)
		rad := deg * math.Pi / 180
		points = append(points, fpdf.PointType{
			X: cx + radius*math.Cos(rad),
			Y: cy + radius*math.Sin(rad),
		})
	}
	return points
}
