// Package location computes probe target coordinates from static printer
// configuration. All functions are pure; randomness is injected.
package location

import (
	"fmt"
	"math/rand"
)

// Point is an (x, y) bed coordinate in millimetres.
type Point struct {
	X float64
	Y float64
}

// String formats the point rounded to whole millimetres, e.g. "(25, 275)".
func (p Point) String() string {
	return fmt.Sprintf("(%.0f, %.0f)", p.X, p.Y)
}

// Bounds is an axis-aligned rectangle on the bed.
type Bounds struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Offset is the probe's mounting offset relative to the nozzle.
type Offset struct {
	X float64
	Y float64
}

// BedCenter returns the midpoint of the axis limits.
func BedCenter(axis Bounds) Point {
	return Point{
		X: (axis.XMin + axis.XMax) / 2,
		Y: (axis.YMin + axis.YMax) / 2,
	}
}

// RandomPoint returns a point sampled uniformly within [min+margin, max-margin]
// on each axis. An axis narrower than twice the margin collapses to its midpoint.
func RandomPoint(axis Bounds, margin float64, rng *rand.Rand) Point {
	return Point{
		X: uniform(axis.XMin+margin, axis.XMax-margin, rng),
		Y: uniform(axis.YMin+margin, axis.YMax-margin, rng),
	}
}

func uniform(lo, hi float64, rng *rand.Rand) float64 {
	if hi <= lo {
		return (lo + hi) / 2
	}
	return lo + rng.Float64()*(hi-lo)
}

// BedCorners returns the four mesh corners corrected by the probe offset, so
// that the probe rather than the nozzle lands on each corner.
// Order: back-left, back-right, front-left, front-right.
func BedCorners(mesh Bounds, offset Offset) [4]Point {
	xmin := mesh.XMin - offset.X
	ymin := mesh.YMin - offset.Y
	xmax := mesh.XMax - offset.X
	ymax := mesh.YMax - offset.Y
	return [4]Point{
		{X: xmin, Y: ymax},
		{X: xmax, Y: ymax},
		{X: xmin, Y: ymin},
		{X: xmax, Y: ymin},
	}
}
