package gesture

import (
	"math"

	"github.com/dshills/composer/internal/input/pointer"
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// angleDeg returns the angle of p around c in degrees.
func angleDeg(p, c pointer.Point) float64 {
	return math.Atan2(p.Y-c.Y, p.X-c.X) * 180 / math.Pi
}

// NormalizeAngle maps deg into [-180, 180).
func NormalizeAngle(deg float64) float64 {
	r := math.Mod(deg+180, 360)
	if r < 0 {
		r += 360
	}
	return r - 180
}

// Snap rounds deg to the nearest multiple of step.
func Snap(deg, step float64) float64 {
	if step <= 0 {
		return deg
	}
	return math.Round(deg/step) * step
}

// rotate turns v by deg around the origin.
func rotate(v pointer.Point, deg float64) pointer.Point {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return pointer.Point{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}
