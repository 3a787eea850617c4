package kernel

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// RotationAbout returns the matrix that rotates by Euler angles (degrees)
// about center, applying X first, then Y, then Z. Every backend uses it so
// that the same script places geometry identically.
func RotationAbout(center v3.Vec, x, y, z float64) sdf.M44 {
	rot := sdf.RotateZ(DegToRad(z)).Mul(sdf.RotateY(DegToRad(y))).Mul(sdf.RotateX(DegToRad(x)))
	return sdf.Translate3d(center).Mul(rot).Mul(sdf.Translate3d(center.Neg()))
}

// DegToRad converts degrees to radians.
func DegToRad(d float64) float64 {
	return d * math.Pi / 180.0
}
