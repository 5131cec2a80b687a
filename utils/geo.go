package utils

import "math"

// Midpoint returns the great-circle midpoint between two coordinates.
// Deterministic: the reveal fallback needs identical output for identical
// inputs.
func Midpoint(lat1, lng1, lat2, lng2 float64) (float64, float64) {
	rad := math.Pi / 180.0

	phi1 := lat1 * rad
	phi2 := lat2 * rad
	lam1 := lng1 * rad
	dLam := (lng2 - lng1) * rad

	bx := math.Cos(phi2) * math.Cos(dLam)
	by := math.Cos(phi2) * math.Sin(dLam)

	phiM := math.Atan2(
		math.Sin(phi1)+math.Sin(phi2),
		math.Sqrt((math.Cos(phi1)+bx)*(math.Cos(phi1)+bx)+by*by),
	)
	lamM := lam1 + math.Atan2(by, math.Cos(phi1)+bx)

	// Normalize longitude to [-180, 180)
	lngM := math.Mod(lamM/rad+540, 360) - 180

	return phiM / rad, lngM
}
