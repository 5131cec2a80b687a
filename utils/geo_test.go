package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMidpointOfIdenticalPoints(t *testing.T) {
	lat, lng := Midpoint(42.6977, 23.3219, 42.6977, 23.3219)
	assert.InDelta(t, 42.6977, lat, 1e-9)
	assert.InDelta(t, 23.3219, lng, 1e-9)
}

func TestMidpointOnEquator(t *testing.T) {
	lat, lng := Midpoint(0, 0, 0, 90)
	assert.InDelta(t, 0, lat, 1e-9)
	assert.InDelta(t, 45, lng, 1e-9)
}

func TestMidpointIsSymmetric(t *testing.T) {
	lat1, lng1 := Midpoint(42.6977, 23.3219, 42.1354, 24.7453)
	lat2, lng2 := Midpoint(42.1354, 24.7453, 42.6977, 23.3219)
	assert.InDelta(t, lat1, lat2, 1e-9)
	assert.InDelta(t, lng1, lng2, 1e-9)
}

func TestMidpointIsBetween(t *testing.T) {
	lat, lng := Midpoint(42.6977, 23.3219, 42.1354, 24.7453)
	assert.Greater(t, lat, 42.1354)
	assert.Less(t, lat, 42.6977)
	assert.Greater(t, lng, 23.3219)
	assert.Less(t, lng, 24.7453)
}

func TestMidpointNormalizesLongitude(t *testing.T) {
	// Crossing the antimeridian keeps the result in [-180, 180).
	_, lng := Midpoint(0, 179, 0, -179)
	assert.GreaterOrEqual(t, lng, -180.0)
	assert.Less(t, lng, 180.0)
	assert.InDelta(t, 180, mathAbs(lng), 1e-6)
}

func mathAbs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
