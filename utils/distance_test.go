package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKmZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(28.61, 77.20, 28.61, 77.20))
	assert.Equal(t, 0.0, DistanceKm(-33.86, 151.21, -33.86, 151.21))
}

func TestDistanceKmSymmetric(t *testing.T) {
	points := [][4]float64{
		{28.61, 77.20, 28.65, 77.25},
		{51.5074, -0.1278, 48.8566, 2.3522},
		{-89.9, 10, 89.9, -170},
		{0, 179.9, 0, -179.9},
	}
	for _, p := range points {
		assert.InDelta(t, DistanceKm(p[0], p[1], p[2], p[3]), DistanceKm(p[2], p[3], p[0], p[1]), 1e-9)
	}
}

func TestDistanceKmKnownValues(t *testing.T) {
	// London to Paris.
	assert.InDelta(t, 343.5, DistanceKm(51.5074, -0.1278, 48.8566, 2.3522), 1.0)
	// One degree of latitude.
	assert.InDelta(t, 111.19, DistanceKm(0, 0, 1, 0), 0.01)
	// Across the antimeridian is short, not half the planet.
	assert.Less(t, DistanceKm(0, 179.9, 0, -179.9), 25.0)
	// Antipodes.
	assert.InDelta(t, math.Pi*EarthRadiusKm, DistanceKm(0, 0, 0, 180), 1e-6)
}

func TestDistanceKmServiceRadius(t *testing.T) {
	d := DistanceKm(28.61, 77.20, 28.65, 77.25)
	assert.Greater(t, d, 5.0)

	d = DistanceKm(28.61, 77.20, 28.615, 77.205)
	assert.Less(t, d, 5.0)
}

func TestDistanceKmNaN(t *testing.T) {
	assert.True(t, math.IsNaN(DistanceKm(math.NaN(), 0, 0, 0)))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(0, 0))
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(90.01, 0))
	assert.False(t, ValidCoordinates(0, -180.5))
	assert.False(t, ValidCoordinates(math.NaN(), 0))
	assert.False(t, ValidCoordinates(0, math.Inf(1)))
}
