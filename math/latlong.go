// math/latlong.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import gomath "math"

// Point2LL is a point on the Earth's surface, stored as {longitude,
// latitude} in decimal degrees (longitude first, matching the rest of
// this package's [2]float32 convention).
type Point2LL [2]float32

func (p Point2LL) Longitude() float32 { return p[0] }
func (p Point2LL) Latitude() float32  { return p[1] }

const earthRadiusNM = 3440.065 // 6371km / 1.852

// NMDistance2LL returns the great-circle distance between two points in
// nautical miles via the haversine formula.
func NMDistance2LL(a, b Point2LL) float32 {
	lat1 := gomath.Pi / 180 * float64(a.Latitude())
	lat2 := gomath.Pi / 180 * float64(b.Latitude())
	dlat := lat2 - lat1
	dlon := gomath.Pi / 180 * float64(b.Longitude()-a.Longitude())

	x := gomath.Sin(dlat/2)*gomath.Sin(dlat/2) +
		gomath.Cos(lat1)*gomath.Cos(lat2)*gomath.Sin(dlon/2)*gomath.Sin(dlon/2)
	c := 2 * gomath.Atan2(gomath.Sqrt(x), gomath.Sqrt(1-x))

	return float32(earthRadiusNM * c)
}
