// math/latlong_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import "testing"

func TestNMDistance2LLZero(t *testing.T) {
	p := Point2LL{-73.7789, 40.6398}
	if d := NMDistance2LL(p, p); d < -1e-6 || d > 1e-6 {
		t.Errorf("distance between identical points: got %g, expected ~0", d)
	}
}

func TestNMDistance2LLSymmetric(t *testing.T) {
	a := Point2LL{-73.7789, 40.6398} // KJFK-ish
	b := Point2LL{-87.9048, 41.9786} // KORD-ish

	d1 := NMDistance2LL(a, b)
	d2 := NMDistance2LL(b, a)
	if diff := d1 - d2; diff < -1e-6 || diff > 1e-6 {
		t.Errorf("NMDistance2LL not symmetric: %g vs %g", d1, d2)
	}
	if d1 < 600 || d1 > 750 {
		t.Errorf("JFK-ORD distance %g nm outside sanity range", d1)
	}
}
