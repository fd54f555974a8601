// math/heading_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import "testing"

func TestNormalizeHeading(t *testing.T) {
	tests := []struct {
		in, want float32
	}{
		{0, 0}, {360, 0}, {720, 0}, {-10, 350}, {370, 10}, {180, 180},
	}
	for _, tc := range tests {
		if got := NormalizeHeading(tc.in); got != tc.want {
			t.Errorf("NormalizeHeading(%g) = %g, want %g", tc.in, got, tc.want)
		}
	}
}

func TestHeadingSignedDifference(t *testing.T) {
	tests := []struct {
		a, b, want float32
	}{
		{350, 10, 20},
		{10, 350, -20},
		{0, 180, 180},
		{180, 0, 180}, // wraps the other way but magnitude is the boundary case
		{90, 95, 5},
		{5, 355, -10},
	}
	for _, tc := range tests {
		if got := HeadingSignedDifference(tc.a, tc.b); got != tc.want {
			t.Errorf("HeadingSignedDifference(%g,%g) = %g, want %g", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestHeadingDifference(t *testing.T) {
	if d := HeadingDifference(350, 10); d != 20 {
		t.Errorf("HeadingDifference(350,10) = %g, want 20", d)
	}
	if d := HeadingDifference(10, 350); d != 20 {
		t.Errorf("HeadingDifference(10,350) = %g, want 20", d)
	}
}
