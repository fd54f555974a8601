// blend/blend_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package blend

import (
	"math"
	"testing"

	"github.com/ahunter-dev/fsweatherbridge/wx"
)

func sample(windDir, windSpeed, qnh *float64, clouds []wx.CloudLayer, tokens []string) wx.TargetSample {
	return wx.TargetSample{
		Sample: wx.Sample{
			WindDirDeg:  windDir,
			WindSpeedKt: windSpeed,
			QNHhPa:      qnh,
			Clouds:      clouds,
			WeatherTokens: tokens,
		},
	}
}

func TestBlendEmptyYieldsSourceNone(t *testing.T) {
	out := Blend(nil)
	if out.Source != wx.SourceNone {
		t.Errorf("Source = %q, want none", out.Source)
	}
}

func TestBlendSingleStationPassesThroughScalars(t *testing.T) {
	st := Station{
		Sample:   sample(wx.Float64(120), wx.Float64(15), wx.Float64(1013.2), nil, nil),
		Distance: 2,
	}
	out := Blend([]Station{st})

	if out.Source != wx.SourceBlended {
		t.Errorf("Source = %q, want blended", out.Source)
	}
	if out.WindDirDeg == nil || *out.WindDirDeg < 119.9 || *out.WindDirDeg > 120.1 {
		t.Errorf("WindDirDeg = %v, want ~120", out.WindDirDeg)
	}
	if out.WindSpeedKt == nil || *out.WindSpeedKt != 15 {
		t.Errorf("WindSpeedKt = %v, want 15", out.WindSpeedKt)
	}
}

func TestBlendWindDirectionCircularMeanAcrossZero(t *testing.T) {
	// Two equidistant stations straddling due north: 350 and 010 should
	// average to 000, not to 180 as a naive arithmetic mean would give.
	a := Station{Sample: sample(wx.Float64(350), wx.Float64(10), nil, nil, nil), Distance: 5}
	b := Station{Sample: sample(wx.Float64(10), wx.Float64(10), nil, nil, nil), Distance: 5}

	out := Blend([]Station{a, b})

	if out.WindDirDeg == nil {
		t.Fatalf("expected a blended wind direction")
	}
	got := *out.WindDirDeg
	// Accept result near 0 or 360 (same heading, opposite ends of [0,360)).
	dist := math.Min(got, 360-got)
	if dist > 1.0 {
		t.Errorf("WindDirDeg = %v, want ~0 (circular mean of 350/010)", got)
	}
}

func TestBlendIgnoresStationsMissingAField(t *testing.T) {
	a := Station{Sample: sample(wx.Float64(100), wx.Float64(10), wx.Float64(1010), nil, nil), Distance: 1}
	b := Station{Sample: sample(nil, nil, nil, nil, nil), Distance: 1} // contributes nothing

	out := Blend([]Station{a, b})

	if out.WindSpeedKt == nil || *out.WindSpeedKt != 10 {
		t.Errorf("WindSpeedKt = %v, want 10 (station b should not drag the mean toward zero)", out.WindSpeedKt)
	}
}

func TestBlendTakesCloudsFromNearestStation(t *testing.T) {
	near := Station{
		Sample:   sample(wx.Float64(100), wx.Float64(10), nil, []wx.CloudLayer{{Coverage: wx.FEW, BaseFt: 2000}}, nil),
		Distance: 1,
	}
	far := Station{
		Sample:   sample(wx.Float64(110), wx.Float64(12), nil, []wx.CloudLayer{{Coverage: wx.OVC, BaseFt: 500}}, nil),
		Distance: 30,
	}

	out := Blend([]Station{far, near})

	if len(out.Clouds) != 1 || out.Clouds[0].Coverage != wx.FEW {
		t.Errorf("Clouds = %+v, want the nearer station's FEW layer", out.Clouds)
	}
}

func TestBlendWeatherTokensUnionAndSorted(t *testing.T) {
	a := Station{Sample: sample(nil, nil, nil, nil, []string{"RA", "BR"}), Distance: 1}
	b := Station{Sample: sample(nil, nil, nil, nil, []string{"FG"}), Distance: 1}

	out := Blend([]Station{a, b})

	want := []string{"BR", "FG", "RA"}
	if len(out.WeatherTokens) != len(want) {
		t.Fatalf("WeatherTokens = %v, want %v", out.WeatherTokens, want)
	}
	for i := range want {
		if out.WeatherTokens[i] != want[i] {
			t.Errorf("WeatherTokens[%d] = %q, want %q", i, out.WeatherTokens[i], want[i])
		}
	}
}

func TestBlendSourceFlagsAreOrAcrossStations(t *testing.T) {
	a := Station{Sample: wx.TargetSample{Sample: wx.Sample{}, MetarUsed: true}, Distance: 1}
	b := Station{Sample: wx.TargetSample{Sample: wx.Sample{}, TafUsed: true}, Distance: 1}

	out := Blend([]Station{a, b})

	if !out.MetarUsed || !out.TafUsed {
		t.Errorf("MetarUsed=%v TafUsed=%v, want both true", out.MetarUsed, out.TafUsed)
	}
}
