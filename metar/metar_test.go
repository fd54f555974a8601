// metar/metar_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package metar

import (
	"testing"

	"github.com/ahunter-dev/fsweatherbridge/wx"
)

func TestParseTooShort(t *testing.T) {
	rec, err := Parse("KJFK 1")
	if err != ErrTooShort {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	if rec.Valid {
		t.Errorf("expected invalid record for too-short input")
	}
}

func TestParseClearDay(t *testing.T) {
	raw := "METAR KJFK 121200Z 12015KT 10SM FEW020 12/08 A2992"
	rec, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.Valid {
		t.Fatalf("expected valid record")
	}
	if rec.ICAO != "KJFK" {
		t.Errorf("ICAO = %q, want KJFK", rec.ICAO)
	}
	if rec.WindDirDeg == nil || *rec.WindDirDeg != 120 {
		t.Errorf("WindDirDeg = %v, want 120", rec.WindDirDeg)
	}
	if rec.WindSpeedKt == nil || *rec.WindSpeedKt != 15 {
		t.Errorf("WindSpeedKt = %v, want 15", rec.WindSpeedKt)
	}
	if rec.VisibilityNM == nil || *rec.VisibilityNM != 10 {
		t.Errorf("VisibilityNM = %v, want 10", rec.VisibilityNM)
	}
	if len(rec.Clouds) != 1 || rec.Clouds[0].Coverage != wx.FEW || rec.Clouds[0].BaseFt != 2000 {
		t.Errorf("Clouds = %+v, want one FEW/2000", rec.Clouds)
	}
	if rec.TemperatureC == nil || *rec.TemperatureC != 12 {
		t.Errorf("TemperatureC = %v, want 12", rec.TemperatureC)
	}
	if rec.DewpointC == nil || *rec.DewpointC != 8 {
		t.Errorf("DewpointC = %v, want 8", rec.DewpointC)
	}
	if rec.QNHhPa == nil {
		t.Fatalf("QNHhPa not set")
	}
	if got := *rec.QNHhPa; got < 1013.1 || got > 1013.3 {
		t.Errorf("QNHhPa = %v, want ~1013.2", got)
	}
}

func TestParseVRBWind(t *testing.T) {
	rec, _ := Parse("METAR KJFK 121200Z VRB05KT 10SM CLR 20/15 Q1013")
	if rec.WindDirDeg != nil {
		t.Errorf("WindDirDeg = %v, want nil for VRB", rec.WindDirDeg)
	}
	if rec.WindSpeedKt == nil || *rec.WindSpeedKt != 5 {
		t.Errorf("WindSpeedKt = %v, want 5", rec.WindSpeedKt)
	}
	if !rec.Valid {
		t.Errorf("expected valid (VRB wind still counts as wind present)")
	}
}

func TestParseGust(t *testing.T) {
	rec, _ := Parse("METAR KJFK 121200Z 12015G25KT 10SM CLR 20/15 Q1013")
	if rec.WindGustKt == nil || *rec.WindGustKt != 25 {
		t.Errorf("WindGustKt = %v, want 25", rec.WindGustKt)
	}
}

func TestParseCAVOK(t *testing.T) {
	rec, _ := Parse("METAR EGLL 121200Z 24010KT CAVOK 18/12 Q1020")
	if rec.VisibilityNM == nil || *rec.VisibilityNM != 10.0 {
		t.Errorf("VisibilityNM = %v, want 10.0 under CAVOK", rec.VisibilityNM)
	}
	if len(rec.Clouds) != 0 {
		t.Errorf("Clouds = %+v, want none under CAVOK", rec.Clouds)
	}
}

func TestParseVisibility4DigitMeters(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"METAR EHAM 121200Z 24010KT 9999 NSC 12/08 Q1013", 10.0},
		{"METAR EHAM 121200Z 24010KT 0400 FG 12/08 Q1013", 400 * 0.000539957},
	}
	for _, tc := range tests {
		rec, _ := Parse(tc.raw)
		if rec.VisibilityNM == nil {
			t.Fatalf("%q: visibility not parsed", tc.raw)
		}
		if diff := *rec.VisibilityNM - tc.want; diff < -1e-6 || diff > 1e-6 {
			t.Errorf("%q: visibility = %v, want %v", tc.raw, *rec.VisibilityNM, tc.want)
		}
	}
}

func TestParseVisibilityStatuteMiles(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"METAR KJFK 121200Z 12015KT 10SM FEW020 12/08 A2992", 10},
		{"METAR KJFK 121200Z 12015KT 1/2SM FG FEW020 12/08 A2992", 0.5},
		{"METAR KJFK 121200Z 12015KT M1/4SM FG FEW020 12/08 A2992", 0.25},
	}
	for _, tc := range tests {
		rec, _ := Parse(tc.raw)
		if rec.VisibilityNM == nil || *rec.VisibilityNM != tc.want {
			t.Errorf("%q: visibility = %v, want %v", tc.raw, rec.VisibilityNM, tc.want)
		}
	}
}

func TestParseNegativeTemperature(t *testing.T) {
	rec, _ := Parse("METAR PAFA 121200Z 00000KT 10SM CLR M05/M10 Q1013")
	if rec.TemperatureC == nil || *rec.TemperatureC != -5 {
		t.Errorf("TemperatureC = %v, want -5", rec.TemperatureC)
	}
	if rec.DewpointC == nil || *rec.DewpointC != -10 {
		t.Errorf("DewpointC = %v, want -10", rec.DewpointC)
	}
}

func TestParseQNHOverridesAltimeter(t *testing.T) {
	rec, _ := Parse("METAR EDDF 121200Z 24010KT 10SM CLR 12/08 A2992 Q1013")
	if rec.QNHhPa == nil || *rec.QNHhPa != 1013 {
		t.Errorf("QNHhPa = %v, want 1013 (Q overrides A)", rec.QNHhPa)
	}
}

func TestParseWeatherTokensOrder(t *testing.T) {
	rec, _ := Parse("METAR KSEA 121200Z 24010KT 3SM RA BR FEW020 12/08 Q1013")
	want := []string{"RA", "BR"}
	if len(rec.WeatherTokens) != len(want) {
		t.Fatalf("WeatherTokens = %v, want %v", rec.WeatherTokens, want)
	}
	for i := range want {
		if rec.WeatherTokens[i] != want[i] {
			t.Errorf("WeatherTokens[%d] = %q, want %q", i, rec.WeatherTokens[i], want[i])
		}
	}
}

func TestParseInvalidWithoutQNH(t *testing.T) {
	rec, _ := Parse("METAR KJFK 121200Z 12015KT 10SM FEW020 12/08")
	if rec.Valid {
		t.Errorf("expected invalid record when QNH is missing")
	}
}

func TestParseMultipleCloudLayersPreserveOrder(t *testing.T) {
	rec, _ := Parse("METAR KORD 121200Z 27015G25KT 10SM FEW020 SCT035 BKN060 12/08 Q1013")
	if len(rec.Clouds) != 3 {
		t.Fatalf("Clouds = %+v, want 3 layers", rec.Clouds)
	}
	wantCov := []wx.CloudCoverage{wx.FEW, wx.SCT, wx.BKN}
	wantBase := []int{2000, 3500, 6000}
	for i := range wantCov {
		if rec.Clouds[i].Coverage != wantCov[i] || rec.Clouds[i].BaseFt != wantBase[i] {
			t.Errorf("Clouds[%d] = %+v, want {%s %d}", i, rec.Clouds[i], wantCov[i], wantBase[i])
		}
	}
}
