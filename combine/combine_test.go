// combine/combine_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package combine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahunter-dev/fsweatherbridge/metar"
	"github.com/ahunter-dev/fsweatherbridge/taf"
	"github.com/ahunter-dev/fsweatherbridge/wx"
)

func mustMetar(t *testing.T, raw string) *metar.Record {
	t.Helper()
	rec, err := metar.Parse(raw)
	require.NoError(t, err)
	require.True(t, rec.Valid, "fixture METAR must parse valid: %q", raw)
	return &rec
}

func mustTaf(t *testing.T, raw string) *taf.Record {
	t.Helper()
	now := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)
	rec := taf.Parse(raw, now)
	require.True(t, rec.Valid, "fixture TAF must parse valid: %q", raw)
	return &rec
}

func TestCombineMetarOnlyUsesMetar(t *testing.T) {
	m := mustMetar(t, "METAR KJFK 121200Z 12015KT 10SM FEW020 12/08 A2992")

	out := Combine(Input{METAR: m, Mode: ModeMETARonly})

	assert.Equal(t, wx.SourceMETARonly, out.Source)
	assert.True(t, out.MetarUsed)
	assert.False(t, out.TafUsed)
	require.NotNil(t, out.WindDirDeg)
	assert.Equal(t, 120.0, *out.WindDirDeg)
}

func TestCombineMetarOnlyIgnoresTAF(t *testing.T) {
	ta := mustTaf(t, "TAF KJFK 151130Z 151200/161800Z 24012KT 6SM BKN020")

	out := Combine(Input{TAF: ta, Mode: ModeMETARonly})

	assert.Equal(t, wx.SourceNone, out.Source)
	assert.False(t, out.TafUsed)
}

func TestCombineFallbackUsesFreshMetar(t *testing.T) {
	m := mustMetar(t, "METAR KJFK 121200Z 12015KT 10SM FEW020 12/08 A2992")
	age := 60.0

	out := Combine(Input{
		METAR:             m,
		Mode:              ModeMETARTAFFallback,
		MetarAgeSeconds:   &age,
		TafFallbackStaleS: 300,
	})

	assert.Equal(t, wx.SourceMETAR, out.Source)
	assert.True(t, out.MetarUsed)
}

func TestCombineFallbackUsesTAFWhenMetarStale(t *testing.T) {
	m := mustMetar(t, "METAR KJFK 121200Z 12015KT 10SM FEW020 12/08 A2992")
	ta := mustTaf(t, "TAF KJFK 151130Z 151200/161800Z 24010KT 6SM BKN020")
	age := 1200.0

	out := Combine(Input{
		METAR:             m,
		TAF:               ta,
		Mode:              ModeMETARTAFFallback,
		MetarAgeSeconds:   &age,
		TafFallbackStaleS: 300,
	})

	assert.Equal(t, wx.SourceTAFfallback, out.Source)
	assert.True(t, out.TafUsed)
	assert.False(t, out.MetarUsed)
	require.NotNil(t, out.WindDirDeg)
	assert.Equal(t, 240.0, *out.WindDirDeg)
}

func TestCombineFallbackUsesStaleMetarAsLastResort(t *testing.T) {
	m := mustMetar(t, "METAR KJFK 121200Z 12015KT 10SM FEW020 12/08 A2992")
	age := 1200.0

	out := Combine(Input{
		METAR:             m,
		Mode:              ModeMETARTAFFallback,
		MetarAgeSeconds:   &age,
		TafFallbackStaleS: 300,
	})

	assert.Equal(t, wx.SourceMETARstale, out.Source)
	assert.True(t, out.MetarUsed)
}

func TestCombineFallbackNoneWhenNothingValid(t *testing.T) {
	out := Combine(Input{Mode: ModeMETARTAFFallback})
	assert.Equal(t, wx.SourceNone, out.Source)
}

func TestCombineAssistPrefersMetarButMarksTafUsed(t *testing.T) {
	m := mustMetar(t, "METAR KJFK 121200Z 12015KT 10SM FEW020 12/08 A2992")
	ta := mustTaf(t, "TAF KJFK 151130Z 151200/161800Z 24010KT 6SM BKN020")

	out := Combine(Input{METAR: m, TAF: ta, Mode: ModeMETARTAFAssist})

	assert.Equal(t, wx.SourceMETAR, out.Source)
	assert.True(t, out.MetarUsed)
	assert.True(t, out.TafUsed)
	require.NotNil(t, out.WindDirDeg)
	assert.Equal(t, 120.0, *out.WindDirDeg, "assist mode must not let TAF override METAR wind")
}

func TestCombineAssistFallsBackToTafWithoutMetar(t *testing.T) {
	ta := mustTaf(t, "TAF KJFK 151130Z 151200/161800Z 24010KT 6SM BKN020")

	out := Combine(Input{TAF: ta, Mode: ModeMETARTAFAssist})

	assert.Equal(t, wx.SourceTAFfallback, out.Source)
	assert.True(t, out.TafUsed)
	assert.False(t, out.MetarUsed)
}
