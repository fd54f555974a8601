// combine/combine.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package combine fuses one station's METAR and TAF into a single target
// sample according to a configured combining policy.
package combine

import (
	"github.com/ahunter-dev/fsweatherbridge/metar"
	"github.com/ahunter-dev/fsweatherbridge/taf"
	"github.com/ahunter-dev/fsweatherbridge/wx"
)

// Mode selects how METAR and TAF are fused.
type Mode string

const (
	// ModeMETARonly uses METAR exclusively; TAF is ignored entirely.
	ModeMETARonly Mode = "metar_only"
	// ModeMETARTAFFallback uses METAR while it is fresh, falls back to TAF
	// prevailing conditions while METAR is stale or absent, and falls back
	// to a stale METAR as a last resort before giving up.
	ModeMETARTAFFallback Mode = "metar_taf_fallback"
	// ModeMETARTAFAssist always prefers METAR when valid, but also marks
	// TAF as consulted (for callers that use it as smoothing guidance)
	// without letting it override any METAR field.
	ModeMETARTAFAssist Mode = "metar_taf_assist"
)

// Input bundles the optional parsed records and policy parameters needed to
// produce one combined target sample.
type Input struct {
	METAR             *metar.Record
	TAF                *taf.Record
	Mode              Mode
	MetarAgeSeconds   *float64 // nil when no METAR age is known
	TafFallbackStaleS float64  // staleness cutoff, seconds
}

// Combine fuses the given METAR/TAF pair per the configured mode. It never
// errors: a fully empty Input simply yields a TargetSample with
// Source == wx.SourceNone.
func Combine(in Input) wx.TargetSample {
	switch in.Mode {
	case ModeMETARTAFFallback:
		return combineFallback(in)
	case ModeMETARTAFAssist:
		return combineAssist(in)
	default: // ModeMETARonly and any unrecognised mode behave the same way
		return combineMetarOnly(in)
	}
}

func combineMetarOnly(in Input) wx.TargetSample {
	if validMETAR(in.METAR) {
		return fromMetar(in.METAR, wx.SourceMETARonly)
	}
	return wx.TargetSample{Source: wx.SourceNone}
}

func combineFallback(in Input) wx.TargetSample {
	stale := in.MetarAgeSeconds != nil && *in.MetarAgeSeconds > in.TafFallbackStaleS

	if validMETAR(in.METAR) && !stale {
		return fromMetar(in.METAR, wx.SourceMETAR)
	}
	if validTAF(in.TAF) {
		return fromTafPrevailing(in.TAF, wx.SourceTAFfallback)
	}
	if validMETAR(in.METAR) {
		return fromMetar(in.METAR, wx.SourceMETARstale)
	}
	return wx.TargetSample{Source: wx.SourceNone}
}

func combineAssist(in Input) wx.TargetSample {
	if validMETAR(in.METAR) {
		out := fromMetar(in.METAR, wx.SourceMETAR)
		out.TafUsed = validTAF(in.TAF)
		return out
	}
	if validTAF(in.TAF) {
		return fromTafPrevailing(in.TAF, wx.SourceTAFfallback)
	}
	return wx.TargetSample{Source: wx.SourceNone}
}

func validMETAR(m *metar.Record) bool { return m != nil && m.Valid }
func validTAF(t *taf.Record) bool     { return t != nil && t.Valid }

func fromMetar(m *metar.Record, source wx.Source) wx.TargetSample {
	return wx.TargetSample{
		Sample:    m.Sample(),
		Source:    source,
		MetarUsed: true,
	}
}

func fromTafPrevailing(t *taf.Record, source wx.Source) wx.TargetSample {
	return wx.TargetSample{
		Sample:  t.Prevailing.Sample(),
		Source:  source,
		TafUsed: true,
	}
}
