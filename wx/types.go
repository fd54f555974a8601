// wx/types.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package wx holds the data model shared by the parsing, combining,
// blending, smoothing and injection stages of the weather engine: cloud
// layers, the weather-phenomenon lexicon, and the optional-field sample
// types that flow between those stages.
package wx

// CloudCoverage is a METAR/TAF sky-condition code.
type CloudCoverage string

const (
	FEW CloudCoverage = "FEW"
	SCT CloudCoverage = "SCT"
	BKN CloudCoverage = "BKN"
	OVC CloudCoverage = "OVC"
	VV  CloudCoverage = "VV"
	SKC CloudCoverage = "SKC"
	CLR CloudCoverage = "CLR"
)

// CloudLayer is one reported sky-condition layer.
type CloudLayer struct {
	Coverage CloudCoverage
	BaseFt   int
}

// HasOvercast reports whether any layer in the set is BKN or OVC; used by
// the big-change detector, which treats the appearance or disappearance of
// a ceiling as significant regardless of the exact base height.
func HasOvercast(layers []CloudLayer) bool {
	for _, l := range layers {
		if l.Coverage == BKN || l.Coverage == OVC {
			return true
		}
	}
	return false
}

// WeatherTokens is the fixed lexicon of present-weather phenomenon codes
// recognised in METAR/TAF text. Intensity prefixes ("+"/"-") are stripped
// before matching and are not retained.
var WeatherTokens = []string{
	"RA", "SN", "TS", "BR", "FG", "DZ", "PL", "SG", "GR", "GS", "UP",
	"HZ", "FU", "VA", "DU", "SA", "PO", "SQ", "FC", "SS", "DS", "IC",
	"PE", "SH", "BL", "DR", "FZ", "MI", "BC", "PR", "VC", "RE",
}

// Source identifies which upstream observation(s) a Sample was derived from.
type Source string

const (
	SourceMETARonly    Source = "metar_only"
	SourceMETAR        Source = "metar"
	SourceMETARstale   Source = "metar_stale"
	SourceTAFfallback  Source = "taf_fallback"
	SourceBlended      Source = "blended"
	SourceNone         Source = "none"
)

// Sample is the common optional-field weather payload shared by parsed
// records, combiner output, the blend, and the smoother's published state.
// Every field is a pointer so presence and absence are distinguishable from
// zero, per the "never use a sentinel" design rule.
type Sample struct {
	WindDirDeg   *float64 // degrees true, [0,359]; nil for VRB (calm reports 0)
	WindSpeedKt  *float64
	WindGustKt   *float64
	VisibilityNM *float64
	TemperatureC *float64
	DewpointC    *float64
	QNHhPa       *float64

	Clouds        []CloudLayer
	WeatherTokens []string
}

// Clone returns a deep copy so callers can mutate the result without
// aliasing the receiver's pointers or slices.
func (s Sample) Clone() Sample {
	out := s
	out.WindDirDeg = clonePtr(s.WindDirDeg)
	out.WindSpeedKt = clonePtr(s.WindSpeedKt)
	out.WindGustKt = clonePtr(s.WindGustKt)
	out.VisibilityNM = clonePtr(s.VisibilityNM)
	out.TemperatureC = clonePtr(s.TemperatureC)
	out.DewpointC = clonePtr(s.DewpointC)
	out.QNHhPa = clonePtr(s.QNHhPa)
	out.Clouds = append([]CloudLayer(nil), s.Clouds...)
	out.WeatherTokens = append([]string(nil), s.WeatherTokens...)
	return out
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// TargetSample is the output of the Combiner/Blender: a Sample tagged with
// provenance.
type TargetSample struct {
	Sample
	Source    Source
	MetarUsed bool
	TafUsed   bool
}

// WeatherState is the Smoother's published output and the Controller's
// "last injected" record.
type WeatherState struct {
	Sample
	IsBigChange     bool
	IsVeryBigChange bool
}

// Initialized reports whether the three fields the freeze policy treats as
// "must be set before freeze can apply" are all present.
func (w WeatherState) Initialized() bool {
	return w.WindDirDeg != nil && w.WindSpeedKt != nil && w.QNHhPa != nil
}

func Float64(v float64) *float64 { return &v }

func DerefOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
