// metar/metar.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package metar implements a pragmatic, non-ICAO-compliant parser for raw
// METAR observation text. It is a token-and-pattern parser, not a grammar:
// fields are recognised independently by regular expression, in whatever
// order they appear, and a record is always returned with its Valid flag
// reflecting whatever was actually found.
package metar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ahunter-dev/fsweatherbridge/wx"
)

// ErrTooShort is returned when the raw text is implausibly short to be a
// METAR at all.
var ErrTooShort = fmt.Errorf("metar: input too short")

// Record is the structured result of parsing one METAR observation.
type Record struct {
	Raw string

	ICAO string // empty if not found

	WindDirDeg  *float64 // absent for VRB; calm (00000KT) gives 0
	WindSpeedKt *float64
	WindGustKt  *float64

	VisibilityNM *float64

	TemperatureC *float64
	DewpointC    *float64

	QNHhPa        *float64
	AltimeterInHg *float64

	Clouds        []wx.CloudLayer
	WeatherTokens []string

	Valid bool
}

// Sample projects the fields the Combiner/Blender care about.
func (r Record) Sample() wx.Sample {
	return wx.Sample{
		WindDirDeg:    r.WindDirDeg,
		WindSpeedKt:   r.WindSpeedKt,
		WindGustKt:    r.WindGustKt,
		VisibilityNM:  r.VisibilityNM,
		TemperatureC:  r.TemperatureC,
		DewpointC:     r.DewpointC,
		QNHhPa:        r.QNHhPa,
		Clouds:        append([]wx.CloudLayer(nil), r.Clouds...),
		WeatherTokens: append([]string(nil), r.WeatherTokens...),
	}
}

var (
	windRe      = regexp.MustCompile(`\b(\d{3}|VRB)(\d{2,3})(G(\d{2,3}))?KT\b`)
	vis4Re      = regexp.MustCompile(`KT\s+(\d{4})(?:\s|$|[A-Z])`)
	visSMRe     = regexp.MustCompile(`KT\s+(\d{1,2}|\d{1,2}/\d{1,2}|M\d{1,2}/\d{1,2})(SM)?(?:\s|$|[A-Z])`)
	tempRe      = regexp.MustCompile(`\b(M?\d{2})/(M?\d{2})\b`)
	altimeterRe = regexp.MustCompile(`\bA(\d{4})\b`)
	qnhRe       = regexp.MustCompile(`\bQ(\d{4})\b`)
)

// Parse parses a raw METAR string. It never fails except on implausibly
// short input: any field it cannot find is simply left absent, and Valid
// reflects whether the minimum bar (ICAO, wind, and QNH) was met.
func Parse(raw string) (Record, error) {
	rec := Record{Raw: raw}
	if len(raw) < 10 {
		return rec, ErrTooShort
	}

	parts := strings.Fields(raw)
	if len(parts) >= 2 {
		if strings.ToUpper(parts[0]) == "METAR" {
			tok := strings.ToUpper(parts[1])
			if len(tok) > 4 {
				tok = tok[:4]
			}
			rec.ICAO = tok
		} else if len(parts[0]) == 4 {
			rec.ICAO = strings.ToUpper(parts[0])
		}
	}

	if m := windRe.FindStringSubmatch(raw); m != nil {
		if m[1] != "VRB" {
			if d, err := strconv.Atoi(m[1]); err == nil {
				rec.WindDirDeg = wx.Float64(float64(d))
			}
		}
		if s, err := strconv.ParseFloat(m[2], 64); err == nil {
			rec.WindSpeedKt = wx.Float64(s)
		}
		if m[4] != "" {
			if g, err := strconv.ParseFloat(m[4], 64); err == nil {
				rec.WindGustKt = wx.Float64(g)
			}
		}
	}

	cavok := strings.Contains(strings.ToUpper(raw), "CAVOK")
	if cavok {
		rec.VisibilityNM = wx.Float64(10.0)
	} else {
		parseVisibility(raw, &rec)
	}

	if m := tempRe.FindStringSubmatch(raw); m != nil {
		rec.TemperatureC = wx.Float64(parseTempToken(m[1]))
		rec.DewpointC = wx.Float64(parseTempToken(m[2]))
	}

	if m := altimeterRe.FindStringSubmatch(raw); m != nil {
		if a, err := strconv.ParseFloat(m[1], 64); err == nil {
			inhg := a / 100.0
			rec.AltimeterInHg = wx.Float64(inhg)
			rec.QNHhPa = wx.Float64(inhg * 33.8639)
		}
	}
	// Q#### overrides A#### when both are present, matching the order the
	// original parser applies them in.
	if m := qnhRe.FindStringSubmatch(raw); m != nil {
		if q, err := strconv.ParseFloat(m[1], 64); err == nil {
			rec.QNHhPa = wx.Float64(q)
			rec.AltimeterInHg = wx.Float64(q / 33.8639)
		}
	}

	if !cavok {
		rec.Clouds = wx.ParseClouds(raw)
	}
	rec.WeatherTokens = wx.ParseWeatherTokens(raw)

	rec.Valid = rec.ICAO != "" &&
		(rec.WindDirDeg != nil || rec.WindSpeedKt != nil) &&
		rec.QNHhPa != nil

	return rec, nil
}

func parseTempToken(tok string) float64 {
	neg := strings.HasPrefix(tok, "M")
	if neg {
		tok = tok[1:]
	}
	v, _ := strconv.ParseFloat(tok, 64)
	if neg {
		return -v
	}
	return v
}

func parseVisibility(raw string, rec *Record) {
	if m := vis4Re.FindStringSubmatch(raw); m != nil {
		visM, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return
		}
		if visM >= 9999 {
			rec.VisibilityNM = wx.Float64(10.0)
		} else {
			rec.VisibilityNM = wx.Float64(visM * 0.000539957)
		}
		return
	}

	m := visSMRe.FindStringSubmatch(raw)
	if m == nil {
		return
	}
	visStr, unit := m[1], m[2]

	var visNM float64
	haveValue := false
	if strings.Contains(visStr, "/") {
		s := visStr
		if strings.HasPrefix(s, "M") {
			s = s[1:]
		}
		fracParts := strings.SplitN(s, "/", 2)
		if len(fracParts) == 2 {
			num, errN := strconv.ParseFloat(fracParts[0], 64)
			den, errD := strconv.ParseFloat(fracParts[1], 64)
			if errN == nil && errD == nil && den != 0 {
				visNM = num / den
				haveValue = true
			}
		}
	} else {
		v, err := strconv.ParseFloat(visStr, 64)
		if err == nil {
			if unit == "" {
				v *= 0.000539957
			}
			visNM = v
			haveValue = true
		}
	}

	if haveValue {
		rec.VisibilityNM = wx.Float64(visNM)
	}
}
