// taf/taf.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package taf implements a minimal, pragmatic parser for TAF forecast text:
// enough structure to extract a prevailing wind and an ordered list of FM
// (from) change groups, without attempting a full ICAO grammar.
package taf

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ahunter-dev/fsweatherbridge/wx"
)

// GroupKind identifies the kind of TAF change group.
type GroupKind string

const (
	KindPrevailing GroupKind = "PREVAILING"
	KindFM         GroupKind = "FM"
	KindTEMPO      GroupKind = "TEMPO"
	KindPROB       GroupKind = "PROB"
)

// Group is one section of a TAF: the prevailing conditions, or a
// subsequent FM change group. Parse emits only KindPrevailing and KindFM
// groups; TEMPO and PROB sections are not split out and stay in the text
// of the section that contains them.
type Group struct {
	Kind            GroupKind
	Start, End      *time.Time
	WindDirDeg      *float64
	WindSpeedKt     *float64
	WindGustKt      *float64
	VisibilityNM    *float64
	Clouds          []wx.CloudLayer
	WeatherTokens   []string
}

// Sample projects the fields the Combiner cares about when using this
// group as the basis of a target sample (the prevailing group, typically).
func (g Group) Sample() wx.Sample {
	return wx.Sample{
		WindDirDeg:    g.WindDirDeg,
		WindSpeedKt:   g.WindSpeedKt,
		WindGustKt:    g.WindGustKt,
		VisibilityNM:  g.VisibilityNM,
		Clouds:        append([]wx.CloudLayer(nil), g.Clouds...),
		WeatherTokens: append([]string(nil), g.WeatherTokens...),
	}
}

// Record is the structured result of parsing one TAF.
type Record struct {
	Raw string

	ICAO                         string
	IssueTime, ValidFrom, ValidTo *time.Time

	Prevailing Group
	Groups     []Group

	Valid bool
}

var (
	dateRe = regexp.MustCompile(`\b(\d{6})Z\b`)
	periodRe = regexp.MustCompile(`\b(\d{6})/(\d{6})Z\b`)
	windRe = regexp.MustCompile(`\b(\d{3}|VRB)(\d{2,3})(G(\d{2,3}))?KT\b`)
	fmRe = regexp.MustCompile(`\bFM(\d{6})Z\b`)
)

// ParseDate interprets a "DDHHMM" TAF date string against a base UTC time,
// applying ±15-day month-rollover correction the way the upstream forecast
// encoding expects (a TAF only ever names a day-of-month, never a month).
// A day past the end of the month rolled to is clamped to its last day.
func ParseDate(dateStr string, base time.Time) (time.Time, bool) {
	if len(dateStr) < 6 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(dateStr[0:2])
	hour, err2 := strconv.Atoi(dateStr[2:4])
	minute, err3 := strconv.Atoi(dateStr[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	result := time.Date(base.Year(), base.Month(), day, hour, minute, 0, 0, time.UTC)

	if result.After(base.AddDate(0, 0, 15)) {
		// Probably the previous month.
		prevMonth := base.Month() - 1
		year := base.Year()
		if base.Month() == time.January {
			prevMonth = time.December
			year--
		}
		if last := time.Date(year, prevMonth+1, 0, 0, 0, 0, 0, time.UTC).Day(); day > last {
			day = last
		}
		result = time.Date(year, prevMonth, day, hour, minute, 0, 0, time.UTC)
	} else if result.Before(base.AddDate(0, 0, -15)) {
		nextMonth := base.Month() + 1
		year := base.Year()
		if base.Month() == time.December {
			nextMonth = time.January
			year++
		}
		if last := time.Date(year, nextMonth+1, 0, 0, 0, 0, 0, time.UTC).Day(); day > last {
			day = last
		}
		result = time.Date(year, nextMonth, day, hour, minute, 0, 0, time.UTC)
	}

	return result, true
}

// Parse parses a raw TAF string against the given reference time (normally
// time.Now().UTC(), threaded through explicitly so tests are deterministic).
func Parse(raw string, now time.Time) Record {
	rec := Record{Raw: raw, Prevailing: Group{Kind: KindPrevailing}}
	if len(raw) < 10 {
		return rec
	}

	parts := strings.Fields(raw)
	if len(parts) >= 2 {
		if strings.ToUpper(parts[0]) == "TAF" {
			tok := strings.ToUpper(parts[1])
			if len(tok) > 4 {
				tok = tok[:4]
			}
			rec.ICAO = tok
		} else if len(parts[0]) == 4 {
			rec.ICAO = strings.ToUpper(parts[0])
		}
	}

	dates := dateRe.FindAllStringSubmatch(raw, -1)
	if len(dates) >= 1 {
		if t, ok := ParseDate(dates[0][1], now); ok {
			rec.IssueTime = &t
		}
	}
	if len(dates) >= 2 {
		if t, ok := ParseDate(dates[1][1], now); ok {
			rec.ValidFrom = &t
		}
	}
	if len(dates) >= 3 {
		if t, ok := ParseDate(dates[2][1], now); ok {
			rec.ValidTo = &t
		}
	} else if len(dates) >= 2 {
		if m := periodRe.FindStringSubmatch(raw); m != nil {
			if t, ok := ParseDate(m[1], now); ok {
				rec.ValidFrom = &t
			}
			if t, ok := ParseDate(m[2], now); ok {
				rec.ValidTo = &t
			}
		}
	}

	fms := fmRe.FindAllStringSubmatchIndex(raw, -1)

	prevailingText := raw
	if len(fms) > 0 {
		prevailingText = raw[:fms[0][0]]
	}
	parseGroupFields(&rec.Prevailing, prevailingText)
	for i, m := range fms {
		startStr := raw[m[2]:m[3]]
		start, _ := ParseDate(startStr, now)

		var end *time.Time
		if i+1 < len(fms) {
			nextStr := raw[fms[i+1][2]:fms[i+1][3]]
			if t, ok := ParseDate(nextStr, now); ok {
				end = &t
			}
		} else {
			end = rec.ValidTo
		}

		textStart := m[1] // end of the full "FMDDHHMMZ" match
		textEnd := len(raw)
		if i+1 < len(fms) {
			textEnd = fms[i+1][0]
		}
		groupText := raw[textStart:textEnd]

		group := Group{Kind: KindFM, Start: &start, End: end}
		parseGroupFields(&group, groupText)
		rec.Groups = append(rec.Groups, group)
	}

	rec.Valid = rec.ICAO != "" && rec.ValidFrom != nil

	return rec
}

// parseGroupFields fills in a group's wind, cloud and weather-token fields
// from its own text span. The source system only ever extracted wind for
// TAF groups; clouds and weather tokens are populated here too so the
// Combiner's TAF-fallback path (§4.4) has something to project besides wind.
func parseGroupFields(g *Group, text string) {
	if m := windRe.FindStringSubmatch(text); m != nil {
		if m[1] != "VRB" {
			if d, err := strconv.Atoi(m[1]); err == nil {
				v := float64(d)
				g.WindDirDeg = &v
			}
		}
		if s, err := strconv.ParseFloat(m[2], 64); err == nil {
			g.WindSpeedKt = &s
		}
		if m[4] != "" {
			if gst, err := strconv.ParseFloat(m[4], 64); err == nil {
				g.WindGustKt = &gst
			}
		}
	}

	g.Clouds = wx.ParseClouds(text)
	g.WeatherTokens = wx.ParseWeatherTokens(text)
}
