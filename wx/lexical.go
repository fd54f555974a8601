// wx/lexical.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	cloudRe   = regexp.MustCompile(`\b(FEW|SCT|BKN|OVC|VV)(\d{3})(\w+)?\b`)
	weatherRe = regexp.MustCompile(`\b(` + strings.Join(WeatherTokens, "|") + `)\b`)
)

// ParseClouds scans text for all cloud-layer tokens (FEW/SCT/BKN/OVC/VV
// plus a three-digit base-altitude code), in the order they appear. Shared
// between the METAR and TAF parsers, which both recognise the same token
// shape.
func ParseClouds(text string) []CloudLayer {
	var clouds []CloudLayer
	for _, m := range cloudRe.FindAllStringSubmatch(text, -1) {
		base, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		clouds = append(clouds, CloudLayer{Coverage: CloudCoverage(m[1]), BaseFt: base * 100})
	}
	return clouds
}

// ParseWeatherTokens scans text for present-weather phenomenon codes from
// the fixed lexicon, in the order they appear, intensity prefixes stripped.
func ParseWeatherTokens(text string) []string {
	var tokens []string
	for _, m := range weatherRe.FindAllStringSubmatch(text, -1) {
		tokens = append(tokens, m[1])
	}
	return tokens
}
