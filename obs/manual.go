// obs/manual.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package obs

import (
	"context"
	"strings"
	"time"
)

// ManualSource serves a single fixed METAR/TAF pair for the
// manual_weather.mode == "report" configuration (§6): Refresh is a no-op,
// since there is nothing to fetch, and the "fetched at" timestamp is
// pinned at construction so age-based staleness logic still behaves
// sensibly against it.
type ManualSource struct {
	icao      string
	metarRaw  string
	tafRaw    string
	fetchedAt time.Time
}

// NewManualSource builds a source that always reports the given raw METAR
// and TAF text for icao, regardless of what Refresh is asked to fetch.
func NewManualSource(icao, rawMETAR, rawTAF string, now time.Time) *ManualSource {
	return &ManualSource{
		icao:      strings.ToUpper(icao),
		metarRaw:  rawMETAR,
		tafRaw:    rawTAF,
		fetchedAt: now,
	}
}

func (m *ManualSource) Refresh(ctx context.Context, icaos []string, maxAge time.Duration) error {
	return nil
}

func (m *ManualSource) METAR(icao string) (Entry, bool) {
	if m.metarRaw == "" || !strings.EqualFold(icao, m.icao) {
		return Entry{}, false
	}
	return Entry{Raw: m.metarRaw, FetchedAt: m.fetchedAt}, true
}

func (m *ManualSource) TAF(icao string) (Entry, bool) {
	if m.tafRaw == "" || !strings.EqualFold(icao, m.icao) {
		return Entry{}, false
	}
	return Entry{Raw: m.tafRaw, FetchedAt: m.fetchedAt}, true
}
