// obs/obs.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package obs defines the observation-source contract (§6): a collaborator
// that publishes raw METAR/TAF text keyed by ICAO, tagged with the time it
// was fetched. The core only ever reads these maps and re-parses the text
// itself; no implementation here parses anything beyond HTTP framing.
package obs

import (
	"context"
	"time"
)

// Entry is one cached raw observation and the time it was fetched.
type Entry struct {
	Raw       string
	FetchedAt time.Time
}

// Age returns how long ago the entry was fetched, relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Source fetches and caches raw METAR/TAF text for a set of stations. A
// Refresh call is a no-op if the cache is already fresher than maxAge;
// implementations decide what "fresh" means against their own fetch
// timestamp, not the core's.
type Source interface {
	// Refresh fetches new text for the given ICAOs if the source's cache
	// is older than maxAge. It must not block past its own internal
	// timeout and must leave any previously cached entries in place on
	// failure (graceful degradation, §7 TransportError).
	Refresh(ctx context.Context, icaos []string, maxAge time.Duration) error

	// METAR returns the most recently fetched raw METAR text for icao, if any.
	METAR(icao string) (Entry, bool)

	// TAF returns the most recently fetched raw TAF text for icao, if any.
	TAF(icao string) (Entry, bool)
}
