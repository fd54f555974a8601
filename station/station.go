// station/station.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package station holds the fixed database of weather-reporting stations
// (ICAO code, position, name, country) used to find the observation sources
// nearest a simulated aircraft.
package station

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ahunter-dev/fsweatherbridge/math"
)

// Station is one row of the station database: an ICAO-coded weather
// reporting point with a fixed position.
type Station struct {
	ICAO    string
	Lat     float32
	Lon     float32
	Name    string
	Country string
}

// Location returns the station's position as a Point2LL for distance math.
func (s Station) Location() math.Point2LL {
	return math.Point2LL{s.Lon, s.Lat}
}

// DistanceTo returns the great-circle distance from the station to a point,
// in nautical miles.
func (s Station) DistanceTo(p math.Point2LL) float32 {
	return math.NMDistance2LL(s.Location(), p)
}

// Result pairs a station with its distance from the query point.
type Result struct {
	Station  Station
	Distance float32 // nautical miles
}

// Index is an immutable, in-memory station database. Once loaded it is
// safe for concurrent read access from multiple goroutines, since nothing
// about it changes after construction.
type Index struct {
	byICAO map[string]Station
	all    []Station // load order; distance ties are broken by ICAO, not by this order
}

// requiredFields is the set of CSV header names this loader expects one
// column each for, matched against the header row after each header name
// is trimmed and lowercased.
var requiredFields = []string{"icao", "lat", "lon", "name", "country"}

// Load reads a station database from CSV text (header row required: icao,
// lat, lon, name, country). Rows that fail to parse are skipped rather than
// aborting the whole load, matching how a field technician hand-editing the
// file would expect a single bad row to behave.
func Load(r io.Reader) (*Index, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return &Index{byICAO: map[string]Station{}}, nil
	} else if err != nil {
		return nil, fmt.Errorf("station: reading header: %w", err)
	}

	fieldIndex := make(map[string]int)
	for i, h := range header {
		fieldIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, f := range requiredFields {
		if _, ok := fieldIndex[f]; !ok {
			return nil, fmt.Errorf("station: missing required column %q", f)
		}
	}

	idx := &Index{byICAO: make(map[string]Station)}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("station: reading row: %w", err)
		}

		icao := strings.ToUpper(strings.TrimSpace(row[fieldIndex["icao"]]))
		if icao == "" {
			continue
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(row[fieldIndex["lat"]]), 32)
		lon, err2 := strconv.ParseFloat(strings.TrimSpace(row[fieldIndex["lon"]]), 32)
		if err1 != nil || err2 != nil {
			continue
		}

		s := Station{
			ICAO:    icao,
			Lat:     float32(lat),
			Lon:     float32(lon),
			Name:    strings.TrimSpace(row[fieldIndex["name"]]),
			Country: strings.TrimSpace(row[fieldIndex["country"]]),
		}
		if _, exists := idx.byICAO[icao]; !exists {
			idx.all = append(idx.all, s)
		}
		idx.byICAO[icao] = s
	}

	return idx, nil
}

// Get looks up a station by ICAO code, case-insensitively.
func (idx *Index) Get(icao string) (Station, bool) {
	s, ok := idx.byICAO[strings.ToUpper(strings.TrimSpace(icao))]
	return s, ok
}

// Len returns the number of distinct stations in the index.
func (idx *Index) Len() int {
	return len(idx.all)
}

// Nearest returns up to maxResults stations within radiusNM of (lat, lon),
// sorted nearest-first. If none are found and fallbackGlobal is set, it
// falls back to the nearest stations in the whole index regardless of
// radius, so a request for a remote area still gets a usable, if distant,
// observation source.
func (idx *Index) Nearest(lat, lon float32, radiusNM float32, maxResults int, fallbackGlobal bool) []Result {
	p := math.Point2LL{lon, lat}

	within := idx.withinRadius(p, radiusNM)
	if len(within) == 0 && fallbackGlobal {
		within = idx.withinRadius(p, float32(math.Max(radiusNM, 1e9)))
	}

	if maxResults > 0 && len(within) > maxResults {
		within = within[:maxResults]
	}
	return within
}

func (idx *Index) withinRadius(p math.Point2LL, radiusNM float32) []Result {
	var results []Result
	for _, s := range idx.all {
		d := s.DistanceTo(p)
		if d <= radiusNM {
			results = append(results, Result{Station: s, Distance: d})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Station.ICAO < results[j].Station.ICAO
	})
	return results
}
