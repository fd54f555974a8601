// station/station_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package station

import (
	"strings"
	"testing"
)

const sampleCSV = `icao,lat,lon,name,country
KJFK,40.6398,-73.7789,John F Kennedy Intl,US
KLGA,40.7772,-73.8726,LaGuardia,US
KEWR,40.6925,-74.1687,Newark Liberty Intl,US
EGLL,51.4706,-0.4619,Heathrow,GB
,1.0,2.0,Bad Row Missing ICAO,US
KBAD,not-a-number,-73.0,Bad Row Bad Lat,US
`

func mustLoad(t *testing.T) *Index {
	t.Helper()
	idx, err := Load(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return idx
}

func TestLoadSkipsInvalidRows(t *testing.T) {
	idx := mustLoad(t)
	if idx.Len() != 4 {
		t.Fatalf("Len() = %d, want 4 (bad rows skipped)", idx.Len())
	}
}

func TestGetCaseInsensitive(t *testing.T) {
	idx := mustLoad(t)
	s, ok := idx.Get("kjfk")
	if !ok {
		t.Fatalf("expected KJFK to be found")
	}
	if s.Name != "John F Kennedy Intl" {
		t.Errorf("Name = %q, want John F Kennedy Intl", s.Name)
	}

	if _, ok := idx.Get("ZZZZ"); ok {
		t.Errorf("expected ZZZZ to be absent")
	}
}

func TestLoadMissingRequiredColumn(t *testing.T) {
	_, err := Load(strings.NewReader("icao,lat,lon,name\nKJFK,40.6,-73.7,JFK\n"))
	if err == nil {
		t.Fatalf("expected error for missing country column")
	}
}

func TestNearestSortedByDistance(t *testing.T) {
	idx := mustLoad(t)

	// Query point close to JFK/LGA/EWR, far from EGLL.
	results := idx.Nearest(40.7, -73.9, 50, 3, false)
	if len(results) == 0 {
		t.Fatalf("expected at least one nearby station")
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Distance > results[i].Distance {
			t.Errorf("results not sorted by distance at index %d", i)
		}
	}
	for _, r := range results {
		if r.Station.ICAO == "EGLL" {
			t.Errorf("EGLL should not be within 50nm of the NYC query point")
		}
	}
}

func TestNearestRespectsMaxResults(t *testing.T) {
	idx := mustLoad(t)
	results := idx.Nearest(40.7, -73.9, 50, 2, false)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
}

func TestNearestEmptyWithoutFallback(t *testing.T) {
	idx := mustLoad(t)
	// The middle of the Pacific Ocean, far from every sample station.
	results := idx.Nearest(0, -160, 50, 3, false)
	if len(results) != 0 {
		t.Errorf("expected no results without fallback, got %d", len(results))
	}
}

func TestNearestFallsBackGlobally(t *testing.T) {
	idx := mustLoad(t)
	results := idx.Nearest(0, -160, 50, 3, true)
	if len(results) == 0 {
		t.Fatalf("expected fallback to return the globally nearest stations")
	}
}

func TestNearestBreaksTiesByICAO(t *testing.T) {
	// Two stations at the exact same position: ties must resolve to
	// lexicographic ICAO order, not load order.
	const tiedCSV = `icao,lat,lon,name,country
ZZZZ,40.0,-73.0,Z Station,US
AAAA,40.0,-73.0,A Station,US
`
	idx, err := Load(strings.NewReader(tiedCSV))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	results := idx.Nearest(40.0, -73.0, 50, 2, false)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Station.ICAO != "AAAA" || results[1].Station.ICAO != "ZZZZ" {
		t.Errorf("tie-break order = [%s, %s], want [AAAA, ZZZZ]", results[0].Station.ICAO, results[1].Station.ICAO)
	}
}
