// status/status.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package status defines the read-only snapshot the Engine Loop publishes
// once per tick (§6) for the out-of-scope UI observer and the CLI's
// "status" subcommand to consume. Nothing in the core subscribes to it;
// it is a one-way, swap-published value.
package status

import (
	"github.com/ahunter-dev/fsweatherbridge/wx"
)

// StationInfo is one entry in the nearby-stations list.
type StationInfo struct {
	ICAO       string  `json:"icao"`
	Name       string  `json:"name"`
	DistanceNM float64 `json:"distance_nm"`
}

// Observation is a raw observation's text and age, if one was available.
type Observation struct {
	Raw   string  `json:"raw"`
	AgeS  float64 `json:"age_s"`
}

// WeatherUpdate is one station's contribution to the current tick: its
// identity plus whichever of its METAR/TAF observations were available.
type WeatherUpdate struct {
	ICAO       string       `json:"icao"`
	Name       string       `json:"name"`
	DistanceNM float64      `json:"distance_nm"`
	METAR      *Observation `json:"metar,omitempty"`
	TAF        *Observation `json:"taf,omitempty"`
}

// AircraftState mirrors bridge.AircraftState for the snapshot, so the
// status package has no dependency on the bridge package's interfaces.
type AircraftState struct {
	LatDeg           float64 `json:"lat_deg"`
	LonDeg           float64 `json:"lon_deg"`
	AltFt            float64 `json:"alt_ft"`
	GroundSpeedKt    float64 `json:"gs_kt"`
	VerticalSpeedFpm float64 `json:"vs_fpm"`
	HeadingDeg       float64 `json:"heading_deg"`
	OnGround         bool    `json:"on_ground"`
}

// Snapshot is the full status payload emitted once per tick.
type Snapshot struct {
	BridgeConnected        bool             `json:"bridge_connected"`
	LastInjectionSuccess   *bool            `json:"last_injection_success,omitempty"`
	LastInjectionTimeMonoS *float64         `json:"last_injection_time,omitempty"`
	Stations               []StationInfo    `json:"stations"`
	WeatherUpdates         []WeatherUpdate  `json:"weather_updates"`
	CurrentWeatherSummary  *wx.WeatherState `json:"current_weather_summary,omitempty"`
	AircraftState          *AircraftState   `json:"aircraft_state,omitempty"`
	ManualMode             bool             `json:"manual_mode"`
	LastUpdateUnixS        float64          `json:"last_update"`
}
