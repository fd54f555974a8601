// config/config.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package config loads, validates and saves the single AppConfig
// aggregate that drives every tunable named in §6's configuration
// surface. It is the one place in the core allowed a fatal error: a
// malformed config file at startup, reported in full via an
// util.ErrorLogger rather than stopping at the first problem found.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/utils/ptr"

	"github.com/ahunter-dev/fsweatherbridge/combine"
	"github.com/ahunter-dev/fsweatherbridge/smooth"
	"github.com/ahunter-dev/fsweatherbridge/util"
)

// ManualWeatherMode selects what manual_weather bypasses.
type ManualWeatherMode string

const (
	// ManualModeStation keeps fetching and station selection running
	// normally and adds the configured ICAO to the fetch list. RawMETAR/
	// RawTAF are not read in this mode; the target still comes from the
	// nearest selected station.
	ManualModeStation ManualWeatherMode = "station"
	// ManualModeReport bypasses both fetch and station selection: the
	// engine acts purely on RawMETAR/RawTAF for the configured ICAO.
	ManualModeReport ManualWeatherMode = "report"
)

type WeatherSourceConfig struct {
	MetarRefreshSeconds float64 `json:"metar_refresh_seconds"`
	TafRefreshSeconds   float64 `json:"taf_refresh_seconds"`
	CacheSeconds        float64 `json:"cache_seconds"`
}

type CombiningConfig struct {
	Mode                    combine.Mode `json:"mode"`
	TafFallbackStaleSeconds float64      `json:"taf_fallback_stale_seconds"`
}

type SmoothingConfig struct {
	TransitionMode smooth.TransitionMode `json:"transition_mode"`

	MaxWindDirChangeDeg    float64 `json:"max_wind_dir_change_deg"`
	MaxWindSpeedChangeKt   float64 `json:"max_wind_speed_change_kt"`
	MaxQNHChangeHpa        float64 `json:"max_qnh_change_hpa"`
	MaxVisibilityChangeNM  float64 `json:"max_visibility_change_nm"`

	TransitionIntervalSeconds float64 `json:"transition_interval_seconds"`
	VisibilityStepM           float64 `json:"visibility_step_m"`
	WindSpeedStepKt           float64 `json:"wind_speed_step_kt"`
	WindDirStepDeg            float64 `json:"wind_dir_step_deg"`
	QNHStepHpa                float64 `json:"qnh_step_hpa"`

	ApproachFreezeAltFt float64 `json:"approach_freeze_alt_ft"`

	BigChangeWindDeg     float64 `json:"big_change_wind_deg"`
	BigChangeWindSpeedKt float64 `json:"big_change_wind_speed_kt"`
	BigChangeQNHHpa      float64 `json:"big_change_qnh_hpa"`
}

// AsSmootherConfig projects the fields the smooth package's Config needs.
func (s SmoothingConfig) AsSmootherConfig() smooth.Config {
	return smooth.Config{
		TransitionMode:            s.TransitionMode,
		MaxWindDirChangeDeg:       s.MaxWindDirChangeDeg,
		MaxWindSpeedChangeKt:      s.MaxWindSpeedChangeKt,
		MaxQNHChangeHpa:           s.MaxQNHChangeHpa,
		MaxVisibilityChange:       s.MaxVisibilityChangeNM,
		TransitionIntervalSeconds: s.TransitionIntervalSeconds,
		VisibilityStepM:           s.VisibilityStepM,
		WindSpeedStepKt:           s.WindSpeedStepKt,
		WindDirStepDeg:            s.WindDirStepDeg,
		QNHStepHpa:                s.QNHStepHpa,
		ApproachFreezeAltFt:       s.ApproachFreezeAltFt,
		BigChangeWindDeg:          s.BigChangeWindDeg,
		BigChangeWindSpeedKt:      s.BigChangeWindSpeedKt,
		BigChangeQNHHpa:           s.BigChangeQNHHpa,
	}
}

type StationSelectionConfig struct {
	RadiusNM         float64 `json:"radius_nm"`
	MaxStations      int     `json:"max_stations"`
	FallbackToGlobal bool    `json:"fallback_to_global"`
}

type ManualWeatherConfig struct {
	Enabled  bool              `json:"enabled"`
	Mode     ManualWeatherMode `json:"mode"`
	ICAO     *string           `json:"icao,omitempty"`
	RawMETAR *string           `json:"raw_metar,omitempty"`
	RawTAF   *string           `json:"raw_taf,omitempty"`
	Freeze   bool              `json:"freeze"`
}

type BridgeConfig struct {
	DevMode                  bool    `json:"dev_mode"`
	AutoReconnect            bool    `json:"auto_reconnect"`
	ReconnectIntervalSeconds float64 `json:"reconnect_interval_seconds"`
}

type EngineConfig struct {
	TickSeconds float64 `json:"tick_seconds"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	Dir   string `json:"dir"`
}

// AppConfig is the complete set of recognised options from §6.
type AppConfig struct {
	StationDatabasePath string                 `json:"station_database_path"`
	WeatherSource       WeatherSourceConfig     `json:"weather_source"`
	Combining           CombiningConfig         `json:"weather_combining"`
	Smoothing           SmoothingConfig         `json:"smoothing"`
	StationSelection    StationSelectionConfig  `json:"station_selection"`
	ManualWeather       ManualWeatherConfig     `json:"manual_weather"`
	Bridge              BridgeConfig            `json:"bridge"`
	Engine              EngineConfig            `json:"engine"`
	Logging             LoggingConfig           `json:"logging"`
}

// Default returns the documented default configuration. Every field named
// in §6 that has a sensible out-of-the-box value is set here so a fresh
// install needs no config file at all.
func Default() AppConfig {
	return AppConfig{
		StationDatabasePath: "stations.csv",
		WeatherSource: WeatherSourceConfig{
			MetarRefreshSeconds: 30,
			TafRefreshSeconds:   300,
			CacheSeconds:        30,
		},
		Combining: CombiningConfig{
			Mode:                    combine.ModeMETARTAFFallback,
			TafFallbackStaleSeconds: 300,
		},
		Smoothing: SmoothingConfig{
			TransitionMode:        smooth.ModeStepLimited,
			MaxWindDirChangeDeg:   3,
			MaxWindSpeedChangeKt:  2,
			MaxQNHChangeHpa:       0.5,
			MaxVisibilityChangeNM: 0.5,

			TransitionIntervalSeconds: 30,
			VisibilityStepM:           400,
			WindSpeedStepKt:           2,
			WindDirStepDeg:            3,
			QNHStepHpa:                0.5,

			ApproachFreezeAltFt: 1000,

			BigChangeWindDeg:     45,
			BigChangeWindSpeedKt: 15,
			BigChangeQNHHpa:      3,
		},
		StationSelection: StationSelectionConfig{
			RadiusNM:         50,
			MaxStations:      3,
			FallbackToGlobal: true,
		},
		ManualWeather: ManualWeatherConfig{
			Enabled: false,
			Mode:    ManualModeStation,
			Freeze:  false,
		},
		Bridge: BridgeConfig{
			DevMode:                  false,
			AutoReconnect:            true,
			ReconnectIntervalSeconds: 5,
		},
		Engine: EngineConfig{
			TickSeconds: 1.0,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
	}
}

// DefaultPath returns ~/.fsweatherbridge/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home directory: %w", err)
	}
	return filepath.Join(home, ".fsweatherbridge", "config.json"), nil
}

// StatusPath returns ~/.fsweatherbridge/status.json, the file a running
// "run" instance publishes its latest status.Snapshot to and the "status"
// subcommand reads one-shot.
func StatusPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home directory: %w", err)
	}
	return filepath.Join(home, ".fsweatherbridge", "status.json"), nil
}

// Load reads path, overlaying it onto Default() so any field the file
// omits keeps its default value. If path does not exist, Default() is
// returned unmodified.
func Load(path string) (AppConfig, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return cfg, fmt.Errorf("config: opening %s: %w", path, err)
	}

	// A hand-edited config file is the likeliest place for a duplicate
	// key to slip in silently (encoding/json just keeps the last one);
	// flag it rather than let it pass unnoticed.
	for _, dup := range util.FindDuplicateJSONKeys(b) {
		where := dup.Path
		if where == "" {
			where = "<root>"
		}
		return cfg, fmt.Errorf("config: %s: duplicate key %q under %s", path, dup.Key, where)
	}

	if err := util.UnmarshalJSONBytes(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON, creating parent directories as needed.
func Save(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating directory for %s: %w", path, err)
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// Validate checks every bound named in §6's configuration surface,
// accumulating every problem found (rather than stopping at the first)
// into the returned ErrorLogger.
func Validate(cfg AppConfig) *util.ErrorLogger {
	el := &util.ErrorLogger{}

	el.Push("weather_source")
	if cfg.WeatherSource.MetarRefreshSeconds < 10 || cfg.WeatherSource.MetarRefreshSeconds > 60 {
		el.ErrorString("metar_refresh_seconds %.0f out of range [10,60]", cfg.WeatherSource.MetarRefreshSeconds)
	}
	if cfg.WeatherSource.TafRefreshSeconds < 1 || cfg.WeatherSource.TafRefreshSeconds > 600 {
		el.ErrorString("taf_refresh_seconds %.0f out of range [1,600]", cfg.WeatherSource.TafRefreshSeconds)
	}
	if cfg.WeatherSource.CacheSeconds < 0 || cfg.WeatherSource.CacheSeconds > 300 {
		el.ErrorString("cache_seconds %.0f out of range [0,300]", cfg.WeatherSource.CacheSeconds)
	}
	el.Pop()

	el.Push("weather_combining")
	switch cfg.Combining.Mode {
	case combine.ModeMETARonly, combine.ModeMETARTAFFallback, combine.ModeMETARTAFAssist:
	default:
		el.ErrorString("unrecognised mode %q", cfg.Combining.Mode)
	}
	el.Pop()

	el.Push("smoothing")
	switch cfg.Smoothing.TransitionMode {
	case smooth.ModeStepLimited, smooth.ModeTimeBased:
	default:
		el.ErrorString("unrecognised transition_mode %q", cfg.Smoothing.TransitionMode)
	}
	if cfg.Smoothing.TransitionIntervalSeconds < 10 || cfg.Smoothing.TransitionIntervalSeconds > 300 {
		el.ErrorString("transition_interval_seconds %.0f out of range [10,300]", cfg.Smoothing.TransitionIntervalSeconds)
	}
	el.Pop()

	el.Push("station_selection")
	if cfg.StationSelection.RadiusNM <= 0 {
		el.ErrorString("radius_nm must be positive, got %.1f", cfg.StationSelection.RadiusNM)
	}
	if cfg.StationSelection.MaxStations <= 0 {
		el.ErrorString("max_stations must be positive, got %d", cfg.StationSelection.MaxStations)
	}
	el.Pop()

	el.Push("manual_weather")
	if cfg.ManualWeather.Enabled {
		switch cfg.ManualWeather.Mode {
		case ManualModeStation, ManualModeReport:
		default:
			el.ErrorString("unrecognised mode %q", cfg.ManualWeather.Mode)
		}
		if ptr.Deref(cfg.ManualWeather.ICAO, "") == "" {
			el.ErrorString("icao is required when enabled")
		}
	}
	el.Pop()

	el.Push("bridge")
	if cfg.Bridge.ReconnectIntervalSeconds < 1 || cfg.Bridge.ReconnectIntervalSeconds > 60 {
		el.ErrorString("reconnect_interval_seconds %.0f out of range [1,60]", cfg.Bridge.ReconnectIntervalSeconds)
	}
	el.Pop()

	el.Push("logging")
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		el.ErrorString("unrecognised level %q", cfg.Logging.Level)
	}
	el.Pop()

	return el
}
