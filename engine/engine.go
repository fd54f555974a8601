// engine/engine.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package engine implements the Engine Loop (C8): the per-tick
// orchestration that reads the aircraft's position, selects nearby
// stations, refreshes observations, combines/blends them into a target
// sample, smooths it, gates and dispatches injections, and publishes a
// status snapshot. It owns every other component value explicitly; there
// are no package-level singletons.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ahunter-dev/fsweatherbridge/blend"
	"github.com/ahunter-dev/fsweatherbridge/bridge"
	"github.com/ahunter-dev/fsweatherbridge/combine"
	"github.com/ahunter-dev/fsweatherbridge/config"
	"github.com/ahunter-dev/fsweatherbridge/inject"
	"github.com/ahunter-dev/fsweatherbridge/log"
	"github.com/ahunter-dev/fsweatherbridge/metar"
	"github.com/ahunter-dev/fsweatherbridge/obs"
	"github.com/ahunter-dev/fsweatherbridge/smooth"
	"github.com/ahunter-dev/fsweatherbridge/station"
	"github.com/ahunter-dev/fsweatherbridge/status"
	"github.com/ahunter-dev/fsweatherbridge/taf"
	"github.com/ahunter-dev/fsweatherbridge/wx"
)

// Engine owns every stateful collaborator the tick needs: the Smoother,
// the Injection Controller, the immutable Station Index, and the external
// Injector/ObservationSource/Reader capabilities. It has no package-level
// state of its own.
type Engine struct {
	cfg config.AppConfig
	log *log.Logger

	stations  *station.Index
	obsSource obs.Source
	reader    bridge.Reader
	cached    *bridge.CachedReader
	injector  bridge.Injector

	smoother   *smooth.Smoother
	controller *inject.Controller

	status atomic.Pointer[status.Snapshot]
}

// New constructs an Engine from its configuration and external
// collaborators. The Smoother and Injection Controller are built fresh
// (no persisted smoothing state across restarts, per §1 Non-goals).
func New(cfg config.AppConfig, lg *log.Logger, stations *station.Index, src obs.Source, reader bridge.Reader, injector bridge.Injector) *Engine {
	cached := bridge.NewCachedReader(reader)
	return &Engine{
		cfg:        cfg,
		log:        lg,
		stations:   stations,
		obsSource:  src,
		reader:     reader,
		cached:     cached,
		injector:   injector,
		smoother:   smooth.New(cfg.Smoothing.AsSmootherConfig()),
		controller: inject.New(controllerConfig(cfg), lg),
	}
}

func controllerConfig(cfg config.AppConfig) inject.Config {
	return inject.Config{
		TransitionMode:            cfg.Smoothing.TransitionMode,
		TransitionIntervalSeconds: cfg.Smoothing.TransitionIntervalSeconds,
		MetarRefreshSeconds:       cfg.WeatherSource.MetarRefreshSeconds,
		WindSpeedStepKt:           cfg.Smoothing.WindSpeedStepKt,
		WindDirStepDeg:            cfg.Smoothing.WindDirStepDeg,
		QNHStepHpa:                cfg.Smoothing.QNHStepHpa,
		VisibilityStepM:           cfg.Smoothing.VisibilityStepM,
	}
}

// Status returns the most recently published snapshot, or the zero value
// if no tick has completed yet.
func (e *Engine) Status() status.Snapshot {
	if s := e.status.Load(); s != nil {
		return *s
	}
	return status.Snapshot{}
}

// manualReportMode reports whether manual_weather.mode == "report", which
// bypasses both fetch and station selection entirely.
func (e *Engine) manualReportMode() bool {
	return e.cfg.ManualWeather.Enabled && e.cfg.ManualWeather.Mode == config.ManualModeReport
}

// Tick runs one full pass of the loop (§4.8, steps 1-8). now is threaded
// through explicitly so tests are deterministic; callers normally pass
// time.Now().
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	aircraft, connected := e.reader.AircraftState(ctx)

	var altFt *float64
	if connected {
		a := aircraft.AltFt
		if e.cfg.ManualWeather.Freeze {
			a = e.cfg.Smoothing.ApproachFreezeAltFt - 1
		}
		altFt = &a
	} else if e.cfg.ManualWeather.Freeze {
		forced := e.cfg.Smoothing.ApproachFreezeAltFt - 1
		altFt = &forced
	}

	var nearby []station.Result
	if !e.manualReportMode() && connected {
		nearby = e.stations.Nearest(float32(aircraft.LatDeg), float32(aircraft.LonDeg),
			float32(e.cfg.StationSelection.RadiusNM), e.cfg.StationSelection.MaxStations,
			e.cfg.StationSelection.FallbackToGlobal)
	}

	e.refreshObservations(ctx, nearby)

	target, summary, obsStatus := e.computeTarget(now, nearby)
	published := e.smoother.Smooth(target, altFt)

	if connected || e.manualReportMode() {
		e.dispatch(ctx, now, obsStatus, target, published)
	}

	e.publishStatus(now, connected, aircraft, nearby, obsStatus, summary, published)
}

func (e *Engine) refreshObservations(ctx context.Context, nearby []station.Result) {
	if e.manualReportMode() {
		return
	}
	icaos := make([]string, 0, len(nearby)+1)
	for _, r := range nearby {
		icaos = append(icaos, r.Station.ICAO)
	}
	if icao := e.configuredManualICAO(); icao != "" {
		icaos = append(icaos, icao)
	}
	if len(icaos) == 0 {
		return
	}
	maxAge := time.Duration(e.cfg.WeatherSource.CacheSeconds) * time.Second
	if err := e.obsSource.Refresh(ctx, icaos, maxAge); err != nil && e.log != nil {
		e.log.Warnf("engine: observation refresh failed, using previous cache: %v", err)
	}
}

func (e *Engine) configuredManualICAO() string {
	if e.cfg.ManualWeather.Enabled && e.cfg.ManualWeather.ICAO != nil {
		return *e.cfg.ManualWeather.ICAO
	}
	return ""
}

type observedStation struct {
	result station.Result
	metar  metar.Record
	haveM  bool
	rawM   string
	ageM   float64
	taf    taf.Record
	haveT  bool
	rawT   string
	ageT   float64
}

// computeTarget implements step 5 of §4.8: the Combiner runs against the
// single nearest station for smoothing/status, and the Blender runs only
// when multiple stations are in scope, purely for the telemetric summary.
func (e *Engine) computeTarget(now time.Time, nearby []station.Result) (wx.TargetSample, *wx.WeatherState, []observedStation) {
	observed := e.observeStations(now, nearby)

	if e.manualReportMode() {
		return e.computeManualTarget(now), nil, observed
	}
	if len(observed) == 0 {
		return wx.TargetSample{Source: wx.SourceNone}, nil, observed
	}

	nearest := observed[0]
	target := e.combineOne(nearest)

	var summary *wx.WeatherState
	if len(observed) > 1 {
		var stations []blend.Station
		for _, o := range observed {
			stations = append(stations, blend.Station{Sample: e.combineOne(o), Distance: float64(o.result.Distance)})
		}
		s := blend.Blend(stations)
		ws := wx.WeatherState{Sample: s.Sample}
		summary = &ws
	}

	return target, summary, observed
}

func (e *Engine) observeStations(now time.Time, nearby []station.Result) []observedStation {
	out := make([]observedStation, 0, len(nearby))
	for _, r := range nearby {
		var o observedStation
		o.result = r

		if entry, ok := e.obsSource.METAR(r.Station.ICAO); ok {
			if rec, err := metar.Parse(entry.Raw); err == nil {
				o.metar = rec
				o.haveM = true
				o.rawM = entry.Raw
				o.ageM = entry.Age(now).Seconds()
			}
		}
		if entry, ok := e.obsSource.TAF(r.Station.ICAO); ok {
			o.taf = taf.Parse(entry.Raw, now.UTC())
			o.haveT = true
			o.rawT = entry.Raw
			o.ageT = entry.Age(now).Seconds()
		}
		out = append(out, o)
	}
	return out
}

func (e *Engine) combineOne(o observedStation) wx.TargetSample {
	in := combine.Input{
		Mode:              e.cfg.Combining.Mode,
		TafFallbackStaleS: e.cfg.Combining.TafFallbackStaleSeconds,
	}
	if o.haveM {
		m := o.metar
		in.METAR = &m
		age := o.ageM
		in.MetarAgeSeconds = &age
	}
	if o.haveT {
		t := o.taf
		in.TAF = &t
	}
	return combine.Combine(in)
}

func (e *Engine) computeManualTarget(now time.Time) wx.TargetSample {
	var in combine.Input
	in.Mode = e.cfg.Combining.Mode
	in.TafFallbackStaleS = e.cfg.Combining.TafFallbackStaleSeconds

	if e.cfg.ManualWeather.RawMETAR != nil {
		if rec, err := metar.Parse(*e.cfg.ManualWeather.RawMETAR); err == nil {
			in.METAR = &rec
			age := 0.0
			in.MetarAgeSeconds = &age
		}
	}
	if e.cfg.ManualWeather.RawTAF != nil {
		t := taf.Parse(*e.cfg.ManualWeather.RawTAF, now.UTC())
		in.TAF = &t
	}
	return combine.Combine(in)
}

func (e *Engine) dispatch(ctx context.Context, now time.Time, observed []observedStation, target wx.TargetSample, published wx.WeatherState) {
	if !e.controller.ShouldInject(now, target, published) {
		return
	}

	var err error
	if len(observed) > 0 {
		var obsList []inject.StationObservation
		for _, o := range observed {
			if o.haveM && o.metar.Valid {
				obsList = append(obsList, inject.StationObservation{Result: o.result, METAR: o.metar})
			}
		}
		if len(obsList) > 0 {
			err = e.controller.Dispatch(ctx, now, obsList, e.injector)
		} else {
			err = e.controller.DispatchFallback(ctx, now, e.configuredManualICAO(), published, e.injector)
		}
	} else {
		err = e.controller.DispatchFallback(ctx, now, e.configuredManualICAO(), published, e.injector)
	}

	if err != nil {
		e.controller.RecordFailure()
		if e.log != nil {
			e.log.Warnf("engine: injection failed: %v", err)
		}
		return
	}
	e.controller.RecordSuccess(now, published)
}

func (e *Engine) publishStatus(now time.Time, connected bool, aircraft bridge.AircraftState, nearby []station.Result, observed []observedStation, summary *wx.WeatherState, published wx.WeatherState) {
	snap := status.Snapshot{
		BridgeConnected: e.cached.IsConnected(context.Background()),
		ManualMode:      e.cfg.ManualWeather.Enabled,
		LastUpdateUnixS: float64(now.Unix()),
	}

	if success, attempted := e.controller.LastInjectionSuccess(); attempted {
		v := success
		snap.LastInjectionSuccess = &v
	}
	if t, ok := e.controller.LastInjectionTime(); ok {
		s := float64(t.Unix())
		snap.LastInjectionTimeMonoS = &s
	}

	for _, r := range nearby {
		snap.Stations = append(snap.Stations, status.StationInfo{
			ICAO: r.Station.ICAO, Name: r.Station.Name, DistanceNM: float64(r.Distance),
		})
	}
	for _, o := range observed {
		wu := status.WeatherUpdate{
			ICAO: o.result.Station.ICAO, Name: o.result.Station.Name, DistanceNM: float64(o.result.Distance),
		}
		if o.haveM {
			wu.METAR = &status.Observation{Raw: o.rawM, AgeS: o.ageM}
		}
		if o.haveT {
			wu.TAF = &status.Observation{Raw: o.rawT, AgeS: o.ageT}
		}
		snap.WeatherUpdates = append(snap.WeatherUpdates, wu)
	}

	snap.CurrentWeatherSummary = summary

	if connected {
		snap.AircraftState = &status.AircraftState{
			LatDeg: aircraft.LatDeg, LonDeg: aircraft.LonDeg, AltFt: aircraft.AltFt,
			GroundSpeedKt: aircraft.GroundSpeedKt, VerticalSpeedFpm: aircraft.VerticalSpeedFpm,
			HeadingDeg: aircraft.HeadingDeg, OnGround: aircraft.OnGround,
		}
	}

	e.status.Store(&snap)
}
