// smooth/smooth.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package smooth implements the stateful transition from a target weather
// sample to a published WeatherState: per-field rate limiting, an
// altitude-gated freeze policy, and big/very-big change detection used to
// speed up transitions and to signal the injector.
package smooth

import (
	gomath "math"

	"github.com/ahunter-dev/fsweatherbridge/math"
	"github.com/ahunter-dev/fsweatherbridge/wx"
)

// TransitionMode selects how per-field rate limits are derived.
type TransitionMode string

const (
	// ModeStepLimited caps each field's per-tick change at a configured
	// delta, boosted 10x/50x for big/very-big changes.
	ModeStepLimited TransitionMode = "step_limited"
	// ModeTimeBased moves each field by at most a fixed step per Smooth
	// call, regardless of change magnitude.
	ModeTimeBased TransitionMode = "time_based"
)

const (
	bigChangeStepMultiplier     = 10.0
	veryBigChangeStepMultiplier = 50.0

	veryBigChangeWindSpeedKt  = 20.0
	veryBigChangeVisibilityNM = 10.0

	stillTransitioningVeryBigWindKt   = 5.0
	stillTransitioningVeryBigVisNM    = 2.0
	stillTransitioningVeryBigDirDeg   = 30.0
	stillTransitioningBigWindKt       = 3.0
	stillTransitioningBigVisNM        = 1.0
	stillTransitioningBigDirDeg       = 15.0

	metersPerNM = 1852.0
)

// Config bundles the smoothing parameters sourced from configuration.
type Config struct {
	TransitionMode TransitionMode

	// step_limited caps, per tick.
	MaxWindDirChangeDeg  float64
	MaxWindSpeedChangeKt float64
	MaxQNHChangeHpa      float64
	MaxVisibilityChange  float64

	// time_based steps, per Smooth call. TransitionIntervalSeconds is
	// carried here but not read by the Smoother.
	TransitionIntervalSeconds float64
	VisibilityStepM           float64
	WindSpeedStepKt           float64
	WindDirStepDeg            float64
	QNHStepHpa                float64

	ApproachFreezeAltFt  float64
	BigChangeWindDeg     float64
	BigChangeWindSpeedKt float64
	BigChangeQNHHpa      float64
}

// Smoother is a stateful transducer from target samples to published
// weather states. The zero value is not usable; construct with New.
type Smoother struct {
	cfg          Config
	currentState wx.WeatherState
	frozen       bool
}

// New constructs a Smoother with no prior state.
func New(cfg Config) *Smoother {
	return &Smoother{cfg: cfg}
}

// Current returns the last published state.
func (s *Smoother) Current() wx.WeatherState { return s.currentState }

// Smooth advances the current state one tick toward target, given the
// aircraft's current altitude (nil if unknown, in which case the freeze
// policy is left as it was).
func (s *Smoother) Smooth(target wx.TargetSample, aircraftAltFt *float64) wx.WeatherState {
	if aircraftAltFt != nil {
		s.frozen = *aircraftAltFt < s.cfg.ApproachFreezeAltFt
	}

	if s.frozen {
		if !s.currentState.Initialized() {
			s.frozen = false
		} else if s.isBigChange(target) {
			s.frozen = false
		} else {
			return s.currentState
		}
	}

	// A transition flagged on the previous tick keeps its boosted caps until
	// the residual falls within the still-transitioning limits.
	isBigChange := s.isBigChange(target) || s.currentState.IsBigChange || s.currentState.IsVeryBigChange
	isVeryBigChange := s.isVeryBigChange(target) || s.currentState.IsVeryBigChange

	limits := s.limitsFor(isBigChange, isVeryBigChange)

	var smoothed wx.WeatherState
	smoothed.WindDirDeg = smoothWindDir(s.currentState.WindDirDeg, target.WindDirDeg, limits.windDir)
	smoothed.WindSpeedKt = smoothValue(s.currentState.WindSpeedKt, target.WindSpeedKt, limits.windSpeed)
	smoothed.WindGustKt = smoothValue(s.currentState.WindGustKt, target.WindGustKt, limits.windSpeed)
	smoothed.QNHhPa = smoothValue(s.currentState.QNHhPa, target.QNHhPa, limits.qnh)
	smoothed.VisibilityNM = smoothValue(s.currentState.VisibilityNM, target.VisibilityNM, limits.visibility)

	// Temperature and dewpoint transition instantly.
	smoothed.TemperatureC = target.TemperatureC
	smoothed.DewpointC = target.DewpointC

	// Clouds transition instantly; weather tokens too.
	smoothed.Clouds = append([]wx.CloudLayer(nil), target.Clouds...)
	smoothed.WeatherTokens = append([]string(nil), target.WeatherTokens...)

	smoothed.IsVeryBigChange = isVeryBigChange && s.stillTransitioningVeryBig(smoothed, target)
	smoothed.IsBigChange = isBigChange && !smoothed.IsVeryBigChange && s.stillTransitioningBig(smoothed, target)

	s.currentState = smoothed
	return smoothed
}

type stepLimits struct {
	windDir, windSpeed, qnh, visibility float64
}

func (s *Smoother) limitsFor(isBigChange, isVeryBigChange bool) stepLimits {
	if s.cfg.TransitionMode == ModeTimeBased {
		return stepLimits{
			windDir:    s.cfg.WindDirStepDeg,
			windSpeed:  s.cfg.WindSpeedStepKt,
			qnh:        s.cfg.QNHStepHpa,
			visibility: s.cfg.VisibilityStepM / metersPerNM,
		}
	}

	mult := 1.0
	switch {
	case isVeryBigChange:
		mult = veryBigChangeStepMultiplier
	case isBigChange:
		mult = bigChangeStepMultiplier
	}
	return stepLimits{
		windDir:    s.cfg.MaxWindDirChangeDeg * mult,
		windSpeed:  s.cfg.MaxWindSpeedChangeKt * mult,
		qnh:        s.cfg.MaxQNHChangeHpa * mult,
		visibility: s.cfg.MaxVisibilityChange * mult,
	}
}

// smoothWindDir steps current toward target along the shorter arc,
// clamped to max_change degrees per tick.
func smoothWindDir(current, target *float64, maxChange float64) *float64 {
	if target == nil {
		return current
	}
	if current == nil {
		return target
	}

	diff := float64(math.HeadingSignedDifference(float32(*current), float32(*target)))
	if gomath.Abs(diff) > maxChange {
		diff = gomath.Copysign(maxChange, diff)
	}
	result := float64(math.NormalizeHeading(float32(*current + diff)))
	return &result
}

func smoothValue(current, target *float64, maxChange float64) *float64 {
	if target == nil {
		return current
	}
	if current == nil {
		return target
	}

	diff := *target - *current
	if gomath.Abs(diff) > maxChange {
		diff = gomath.Copysign(maxChange, diff)
	}
	result := *current + diff
	return &result
}

func (s *Smoother) isBigChange(target wx.TargetSample) bool {
	cur := s.currentState
	if !cur.Initialized() {
		return true
	}

	if cur.WindDirDeg != nil && target.WindDirDeg != nil {
		diff := float64(math.HeadingDifference(float32(*cur.WindDirDeg), float32(*target.WindDirDeg)))
		if diff > s.cfg.BigChangeWindDeg {
			return true
		}
	}
	if cur.WindSpeedKt != nil && target.WindSpeedKt != nil {
		if gomath.Abs(*target.WindSpeedKt-*cur.WindSpeedKt) > s.cfg.BigChangeWindSpeedKt {
			return true
		}
	}
	if cur.QNHhPa != nil && target.QNHhPa != nil {
		if gomath.Abs(*target.QNHhPa-*cur.QNHhPa) > s.cfg.BigChangeQNHHpa {
			return true
		}
	}
	if cur.VisibilityNM != nil && target.VisibilityNM != nil {
		curVis, targetVis := *cur.VisibilityNM, *target.VisibilityNM
		if gomath.Abs(targetVis-curVis) > 5.0 {
			return true
		}
		if (curVis < 1.0 && targetVis > 5.0) || (curVis > 5.0 && targetVis < 1.0) {
			return true
		}
	}

	curHasClouds := len(cur.Clouds) > 0
	targetHasClouds := len(target.Clouds) > 0
	if curHasClouds != targetHasClouds {
		if curHasClouds && wx.HasOvercast(cur.Clouds) {
			return true
		}
		if targetHasClouds && wx.HasOvercast(target.Clouds) {
			return true
		}
	}

	return false
}

func (s *Smoother) isVeryBigChange(target wx.TargetSample) bool {
	cur := s.currentState
	if cur.WindSpeedKt != nil && target.WindSpeedKt != nil {
		if gomath.Abs(*target.WindSpeedKt-*cur.WindSpeedKt) > veryBigChangeWindSpeedKt {
			return true
		}
	}
	if cur.VisibilityNM != nil && target.VisibilityNM != nil {
		if gomath.Abs(*target.VisibilityNM-*cur.VisibilityNM) > veryBigChangeVisibilityNM {
			return true
		}
	}
	return false
}

func (s *Smoother) stillTransitioningVeryBig(smoothed wx.WeatherState, target wx.TargetSample) bool {
	if smoothed.WindSpeedKt != nil && target.WindSpeedKt != nil {
		if gomath.Abs(*target.WindSpeedKt-*smoothed.WindSpeedKt) > stillTransitioningVeryBigWindKt {
			return true
		}
	}
	if smoothed.VisibilityNM != nil && target.VisibilityNM != nil {
		if gomath.Abs(*target.VisibilityNM-*smoothed.VisibilityNM) > stillTransitioningVeryBigVisNM {
			return true
		}
	}
	if smoothed.WindDirDeg != nil && target.WindDirDeg != nil {
		diff := float64(math.HeadingDifference(float32(*smoothed.WindDirDeg), float32(*target.WindDirDeg)))
		if diff > stillTransitioningVeryBigDirDeg {
			return true
		}
	}
	return false
}

func (s *Smoother) stillTransitioningBig(smoothed wx.WeatherState, target wx.TargetSample) bool {
	if smoothed.WindSpeedKt != nil && target.WindSpeedKt != nil {
		if gomath.Abs(*target.WindSpeedKt-*smoothed.WindSpeedKt) > stillTransitioningBigWindKt {
			return true
		}
	}
	if smoothed.VisibilityNM != nil && target.VisibilityNM != nil {
		if gomath.Abs(*target.VisibilityNM-*smoothed.VisibilityNM) > stillTransitioningBigVisNM {
			return true
		}
	}
	if smoothed.WindDirDeg != nil && target.WindDirDeg != nil {
		diff := float64(math.HeadingDifference(float32(*smoothed.WindDirDeg), float32(*target.WindDirDeg)))
		if diff > stillTransitioningBigDirDeg {
			return true
		}
	}
	return false
}
