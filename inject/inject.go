// inject/inject.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package inject implements the Injection Controller (C7): gating a
// published weather state against a minimum interval and a
// still-transitioning/big-change escalation, filtering out mutually
// inconsistent neighbouring stations, synthesising canonical METAR
// strings, and dispatching them to the simulator bridge in ascending
// distance order.
package inject

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	vmath "github.com/ahunter-dev/fsweatherbridge/math"
	"github.com/ahunter-dev/fsweatherbridge/metar"
	"github.com/ahunter-dev/fsweatherbridge/smooth"
	"github.com/ahunter-dev/fsweatherbridge/station"
	"github.com/ahunter-dev/fsweatherbridge/wx"

	"github.com/ahunter-dev/fsweatherbridge/bridge"
	"github.com/ahunter-dev/fsweatherbridge/log"
)

// Hard timing constants from §4.7.
const (
	MinInjectionInterval = 10 * time.Second
	BigChangeInterval    = 30 * time.Second

	interStationDelay = 100 * time.Millisecond
	postDispatchDelay = 200 * time.Millisecond

	consistencyRadiusNM      = 20.0
	consistencyVisMismatchNM = 5.0
	consistencyVisFloorNM    = 1.0
	consistencyQNHMismatchHp = 10.0

	residualWindKt = 3.0
	residualVisNM  = 1.0

	changeWindDirDeg   = 5.0
	changeWindSpeedKt  = 2.0
	changeQNHHpa       = 0.5
	changeVisibilityNM = 0.5
	changeTemperatureC = 2.0

	fallbackICAO = "GLOB"
)

// Config bundles the parameters the Controller needs to compute its
// cadence; it mirrors the subset of smoothing configuration relevant to
// "still transitioning" inference plus the METAR-refresh floor.
type Config struct {
	TransitionMode            smooth.TransitionMode
	TransitionIntervalSeconds float64
	MetarRefreshSeconds       float64

	WindSpeedStepKt float64
	WindDirStepDeg  float64
	QNHStepHpa      float64
	VisibilityStepM float64
}

// Controller owns the injection bookkeeping: the last state it actually
// dispatched, when it dispatched it (monotonic), and whether that dispatch
// succeeded.
type Controller struct {
	cfg Config
	log *log.Logger

	haveLastInjection    bool
	lastInjectedState    wx.WeatherState
	lastInjectionTime    time.Time
	attempted            bool
	lastInjectionSuccess bool
}

// New constructs a Controller with no injection history.
func New(cfg Config, lg *log.Logger) *Controller {
	return &Controller{cfg: cfg, log: lg}
}

// LastInjectedState returns the weather state most recently dispatched
// successfully (the zero value if nothing has been injected yet).
func (c *Controller) LastInjectedState() wx.WeatherState { return c.lastInjectedState }

// LastInjectionTime returns the monotonic time of the last successful
// dispatch and whether one has happened yet.
func (c *Controller) LastInjectionTime() (time.Time, bool) {
	return c.lastInjectionTime, c.haveLastInjection
}

// LastInjectionSuccess reports whether the most recent dispatch attempt
// succeeded, and whether any attempt has happened yet.
func (c *Controller) LastInjectionSuccess() (success, attempted bool) {
	return c.lastInjectionSuccess, c.attempted
}

// StationObservation pairs a nearby station and its distance with its
// freshly parsed, raw METAR record — the multi-station dispatch path
// synthesises from these raw per-station values, never from the blend or
// the smoother's output.
type StationObservation struct {
	Result station.Result
	METAR  metar.Record
}

// elapsedSince returns the time since the last successful injection, or an
// effectively-infinite duration if there has never been one.
func (c *Controller) elapsedSince(now time.Time) time.Duration {
	if !c.haveLastInjection {
		return time.Duration(math.MaxInt64)
	}
	return now.Sub(c.lastInjectionTime)
}

// stillTransitioning reports whether the published state has not yet
// caught up to target closely enough to stop escalating cadence. In
// step_limited mode it is true when the Smoother's IsBigChange /
// IsVeryBigChange flag is set, or when the residual wind speed exceeds
// residualWindKt or the residual visibility exceeds residualVisNM;
// in time_based mode it is inferred here from residual distance exceeding
// one configured step.
func (c *Controller) stillTransitioning(smoothed wx.WeatherState, target wx.TargetSample) bool {
	if c.cfg.TransitionMode == smooth.ModeTimeBased {
		return residualExceeds(smoothed.WindSpeedKt, target.WindSpeedKt, c.cfg.WindSpeedStepKt) ||
			residualDirExceeds(smoothed.WindDirDeg, target.WindDirDeg, c.cfg.WindDirStepDeg) ||
			residualExceeds(smoothed.QNHhPa, target.QNHhPa, c.cfg.QNHStepHpa) ||
			residualExceeds(smoothed.VisibilityNM, target.VisibilityNM, c.cfg.VisibilityStepM/metersPerNM)
	}
	return smoothed.IsBigChange || smoothed.IsVeryBigChange ||
		residualExceeds(smoothed.WindSpeedKt, target.WindSpeedKt, residualWindKt) ||
		residualExceeds(smoothed.VisibilityNM, target.VisibilityNM, residualVisNM)
}

const metersPerNM = 1852.0

func residualExceeds(a, b *float64, limit float64) bool {
	if a == nil || b == nil {
		return false
	}
	return math.Abs(*b-*a) > limit
}

func residualDirExceeds(a, b *float64, limit float64) bool {
	if a == nil || b == nil {
		return false
	}
	d := float64(vmath.HeadingDifference(float32(*a), float32(*b)))
	return d > limit
}

// effectiveInterval computes the current injection interval per §4.7.
func (c *Controller) effectiveInterval(smoothed wx.WeatherState, stillTransitioning bool) time.Duration {
	if c.cfg.TransitionMode == smooth.ModeTimeBased {
		iv := time.Duration(c.cfg.TransitionIntervalSeconds * float64(time.Second))
		if iv < MinInjectionInterval {
			iv = MinInjectionInterval
		}
		return iv
	}

	if smoothed.IsBigChange || smoothed.IsVeryBigChange || stillTransitioning {
		return BigChangeInterval
	}
	iv := time.Duration(c.cfg.MetarRefreshSeconds * float64(time.Second))
	if iv < MinInjectionInterval {
		iv = MinInjectionInterval
	}
	return iv
}

// ShouldInject makes the gating decision of §4.7 without mutating
// Controller state; callers that decide to proceed call RecordSuccess or
// RecordFailure afterwards.
func (c *Controller) ShouldInject(now time.Time, target wx.TargetSample, smoothed wx.WeatherState) bool {
	stillTransitioning := c.stillTransitioning(smoothed, target)
	interval := c.effectiveInterval(smoothed, stillTransitioning)
	elapsed := c.elapsedSince(now)

	if stillTransitioning || smoothed.IsBigChange || smoothed.IsVeryBigChange {
		return elapsed >= interval
	}
	return WeatherChanged(c.lastInjectedState, smoothed) && elapsed >= interval
}

// RecordSuccess updates bookkeeping after a successful dispatch.
func (c *Controller) RecordSuccess(now time.Time, smoothed wx.WeatherState) {
	c.lastInjectedState = smoothed
	c.lastInjectionTime = now
	c.haveLastInjection = true
	c.attempted = true
	c.lastInjectionSuccess = true
}

// RecordFailure updates bookkeeping after a failed dispatch attempt: only
// the success flag changes, per §4.7's "no state-variable rollback".
func (c *Controller) RecordFailure() {
	c.attempted = true
	c.lastInjectionSuccess = false
}

// WeatherChanged reports whether two published states differ by more than
// the §4.7 thresholds on any compared field, or disagree on presence for
// any field, or differ in clouds/weather-tokens.
func WeatherChanged(a, b wx.WeatherState) bool {
	if presenceChanged(a.WindDirDeg, b.WindDirDeg) || presenceChanged(a.WindSpeedKt, b.WindSpeedKt) ||
		presenceChanged(a.QNHhPa, b.QNHhPa) || presenceChanged(a.VisibilityNM, b.VisibilityNM) ||
		presenceChanged(a.TemperatureC, b.TemperatureC) {
		return true
	}
	if residualDirExceeds(a.WindDirDeg, b.WindDirDeg, changeWindDirDeg) {
		return true
	}
	if residualExceeds(a.WindSpeedKt, b.WindSpeedKt, changeWindSpeedKt) {
		return true
	}
	if residualExceeds(a.QNHhPa, b.QNHhPa, changeQNHHpa) {
		return true
	}
	if residualExceeds(a.VisibilityNM, b.VisibilityNM, changeVisibilityNM) {
		return true
	}
	if residualExceeds(a.TemperatureC, b.TemperatureC, changeTemperatureC) {
		return true
	}
	if !cloudsEqual(a.Clouds, b.Clouds) {
		return true
	}
	if !tokensEqual(a.WeatherTokens, b.WeatherTokens) {
		return true
	}
	return false
}

func presenceChanged(a, b *float64) bool { return (a == nil) != (b == nil) }

func cloudsEqual(a, b []wx.CloudLayer) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func tokensEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := append([]string(nil), a...), append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// FilterConsistent drops the outlier among stations whose METARs disagree
// within consistencyRadiusNM, per §4.7's consistency filter: a station is
// excluded only when the majority of its nearby peers disagree with it, so
// that one bad report among three agreeing neighbours is dropped rather
// than every station that touched it. Rejection reasons are logged at info
// level.
func FilterConsistent(obs []StationObservation, lg *log.Logger) []StationObservation {
	disagreements := make([]int, len(obs))
	compared := make([]int, len(obs))
	reasons := make([]string, len(obs))

	for i, o := range obs {
		for j, p := range obs {
			if i == j {
				continue
			}
			d := float64(o.Result.Station.DistanceTo(p.Result.Station.Location()))
			if d > consistencyRadiusNM {
				continue
			}
			compared[i]++
			if r := inconsistencyReason(o.METAR, p.METAR); r != "" {
				disagreements[i]++
				if reasons[i] == "" {
					reasons[i] = fmt.Sprintf("%s vs %s: %s", o.Result.Station.ICAO, p.Result.Station.ICAO, r)
				}
			}
		}
	}

	kept := make([]StationObservation, 0, len(obs))
	for i, o := range obs {
		if compared[i] > 0 && disagreements[i]*2 > compared[i] {
			if lg != nil {
				lg.Infof("inject: excluding %s from dispatch: %s", o.Result.Station.ICAO, reasons[i])
			}
			continue
		}
		kept = append(kept, o)
	}
	return kept
}

func inconsistencyReason(a, b metar.Record) string {
	if a.VisibilityNM != nil && b.VisibilityNM != nil {
		lo, hi := *a.VisibilityNM, *b.VisibilityNM
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo < consistencyVisFloorNM && hi > consistencyVisMismatchNM {
			return fmt.Sprintf("visibility mismatch %.1f vs %.1f nm", *a.VisibilityNM, *b.VisibilityNM)
		}
	}
	if a.QNHhPa != nil && b.QNHhPa != nil {
		if math.Abs(*a.QNHhPa-*b.QNHhPa) > consistencyQNHMismatchHp {
			return fmt.Sprintf("QNH mismatch %.0f vs %.0f hPa", *a.QNHhPa, *b.QNHhPa)
		}
	}
	return ""
}

// Dispatch delivers the given stations' raw-observation METARs (preferred
// path) to the bridge, in ascending distance order, after running the
// consistency filter. If the bridge implements bridge.BulkInjector the
// strings are written in one call; otherwise it falls back to per-station
// writes with the inter-write/post-dispatch pacing of §4.7/§5.
func (c *Controller) Dispatch(ctx context.Context, now time.Time, stations []StationObservation, inj bridge.Injector) error {
	filtered := FilterConsistent(stations, c.log)
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Result.Distance < filtered[j].Result.Distance
	})

	var raws []string
	for _, o := range filtered {
		if !o.METAR.Valid {
			continue
		}
		raws = append(raws, Synthesize(o.Result.Station.ICAO, now, o.METAR.Sample(), c.log))
	}
	if len(raws) == 0 {
		return fmt.Errorf("inject: no valid stations to dispatch")
	}

	if bulk, ok := inj.(bridge.BulkInjector); ok {
		if err := bulk.WriteMETARs(ctx, raws); err != nil {
			return err
		}
		sleep(ctx, postDispatchDelay)
		return nil
	}

	for i, raw := range raws {
		if err := inj.WriteMETAR(ctx, raw); err != nil {
			return err
		}
		if i < len(raws)-1 {
			sleep(ctx, interStationDelay)
		}
	}
	sleep(ctx, postDispatchDelay)
	return nil
}

// DispatchFallback synthesises one METAR from the smoothed state and
// injects it under icao (or "GLOB" if icao is empty), for use when
// multi-station dispatch is unsupported or no stations were supplied.
func (c *Controller) DispatchFallback(ctx context.Context, now time.Time, icao string, smoothed wx.WeatherState, inj bridge.Injector) error {
	if icao == "" {
		icao = fallbackICAO
	}
	raw := Synthesize(icao, now, smoothed.Sample, c.log)
	if err := inj.WriteMETAR(ctx, raw); err != nil {
		return err
	}
	sleep(ctx, postDispatchDelay)
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// icaoSteps are the ICAO visibility reporting increments, in meters, that
// Synthesize snaps to.
var icaoSteps = []float64{400, 800, 1600, 3000, 5000, 8000, 9999}

// Synthesize renders a canonical METAR string from a wx.Sample: space
// separated tokens in the order {ICAO} METAR DDHHMMZ wind vis [weather]
// clouds temp/dew Q####, per §4.7.
func Synthesize(icao string, now time.Time, s wx.Sample, lg *log.Logger) string {
	tokens := []string{strings.ToUpper(icao), "METAR", now.UTC().Format("021504") + "Z"}
	tokens = append(tokens, windToken(s.WindDirDeg, s.WindSpeedKt, s.WindGustKt))
	tokens = append(tokens, visibilityToken(s.VisibilityNM))

	for i, tok := range s.WeatherTokens {
		if i >= 2 {
			break
		}
		tokens = append(tokens, tok)
	}

	for _, c := range s.Clouds {
		tokens = append(tokens, cloudToken(c))
	}

	tokens = append(tokens, tempDewToken(s.TemperatureC, s.DewpointC))
	tokens = append(tokens, qnhToken(s.QNHhPa, lg))

	return strings.Join(tokens, " ")
}

func windToken(dir, speed, gust *float64) string {
	spd := wx.DerefOr(speed, 0)
	if spd <= 0 {
		return "00000KT"
	}

	d := int(math.Round(wx.DerefOr(dir, 0))) % 360
	if d < 0 {
		d += 360
	}
	// A 000 direction at reportable speed reads as calm; once speed
	// reaches 10kt the convention is to report 360 instead of 000.
	if d == 0 && spd >= 10 {
		d = 360
	}

	tok := fmt.Sprintf("%03d%02d", d, int(math.Round(spd)))
	if gust != nil && *gust > spd {
		tok += fmt.Sprintf("G%02d", int(math.Round(*gust)))
	}
	return tok + "KT"
}

func visibilityToken(vis *float64) string {
	nm := wx.DerefOr(vis, 10.0)
	meters := nm * metersPerNM

	best := icaoSteps[0]
	bestDiff := math.Abs(meters - best)
	for _, step := range icaoSteps[1:] {
		if diff := math.Abs(meters - step); diff < bestDiff {
			best, bestDiff = step, diff
		}
	}
	return fmt.Sprintf("%04d", int(best))
}

func cloudToken(c wx.CloudLayer) string {
	base := c.BaseFt
	if base < 500 {
		base = 500
	}
	return fmt.Sprintf("%s%03d", c.Coverage, base/100)
}

func tempDewToken(temp, dew *float64) string {
	return fmt.Sprintf("%s/%s", tempToken(temp), tempToken(dew))
}

func tempToken(v *float64) string {
	if v == nil {
		return "//"
	}
	t := int(math.Round(*v))
	if t < 0 {
		return fmt.Sprintf("M%02d", -t)
	}
	return fmt.Sprintf("%02d", t)
}

func qnhToken(qnh *float64, lg *log.Logger) string {
	q := wx.DerefOr(qnh, 1013)
	if q < 870 || q > 1080 {
		if lg != nil {
			lg.Warnf("inject: QNH %.1f out of range, coercing to 1013", q)
		}
		q = 1013
	}
	return fmt.Sprintf("Q%04d", int(math.Round(q)))
}
