// blend/blend.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package blend computes a single distance-weighted "current weather"
// summary across several stations' combined samples. It is purely
// telemetric: nothing downstream of the status snapshot consumes its
// output, and it never substitutes for the nearest-station sample the
// smoother and controller act on.
package blend

import (
	"math"
	"sort"

	"github.com/ahunter-dev/fsweatherbridge/wx"
)

// Station is one contributing station: its combined sample and its
// distance from the query point, in nautical miles.
type Station struct {
	Sample   wx.TargetSample
	Distance float64
}

// weight implements w_i = 1 / (d_i + 0.1)^2, so a station essentially at
// the query point dominates but never divides by zero.
func weight(distanceNM float64) float64 {
	d := distanceNM + 0.1
	return 1.0 / (d * d)
}

// Blend fuses the given stations' samples into one weighted summary. It
// returns the zero value with Source == wx.SourceNone if stations is empty.
func Blend(stations []Station) wx.TargetSample {
	if len(stations) == 0 {
		return wx.TargetSample{Source: wx.SourceNone}
	}

	var (
		sumW                                                    float64
		windSin, windCos                                        float64
		haveWind                                                bool
		speedSum, gustSum, qnhSum, visSum, tempSum, dewSum       float64
		speedW, gustW, qnhW, visW, tempW, dewW                   float64
		metarUsed, tafUsed                                       bool
		weatherSet                                               = map[string]struct{}{}
		nearestIdx                                               = -1
		nearestDist                                              = math.Inf(1)
	)

	for i, s := range stations {
		w := weight(s.Distance)
		sumW += w

		if s.Sample.WindDirDeg != nil {
			rad := (*s.Sample.WindDirDeg) * math.Pi / 180.0
			windSin += w * math.Sin(rad)
			windCos += w * math.Cos(rad)
			haveWind = true
		}
		accumulate(&speedSum, &speedW, s.Sample.WindSpeedKt, w)
		accumulate(&gustSum, &gustW, s.Sample.WindGustKt, w)
		accumulate(&qnhSum, &qnhW, s.Sample.QNHhPa, w)
		accumulate(&visSum, &visW, s.Sample.VisibilityNM, w)
		accumulate(&tempSum, &tempW, s.Sample.TemperatureC, w)
		accumulate(&dewSum, &dewW, s.Sample.DewpointC, w)

		metarUsed = metarUsed || s.Sample.MetarUsed
		tafUsed = tafUsed || s.Sample.TafUsed
		for _, tok := range s.Sample.WeatherTokens {
			weatherSet[tok] = struct{}{}
		}

		if s.Distance < nearestDist {
			nearestDist = s.Distance
			nearestIdx = i
		}
	}

	out := wx.TargetSample{Source: wx.SourceBlended, MetarUsed: metarUsed, TafUsed: tafUsed}

	if haveWind {
		deg := math.Atan2(windSin, windCos) * 180.0 / math.Pi
		if deg < 0 {
			deg += 360
		}
		out.WindDirDeg = wx.Float64(deg)
	}
	out.WindSpeedKt = weightedMean(speedSum, speedW)
	out.WindGustKt = weightedMean(gustSum, gustW)
	out.QNHhPa = weightedMean(qnhSum, qnhW)
	out.VisibilityNM = weightedMean(visSum, visW)
	out.TemperatureC = weightedMean(tempSum, tempW)
	out.DewpointC = weightedMean(dewSum, dewW)

	if nearestIdx >= 0 {
		out.Clouds = append([]wx.CloudLayer(nil), stations[nearestIdx].Sample.Clouds...)
	}
	for tok := range weatherSet {
		out.WeatherTokens = append(out.WeatherTokens, tok)
	}
	sort.Strings(out.WeatherTokens)

	return out
}

func accumulate(sum, weightSum *float64, v *float64, w float64) {
	if v == nil {
		return
	}
	*sum += w * (*v)
	*weightSum += w
}

func weightedMean(sum, weightSum float64) *float64 {
	if weightSum == 0 {
		return nil
	}
	return wx.Float64(sum / weightSum)
}
