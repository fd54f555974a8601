// taf/taf_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package taf

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ahunter-dev/fsweatherbridge/wx"
)

func TestParseDate(t *testing.T) {
	base := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)

	Convey("Given a base time in the middle of a month", t, func() {
		Convey("a date naming a day later in the same month rolls forward normally", func() {
			got, ok := ParseDate("161200", base)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, time.Date(2026, time.July, 16, 12, 0, 0, 0, time.UTC))
		})

		Convey("a date naming a day far in the past rolls into next month", func() {
			late := time.Date(2026, time.July, 25, 0, 0, 0, 0, time.UTC)
			got, ok := ParseDate("010000", late)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC))
		})

		Convey("a date naming a day far in the future rolls into the previous month", func() {
			got, ok := ParseDate("311800", base)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, time.Date(2026, time.June, 30, 18, 0, 0, 0, time.UTC))
		})

		Convey("December rollover wraps the year forward", func() {
			dec := time.Date(2026, time.December, 20, 0, 0, 0, 0, time.UTC)
			got, ok := ParseDate("020600", dec)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, time.Date(2027, time.January, 2, 6, 0, 0, 0, time.UTC))
		})

		Convey("January rollback wraps the year backward", func() {
			jan := time.Date(2027, time.January, 3, 0, 0, 0, 0, time.UTC)
			got, ok := ParseDate("200000", jan)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, time.Date(2026, time.December, 20, 0, 0, 0, 0, time.UTC))
		})

		Convey("a malformed date string is rejected", func() {
			_, ok := ParseDate("3x", base)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestParseTAF(t *testing.T) {
	now := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)

	Convey("Given a TAF with a prevailing section and two FM groups", t, func() {
		raw := "TAF KJFK 151130Z 151200/161800Z 24012KT 6SM BKN020 " +
			"FM151800Z 27015G25KT P6SM SCT035 " +
			"FM160600Z 30008KT 3SM RA BR OVC010"

		rec := Parse(raw, now)

		Convey("the ICAO, issue time and validity window are extracted", func() {
			So(rec.ICAO, ShouldEqual, "KJFK")
			So(rec.Valid, ShouldBeTrue)
			So(rec.IssueTime, ShouldNotBeNil)
			So(*rec.IssueTime, ShouldEqual, time.Date(2026, time.July, 15, 11, 30, 0, 0, time.UTC))
			So(rec.ValidFrom, ShouldNotBeNil)
			So(*rec.ValidFrom, ShouldEqual, time.Date(2026, time.July, 15, 12, 0, 0, 0, time.UTC))
			So(rec.ValidTo, ShouldNotBeNil)
			So(*rec.ValidTo, ShouldEqual, time.Date(2026, time.July, 16, 18, 0, 0, 0, time.UTC))
		})

		Convey("the prevailing group carries the initial wind and cloud layer", func() {
			p := rec.Prevailing
			So(p.WindDirDeg, ShouldNotBeNil)
			So(*p.WindDirDeg, ShouldEqual, 240)
			So(p.WindSpeedKt, ShouldNotBeNil)
			So(*p.WindSpeedKt, ShouldEqual, 12)
			So(p.Clouds, ShouldHaveLength, 1)
			So(p.Clouds[0].Coverage, ShouldEqual, wx.BKN)
			So(p.Clouds[0].BaseFt, ShouldEqual, 2000)
		})

		Convey("two FM groups are extracted in order with correct start times", func() {
			So(rec.Groups, ShouldHaveLength, 2)

			g0 := rec.Groups[0]
			So(g0.Kind, ShouldEqual, KindFM)
			So(g0.Start, ShouldNotBeNil)
			So(*g0.Start, ShouldEqual, time.Date(2026, time.July, 15, 18, 0, 0, 0, time.UTC))
			So(g0.WindGustKt, ShouldNotBeNil)
			So(*g0.WindGustKt, ShouldEqual, 25)
			So(g0.Clouds, ShouldHaveLength, 1)
			So(g0.Clouds[0].Coverage, ShouldEqual, wx.SCT)

			g1 := rec.Groups[1]
			So(g1.Start, ShouldNotBeNil)
			So(*g1.Start, ShouldEqual, time.Date(2026, time.July, 16, 6, 0, 0, 0, time.UTC))
			So(g1.End, ShouldEqual, rec.ValidTo)
		})

		Convey("weather tokens supplement the FM groups the way a complete parser would", func() {
			So(rec.Groups[1].WeatherTokens, ShouldResemble, []string{"RA", "BR"})
			So(rec.Groups[0].WeatherTokens, ShouldBeEmpty)
		})

		Convey("each group's Sample projects its own fields independently", func() {
			s := rec.Groups[1].Sample()
			So(*s.WindDirDeg, ShouldEqual, 300)
			So(s.Clouds[0].Coverage, ShouldEqual, wx.OVC)
		})
	})

	Convey("Given a TAF without a discoverable ICAO or validity window", t, func() {
		rec := Parse("garbage too short", now)

		Convey("it is returned as invalid rather than erroring", func() {
			So(rec.Valid, ShouldBeFalse)
		})
	})

	Convey("Given a TAF whose wind is variable", t, func() {
		raw := "TAF EGLL 151100Z 1512/1612 VRB04KT 9999 FEW015"
		rec := Parse(raw, now)

		Convey("no wind direction is recorded but speed is", func() {
			So(rec.Prevailing.WindDirDeg, ShouldBeNil)
			So(rec.Prevailing.WindSpeedKt, ShouldNotBeNil)
			So(*rec.Prevailing.WindSpeedKt, ShouldEqual, 4)
		})
	})
}
