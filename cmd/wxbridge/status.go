// cmd/wxbridge/status.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ahunter-dev/fsweatherbridge/config"
	"github.com/ahunter-dev/fsweatherbridge/status"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the latest status snapshot published by a running instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.StatusPath()
			if err != nil {
				return err
			}

			b, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("status: reading %s (is wxbridge running?): %w", path, err)
			}

			var snap status.Snapshot
			if err := json.Unmarshal(b, &snap); err != nil {
				return fmt.Errorf("status: parsing %s: %w", path, err)
			}

			printSnapshot(snap)
			return nil
		},
	}
}

func printSnapshot(snap status.Snapshot) {
	age := time.Since(time.Unix(int64(snap.LastUpdateUnixS), 0))

	fmt.Println(headerStyle.Render("wxbridge status"))
	fmt.Printf("%s %s (%s ago)\n", labelStyle.Render("updated:"), valueStyle.Render(time.Unix(int64(snap.LastUpdateUnixS), 0).Format(time.RFC3339)), age.Round(time.Second))

	if snap.BridgeConnected {
		fmt.Printf("%s %s\n", labelStyle.Render("bridge:"), color.GreenString("connected"))
	} else {
		fmt.Printf("%s %s\n", labelStyle.Render("bridge:"), color.RedString("disconnected"))
	}

	if snap.LastInjectionSuccess != nil {
		if *snap.LastInjectionSuccess {
			fmt.Printf("%s %s\n", labelStyle.Render("last injection:"), color.GreenString("succeeded"))
		} else {
			fmt.Printf("%s %s\n", labelStyle.Render("last injection:"), color.RedString("failed"))
		}
	} else {
		fmt.Printf("%s %s\n", labelStyle.Render("last injection:"), valueStyle.Render("none yet"))
	}

	if snap.ManualMode {
		fmt.Println(color.YellowString("manual weather mode is active"))
	}

	if len(snap.Stations) > 0 {
		fmt.Println(headerStyle.Render("\nnearby stations"))
		for _, s := range snap.Stations {
			fmt.Printf("  %-6s %-24s %5.1f nm\n", s.ICAO, s.Name, s.DistanceNM)
		}
	}

	if len(snap.WeatherUpdates) > 0 {
		fmt.Println(headerStyle.Render("\nobservations"))
		for _, w := range snap.WeatherUpdates {
			line := fmt.Sprintf("  %-6s %5.1f nm", w.ICAO, w.DistanceNM)
			if w.METAR != nil {
				line += fmt.Sprintf("  metar age %4.0fs", w.METAR.AgeS)
				if w.METAR.AgeS > 600 {
					line = color.YellowString(line + " (stale)")
				}
			}
			if w.TAF != nil {
				line += fmt.Sprintf("  taf age %4.0fs", w.TAF.AgeS)
			}
			fmt.Println(line)
		}
	}

	if snap.CurrentWeatherSummary != nil {
		fmt.Println(headerStyle.Render("\nblended summary"))
		ws := snap.CurrentWeatherSummary
		if ws.WindDirDeg != nil && ws.WindSpeedKt != nil {
			fmt.Printf("  wind %03.0f @ %.0f kt\n", *ws.WindDirDeg, *ws.WindSpeedKt)
		}
		if ws.VisibilityNM != nil {
			fmt.Printf("  visibility %.1f nm\n", *ws.VisibilityNM)
		}
		if ws.QNHhPa != nil {
			fmt.Printf("  QNH %.0f hPa\n", *ws.QNHhPa)
		}
	}
}
