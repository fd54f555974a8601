// cmd/wxbridge/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Command wxbridge is the entry point for the weather engine: it starts
// the per-tick Engine Loop against a real or development bridge, validates
// a configuration file, or prints the latest published status snapshot.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahunter-dev/fsweatherbridge/config"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "wxbridge",
		Short: "Drive simulator weather from live METAR/TAF observations",
		Long: `wxbridge blends nearby METAR and TAF observations into a smoothed,
rate-limited weather state and injects synthetic METARs into a flight
simulator bridge.

Examples:
  wxbridge run                   # start the engine loop
  wxbridge validate-config       # check a config file without running
  wxbridge status                # print the latest published status`,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default ~/.fsweatherbridge/config.json)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newValidateConfigCmd())
	rootCmd.AddCommand(newStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wxbridge: %v\n", err)
		os.Exit(1)
	}
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}
