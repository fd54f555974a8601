// cmd/wxbridge/run.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahunter-dev/fsweatherbridge/bridge"
	"github.com/ahunter-dev/fsweatherbridge/config"
	"github.com/ahunter-dev/fsweatherbridge/engine"
	"github.com/ahunter-dev/fsweatherbridge/log"
	"github.com/ahunter-dev/fsweatherbridge/obs"
	"github.com/ahunter-dev/fsweatherbridge/station"
	"github.com/ahunter-dev/fsweatherbridge/util"
)

func newRunCmd() *cobra.Command {
	var devMode bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the engine loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(cmd.Context(), devMode)
		},
	}
	cmd.Flags().BoolVar(&devMode, "dev", false, "use the development bridge instead of a real simulator connection")
	return cmd
}

func runEngine(ctx context.Context, devModeFlag bool) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if el := config.Validate(cfg); el.HaveErrors() {
		el.PrintErrors(nil)
		return fmt.Errorf("config: %s failed validation", path)
	}

	lg := log.New(false, cfg.Logging.Level, cfg.Logging.Dir)
	defer lg.CatchAndReportCrash()
	lg.Infof("wxbridge: race detector enabled=%v", log.RaceEnabled)

	tick := time.Duration(cfg.Engine.TickSeconds * float64(time.Second))
	if util.DebuggerIsRunning() {
		lg.Infof("wxbridge: debugger detected, relaxing tick interval to 5s")
		tick = 5 * time.Second
	}

	stations, err := loadStations(cfg.StationDatabasePath)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	src := buildObservationSource(cfg, lg)

	reader, injector := buildBridge(cfg, devModeFlag || cfg.Bridge.DevMode, lg)

	eng := engine.New(cfg, lg, stations, src, reader, injector)

	statusPath, err := config.StatusPath()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	lg.Infof("wxbridge: starting engine loop, tick=%s", tick)
	for {
		select {
		case <-ctx.Done():
			lg.Infof("wxbridge: shutting down")
			return nil
		case now := <-ticker.C:
			eng.Tick(ctx, now)
			if err := writeStatus(statusPath, eng); err != nil {
				lg.Warnf("run: failed to write status file: %v", err)
			}
		}
	}
}

func buildObservationSource(cfg config.AppConfig, lg *log.Logger) obs.Source {
	if cfg.ManualWeather.Enabled && cfg.ManualWeather.Mode == config.ManualModeReport {
		icao := ""
		if cfg.ManualWeather.ICAO != nil {
			icao = *cfg.ManualWeather.ICAO
		}
		rawMETAR, rawTAF := "", ""
		if cfg.ManualWeather.RawMETAR != nil {
			rawMETAR = *cfg.ManualWeather.RawMETAR
		}
		if cfg.ManualWeather.RawTAF != nil {
			rawTAF = *cfg.ManualWeather.RawTAF
		}
		return obs.NewManualSource(icao, rawMETAR, rawTAF, time.Now())
	}
	return obs.NewAviationWeatherSource(lg)
}

func buildBridge(cfg config.AppConfig, devMode bool, lg *log.Logger) (bridge.Reader, bridge.Injector) {
	if devMode {
		lg.Infof("wxbridge: using development bridge (no simulator connection)")
		reader := bridge.DevReader{Connected: true}
		injector := bridge.NewDevInjector(lg)
		return reader, injector
	}
	// The real simulator bridge's raw offset layer is out of scope (§1);
	// wiring a concrete implementation here is left to the deployment that
	// owns the simulator-specific transport.
	lg.Warnf("wxbridge: no real bridge wired, falling back to development bridge")
	return bridge.DevReader{Connected: false}, bridge.NewDevInjector(lg)
}

func loadStations(path string) (*station.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening station database %s: %w", path, err)
	}
	defer f.Close()
	return station.Load(f)
}

func writeStatus(path string, eng *engine.Engine) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	snap := eng.Status()
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
