// bridge/bridge.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package bridge defines the core's contract with the simulator bridge: an
// aircraft-pose reader and a METAR-string injector. It never touches the
// bridge's raw offset layer itself (out of scope, §1); it only declares the
// capability interfaces the Engine Loop depends on and a development
// implementation of each for testing and manual-weather modes.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/ahunter-dev/fsweatherbridge/log"
	"github.com/ahunter-dev/fsweatherbridge/util"
)

// AircraftState is the simulator pose snapshot the core acts on each tick.
// The bridge is responsible for converting whatever raw offsets it reads
// into these engineering units; the core never sees a raw layout.
type AircraftState struct {
	LatDeg           float64
	LonDeg           float64
	AltFt            float64
	GroundSpeedKt    float64
	VerticalSpeedFpm float64
	HeadingDeg       float64
	OnGround         bool
}

// Reader supplies the current aircraft pose. The second return value is
// false when the bridge has no current pose to report (not connected, or
// connected but no aircraft loaded).
type Reader interface {
	AircraftState(ctx context.Context) (AircraftState, bool)
}

// Injector delivers one synthetic METAR string to the simulator bridge.
// Implementations must treat raw as a complete, already-canonical METAR
// (ASCII, at most 255 bytes including terminator) and return an error if
// the write did not take effect.
type Injector interface {
	WriteMETAR(ctx context.Context, raw string) error
}

// BulkInjector is the preferred multi-station capability: a bridge that
// can accept every nearby station's METAR in a single call. The Injection
// Controller uses this when available and falls back to per-station
// WriteMETAR calls, with its own inter-write pacing, when it is not.
type BulkInjector interface {
	Injector
	WriteMETARs(ctx context.Context, raws []string) error
}

// CachedReader wraps a Reader so that connection-status queries are
// debounced to a 5-second window, per §5's resource policy, instead of
// re-querying the bridge on every caller. It uses the same TransientMap
// the rest of the core leans on for time-boxed caches.
type CachedReader struct {
	inner Reader
	cache *util.TransientMap[string, bool]
}

const connectionCacheKey = "connected"
const connectionCacheWindow = 5 * time.Second

// NewCachedReader wraps inner with a 5-second connection-status cache.
func NewCachedReader(inner Reader) *CachedReader {
	return &CachedReader{inner: inner, cache: util.NewTransientMap[string, bool]()}
}

// IsConnected reports whether the bridge currently has a pose to offer,
// debounced to a 5-second window so rapid re-queries from the status
// observer and the Engine Loop don't flicker independently.
func (c *CachedReader) IsConnected(ctx context.Context) bool {
	if v, ok := c.cache.Get(connectionCacheKey); ok {
		return v
	}
	_, ok := c.inner.AircraftState(ctx)
	c.cache.Add(connectionCacheKey, ok, connectionCacheWindow)
	return ok
}

// AircraftState delegates straight to the wrapped Reader; only the
// connection-status debounce is cached, not the pose itself.
func (c *CachedReader) AircraftState(ctx context.Context) (AircraftState, bool) {
	return c.inner.AircraftState(ctx)
}

// DevInjector is a development sink: it records every METAR it is given
// instead of writing to a real simulator, and is the "development sink"
// capability referenced alongside the real bridge in the design notes. It
// deliberately does not implement BulkInjector so the Injection Controller
// exercises its own per-station pacing loop against it.
type DevInjector struct {
	mu      sync.Mutex
	Written []string
	Fail    bool
	log     *log.Logger
}

// NewDevInjector constructs a DevInjector that logs every write at debug level.
func NewDevInjector(lg *log.Logger) *DevInjector {
	return &DevInjector{log: lg}
}

func (d *DevInjector) WriteMETAR(ctx context.Context, raw string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Fail {
		return errWriteFailed
	}
	d.Written = append(d.Written, raw)
	if d.log != nil {
		d.log.Debugf("dev bridge: wrote %q", raw)
	}
	return nil
}

// History returns a copy of the METAR strings written so far.
func (d *DevInjector) History() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.Written...)
}

var errWriteFailed = writeError("dev bridge: write disabled for testing")

type writeError string

func (e writeError) Error() string { return string(e) }

// DevReader is a fixed-position aircraft pose source, useful for manual
// testing and for "manual-report" mode where the engine never queries a
// real bridge at all.
type DevReader struct {
	State     AircraftState
	Connected bool
}

func (d DevReader) AircraftState(ctx context.Context) (AircraftState, bool) {
	if !d.Connected {
		return AircraftState{}, false
	}
	return d.State, true
}
