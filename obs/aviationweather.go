// obs/aviationweather.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package obs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ahunter-dev/fsweatherbridge/log"
)

// AviationWeatherBaseURL is the upstream data provider's REST root, the
// same shape used by the pack's wxscrape/wxingest fetchers for this data.
const AviationWeatherBaseURL = "https://aviationweather.gov/api/data"

const fetchTimeout = 30 * time.Second
const retryDelay = 1 * time.Second

// AviationWeatherSource fetches raw METAR/TAF text from aviationweather.gov
// over plain HTTP. Its cache is replaced wholesale on each successful
// refresh via an atomic pointer swap; readers never see a half-updated map,
// and a failed refresh simply leaves the previous map in place.
type AviationWeatherSource struct {
	client *http.Client
	log    *log.Logger

	metar       atomic.Pointer[map[string]Entry]
	taf         atomic.Pointer[map[string]Entry]
	lastRefresh atomic.Pointer[time.Time]
}

// NewAviationWeatherSource constructs a source with its own bounded HTTP
// client, per §5's "one HTTP client per fetcher with a session pool" policy.
func NewAviationWeatherSource(lg *log.Logger) *AviationWeatherSource {
	s := &AviationWeatherSource{
		client: &http.Client{
			Timeout:   fetchTimeout,
			Transport: http.DefaultTransport,
		},
		log: lg,
	}
	empty := map[string]Entry{}
	s.metar.Store(&empty)
	tafEmpty := map[string]Entry{}
	s.taf.Store(&tafEmpty)
	return s
}

// Refresh fetches new METAR and TAF text for icaos if the cache is older
// than maxAge. METAR and TAF are fetched concurrently via an errgroup; a
// single retry follows a 1s backoff on transport failure, matching §5's
// "30s timeout, one retry after 1s" suspension-point policy. On failure
// the previously cached maps are left untouched.
func (s *AviationWeatherSource) Refresh(ctx context.Context, icaos []string, maxAge time.Duration) error {
	if len(icaos) == 0 {
		return nil
	}
	if last := s.lastRefresh.Load(); last != nil && time.Since(*last) < maxAge {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	var metarMap, tafMap map[string]Entry
	var eg errgroup.Group
	eg.Go(func() error {
		m, err := s.fetchWithRetry(ctx, "metar", icaos)
		if err != nil {
			return err
		}
		metarMap = m
		return nil
	})
	eg.Go(func() error {
		m, err := s.fetchWithRetry(ctx, "taf", icaos)
		if err != nil {
			return err
		}
		tafMap = m
		return nil
	})

	if err := eg.Wait(); err != nil {
		if s.log != nil {
			s.log.Warnf("obs: refresh failed, keeping previous cache: %v", err)
		}
		return err
	}

	s.metar.Store(&metarMap)
	s.taf.Store(&tafMap)
	now := time.Now()
	s.lastRefresh.Store(&now)
	return nil
}

func (s *AviationWeatherSource) fetchWithRetry(ctx context.Context, kind string, icaos []string) (map[string]Entry, error) {
	m, err := s.fetchOnce(ctx, kind, icaos)
	if err == nil {
		return m, nil
	}
	select {
	case <-time.After(retryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.fetchOnce(ctx, kind, icaos)
}

func (s *AviationWeatherSource) fetchOnce(ctx context.Context, kind string, icaos []string) (map[string]Entry, error) {
	u := fmt.Sprintf("%s/%s?ids=%s&format=raw", AviationWeatherBaseURL, kind, url.QueryEscape(strings.Join(icaos, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("obs: building %s request: %w", kind, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("obs: fetching %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("obs: %s fetch returned status %d", kind, resp.StatusCode)
	}

	return parseRawLines(resp.Body)
}

// parseRawLines splits a raw-text response into one entry per line, keyed
// by the line's leading ICAO token. Blank lines are skipped.
func parseRawLines(r io.Reader) (map[string]Entry, error) {
	out := make(map[string]Entry)
	now := time.Now()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		icao := fields[0]
		if len(icao) > 4 {
			icao = icao[:4]
		}
		out[strings.ToUpper(icao)] = Entry{Raw: line, FetchedAt: now}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obs: reading response: %w", err)
	}
	return out, nil
}

func (s *AviationWeatherSource) METAR(icao string) (Entry, bool) {
	icao = strings.ToUpper(icao)
	m := s.metar.Load()
	if m == nil {
		return Entry{}, false
	}
	e, ok := (*m)[icao]
	return e, ok
}

func (s *AviationWeatherSource) TAF(icao string) (Entry, bool) {
	icao = strings.ToUpper(icao)
	m := s.taf.Load()
	if m == nil {
		return Entry{}, false
	}
	e, ok := (*m)[icao]
	return e, ok
}
