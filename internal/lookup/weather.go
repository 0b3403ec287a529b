// Package lookup holds the HTTP clients for the two external lookups the bot
// depends on: current temperature by city (OpenWeatherMap) and energy density
// by product name (OpenFoodFacts). Both collapse every failure into "unknown"
// or "not found"; the bot never sees a transport error.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultWeatherURL = "https://api.openweathermap.org"
	weatherCacheTTL   = 10 * time.Minute
)

// Weather resolves temperatures through the OpenWeatherMap current-weather API.
type Weather struct {
	baseURL string // overridable for tests
	apiKey  string
	client  *http.Client
	cache   Cache
}

// NewWeather builds a client. timeout bounds each request; cache may be nil.
func NewWeather(baseURL, apiKey string, timeout time.Duration, cache Cache) *Weather {
	if baseURL == "" {
		baseURL = DefaultWeatherURL
	}
	return &Weather{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		cache:   cache,
	}
}

// Temperature returns the current temperature in °C, or nil on any failure.
func (w *Weather) Temperature(ctx context.Context, city string) *float64 {
	key := CacheKey("weather", city)
	var cached float64
	if w.cache != nil && w.cache.Get(ctx, key, &cached) {
		return &cached
	}

	temp, err := w.fetch(ctx, city)
	if err != nil {
		log.Printf("[weather] %q: %v", city, err)
		return nil
	}
	if w.cache != nil {
		w.cache.Set(ctx, key, temp, weatherCacheTTL)
	}
	return &temp
}

func (w *Weather) fetch(ctx context.Context, city string) (float64, error) {
	params := url.Values{
		"q":     {city},
		"appid": {w.apiKey},
		"units": {"metric"},
		"lang":  {"ru"},
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/data/2.5/weather?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("openweather returned status %d", resp.StatusCode)
	}

	// Only main.temp matters. A pointer tells a missing field from 0°C.
	var result struct {
		Main struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}
	if result.Main.Temp == nil {
		return 0, fmt.Errorf("no main.temp in response")
	}
	return *result.Main.Temp, nil
}
