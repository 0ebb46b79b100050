// Package osrm implements the routing provider port against an OSRM
// route service.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/ports/out/routing"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient builds a provider against the given OSRM base URL
// (e.g. "https://router.project-osrm.org"). A nil http.Client gets a
// sensible default timeout.
func NewClient(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

func (c *Client) Route(ctx context.Context, coords []domain.Coordinate, profile routing.Profile) (routing.Route, error) {
	if len(coords) < 2 {
		return routing.Route{}, fmt.Errorf("osrm: need at least 2 coordinates, got %d", len(coords))
	}

	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = fmt.Sprintf("%f,%f", c.Lng, c.Lat)
	}
	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	endpoint := fmt.Sprintf("%s/route/v1/%s/%s?%s", c.baseURL, profile, strings.Join(parts, ";"), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return routing.Route{}, fmt.Errorf("osrm: build request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return routing.Route{}, fmt.Errorf("osrm: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return routing.Route{}, routing.ErrNoRoute
	}
	if resp.StatusCode != http.StatusOK {
		return routing.Route{}, fmt.Errorf("osrm: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return routing.Route{}, fmt.Errorf("osrm: read response: %w", err)
	}
	var parsed routeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return routing.Route{}, fmt.Errorf("osrm: decode response: %w", err)
	}
	if parsed.Code != "Ok" || len(parsed.Routes) == 0 {
		return routing.Route{}, routing.ErrNoRoute
	}

	best := parsed.Routes[0]
	geometry := make([]domain.Coordinate, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		geometry = append(geometry, domain.Coordinate{Lng: pair[0], Lat: pair[1]})
	}
	return routing.Route{
		Geometry:        geometry,
		DurationSeconds: best.Duration,
		DistanceMeters:  best.Distance,
	}, nil
}
