// Package nominatim implements the geocoder port against a Nominatim
// search endpoint.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/ports/out/geocode"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "tripweaver/1.0"
)

type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient builds a geocoder against the given Nominatim base URL
// (e.g. "https://nominatim.openstreetmap.org").
func NewClient(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

type searchResult struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class"`
	Type        string `json:"type"`
	Address     struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]geocode.Result, error) {
	if limit <= 0 {
		limit = 8
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("nominatim: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("nominatim: read response: %w", err)
	}
	var raw []searchResult
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("nominatim: decode response: %w", err)
	}

	out := make([]geocode.Result, 0, len(raw))
	for _, r := range raw {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lng, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		name := r.Name
		if name == "" {
			name = firstPart(r.DisplayName)
		}
		out = append(out, geocode.Result{
			Name:        name,
			DisplayName: r.DisplayName,
			Coord:       domain.Coordinate{Lng: lng, Lat: lat},
			Category:    categoryFor(r.Class, r.Type),
			City:        cityOf(r),
			CountryCode: strings.ToUpper(r.Address.CountryCode),
		})
	}
	return out, nil
}

func firstPart(displayName string) string {
	if i := strings.IndexByte(displayName, ','); i > 0 {
		return strings.TrimSpace(displayName[:i])
	}
	return displayName
}

func cityOf(r searchResult) string {
	switch {
	case r.Address.City != "":
		return r.Address.City
	case r.Address.Town != "":
		return r.Address.Town
	default:
		return r.Address.Village
	}
}

// categoryFor maps Nominatim's class/type taxonomy to the free-text category
// the store later normalizes via domain.ParseCategory.
func categoryFor(class, typ string) string {
	switch class {
	case "tourism":
		if typ == "hotel" || typ == "hostel" || typ == "guest_house" {
			return "hotel"
		}
		return "attraction"
	case "amenity":
		switch typ {
		case "restaurant", "cafe", "bar", "fast_food":
			return "restaurant"
		}
		return "attraction"
	case "place":
		switch typ {
		case "city", "town", "village":
			return "city"
		}
		return "attraction"
	case "leisure":
		return "activity"
	default:
		return "attraction"
	}
}
