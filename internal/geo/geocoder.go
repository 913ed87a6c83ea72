package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Geocoder resolves US postal codes to coordinates via a Nominatim-compatible
// endpoint. Failures never propagate to the caller as errors: an unresolvable
// zip degrades to "no home location", which disables only the distance filter.
type Geocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// GeocoderConfig holds geocoder settings.
type GeocoderConfig struct {
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// NewGeocoder builds a geocoder with bounded request timeouts.
func NewGeocoder(cfg GeocoderConfig, logger *zap.Logger) *Geocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "scoutdeck"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Geocoder{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// nominatimHit is the subset of the search response we read.
type nominatimHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// ResolveZip geocodes a US zip code. The second return value reports whether
// the zip resolved; on failure the reason is logged, not returned.
func (g *Geocoder) ResolveZip(ctx context.Context, zip string) (Point, bool) {
	if zip == "" {
		return Point{}, false
	}
	q := url.Values{}
	q.Set("postalcode", zip)
	q.Set("country", "USA")
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		g.logger.Warn("geocode request build failed", zap.String("zip", zip), zap.Error(err))
		return Point{}, false
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Warn("geocode request failed", zap.String("zip", zip), zap.Error(err))
		return Point{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("geocode non-200", zap.String("zip", zip), zap.Int("status", resp.StatusCode))
		return Point{}, false
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		g.logger.Warn("geocode decode failed", zap.String("zip", zip), zap.Error(err))
		return Point{}, false
	}
	if len(hits) == 0 {
		g.logger.Debug("geocode no results", zap.String("zip", zip))
		return Point{}, false
	}

	lat, err1 := strconv.ParseFloat(hits[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(hits[0].Lon, 64)
	if err1 != nil || err2 != nil {
		g.logger.Warn("geocode bad coordinates", zap.String("zip", zip))
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}
