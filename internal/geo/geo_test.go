package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiles(t *testing.T) {
	nyc := Point{Lat: 40.7128, Lon: -74.0060}
	la := Point{Lat: 34.0522, Lon: -118.2437}

	assert.InDelta(t, 2445, Miles(nyc, la), 15)
	assert.InDelta(t, 2445, Miles(la, nyc), 15)
	assert.Zero(t, Miles(nyc, nyc))
}

func TestMilesShortHop(t *testing.T) {
	// Wichita to Salina, roughly 80 miles.
	a := Point{Lat: 37.6872, Lon: -97.3301}
	b := Point{Lat: 38.8403, Lon: -97.6114}
	assert.InDelta(t, 80, Miles(a, b), 5)
}

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) *Geocoder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeocoder(GeocoderConfig{
		BaseURL:   srv.URL,
		UserAgent: "scoutdeck-test",
		Timeout:   2 * time.Second,
	}, nil)
}

func TestResolveZip(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "67401", r.URL.Query().Get("postalcode"))
		assert.Equal(t, "USA", r.URL.Query().Get("country"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "scoutdeck-test", r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat":"38.8403","lon":"-97.6114"}]`))
	})

	p, ok := g.ResolveZip(context.Background(), "67401")
	require.True(t, ok)
	assert.InDelta(t, 38.8403, p.Lat, 1e-9)
	assert.InDelta(t, -97.6114, p.Lon, 1e-9)
}

func TestResolveZipNoResults(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	_, ok := g.ResolveZip(context.Background(), "00000")
	assert.False(t, ok)
}

func TestResolveZipServerError(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, ok := g.ResolveZip(context.Background(), "67401")
	assert.False(t, ok)
}

func TestResolveZipBadPayload(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"north","lon":"west"}]`))
	})
	_, ok := g.ResolveZip(context.Background(), "67401")
	assert.False(t, ok)
}

func TestResolveZipEmptyInput(t *testing.T) {
	g := NewGeocoder(GeocoderConfig{}, nil)
	_, ok := g.ResolveZip(context.Background(), "")
	assert.False(t, ok)
}
