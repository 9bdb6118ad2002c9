package googlesolar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/resolve"
)

var austin = model.Location{Latitude: 30.2672, Longitude: -97.7431}

const insightsBody = `{
  "solarPotential": {
    "maxArrayPanelsCount": 40,
    "maxArrayAreaMeters2": 120.5,
    "panelCapacityWatts": 400,
    "roofSegmentStats": [
      {"pitchDegrees": 22.5, "azimuthDegrees": 175.0},
      {"pitchDegrees": 30.0, "azimuthDegrees": 90.0}
    ],
    "solarPanelConfigs": [
      {"panelsCount": 4, "yearlyEnergyDcKwh": 2400},
      {"panelsCount": 15, "yearlyEnergyDcKwh": 9100}
    ]
  }
}`

func TestProvider_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "buildingInsights:findClosest")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(insightsBody))
	}))
	defer srv.Close()

	p := New("test-key", 0.95, WithBaseURL(srv.URL))
	est, err := p.Resolve(context.Background(), austin)
	require.NoError(t, err)

	// The largest panel config wins.
	assert.Equal(t, 9100.0, est.AnnualProductionKwh)
	assert.Equal(t, 15, est.PanelCount)
	assert.Equal(t, 6.0, est.SystemCapacityKw) // 15 * 400W
	assert.Equal(t, 22.5, est.RoofTiltDeg)
	assert.Equal(t, 175.0, est.RoofAzimuthDeg)
}

func TestProvider_NoPanelConfigs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"solarPotential":{"solarPanelConfigs":[]}}`))
	}))
	defer srv.Close()

	p := New("test-key", 0.95, WithBaseURL(srv.URL))
	_, err := p.Resolve(context.Background(), austin)

	var u *resolve.Unavailable
	require.True(t, errors.As(err, &u))
	assert.Equal(t, resolve.ReasonMalformed, u.Reason)
}

func TestProvider_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := New("test-key", 0.95, WithBaseURL(srv.URL))
	_, err := p.Resolve(context.Background(), austin)

	var u *resolve.Unavailable
	require.True(t, errors.As(err, &u))
	assert.Equal(t, resolve.ReasonHTTPError, u.Reason)
	assert.Equal(t, http.StatusNotFound, u.Status)
}

func TestProvider_AvailabilityTracksKey(t *testing.T) {
	assert.False(t, New("", 0.95).Available())
	assert.True(t, New("k", 0.95).Available())
	assert.Equal(t, "google_solar", New("k", 0.95).Name())
}
