// Package googlesolar wraps the Google Solar API buildingInsights endpoint,
// the primary solar-potential source.
package googlesolar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/resolve"
)

const defaultBaseURL = "https://solar.googleapis.com/v1"

// insightsResponse is the subset of buildingInsights:findClosest we consume.
type insightsResponse struct {
	SolarPotential struct {
		MaxArrayPanelsCount int     `json:"maxArrayPanelsCount"`
		MaxArrayAreaM2      float64 `json:"maxArrayAreaMeters2"`
		PanelCapacityWatts  float64 `json:"panelCapacityWatts"`
		RoofSegmentStats    []struct {
			PitchDegrees   float64 `json:"pitchDegrees"`
			AzimuthDegrees float64 `json:"azimuthDegrees"`
		} `json:"roofSegmentStats"`
		SolarPanelConfigs []struct {
			PanelsCount       int     `json:"panelsCount"`
			YearlyEnergyDcKwh float64 `json:"yearlyEnergyDcKwh"`
		} `json:"solarPanelConfigs"`
	} `json:"solarPotential"`
}

// Provider calls buildingInsights for a resolved location. Skipped when no
// API key is configured.
type Provider struct {
	baseURL string
	apiKey  string
	http    *http.Client
	weight  float64
}

// Option configures the provider.
type Option func(*Provider)

// WithBaseURL overrides the API endpoint (tests).
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Provider) { p.http = hc }
}

// New creates the primary solar-potential provider.
func New(apiKey string, weight float64, opts ...Option) *Provider {
	p := &Provider{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		weight:  weight,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Name implements resolve.Provider.
func (p *Provider) Name() string { return model.SourceGoogleSolar }

// Weight implements resolve.Provider.
func (p *Provider) Weight() float64 { return p.weight }

// Available implements resolve.Provider.
func (p *Provider) Available() bool { return p.apiKey != "" }

// Resolve implements resolve.Provider. The returned estimate keeps the
// provider's raw annual figure; the pipeline's seasonal model fills in the
// monthly series since buildingInsights reports only yearly energy.
func (p *Provider) Resolve(ctx context.Context, loc model.Location) (model.SolarEstimate, error) {
	reqURL := fmt.Sprintf("%s/buildingInsights:findClosest?location.latitude=%f&location.longitude=%f&key=%s",
		p.baseURL, loc.Latitude, loc.Longitude, p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.SolarEstimate{}, &resolve.Unavailable{Provider: p.Name(), Reason: resolve.ReasonMalformed, Err: err}
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return model.SolarEstimate{}, &resolve.Unavailable{Provider: p.Name(), Reason: resolve.ReasonHTTPError, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return model.SolarEstimate{}, &resolve.Unavailable{Provider: p.Name(), Reason: resolve.ReasonHTTPError, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return model.SolarEstimate{}, &resolve.Unavailable{Provider: p.Name(), Reason: resolve.ReasonMalformed, Err: err}
	}

	var parsed insightsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.SolarEstimate{}, &resolve.Unavailable{Provider: p.Name(), Reason: resolve.ReasonMalformed, Err: err}
	}

	sp := parsed.SolarPotential
	if len(sp.SolarPanelConfigs) == 0 {
		return model.SolarEstimate{}, &resolve.Unavailable{
			Provider: p.Name(),
			Reason:   resolve.ReasonMalformed,
			Err:      eris.New("no panel configs in response"),
		}
	}

	// The largest config is listed last.
	best := sp.SolarPanelConfigs[len(sp.SolarPanelConfigs)-1]

	est := model.SolarEstimate{
		AnnualProductionKwh: best.YearlyEnergyDcKwh,
		PanelCount:          best.PanelsCount,
		SystemCapacityKw:    float64(best.PanelsCount) * sp.PanelCapacityWatts / 1000,
	}
	if len(sp.RoofSegmentStats) > 0 {
		est.RoofTiltDeg = sp.RoofSegmentStats[0].PitchDegrees
		est.RoofAzimuthDeg = sp.RoofSegmentStats[0].AzimuthDegrees
	}
	return est, nil
}
