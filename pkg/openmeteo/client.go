// Package openmeteo wraps the Open-Meteo forecast API as a keyless
// irradiance source. Production is derived from daily shortwave radiation,
// so it ranks below the dedicated solar estimators in the fallback chain.
package openmeteo

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

const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// Derivation constants for converting irradiance to production.
const (
	refCapacityKw    = 6.0
	performanceRatio = 0.78 // inverter, wiring, temperature losses
	panelWattsEach   = 400.0
)

// forecastResponse is the subset of the Open-Meteo response we consume.
type forecastResponse struct {
	Daily struct {
		RadiationSumMJ []float64 `json:"shortwave_radiation_sum"`
	} `json:"daily"`
}

// Provider estimates production from recent daily irradiance.
type Provider struct {
	baseURL string
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

// New creates the irradiance-derived provider. Open-Meteo needs no key.
func New(weight float64, opts ...Option) *Provider {
	p := &Provider{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		weight:  weight,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Name implements resolve.Provider.
func (p *Provider) Name() string { return model.SourceOpenMeteo }

// Weight implements resolve.Provider.
func (p *Provider) Weight() float64 { return p.weight }

// Available implements resolve.Provider.
func (p *Provider) Available() bool { return true }

// Resolve implements resolve.Provider. The sampled days are extrapolated to
// an annual figure; the pipeline's seasonal model fills in the monthly
// series.
func (p *Provider) Resolve(ctx context.Context, loc model.Location) (model.SolarEstimate, error) {
	reqURL := fmt.Sprintf("%s?latitude=%f&longitude=%f&daily=shortwave_radiation_sum&past_days=14&forecast_days=1",
		p.baseURL, loc.Latitude, loc.Longitude)

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

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.SolarEstimate{}, &resolve.Unavailable{Provider: p.Name(), Reason: resolve.ReasonMalformed, Err: err}
	}

	var parsed forecastResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.SolarEstimate{}, &resolve.Unavailable{Provider: p.Name(), Reason: resolve.ReasonMalformed, Err: err}
	}
	if len(parsed.Daily.RadiationSumMJ) == 0 {
		return model.SolarEstimate{}, &resolve.Unavailable{
			Provider: p.Name(),
			Reason:   resolve.ReasonMalformed,
			Err:      eris.New("no radiation samples"),
		}
	}

	// MJ/m² → kWh/m² (peak sun hours), averaged over the sample window.
	var sumKwhM2 float64
	for _, mj := range parsed.Daily.RadiationSumMJ {
		sumKwhM2 += mj / 3.6
	}
	avgDaily := sumKwhM2 / float64(len(parsed.Daily.RadiationSumMJ))

	annual := refCapacityKw * avgDaily * 365 * performanceRatio
	return model.SolarEstimate{
		AnnualProductionKwh: annual,
		SystemCapacityKw:    refCapacityKw,
		PanelCount:          int(refCapacityKw * 1000 / panelWattsEach),
	}, nil
}
