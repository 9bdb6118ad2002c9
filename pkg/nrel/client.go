// Package nrel wraps the NREL PVWatts v8 API, the secondary solar-potential
// source. PVWatts models production from typical-year weather data given a
// system size, so the adapter assumes a reference residential system.
package nrel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/resolve"
)

const defaultBaseURL = "https://developer.nrel.gov/api/pvwatts/v8.json"

// Reference system assumptions for the PVWatts run.
const (
	refCapacityKw  = 6.0
	refTiltDeg     = 20.0
	refAzimuthDeg  = 180.0 // south-facing
	refLossesPct   = 14.0
	panelWattsEach = 400.0
)

// pvwattsResponse is the subset of the PVWatts v8 response we consume.
type pvwattsResponse struct {
	Errors  []string `json:"errors"`
	Outputs struct {
		ACAnnual  float64   `json:"ac_annual"`
		ACMonthly []float64 `json:"ac_monthly"`
	} `json:"outputs"`
}

// Provider calls PVWatts for a resolved location. Skipped when no API key
// is configured.
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

// New creates the PVWatts provider.
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
func (p *Provider) Name() string { return model.SourcePVWatts }

// Weight implements resolve.Provider.
func (p *Provider) Weight() float64 { return p.weight }

// Available implements resolve.Provider.
func (p *Provider) Available() bool { return p.apiKey != "" }

// Resolve implements resolve.Provider.
func (p *Provider) Resolve(ctx context.Context, loc model.Location) (model.SolarEstimate, error) {
	params := url.Values{
		"api_key":         {p.apiKey},
		"lat":             {strconv.FormatFloat(loc.Latitude, 'f', 6, 64)},
		"lon":             {strconv.FormatFloat(loc.Longitude, 'f', 6, 64)},
		"system_capacity": {strconv.FormatFloat(refCapacityKw, 'f', 1, 64)},
		"azimuth":         {strconv.FormatFloat(refAzimuthDeg, 'f', 0, 64)},
		"tilt":            {strconv.FormatFloat(refTiltDeg, 'f', 0, 64)},
		"array_type":      {"1"}, // fixed roof mount
		"module_type":     {"0"}, // standard
		"losses":          {strconv.FormatFloat(refLossesPct, 'f', 0, 64)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
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

	var parsed pvwattsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.SolarEstimate{}, &resolve.Unavailable{Provider: p.Name(), Reason: resolve.ReasonMalformed, Err: err}
	}
	if len(parsed.Errors) > 0 {
		return model.SolarEstimate{}, &resolve.Unavailable{
			Provider: p.Name(),
			Reason:   resolve.ReasonMalformed,
			Err:      eris.Errorf("pvwatts errors: %v", parsed.Errors),
		}
	}
	if parsed.Outputs.ACAnnual <= 0 || len(parsed.Outputs.ACMonthly) != 12 {
		return model.SolarEstimate{}, &resolve.Unavailable{
			Provider: p.Name(),
			Reason:   resolve.ReasonMalformed,
			Err:      eris.New("pvwatts outputs incomplete"),
		}
	}

	est := model.SolarEstimate{
		AnnualProductionKwh: parsed.Outputs.ACAnnual,
		SystemCapacityKw:    refCapacityKw,
		PanelCount:          int(refCapacityKw * 1000 / panelWattsEach),
		RoofTiltDeg:         refTiltDeg,
		RoofAzimuthDeg:      refAzimuthDeg,
	}
	copy(est.MonthlySeries[:], parsed.Outputs.ACMonthly)
	return est, nil
}
