package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/resolve"
)

const (
	censusOneLineURL = "https://geocoding.geo.census.gov/geocoder/locations/onelineaddress"
	censusBenchmark  = "Public_AR_Current"
)

// censusResponse is the JSON response from the Census one-line API.
type censusResponse struct {
	Result struct {
		AddressMatches []struct {
			Coordinates struct {
				X float64 `json:"x"` // longitude
				Y float64 `json:"y"` // latitude
			} `json:"coordinates"`
			MatchedAddress string `json:"matchedAddress"`
		} `json:"addressMatches"`
	} `json:"result"`
}

// CensusProvider geocodes via the free Census one-line API. No key needed.
type CensusProvider struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	weight  float64
}

// CensusOption configures the provider.
type CensusOption func(*CensusProvider)

// WithCensusBaseURL overrides the API endpoint (tests).
func WithCensusBaseURL(u string) CensusOption {
	return func(p *CensusProvider) { p.baseURL = u }
}

// WithCensusHTTPClient overrides the HTTP client.
func WithCensusHTTPClient(hc *http.Client) CensusOption {
	return func(p *CensusProvider) { p.http = hc }
}

// WithCensusRateLimit sets the requests-per-second limit.
func WithCensusRateLimit(rps float64) CensusOption {
	return func(p *CensusProvider) { p.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)) }
}

// NewCensusProvider creates the primary geocoder with the given confidence
// weight.
func NewCensusProvider(weight float64, opts ...CensusOption) *CensusProvider {
	p := &CensusProvider{
		baseURL: censusOneLineURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(50, 50), // Census default: 50 req/s
		weight:  weight,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Name implements resolve.Provider.
func (p *CensusProvider) Name() string { return model.SourceCensus }

// Weight implements resolve.Provider.
func (p *CensusProvider) Weight() float64 { return p.weight }

// Available implements resolve.Provider.
func (p *CensusProvider) Available() bool { return true }

// Resolve implements resolve.Provider.
func (p *CensusProvider) Resolve(ctx context.Context, address string) (model.Location, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return model.Location{}, unavailable(model.SourceCensus, resolve.ReasonTimeout, err)
	}

	params := url.Values{
		"address":   {address},
		"benchmark": {censusBenchmark},
		"format":    {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return model.Location{}, unavailable(model.SourceCensus, resolve.ReasonMalformed, err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return model.Location{}, httpUnavailable(model.SourceCensus, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return model.Location{}, &resolve.Unavailable{
			Provider: model.SourceCensus,
			Reason:   resolve.ReasonHTTPError,
			Status:   resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.Location{}, unavailable(model.SourceCensus, resolve.ReasonMalformed, err)
	}

	var parsed censusResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.Location{}, unavailable(model.SourceCensus, resolve.ReasonMalformed, err)
	}

	if len(parsed.Result.AddressMatches) == 0 {
		return model.Location{}, unavailable(model.SourceCensus, resolve.ReasonUnavailable, eris.New("no address match"))
	}

	match := parsed.Result.AddressMatches[0]
	return model.Location{
		FormattedAddress: presentAddress(match.MatchedAddress),
		Latitude:         match.Coordinates.Y,
		Longitude:        match.Coordinates.X,
		Verified:         true,
	}, nil
}

// unavailable wraps a routine provider failure for the fallback chain.
func unavailable(provider string, reason resolve.Reason, err error) *resolve.Unavailable {
	return &resolve.Unavailable{Provider: provider, Reason: reason, Err: err}
}

// httpUnavailable classifies transport errors, mapping context expiry to the
// timeout reason.
func httpUnavailable(provider string, err error) *resolve.Unavailable {
	reason := resolve.ReasonHTTPError
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		reason = resolve.ReasonTimeout
	}
	return &resolve.Unavailable{Provider: provider, Reason: reason, Err: err}
}
