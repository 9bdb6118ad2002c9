package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/resolve"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleResponse is the Google Geocoding API response shape.
type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
	} `json:"results"`
}

// GoogleProvider geocodes via the Google Geocoding API. Skipped when no API
// key is configured.
type GoogleProvider struct {
	baseURL string
	apiKey  string
	http    *http.Client
	weight  float64
}

// GoogleOption configures the provider.
type GoogleOption func(*GoogleProvider)

// WithGoogleBaseURL overrides the API endpoint (tests).
func WithGoogleBaseURL(u string) GoogleOption {
	return func(p *GoogleProvider) { p.baseURL = u }
}

// WithGoogleHTTPClient overrides the HTTP client.
func WithGoogleHTTPClient(hc *http.Client) GoogleOption {
	return func(p *GoogleProvider) { p.http = hc }
}

// NewGoogleProvider creates the fallback geocoder.
func NewGoogleProvider(apiKey string, weight float64, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		baseURL: googleGeocodeURL,
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
func (p *GoogleProvider) Name() string { return model.SourceGoogle }

// Weight implements resolve.Provider.
func (p *GoogleProvider) Weight() float64 { return p.weight }

// Available implements resolve.Provider.
func (p *GoogleProvider) Available() bool { return p.apiKey != "" }

// Resolve implements resolve.Provider.
func (p *GoogleProvider) Resolve(ctx context.Context, address string) (model.Location, error) {
	params := url.Values{
		"address": {address},
		"key":     {p.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return model.Location{}, unavailable(model.SourceGoogle, resolve.ReasonMalformed, err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return model.Location{}, httpUnavailable(model.SourceGoogle, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return model.Location{}, &resolve.Unavailable{
			Provider: model.SourceGoogle,
			Reason:   resolve.ReasonHTTPError,
			Status:   resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.Location{}, unavailable(model.SourceGoogle, resolve.ReasonMalformed, err)
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.Location{}, unavailable(model.SourceGoogle, resolve.ReasonMalformed, err)
	}

	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return model.Location{}, unavailable(model.SourceGoogle, resolve.ReasonUnavailable,
			eris.Errorf("google status %q with %d results", parsed.Status, len(parsed.Results)))
	}

	best := parsed.Results[0]
	return model.Location{
		FormattedAddress: best.FormattedAddress,
		Latitude:         best.Geometry.Location.Lat,
		Longitude:        best.Geometry.Location.Lng,
		Verified:         best.Geometry.LocationType == "ROOFTOP",
	}, nil
}
