package geocode

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/resolve"
)

// cityCentroids maps "city|ST" to an approximate centroid. Coarse by design:
// the static provider only has to keep the pipeline moving when both network
// geocoders are down.
var cityCentroids = map[string][2]float64{
	"san francisco|CA": {37.7749, -122.4194},
	"los angeles|CA":   {34.0522, -118.2437},
	"san diego|CA":     {32.7157, -117.1611},
	"sacramento|CA":    {38.5816, -121.4944},
	"phoenix|AZ":       {33.4484, -112.0740},
	"tucson|AZ":        {32.2226, -110.9747},
	"las vegas|NV":     {36.1699, -115.1398},
	"denver|CO":        {39.7392, -104.9903},
	"austin|TX":        {30.2672, -97.7431},
	"houston|TX":       {29.7604, -95.3698},
	"dallas|TX":        {32.7767, -96.7970},
	"miami|FL":         {25.7617, -80.1918},
	"orlando|FL":       {28.5384, -81.3789},
	"tampa|FL":         {27.9506, -82.4572},
	"atlanta|GA":       {33.7490, -84.3880},
	"seattle|WA":       {47.6062, -122.3321},
	"portland|OR":      {45.5152, -122.6784},
	"new york|NY":      {40.7128, -74.0060},
	"boston|MA":        {42.3601, -71.0589},
	"chicago|IL":       {41.8781, -87.6298},
}

// StaticProvider resolves addresses to city centroids from an embedded
// table. It never marks results verified and carries a low weight.
type StaticProvider struct {
	weight float64
}

// NewStaticProvider creates the offline geocoder of last resort.
func NewStaticProvider(weight float64) *StaticProvider {
	return &StaticProvider{weight: weight}
}

// Name implements resolve.Provider.
func (p *StaticProvider) Name() string { return model.SourceStatic }

// Weight implements resolve.Provider.
func (p *StaticProvider) Weight() float64 { return p.weight }

// Available implements resolve.Provider.
func (p *StaticProvider) Available() bool { return true }

// Resolve implements resolve.Provider.
func (p *StaticProvider) Resolve(_ context.Context, address string) (model.Location, error) {
	city, state, ok := cityState(address)
	if !ok {
		return model.Location{}, unavailable(model.SourceStatic, resolve.ReasonUnavailable,
			eris.New("address has no city/state component"))
	}

	key := strings.ToLower(city) + "|" + state
	centroid, ok := cityCentroids[key]
	if !ok {
		return model.Location{}, unavailable(model.SourceStatic, resolve.ReasonUnavailable,
			eris.Errorf("no centroid for %s, %s", city, state))
	}

	return model.Location{
		FormattedAddress: titleCaser.String(strings.ToLower(city)) + ", " + state,
		Latitude:         centroid[0],
		Longitude:        centroid[1],
		Verified:         false,
	}, nil
}
