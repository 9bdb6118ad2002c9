package pipeline

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/solar-assess/internal/config"
	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/resolve"
	"github.com/sells-group/solar-assess/pkg/anthropic"
	"github.com/sells-group/solar-assess/pkg/geocode"
	"github.com/sells-group/solar-assess/pkg/googlesolar"
	"github.com/sells-group/solar-assess/pkg/nrel"
	"github.com/sells-group/solar-assess/pkg/openmeteo"
)

// ChainSpec is one provider entry in the chains file. Weight 0 keeps the
// provider's configured weight.
type ChainSpec struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight,omitempty"`
}

// ChainsFile optionally reorders and reweights the fallback chains without
// a rebuild. Absent capabilities keep the default order.
type ChainsFile struct {
	Geocode []ChainSpec `yaml:"geocode"`
	Solar   []ChainSpec `yaml:"solar"`
	Roof    []ChainSpec `yaml:"roof"`
}

// LoadChainsFile reads a chains override file.
func LoadChainsFile(path string) (*ChainsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read chains file %s", path)
	}
	var wrapper struct {
		Chains ChainsFile `yaml:"chains"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "pipeline: parse chains file")
	}
	return &wrapper.Chains, nil
}

// weighted overrides a provider's confidence weight from the chains file.
type weighted[In, Out any] struct {
	resolve.Provider[In, Out]
	weight float64
}

func (w weighted[In, Out]) Weight() float64 { return w.weight }

// orderProviders applies a chains-file ordering to the default provider
// list. Unknown names are skipped with a warning; an empty spec keeps the
// defaults.
func orderProviders[In, Out any](defaults []resolve.Provider[In, Out], specs []ChainSpec) []resolve.Provider[In, Out] {
	if len(specs) == 0 {
		return defaults
	}
	byName := make(map[string]resolve.Provider[In, Out], len(defaults))
	for _, p := range defaults {
		byName[p.Name()] = p
	}

	out := make([]resolve.Provider[In, Out], 0, len(specs))
	for _, spec := range specs {
		p, ok := byName[spec.Name]
		if !ok {
			zap.L().Warn("pipeline: unknown provider in chains file", zap.String("provider", spec.Name))
			continue
		}
		if spec.Weight > 0 {
			p = weighted[In, Out]{Provider: p, weight: spec.Weight}
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return defaults
	}
	return out
}

// BuildChains assembles the three fallback chains from configuration. The
// anthropic client may be nil (no key); the roof chain then goes straight to
// its estimate fallback.
func BuildChains(cfg *config.Config, ai anthropic.Client) (
	geo *resolve.Chain[string, model.Location],
	solar *resolve.Chain[model.Location, model.SolarEstimate],
	roof *resolve.Chain[model.Location, model.RoofAnalysis],
) {
	var overrides ChainsFile
	if cfg.Pipeline.ChainsFile != "" {
		loaded, err := LoadChainsFile(cfg.Pipeline.ChainsFile)
		if err != nil {
			zap.L().Warn("pipeline: chains file ignored", zap.Error(err))
		} else {
			overrides = *loaded
		}
	}

	geoProviders := orderProviders([]resolve.Provider[string, model.Location]{
		geocode.NewCensusProvider(cfg.Geocode.CensusWeight, geocode.WithCensusRateLimit(cfg.Geocode.CensusRPS)),
		geocode.NewGoogleProvider(cfg.Geocode.GoogleKey, cfg.Geocode.GoogleWeight),
		geocode.NewStaticProvider(cfg.Geocode.StaticWeight),
	}, overrides.Geocode)

	solarProviders := orderProviders([]resolve.Provider[model.Location, model.SolarEstimate]{
		googlesolar.New(cfg.Solar.GoogleKey, cfg.Solar.GoogleWeight),
		nrel.New(cfg.Solar.NRELKey, cfg.Solar.PVWattsWeight),
		openmeteo.New(cfg.Solar.OpenMeteoWeight),
	}, overrides.Solar)

	roofProviders := orderProviders([]resolve.Provider[model.Location, model.RoofAnalysis]{
		NewClaudeRoofProvider(ai, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, cfg.Anthropic.Weight),
	}, overrides.Roof)

	timeout := cfg.Pipeline.ProviderTimeout()
	geo = resolve.NewChain("geocode", geoProviders, estimateLocation).WithTimeout(timeout)
	solar = resolve.NewChain("solar", solarProviders, estimateSolar).WithTimeout(timeout)
	roof = resolve.NewChain("roof", roofProviders, estimateRoof).WithTimeout(timeout)
	return geo, solar, roof
}

// estimateLocation is the synthetic geocoding fallback: the request address
// echoed back over the continental-US centroid, never verified.
func estimateLocation(address string) model.Location {
	return model.Location{
		FormattedAddress: address,
		Latitude:         39.8283,
		Longitude:        -98.5795,
		Verified:         false,
	}
}

// estimateSolar is the synthetic solar fallback: a reference 6 kW system
// with peak sun hours approximated from latitude.
func estimateSolar(loc model.Location) model.SolarEstimate {
	const capacityKw = 6.0
	lat := loc.Latitude
	if lat < 0 {
		lat = -lat
	}
	peakSunHours := 6.5 - lat*0.05
	if peakSunHours < 3.0 {
		peakSunHours = 3.0
	}

	annual := capacityKw * peakSunHours * 365 * 0.78
	return model.SolarEstimate{
		AnnualProductionKwh: annual,
		MonthlySeries:       distributeMonthly(annual, loc.Latitude),
		SystemCapacityKw:    capacityKw,
		PanelCount:          15,
		RoofTiltDeg:         20,
		RoofAzimuthDeg:      180,
	}
}
