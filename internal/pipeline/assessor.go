// Package pipeline orchestrates one end-to-end solar assessment: geocode the
// address, fan out the independent solar and roof lookups, derive financial
// and environmental metrics, and assemble the composite record. Stage
// failures degrade confidence; they never abort the pipeline.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/solar-assess/internal/cache"
	"github.com/sells-group/solar-assess/internal/config"
	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/resolve"
)

// Assessor runs assessments over injected fallback chains and cache.
type Assessor struct {
	cfg   *config.Config
	geo   *resolve.Chain[string, model.Location]
	solar *resolve.Chain[model.Location, model.SolarEstimate]
	roof  *resolve.Chain[model.Location, model.RoofAnalysis]
	store cache.Store[*model.CompositeAssessment]
	prop  *Proposer
}

// NewAssessor wires the orchestrator.
func NewAssessor(
	cfg *config.Config,
	geo *resolve.Chain[string, model.Location],
	solar *resolve.Chain[model.Location, model.SolarEstimate],
	roof *resolve.Chain[model.Location, model.RoofAnalysis],
	store cache.Store[*model.CompositeAssessment],
	prop *Proposer,
) *Assessor {
	return &Assessor{cfg: cfg, geo: geo, solar: solar, roof: roof, store: store, prop: prop}
}

// Run executes one assessment. The only hard failure is an invalid request;
// provider trouble degrades to an approximate, confidence-annotated result.
// Re-running with identical inputs is safe; results differ only when
// upstream providers answer differently.
func (a *Assessor) Run(ctx context.Context, req model.AssessmentRequest) (*model.AssessmentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Pipeline.OverallTimeout())
	defer cancel()

	log := zap.L().With(zap.String("address", req.Address))
	start := time.Now()

	// Stage 1: geocode.
	geoRes := a.geo.Resolve(ctx, req.Address)
	loc := geoRes.Value
	loc.Confidence = geoRes.Confidence
	loc.SourceProvider = geoRes.Source

	// Stage 2: solar potential and roof analysis are independent given the
	// location, so they run concurrently. Fallbacks inside each chain stay
	// strictly sequential.
	var solarRes resolve.Resolution[model.SolarEstimate]
	var roofRes resolve.Resolution[model.RoofAnalysis]

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		solarRes = a.solar.Resolve(gCtx, loc)
		return nil
	})
	g.Go(func() error {
		roofRes = a.roof.Resolve(gCtx, loc)
		return nil
	})
	_ = g.Wait() // chains never return errors

	solar := solarRes.Value
	solar.Confidence = solarRes.Confidence
	solar.SourceProvider = solarRes.Source
	solar.MonthlySeries = ensureMonthlySeries(solar.AnnualProductionKwh, solar.MonthlySeries, loc.Latitude)

	roof := roofRes.Value
	roof.SourceProvider = roofRes.Source
	// The AI adapter reports payload quality; the final figure is the lower
	// of that and the provider weight.
	if roof.Confidence <= 0 || roof.Confidence > roofRes.Confidence {
		roof.Confidence = roofRes.Confidence
	}

	// Stage 3: pure derivations.
	fin := deriveFinancial(solar, req, a.cfg.Rates)
	env := deriveEnvironmental(solar, a.cfg.Rates)

	// Stage 4: composite assembly. This is the one place overall confidence
	// is computed.
	rec := &model.CompositeAssessment{
		ID:            uuid.NewString(),
		Request:       req,
		Location:      loc,
		Solar:         solar,
		Roof:          roof,
		Financial:     fin,
		Environmental: env,
		CreatedAt:     time.Now().UTC(),
	}
	rec.StampOverallConfidence()

	synthetic := geoRes.Synthetic || solarRes.Synthetic || roofRes.Synthetic
	if synthetic || rec.OverallConfidence < a.cfg.Pipeline.ApproximateThreshold {
		rec.Approximate = true
		rec.Note = approximateNote(geoRes.Synthetic, solarRes.Synthetic, roofRes.Synthetic)
	}

	a.store.Set(rec.ID, rec, a.cfg.Cache.TTL())

	log.Info("assessment complete",
		zap.String("id", rec.ID),
		zap.String("geocoder", loc.SourceProvider),
		zap.String("solar_source", solar.SourceProvider),
		zap.String("roof_source", roof.SourceProvider),
		zap.Float64("confidence", rec.OverallConfidence),
		zap.Bool("approximate", rec.Approximate),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &model.AssessmentResponse{
		CompositeAssessment: *rec,
		NextSteps:           nextSteps(rec),
	}, nil
}

// Get returns a cached assessment by id.
func (a *Assessor) Get(id string) (*model.CompositeAssessment, error) {
	rec, err := a.store.Get(id)
	if err != nil {
		return nil, eris.Wrapf(err, "assessment %s", id)
	}
	return rec, nil
}

// Proposal enriches a cached assessment with an AI-generated proposal and
// writes the record back. Missing or expired assessments return
// cache.ErrNotFound; an unavailable AI provider degrades to the static
// recommendation set.
func (a *Assessor) Proposal(ctx context.Context, id string) (*model.CompositeAssessment, error) {
	rec, err := a.store.Get(id)
	if err != nil {
		return nil, eris.Wrapf(err, "assessment %s", id)
	}

	prop := a.prop.Generate(ctx, rec)
	rec.Proposal = &prop
	a.store.Set(id, rec, a.cfg.Cache.TTL())
	return rec, nil
}

// approximateNote explains which stages were simulated so callers can
// present the uncertainty honestly.
func approximateNote(geoSyn, solarSyn, roofSyn bool) string {
	switch {
	case geoSyn:
		return "Location could not be verified; figures are simulated from regional averages."
	case solarSyn && roofSyn:
		return "Solar production and roof characteristics are simulated estimates, not provider data."
	case solarSyn:
		return "Solar production is a simulated estimate based on regional sunlight averages."
	case roofSyn:
		return "Roof characteristics are estimated from typical single-family construction."
	default:
		return "Results are approximate; one or more data sources responded with low confidence."
	}
}

// nextSteps builds the suggested follow-up actions. Pure presentation.
func nextSteps(rec *model.CompositeAssessment) []string {
	steps := []string{
		"Request quotes from local certified installers",
	}
	if rec.Approximate {
		steps = append([]string{"Schedule an on-site survey to confirm these simulated estimates"}, steps...)
	}
	if rec.Request.RoofAgeYears >= 15 {
		steps = append(steps, "Have the roof inspected before installation; panels outlast aging shingles")
	}
	if rec.Financial.PaybackYears > 0 && rec.Financial.PaybackYears <= 8 {
		steps = append(steps, fmt.Sprintf("Strong candidate: estimated payback in %.1f years", rec.Financial.PaybackYears))
	}
	if rec.Roof.ShadingPct > 40 {
		steps = append(steps, "Consider tree trimming; shading above 40% materially reduces production")
	}
	steps = append(steps, "Review federal and state incentive eligibility with a tax advisor")
	return steps
}
