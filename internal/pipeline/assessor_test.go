package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-assess/internal/cache"
	"github.com/sells-group/solar-assess/internal/config"
	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/resolve"
)

// stubProvider is a canned resolve.Provider for orchestration tests.
type stubProvider[In, Out any] struct {
	name   string
	weight float64
	avail  bool
	out    Out
	err    error
	calls  int
}

func (s *stubProvider[In, Out]) Name() string    { return s.name }
func (s *stubProvider[In, Out]) Weight() float64 { return s.weight }
func (s *stubProvider[In, Out]) Available() bool { return s.avail }
func (s *stubProvider[In, Out]) Resolve(_ context.Context, _ In) (Out, error) {
	s.calls++
	return s.out, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		Rates: config.RatesConfig{
			UtilityRatePerKwh: 0.17,
			CostPerWattUSD:    2.80,
			FederalCreditPct:  0.30,
			CO2KgPerKwh:       0.39,
		},
		Pipeline: config.PipelineConfig{
			ProviderTimeoutSecs:  2,
			OverallTimeoutSecs:   10,
			ApproximateThreshold: 0.7,
		},
		Cache: config.CacheConfig{TTLMinutes: 60},
	}
}

type testFixture struct {
	assessor *Assessor
	store    *cache.Memory[*model.CompositeAssessment]
	geoStub  *stubProvider[string, model.Location]
	sunStub  *stubProvider[model.Location, model.SolarEstimate]
	roofStub *stubProvider[model.Location, model.RoofAnalysis]
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		store: cache.NewMemory[*model.CompositeAssessment](time.Hour),
		geoStub: &stubProvider[string, model.Location]{
			name: model.SourceCensus, weight: 0.95, avail: true,
			out: model.Location{
				FormattedAddress: "123 Main St, Austin, TX",
				Latitude:         30.2672,
				Longitude:        -97.7431,
				Verified:         true,
			},
		},
		sunStub: &stubProvider[model.Location, model.SolarEstimate]{
			name: model.SourceGoogleSolar, weight: 0.95, avail: true,
			out: model.SolarEstimate{
				AnnualProductionKwh: 9000,
				SystemCapacityKw:    6,
				PanelCount:          15,
				RoofTiltDeg:         20,
				RoofAzimuthDeg:      180,
			},
		},
		roofStub: &stubProvider[model.Location, model.RoofAnalysis]{
			name: model.SourceClaude, weight: 0.80, avail: true,
			out: model.RoofAnalysis{
				UsableAreaM2:     85,
				ShadingPct:       12,
				RoofType:         "metal",
				SuitabilityScore: 88,
				Confidence:       0.9, // payload quality above provider weight
			},
		},
	}
	t.Cleanup(f.store.Close)

	cfg := testConfig()
	geo := resolve.NewChain("geocode", []resolve.Provider[string, model.Location]{f.geoStub}, estimateLocation)
	sun := resolve.NewChain("solar", []resolve.Provider[model.Location, model.SolarEstimate]{f.sunStub}, estimateSolar)
	roof := resolve.NewChain("roof", []resolve.Provider[model.Location, model.RoofAnalysis]{f.roofStub}, estimateRoof)
	f.assessor = NewAssessor(cfg, geo, sun, roof, f.store, NewProposer(nil, "", 0, 0))
	return f
}

func TestAssessor_AllProvidersHealthy(t *testing.T) {
	f := newFixture(t)

	resp, err := f.assessor.Run(context.Background(), model.AssessmentRequest{
		Address:        "123 Main St, Austin, TX",
		MonthlyBillUSD: 180,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.True(t, resp.Location.Verified)
	assert.Equal(t, model.SourceCensus, resp.Location.SourceProvider)
	assert.Equal(t, model.SourceGoogleSolar, resp.Solar.SourceProvider)
	assert.Equal(t, model.SourceClaude, resp.Roof.SourceProvider)

	assert.Equal(t, 0.95, resp.Location.Confidence)
	assert.Equal(t, 0.80, resp.Roof.Confidence, "payload quality capped at provider weight")
	assert.Equal(t, 0.80, resp.OverallConfidence, "overall is the weakest stage")
	assert.False(t, resp.Approximate)
	assert.Empty(t, resp.Note)

	// Provider gave only an annual figure; the series must be filled in.
	assert.InDelta(t, 9000, seriesSum(resp.Solar.MonthlySeries), 9000*0.01)

	assert.Equal(t, 16800.0, resp.Financial.SystemCostUSD)
	assert.Greater(t, resp.Environmental.TreesEquivalent, 0)
	assert.NotEmpty(t, resp.NextSteps)
}

func TestAssessor_SolarChainExhausted(t *testing.T) {
	f := newFixture(t)
	f.sunStub.err = &resolve.Unavailable{Provider: f.sunStub.name, Reason: resolve.ReasonHTTPError, Status: 503}

	resp, err := f.assessor.Run(context.Background(), model.AssessmentRequest{Address: "123 Main St, Austin, TX"})
	require.NoError(t, err, "provider exhaustion is never a caller error")

	assert.Equal(t, model.SourceEstimated, resp.Solar.SourceProvider)
	assert.Equal(t, 0.55, resp.Solar.Confidence)
	assert.True(t, resp.Approximate)
	assert.Contains(t, resp.Note, "simulated")
	assert.Equal(t, 0.55, resp.OverallConfidence)

	// Synthetic estimates still honor the monthly-series invariant.
	assert.InDelta(t, resp.Solar.AnnualProductionKwh, seriesSum(resp.Solar.MonthlySeries),
		resp.Solar.AnnualProductionKwh*0.01)
	assert.Greater(t, resp.Solar.AnnualProductionKwh, 0.0)
}

func TestAssessor_GeocodeExhaustedStillCompletes(t *testing.T) {
	f := newFixture(t)
	f.geoStub.avail = false

	resp, err := f.assessor.Run(context.Background(), model.AssessmentRequest{Address: "nowhere at all"})
	require.NoError(t, err)

	assert.Equal(t, model.SourceEstimated, resp.Location.SourceProvider)
	assert.False(t, resp.Location.Verified)
	assert.Equal(t, "nowhere at all", resp.Location.FormattedAddress)
	assert.True(t, resp.Approximate)
	assert.Contains(t, resp.Note, "Location could not be verified")
}

func TestAssessor_InvalidRequestIsSynchronous(t *testing.T) {
	f := newFixture(t)

	_, err := f.assessor.Run(context.Background(), model.AssessmentRequest{Address: "   "})
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrInvalidRequest))

	assert.Equal(t, 0, f.geoStub.calls, "no provider contacted for an invalid request")
	assert.Equal(t, 0, f.sunStub.calls)
	assert.Equal(t, 0, f.roofStub.calls)
}

func TestAssessor_NegativeBillRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.assessor.Run(context.Background(), model.AssessmentRequest{Address: "x", MonthlyBillUSD: -5})
	assert.True(t, eris.Is(err, model.ErrInvalidRequest))
}

func TestAssessor_LowRoofPayloadQualityWins(t *testing.T) {
	f := newFixture(t)
	f.roofStub.out.Confidence = 0.5 // heavily defaulted payload

	resp, err := f.assessor.Run(context.Background(), model.AssessmentRequest{Address: "x"})
	require.NoError(t, err)

	assert.Equal(t, 0.5, resp.Roof.Confidence, "payload quality below weight is kept")
	assert.Equal(t, 0.5, resp.OverallConfidence)
	assert.True(t, resp.Approximate, "below threshold without any synthetic stage")
}

func TestAssessor_ResultCachedAndRetrievable(t *testing.T) {
	f := newFixture(t)

	resp, err := f.assessor.Run(context.Background(), model.AssessmentRequest{Address: "123 Main St, Austin, TX"})
	require.NoError(t, err)

	rec, err := f.assessor.Get(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, rec.ID)
	assert.Equal(t, resp.OverallConfidence, rec.OverallConfidence)
}

func TestAssessor_GetUnknownID(t *testing.T) {
	f := newFixture(t)

	_, err := f.assessor.Get("no-such-id")
	require.Error(t, err)
	assert.True(t, eris.Is(err, cache.ErrNotFound))
}

func TestAssessor_ProposalEnrichesCachedRecord(t *testing.T) {
	f := newFixture(t)

	resp, err := f.assessor.Run(context.Background(), model.AssessmentRequest{Address: "123 Main St, Austin, TX"})
	require.NoError(t, err)

	rec, err := f.assessor.Proposal(context.Background(), resp.ID)
	require.NoError(t, err)
	require.NotNil(t, rec.Proposal)
	assert.Equal(t, model.SourceEstimated, rec.Proposal.SourceProvider, "nil AI client degrades to static")

	// The enrichment is written back.
	again, err := f.assessor.Get(resp.ID)
	require.NoError(t, err)
	assert.NotNil(t, again.Proposal)
}

func TestAssessor_ProposalUnknownID(t *testing.T) {
	f := newFixture(t)

	_, err := f.assessor.Proposal(context.Background(), "no-such-id")
	assert.True(t, eris.Is(err, cache.ErrNotFound))
}

func TestAssessor_RerunIsIndependent(t *testing.T) {
	f := newFixture(t)
	req := model.AssessmentRequest{Address: "123 Main St, Austin, TX"}

	first, err := f.assessor.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := f.assessor.Run(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "each run produces its own record")
	assert.Equal(t, first.OverallConfidence, second.OverallConfidence)
	assert.Equal(t, 2, f.store.Len())
}

func TestNextSteps_SurveyFirstWhenApproximate(t *testing.T) {
	rec := &model.CompositeAssessment{Approximate: true}
	steps := nextSteps(rec)
	require.NotEmpty(t, steps)
	assert.Contains(t, steps[0], "on-site survey")
}

func TestNextSteps_FlagsAgingRoofAndShading(t *testing.T) {
	rec := &model.CompositeAssessment{
		Request: model.AssessmentRequest{RoofAgeYears: 18},
		Roof:    model.RoofAnalysis{ShadingPct: 55},
	}
	steps := nextSteps(rec)

	joined := ""
	for _, s := range steps {
		joined += s + "\n"
	}
	assert.Contains(t, joined, "roof inspected")
	assert.Contains(t, joined, "tree trimming")
}
