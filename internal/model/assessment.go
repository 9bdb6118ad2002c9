// Package model defines the canonical records produced by the assessment pipeline.
package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrInvalidRequest is returned for requests that cannot be assessed at all
// (e.g. a blank address). It is the only error surfaced to callers as a hard
// failure; every other condition degrades to an approximate result.
var ErrInvalidRequest = eris.New("invalid assessment request")

// Provider identifiers stamped onto resolved values. SourceEstimated marks a
// synthetic value produced after every provider in a chain was exhausted.
const (
	SourceCensus      = "census"
	SourceGoogle      = "google"
	SourceStatic      = "static"
	SourceGoogleSolar = "google_solar"
	SourcePVWatts     = "pvwatts"
	SourceOpenMeteo   = "openmeteo"
	SourceClaude      = "claude"
	SourceEstimated   = "estimated"
)

// AssessmentRequest is the client-facing input for one assessment.
type AssessmentRequest struct {
	Address         string  `json:"address"`
	MonthlyBillUSD  float64 `json:"monthly_bill_usd,omitempty"`
	RoofAgeYears    int     `json:"roof_age_years,omitempty"`
	UtilityProvider string  `json:"utility_provider,omitempty"`
}

// Validate checks the request before any provider is contacted.
func (r AssessmentRequest) Validate() error {
	if strings.TrimSpace(r.Address) == "" {
		return eris.Wrap(ErrInvalidRequest, "address is required")
	}
	if r.MonthlyBillUSD < 0 {
		return eris.Wrap(ErrInvalidRequest, "monthly bill must not be negative")
	}
	if r.RoofAgeYears < 0 {
		return eris.Wrap(ErrInvalidRequest, "roof age must not be negative")
	}
	return nil
}

// Location is a geocoded address. Immutable once produced by the geocoding
// chain; created per assessment request.
type Location struct {
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Verified         bool    `json:"verified"`
	Confidence       float64 `json:"confidence"`
	SourceProvider   string  `json:"source_provider"`
}

// SolarEstimate is the production estimate for a location.
//
// Invariant: MonthlySeries (Jan–Dec) sums to AnnualProductionKwh within 1%.
// When a provider supplies only an annual figure the seasonal distribution
// model fills in the series.
type SolarEstimate struct {
	AnnualProductionKwh float64     `json:"annual_production_kwh"`
	MonthlySeries       [12]float64 `json:"monthly_series"`
	RoofAzimuthDeg      float64     `json:"roof_azimuth_deg"`
	RoofTiltDeg         float64     `json:"roof_tilt_deg"`
	SystemCapacityKw    float64     `json:"system_capacity_kw"`
	PanelCount          int         `json:"panel_count"`
	Confidence          float64     `json:"confidence"`
	SourceProvider      string      `json:"source_provider"`
}

// RoofAnalysis describes the roof surface, produced by the AI adapter or an
// estimate fallback.
type RoofAnalysis struct {
	UsableAreaM2     float64 `json:"usable_area_m2"`
	ShadingPct       float64 `json:"shading_pct"`
	RoofType         string  `json:"roof_type"`
	SuitabilityScore int     `json:"suitability_score"`
	Confidence       float64 `json:"confidence"`
	SourceProvider   string  `json:"source_provider"`
}

// FinancialSummary holds the derived financial metrics. All fields are pure
// functions of the solar estimate and the request.
type FinancialSummary struct {
	SystemCostUSD     float64 `json:"system_cost_usd"`
	FederalCreditUSD  float64 `json:"federal_credit_usd"`
	NetCostUSD        float64 `json:"net_cost_usd"`
	AnnualSavingsUSD  float64 `json:"annual_savings_usd"`
	PaybackYears      float64 `json:"payback_years"`
	TwentyFiveYearUSD float64 `json:"twenty_five_year_savings_usd"`
	UtilityRatePerKwh float64 `json:"utility_rate_per_kwh"`
	MonthlyBillOffset float64 `json:"monthly_bill_offset_pct"`
}

// EnvironmentalImpact holds derived CO2-equivalence metrics.
type EnvironmentalImpact struct {
	AnnualCO2OffsetKg float64 `json:"annual_co2_offset_kg"`
	TreesEquivalent   int     `json:"trees_equivalent"`
	CarsOffRoad       float64 `json:"cars_off_road"`
	LifetimeCO2Tonnes float64 `json:"lifetime_co2_tonnes"`
}

// Proposal is the optional follow-up enrichment attached to an assessment.
// QuotedSavingsUSD is the annual savings figure recovered from the proposal
// prose, zero when none was found.
type Proposal struct {
	Summary          string    `json:"summary"`
	Recommendations  []string  `json:"recommendations"`
	QuotedSavingsUSD float64   `json:"quoted_savings_usd,omitempty"`
	Confidence       float64   `json:"confidence"`
	SourceProvider   string    `json:"source_provider"`
	CreatedAt        time.Time `json:"created_at"`
}

// CompositeAssessment is the merged multi-stage result for one address query.
// It is assembled once by the orchestrator and read-only afterward except for
// optional proposal enrichment.
type CompositeAssessment struct {
	ID            string              `json:"id"`
	Request       AssessmentRequest   `json:"request"`
	Location      Location            `json:"location"`
	Solar         SolarEstimate       `json:"solar"`
	Roof          RoofAnalysis        `json:"roof"`
	Financial     FinancialSummary    `json:"financial"`
	Environmental EnvironmentalImpact `json:"environmental"`

	// OverallConfidence is the minimum confidence across all contributing
	// stages. A composite record is never more trustworthy than its weakest
	// source.
	OverallConfidence float64 `json:"overall_confidence"`

	// Approximate flags records that include synthetic or low-confidence
	// data; Note carries the human-readable explanation.
	Approximate bool   `json:"approximate"`
	Note        string `json:"note,omitempty"`

	Proposal  *Proposal `json:"proposal,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StampOverallConfidence recomputes the min-confidence invariant.
func (a *CompositeAssessment) StampOverallConfidence() {
	a.OverallConfidence = minConfidence(a.Location.Confidence, a.Solar.Confidence, a.Roof.Confidence)
}

func minConfidence(vals ...float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// AssessmentResponse is the outward-facing payload: the composite record plus
// suggested follow-up actions.
type AssessmentResponse struct {
	CompositeAssessment
	NextSteps []string `json:"next_steps"`
}
