package model

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestAssessmentRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     AssessmentRequest
		wantErr bool
	}{
		{"valid minimal", AssessmentRequest{Address: "123 Main St, Austin, TX"}, false},
		{"valid full", AssessmentRequest{Address: "123 Main St", MonthlyBillUSD: 180, RoofAgeYears: 12, UtilityProvider: "Austin Energy"}, false},
		{"empty address", AssessmentRequest{}, true},
		{"whitespace address", AssessmentRequest{Address: "   \t"}, true},
		{"negative bill", AssessmentRequest{Address: "x", MonthlyBillUSD: -1}, true},
		{"negative roof age", AssessmentRequest{Address: "x", RoofAgeYears: -3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.True(t, eris.Is(err, ErrInvalidRequest))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompositeAssessment_StampOverallConfidence(t *testing.T) {
	rec := CompositeAssessment{
		Location: Location{Confidence: 0.95},
		Solar:    SolarEstimate{Confidence: 0.85},
		Roof:     RoofAnalysis{Confidence: 0.55},
	}
	rec.StampOverallConfidence()
	assert.Equal(t, 0.55, rec.OverallConfidence)

	rec.Roof.Confidence = 0.9
	rec.StampOverallConfidence()
	assert.Equal(t, 0.85, rec.OverallConfidence, "restamping recomputes from current stages")
}
