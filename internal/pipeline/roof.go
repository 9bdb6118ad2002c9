package pipeline

import (
	"context"
	"fmt"

	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/normalize"
	"github.com/sells-group/solar-assess/internal/resolve"
	"github.com/sells-group/solar-assess/pkg/anthropic"
)

const roofPrompt = `You are a solar installation analyst. Based on the location below, estimate the roof characteristics of the property for a rooftop solar assessment.

Address: %s
Coordinates: %.5f, %.5f

Return a valid JSON object with exactly these fields (scalars, not arrays):
{"usable_area_m2": <number>, "shading_pct": <0-100>, "roof_type": "<composite|tile|metal|flat|other>", "suitability_score": <0-100 integer>}`

const roofSystem = "You are a solar installation analyst. Return valid JSON matching the requested schema. Use scalar values, never arrays."

// roofSchema declares the expected AI payload. Defaults are the documented
// substitutions for missing or uncoercible fields.
var roofSchema = normalize.Schema{
	{Key: "usable_area_m2", Kind: normalize.KindFloat, Default: 60.0},
	{Key: "shading_pct", Kind: normalize.KindFloat, Default: 20.0},
	{Key: "roof_type", Kind: normalize.KindString, Default: "composite"},
	{Key: "suitability_score", Kind: normalize.KindInt, Default: 70},
}

// ClaudeRoofProvider analyzes a roof via the Anthropic API. The model's
// loosely-typed output is coerced through the roof schema; a payload with no
// recoverable JSON at all is the one case surfaced to the chain as a parse
// failure.
type ClaudeRoofProvider struct {
	client    anthropic.Client
	modelID   string
	maxTokens int64
	weight    float64
}

// NewClaudeRoofProvider creates the AI roof analyzer. client may be nil when
// no API key is configured; the provider then reports unavailable.
func NewClaudeRoofProvider(client anthropic.Client, modelID string, maxTokens int64, weight float64) *ClaudeRoofProvider {
	return &ClaudeRoofProvider{client: client, modelID: modelID, maxTokens: maxTokens, weight: weight}
}

// Name implements resolve.Provider.
func (p *ClaudeRoofProvider) Name() string { return model.SourceClaude }

// Weight implements resolve.Provider.
func (p *ClaudeRoofProvider) Weight() float64 { return p.weight }

// Available implements resolve.Provider.
func (p *ClaudeRoofProvider) Available() bool { return p.client != nil }

// Resolve implements resolve.Provider.
func (p *ClaudeRoofProvider) Resolve(ctx context.Context, loc model.Location) (model.RoofAnalysis, error) {
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.modelID,
		MaxTokens: p.maxTokens,
		System:    roofSystem,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf(roofPrompt, loc.FormattedAddress, loc.Latitude, loc.Longitude),
		}},
	})
	if err != nil {
		return model.RoofAnalysis{}, &resolve.Unavailable{Provider: p.Name(), Reason: resolve.ReasonHTTPError, Err: err}
	}
	resp.Usage.LogCost(p.modelID, "roof_analysis")

	raw, err := normalize.ExtractJSON(resp.Text())
	if err != nil {
		return model.RoofAnalysis{}, &resolve.Unavailable{Provider: p.Name(), Reason: resolve.ReasonParseError, Err: err}
	}

	coerced := normalize.Apply(raw, roofSchema)
	return model.RoofAnalysis{
		UsableAreaM2:     coerced.Float("usable_area_m2"),
		ShadingPct:       clampPct(coerced.Float("shading_pct")),
		RoofType:         coerced.String("roof_type"),
		SuitabilityScore: coerced.Int("suitability_score"),
		// Payload quality; the chain caps this at the provider weight.
		Confidence: coerced.Confidence(),
	}, nil
}

// estimateRoof is the synthetic roof fallback: typical single-family values.
func estimateRoof(model.Location) model.RoofAnalysis {
	return model.RoofAnalysis{
		UsableAreaM2:     60,
		ShadingPct:       20,
		RoofType:         "composite",
		SuitabilityScore: 65,
	}
}

func clampPct(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
