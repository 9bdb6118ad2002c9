package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/normalize"
	"github.com/sells-group/solar-assess/pkg/anthropic"
)

const proposalPrompt = `You are a solar sales consultant writing a short proposal for a homeowner.

Assessment:
- Address: %s
- Annual production: %.0f kWh
- System size: %.1f kW (%d panels)
- Net cost after federal credit: $%.0f
- Annual savings: $%.0f
- Payback period: %.1f years
- Roof: %s, %.0f m2 usable, %.0f%% shaded

Write 2-3 sentences summarizing the opportunity, then a bullet list of 3-5 concrete recommendations. Plain text, one recommendation per line starting with "- ".`

// staticRecommendations is the degraded proposal used when the AI provider
// is unavailable.
var staticRecommendations = []string{
	"Compare at least three installer quotes before committing",
	"Confirm your utility's net metering policy and rate schedule",
	"Verify roof condition with a professional inspection",
	"File for the federal investment tax credit in the installation year",
}

// Proposer generates the optional proposal enrichment.
type Proposer struct {
	client    anthropic.Client
	modelID   string
	maxTokens int64
	weight    float64
}

// NewProposer creates a Proposer. client may be nil; Generate then always
// returns the static recommendation set.
func NewProposer(client anthropic.Client, modelID string, maxTokens int64, weight float64) *Proposer {
	return &Proposer{client: client, modelID: modelID, maxTokens: maxTokens, weight: weight}
}

// Generate produces a proposal for an assessed property. It never fails:
// provider trouble degrades to the static recommendations at estimate
// confidence.
func (p *Proposer) Generate(ctx context.Context, rec *model.CompositeAssessment) model.Proposal {
	if p == nil || p.client == nil {
		return staticProposal()
	}

	prompt := fmt.Sprintf(proposalPrompt,
		rec.Location.FormattedAddress,
		rec.Solar.AnnualProductionKwh,
		rec.Solar.SystemCapacityKw,
		rec.Solar.PanelCount,
		rec.Financial.NetCostUSD,
		rec.Financial.AnnualSavingsUSD,
		rec.Financial.PaybackYears,
		rec.Roof.RoofType,
		rec.Roof.UsableAreaM2,
		rec.Roof.ShadingPct,
	)

	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.modelID,
		MaxTokens: p.maxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		zap.L().Warn("proposal: AI provider unavailable, using static recommendations", zap.Error(err))
		return staticProposal()
	}
	resp.Usage.LogCost(p.modelID, "proposal")

	summary, recs := parseProposal(resp.Text())
	if len(recs) == 0 {
		recs = staticRecommendations
	}

	tier := normalize.TierHigh
	if summary == "" {
		tier = normalize.TierMedium
	}

	// Recover the savings figure the model quoted in prose. A bare dollar
	// match carries the medium tier and drags confidence with it.
	quoted, quotedTier, found := normalize.Currency(resp.Text(), "savings", "save")
	if found && quotedTier.Confidence() < tier.Confidence() {
		tier = quotedTier
	}

	conf := tier.Confidence()
	if conf > p.weight {
		conf = p.weight
	}

	out := model.Proposal{
		Summary:         summary,
		Recommendations: recs,
		Confidence:      conf,
		SourceProvider:  model.SourceClaude,
		CreatedAt:       time.Now().UTC(),
	}
	if found {
		out.QuotedSavingsUSD = quoted
	}
	return out
}

func staticProposal() model.Proposal {
	return model.Proposal{
		Summary:         "Automated proposal based on estimated figures; verify with an installer.",
		Recommendations: staticRecommendations,
		Confidence:      0.55,
		SourceProvider:  model.SourceEstimated,
		CreatedAt:       time.Now().UTC(),
	}
}

// parseProposal splits model prose into a summary paragraph and the bullet
// recommendations.
func parseProposal(text string) (summary string, recs []string) {
	var summaryLines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			recs = append(recs, strings.TrimSpace(trimmed[2:]))
			continue
		}
		if len(recs) == 0 {
			summaryLines = append(summaryLines, trimmed)
		}
	}
	return strings.Join(summaryLines, " "), recs
}
