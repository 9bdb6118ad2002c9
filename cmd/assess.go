package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/solar-assess/internal/cache"
	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/pipeline"
	"github.com/sells-group/solar-assess/pkg/anthropic"
)

var (
	assessAddress     string
	assessMonthlyBill float64
	assessRoofAge     int
	assessUtility     string
	assessProposal    bool
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run one assessment and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cache.NewMemory[*model.CompositeAssessment](cfg.Cache.TTL())
		defer store.Close()

		assessor := newAssessor(store)
		resp, err := assessor.Run(cmd.Context(), model.AssessmentRequest{
			Address:         assessAddress,
			MonthlyBillUSD:  assessMonthlyBill,
			RoofAgeYears:    assessRoofAge,
			UtilityProvider: assessUtility,
		})
		if err != nil {
			if errors.Is(err, model.ErrInvalidRequest) {
				return fmt.Errorf("invalid request: %w", err)
			}
			return err
		}

		if assessProposal {
			enriched, propErr := assessor.Proposal(cmd.Context(), resp.ID)
			if propErr == nil {
				resp.CompositeAssessment = *enriched
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

// newAssessor wires chains, cache, and proposer from loaded config.
func newAssessor(store cache.Store[*model.CompositeAssessment]) *pipeline.Assessor {
	var ai anthropic.Client
	if cfg.Anthropic.Key != "" {
		ai = anthropic.NewClient(cfg.Anthropic.Key)
	}

	geo, solar, roof := pipeline.BuildChains(cfg, ai)
	prop := pipeline.NewProposer(ai, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, cfg.Anthropic.Weight)
	return pipeline.NewAssessor(cfg, geo, solar, roof, store, prop)
}

func init() {
	assessCmd.Flags().StringVar(&assessAddress, "address", "", "property address (required)")
	assessCmd.Flags().Float64Var(&assessMonthlyBill, "monthly-bill", 0, "current monthly electric bill in USD")
	assessCmd.Flags().IntVar(&assessRoofAge, "roof-age", 0, "roof age in years")
	assessCmd.Flags().StringVar(&assessUtility, "utility", "", "utility provider name")
	assessCmd.Flags().BoolVar(&assessProposal, "proposal", false, "also generate an AI proposal")
	_ = assessCmd.MarkFlagRequired("address")
	rootCmd.AddCommand(assessCmd)
}
