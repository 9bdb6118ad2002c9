package pipeline

import (
	"math"

	"github.com/sells-group/solar-assess/internal/config"
	"github.com/sells-group/solar-assess/internal/model"
)

// Pure derivations: financial and environmental metrics computed from the
// resolved solar estimate and the original request. No failure modes, no
// network, no state.

const (
	systemLifetimeYears = 25
	co2KgPerTreeYear    = 21.8 // EPA equivalency: one urban tree seedling, 10-year growth
	co2KgPerCarYear     = 4600
)

// deriveFinancial computes the financial summary.
func deriveFinancial(solar model.SolarEstimate, req model.AssessmentRequest, rates config.RatesConfig) model.FinancialSummary {
	systemCost := solar.SystemCapacityKw * 1000 * rates.CostPerWattUSD
	federalCredit := systemCost * rates.FederalCreditPct
	netCost := systemCost - federalCredit
	annualSavings := solar.AnnualProductionKwh * rates.UtilityRatePerKwh

	payback := 0.0
	if annualSavings > 0 {
		payback = netCost / annualSavings
	}

	offsetPct := 0.0
	if req.MonthlyBillUSD > 0 {
		annualBill := req.MonthlyBillUSD * 12
		offsetPct = math.Min(annualSavings/annualBill, 1.0) * 100
	}

	return model.FinancialSummary{
		SystemCostUSD:     round2(systemCost),
		FederalCreditUSD:  round2(federalCredit),
		NetCostUSD:        round2(netCost),
		AnnualSavingsUSD:  round2(annualSavings),
		PaybackYears:      round1(payback),
		TwentyFiveYearUSD: round2(annualSavings*systemLifetimeYears - netCost),
		UtilityRatePerKwh: rates.UtilityRatePerKwh,
		MonthlyBillOffset: round1(offsetPct),
	}
}

// deriveEnvironmental computes CO2-equivalence metrics.
func deriveEnvironmental(solar model.SolarEstimate, rates config.RatesConfig) model.EnvironmentalImpact {
	annualCO2 := solar.AnnualProductionKwh * rates.CO2KgPerKwh
	return model.EnvironmentalImpact{
		AnnualCO2OffsetKg: round1(annualCO2),
		TreesEquivalent:   int(math.Round(annualCO2 / co2KgPerTreeYear)),
		CarsOffRoad:       round2(annualCO2 / co2KgPerCarYear),
		LifetimeCO2Tonnes: round1(annualCO2 * systemLifetimeYears / 1000),
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
