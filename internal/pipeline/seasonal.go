package pipeline

import "math"

// Seasonal distribution model. Providers that report only an annual figure
// get a monthly series shaped by latitude: production peaks in local summer,
// with an amplitude that grows toward the poles. The distributed series
// always sums back to the annual figure.

// monthCenters are day-of-year centers for each month, used to phase the
// seasonal curve.
var monthCenters = [12]float64{15, 45, 74, 105, 135, 166, 196, 227, 258, 288, 319, 349}

// distributeMonthly spreads annual production across Jan–Dec. The seasonal
// amplitude scales with |latitude|: equatorial sites are nearly flat, high
// latitudes swing roughly ±50% around the mean.
func distributeMonthly(annualKwh, latitude float64) [12]float64 {
	amplitude := math.Min(math.Abs(latitude)/90.0, 1.0) * 0.5

	weights := [12]float64{}
	var total float64
	for i, center := range monthCenters {
		// Peak near the summer solstice (day 172 north, day 355 south).
		phase := 2 * math.Pi * (center - 172) / 365
		if latitude < 0 {
			phase += math.Pi
		}
		weights[i] = 1 + amplitude*math.Cos(phase)
		total += weights[i]
	}

	var series [12]float64
	for i, w := range weights {
		series[i] = annualKwh * w / total
	}
	return series
}

// seriesSum totals a monthly series.
func seriesSum(series [12]float64) float64 {
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum
}

// ensureMonthlySeries fills in a missing or inconsistent monthly series so
// the sum-to-annual invariant holds within tolerance.
func ensureMonthlySeries(annualKwh float64, series [12]float64, latitude float64) [12]float64 {
	sum := seriesSum(series)
	if annualKwh <= 0 {
		return series
	}
	if sum > 0 && math.Abs(sum-annualKwh)/annualKwh <= 0.01 {
		return series
	}
	return distributeMonthly(annualKwh, latitude)
}
