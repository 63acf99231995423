package stats

import "gonum.org/v1/gonum/stat/distuv"

// ZVal returns the two-tailed Z-value for a confidence level given in
// percent, e.g. 95 -> 1.96.
func ZVal(pct float64) float64 {
	dist := distuv.UnitNormal
	return dist.Quantile((1 + pct/100) / 2)
}
