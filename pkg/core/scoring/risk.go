package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Beta computes a company's market beta from aligned daily (or weekly)
// return series against a benchmark, via the same gonum/stat primitives
// pkg/core/trend already uses for regression statistics.
func Beta(companyReturns, benchmarkReturns []float64) float64 {
	if len(companyReturns) == 0 || len(companyReturns) != len(benchmarkReturns) {
		return 1.0
	}
	benchVar := stat.Variance(benchmarkReturns, nil)
	if benchVar == 0 {
		return 1.0
	}
	cov := stat.Covariance(companyReturns, benchmarkReturns, nil)
	return cov / benchVar
}

// Volatility is the annualized standard deviation of a daily return
// series (√252 trading days).
func Volatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	const tradingDaysPerYear = 252.0
	return stat.StdDev(dailyReturns, nil) * math.Sqrt(tradingDaysPerYear)
}
