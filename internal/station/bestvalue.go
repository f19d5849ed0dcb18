package station

import "github.com/shopspring/decimal"

// MinBestValueTrust is the trust score a station needs to compete for best
// value.
const MinBestValueTrust = 6.0

var bestValueCeiling = decimal.NewFromInt(10)

// CalculateBestValue flags the station with the highest (10 - gas) * trust
// score among those with a gas price and enough trust. Every station's
// IsBestValue is reset first, so at most one station in stations is flagged
// afterwards. On equal scores the earliest station wins. It returns nil when
// no station qualifies.
//
// Callers must not run it concurrently on overlapping collections.
func CalculateBestValue(stations []*Station) *Station {
	var best *Station
	var bestScore decimal.Decimal

	for _, s := range stations {
		gas, ok := s.Price(FuelGas)
		trust := s.Trust()
		if !ok || trust < MinBestValueTrust {
			continue
		}

		score := bestValueCeiling.Sub(gas).Mul(decimal.NewFromFloat(trust))
		if best == nil || score.GreaterThan(bestScore) {
			best = s
			bestScore = score
		}
	}

	for _, s := range stations {
		s.SetBestValue(false)
	}
	if best != nil {
		best.SetBestValue(true)
	}
	return best
}
