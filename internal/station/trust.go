package station

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	trustBase             = 5.0
	trustVerifiedBonus    = 3.0
	trustHistoryBonus     = 1.0
	trustNoPendingBonus   = 1.0
	trustCheapGasBonus    = 0.5
	trustMultiFuelBonus   = 0.5
	trustHistoryMinimum   = 5
	trustMultiFuelMinimum = 2
)

var cheapGasPrice = decimal.NewFromInt(6)

// CalculateTrust scores s from its current fundamentals, independently of
// the per-vote adjustments made by ConfirmPendingChange. The result is in
// [0, 10] and rounded to one fraction digit. s is not modified.
func CalculateTrust(s *Station) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	score := trustBase
	if s.IsVerified {
		score += trustVerifiedBonus
	}
	if len(s.History) > trustHistoryMinimum {
		score += trustHistoryBonus
	}
	if len(s.PendingChanges) == 0 {
		score += trustNoPendingBonus
	}
	if gas, ok := s.Prices[FuelGas]; ok && gas.LessThan(cheapGasPrice) {
		score += trustCheapGasBonus
	}
	if len(s.Prices) >= trustMultiFuelMinimum {
		score += trustMultiFuelBonus
	}

	return math.Round(clampTrust(score)*10) / 10
}

// FormatTrust renders a trust score with one fraction digit.
func FormatTrust(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}
