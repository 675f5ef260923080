package service

import (
	"math"
)

// ToDecimalAndPayout converts American odds to decimal odds and the potential
// payout for a stake. Pure and deterministic: the same inputs always produce
// the same outputs, because it is evaluated both at placement time and again
// for display.
//
// Positive odds quote profit per 100 staked; negative odds quote the stake
// required for 100 profit. The payout includes the returned stake and is
// floored to whole units.
func ToDecimalAndPayout(stake int64, americanOdds int) (decimalOdds float64, potentialPayout int64, err error) {
	if americanOdds == 0 {
		return 0, 0, ErrInvalidOdds
	}

	if americanOdds > 0 {
		decimalOdds = float64(americanOdds)/100 + 1
	} else {
		decimalOdds = 100/math.Abs(float64(americanOdds)) + 1
	}

	potentialPayout = int64(math.Floor(float64(stake) * decimalOdds))
	return decimalOdds, potentialPayout, nil
}
