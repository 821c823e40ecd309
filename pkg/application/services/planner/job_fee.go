package planner

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/application/dto"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// jobFee estimates an installation fee from the estimated item value:
// EIV × index × (1 − cost reduction) + EIV × surcharge, floored at zero.
// An unknown EIV yields an unknown fee.
func jobFee(eiv decimal.NullDecimal, costIndex float64, modifiers dto.Modifiers) decimal.NullDecimal {
	if !eiv.Valid {
		return decimal.NullDecimal{}
	}
	if !eiv.Decimal.IsPositive() {
		return decimal.NewNullDecimal(decimal.Zero)
	}

	reduced := eiv.Decimal.
		Mul(decimal.NewFromFloat(costIndex)).
		Mul(remainingFraction(modifiers.JobCostReduction))
	surcharge := eiv.Decimal.Mul(decimal.NewFromFloat(modifiers.SurchargeRate))

	fee := reduced.Add(surcharge)
	if fee.IsNegative() {
		fee = decimal.Zero
	}
	return decimal.NewNullDecimal(fee)
}

// remainingFraction returns 1 − fraction
func remainingFraction(fraction float64) decimal.Decimal {
	return one.Sub(decimal.NewFromFloat(fraction))
}

// remainingPercent returns 1 − percent/100
func remainingPercent(percent float64) decimal.Decimal {
	return one.Sub(decimal.NewFromFloat(percent).Div(hundred))
}

// scaleDuration multiplies a duration by decimal factors, rounding to the nanosecond
func scaleDuration(d time.Duration, factors ...decimal.Decimal) time.Duration {
	scaled := decimal.NewFromInt(int64(d))
	for _, factor := range factors {
		scaled = scaled.Mul(factor)
	}
	return time.Duration(scaled.Round(0).IntPart())
}

func addNull(a, b decimal.NullDecimal) decimal.NullDecimal {
	if !a.Valid || !b.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(a.Decimal.Add(b.Decimal))
}

// orZero treats an unknown amount as zero
func orZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}
