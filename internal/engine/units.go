package engine

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in the minor currency unit.
type Cents int64

// BasisPoints is a rate in hundredths of a percent (650 = 6.50%).
type BasisPoints int64

// Percent is a ratio expressed in percent, rounded to two decimals.
type Percent float64

var (
	hundred     = decimal.NewFromInt(100)
	bpsPerUnit  = decimal.NewFromInt(10_000)
	centsPerOne = decimal.NewFromInt(100)
)

// PercentToBps converts a decimal percentage (6.5) to basis points (650).
func PercentToBps(p float64) BasisPoints {
	return BasisPoints(decimal.NewFromFloat(p).Mul(hundred).Round(0).IntPart())
}

// Percent returns the rate as a decimal percentage.
func (b BasisPoints) Percent() float64 {
	return decimal.NewFromInt(int64(b)).Div(hundred).InexactFloat64()
}

// Fraction returns the rate as a plain fraction (650 -> 0.065).
func (b BasisPoints) Fraction() decimal.Decimal {
	return decimal.NewFromInt(int64(b)).Div(bpsPerUnit)
}

func (b BasisPoints) String() string {
	return fmt.Sprintf("%.2f%%", b.Percent())
}

// DollarsToCents converts a major-unit amount to cents, rounding half-up.
func DollarsToCents(v float64) Cents {
	return roundCents(decimal.NewFromFloat(v).Mul(centsPerOne))
}

// Dollars returns the amount in major units.
func (c Cents) Dollars() float64 {
	return decimal.NewFromInt(int64(c)).Div(centsPerOne).InexactFloat64()
}

// Format renders the amount in the given ISO currency, e.g. "$2,998.00".
func (c Cents) Format(currency string) string {
	return money.New(int64(c), currency).Display()
}

func (c Cents) decimal() decimal.Decimal { return decimal.NewFromInt(int64(c)) }

// roundCents is the single rounding point for money: half away from zero at the cent.
func roundCents(d decimal.Decimal) Cents {
	return Cents(d.Round(0).IntPart())
}

// applyRate returns round(amount * rate).
func applyRate(amount Cents, rate decimal.Decimal) Cents {
	return roundCents(amount.decimal().Mul(rate))
}

// grow returns round(amount * (1 + bps/10000)).
func grow(amount Cents, rate BasisPoints) Cents {
	return roundCents(amount.decimal().Mul(decimal.NewFromInt(1).Add(rate.Fraction())))
}

// ratio returns num/den*100 rounded to two decimals; zero when den is zero.
func ratio(num, den Cents) Percent {
	if den == 0 {
		return 0
	}
	return Percent(num.decimal().Mul(hundred).Div(den.decimal()).Round(2).InexactFloat64())
}

// ratioBps returns num/den in basis points; zero when den is zero.
func ratioBps(num, den Cents) BasisPoints {
	if den == 0 {
		return 0
	}
	return BasisPoints(num.decimal().Mul(bpsPerUnit).Div(den.decimal()).Round(0).IntPart())
}

// floatToDecimal converts a float rate computed with math.Pow; NaN and Inf collapse to zero.
func floatToDecimal(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func maxCents(a, b Cents) Cents {
	if a > b {
		return a
	}
	return b
}

func minCents(a, b Cents) Cents {
	if a < b {
		return a
	}
	return b
}
