package engine

// LVRCalculation satisfies Equity == PropertyValue − LoanAmount and
// RequiresLMI == (LVR > region threshold).
type LVRCalculation struct {
	LoanAmount    Cents   `json:"loan_amount"`
	PropertyValue Cents   `json:"property_value"`
	LVR           Percent `json:"lvr"`
	Equity        Cents   `json:"equity"`
	LMI           Cents   `json:"lmi"`
	RequiresLMI   bool    `json:"requires_lmi"`
}

func CalculateLVR(loan, value Cents, region Region) LVRCalculation {
	bps := ratioBps(loan, value)
	requires := exceedsRatio(loan, value, Params(region).LMIThreshold)
	out := LVRCalculation{
		LoanAmount:    loan,
		PropertyValue: value,
		LVR:           ratio(loan, value),
		Equity:        value - loan,
		RequiresLMI:   requires,
	}
	if requires {
		// a ratio just over the threshold can round down onto it; price it in the first band
		if t := Params(region).LMIThreshold; bps <= t {
			bps = t + 1
		}
		out.LMI = LMIPremium(loan, bps, region)
	}
	return out
}

// exceedsRatio reports loan/value > threshold without rounding the ratio.
func exceedsRatio(loan, value Cents, threshold BasisPoints) bool {
	if value <= 0 {
		return false
	}
	return int64(loan)*int64(whole) > int64(threshold)*int64(value)
}

// PurchaseCosts are the upfront amounts needed to buy at price with a loan.
type PurchaseCosts struct {
	Deposit   Cents          `json:"deposit"`
	StampDuty Cents          `json:"stamp_duty"`
	LMI       Cents          `json:"lmi"`
	Total     Cents          `json:"total"`
	LVR       LVRCalculation `json:"lvr"`
}

func CalculatePurchaseCosts(price, loan Cents, region Region) PurchaseCosts {
	lvr := CalculateLVR(loan, price, region)
	duty := StampDuty(price, region)
	deposit := maxCents(0, price-loan)
	return PurchaseCosts{
		Deposit:   deposit,
		StampDuty: duty,
		LMI:       lvr.LMI,
		Total:     deposit + duty + lvr.LMI,
		LVR:       lvr,
	}
}

// DepositForLVR is the deposit that brings the loan to exactly target LVR.
func DepositForLVR(price Cents, target BasisPoints) Cents {
	if price <= 0 {
		return 0
	}
	return price - applyRate(price, target.Fraction())
}
