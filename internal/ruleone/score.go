package ruleone

// Quality score weights. The four growth slots and the debt slot carry
// 15 points each, ROIC carries 25, for a fixed 100-point denominator.
// A missing input contributes 0 to its slot while the slot still counts,
// so thin data lowers the score instead of being excluded.
const (
	growthSlotPoints = 15
	roicSlotPoints   = 25
	debtSlotPoints   = 15
)

// QualityScore computes the 0–100 quality score from the derived
// metrics. debtIsZero marks a latest year that explicitly reports zero
// debt, which earns the full debt slot even though the payoff ratio is
// undefined.
func QualityScore(r Result, debtIsZero bool) int {
	score := 0
	for _, rate := range []*float64{r.SalesGrowth, r.EPSGrowth, r.EquityGrowth, r.FCFGrowth} {
		score += growthPoints(rate)
	}
	score += roicPoints(r.ROIC)
	score += debtPoints(r.DebtPayoffYears, debtIsZero)
	return score
}

func growthPoints(rate *float64) int {
	if rate == nil {
		return 0
	}
	switch {
	case *rate >= 20:
		return 15
	case *rate >= 15:
		return 12
	case *rate >= 10:
		return 9
	case *rate >= 5:
		return 6
	case *rate >= 0:
		return 3
	default:
		return 0
	}
}

func roicPoints(roic *float64) int {
	if roic == nil {
		return 0
	}
	switch {
	case *roic >= 20:
		return 25
	case *roic >= 15:
		return 20
	case *roic >= 10:
		return 15
	case *roic >= 5:
		return 10
	case *roic >= 0:
		return 5
	default:
		return 0
	}
}

func debtPoints(payoff *float64, debtIsZero bool) int {
	if debtIsZero {
		return debtSlotPoints
	}
	if payoff == nil {
		// Unbounded or unknown payoff horizon.
		return 0
	}
	switch {
	case *payoff <= 1:
		return 15
	case *payoff <= 2:
		return 12
	case *payoff <= 3:
		return 9
	case *payoff <= 5:
		return 6
	default:
		return 3
	}
}
