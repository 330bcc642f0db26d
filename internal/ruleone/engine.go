// Package ruleone computes Rule One investment metrics from a canonical
// financial time series. Every function here is pure: identical inputs
// produce identical outputs, with no clock, store, or network access.
package ruleone

import (
	"math"
	"sort"

	"github.com/valuehound/ruleone-cli/internal/model"
)

// Result holds the derived Rule One assessment for one company. Growth
// rates and ROIC are percentages. A nil DebtPayoffYears means the payoff
// horizon is unbounded or unknown (free cash flow non-positive, or debt
// not reported); nil is the single sentinel for that case throughout
// the codebase. A nil StickerPrice means valuation could not proceed
// because no Big Four growth rate was computable.
type Result struct {
	SalesGrowth         *float64 `json:"sales_growth,omitempty"`
	EPSGrowth           *float64 `json:"eps_growth,omitempty"`
	EquityGrowth        *float64 `json:"equity_growth,omitempty"`
	FCFGrowth           *float64 `json:"fcf_growth,omitempty"`
	ROIC                *float64 `json:"roic,omitempty"`
	DebtPayoffYears     *float64 `json:"debt_payoff_years,omitempty"`
	GrowthRate          *float64 `json:"growth_rate,omitempty"`
	StickerPrice        *float64 `json:"sticker_price,omitempty"`
	MarginOfSafetyPrice *float64 `json:"margin_of_safety_price,omitempty"`
	QualityScore        int      `json:"quality_score"`
	Excellent           bool     `json:"excellent"`
}

// ValuationAvailable reports whether a growth rate (and therefore a
// sticker price) could be derived from the inputs.
func (r Result) ValuationAvailable() bool {
	return r.GrowthRate != nil
}

// Field extracts one nullable fact from a FinancialYear.
type Field func(model.FinancialYear) *float64

// Canonical field extractors for CAGR computation.
func Revenue(fy model.FinancialYear) *float64   { return fy.Revenue }
func EPS(fy model.FinancialYear) *float64       { return fy.EPS }
func BookValue(fy model.FinancialYear) *float64 { return fy.BookValue }
func FCF(fy model.FinancialYear) *float64       { return fy.FreeCashFlow }

// CAGR computes the compound annual growth rate, in percent, of one
// field across the series. Years with a missing or non-positive value
// are excluded; at least two surviving points are required. Periods are
// the elapsed fiscal-year steps between the first and last surviving
// point, not the point count, so gaps in the series do not inflate the
// rate. Returns nil when no defensible rate exists.
func CAGR(years []model.FinancialYear, field Field) *float64 {
	type point struct {
		year  int
		value float64
	}
	var pts []point
	for _, fy := range years {
		v := field(fy)
		if v == nil || *v <= 0 {
			continue
		}
		pts = append(pts, point{year: fy.Year, value: *v})
	}
	if len(pts) < 2 {
		return nil
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].year < pts[j].year })

	first, last := pts[0], pts[len(pts)-1]
	periods := last.year - first.year
	if periods <= 0 {
		return nil
	}

	rate := (math.Pow(last.value/first.value, 1.0/float64(periods)) - 1) * 100
	return &rate
}

// BigFour computes the four Rule One growth rates: sales, EPS, equity
// (book value), and free cash flow.
func BigFour(years []model.FinancialYear) (sales, eps, equity, fcf *float64) {
	return CAGR(years, Revenue), CAGR(years, EPS), CAGR(years, BookValue), CAGR(years, FCF)
}

// LatestROIC returns the directly reported return on invested capital
// for the most recent fiscal year, if any. Recomputing ROIC from
// components conflates capital-structure definitions across providers,
// so the reported figure is preferred; see ROICFromComponents for the
// explicit alternative.
func LatestROIC(years []model.FinancialYear) *float64 {
	latest := latestYear(years)
	if latest == nil {
		return nil
	}
	return latest.ROIC
}

// ROICFromComponents computes ROIC in percent from caller-supplied
// components. Callers opt into this only when both figures come from the
// same source with a known capital definition.
func ROICFromComponents(netIncome, investedCapital float64) *float64 {
	if investedCapital == 0 {
		return nil
	}
	r := netIncome / investedCapital * 100
	return &r
}

// DebtPayoffYears returns total debt divided by free cash flow using the
// latest fiscal year only. If free cash flow is non-positive or debt is
// not reported, the payoff horizon is unbounded or unknown and nil is
// returned.
func DebtPayoffYears(years []model.FinancialYear) *float64 {
	latest := latestYear(years)
	if latest == nil {
		return nil
	}
	if latest.TotalDebt == nil || latest.FreeCashFlow == nil || *latest.FreeCashFlow <= 0 {
		return nil
	}
	payoff := *latest.TotalDebt / *latest.FreeCashFlow
	return &payoff
}

// GrowthRate is the Rule One growth rate: the minimum of the non-nil Big
// Four rates. Returns nil when none are available, in which case
// valuation cannot proceed.
func GrowthRate(sales, eps, equity, fcf *float64) *float64 {
	var minRate *float64
	for _, r := range []*float64{sales, eps, equity, fcf} {
		if r == nil {
			continue
		}
		if minRate == nil || *r < *minRate {
			v := *r
			minRate = &v
		}
	}
	return minRate
}

// Evaluate derives the full Rule One assessment from a company's
// canonical series and current overview figures.
func Evaluate(company model.Company, years []model.FinancialYear, pol Policy) Result {
	pol = pol.withDefaults()
	sales, eps, equity, fcf := BigFour(years)

	r := Result{
		SalesGrowth:     sales,
		EPSGrowth:       eps,
		EquityGrowth:    equity,
		FCFGrowth:       fcf,
		ROIC:            LatestROIC(years),
		DebtPayoffYears: DebtPayoffYears(years),
	}
	r.GrowthRate = GrowthRate(sales, eps, equity, fcf)

	if r.GrowthRate != nil && company.EPS != nil && *company.EPS > 0 {
		sticker := StickerPrice(*company.EPS, *r.GrowthRate, company.PERatio, pol)
		if sticker != nil {
			mos := *sticker * pol.MarginOfSafetyDiscount
			r.StickerPrice = sticker
			r.MarginOfSafetyPrice = &mos
		}
	}

	r.QualityScore = QualityScore(r, debtFree(years))
	r.Excellent = excellent(r)

	return r
}

// debtFree reports whether the latest fiscal year reports zero debt.
// Unreported debt is unknown, not debt-free: missing data contributes
// nothing to the quality score rather than earning the full debt slot.
func debtFree(years []model.FinancialYear) bool {
	latest := latestYear(years)
	if latest == nil {
		return false
	}
	return latest.TotalDebt != nil && *latest.TotalDebt == 0
}

func latestYear(years []model.FinancialYear) *model.FinancialYear {
	var latest *model.FinancialYear
	for i := range years {
		if latest == nil || years[i].Year > latest.Year {
			latest = &years[i]
		}
	}
	return latest
}

func excellent(r Result) bool {
	available := 0
	for _, rate := range []*float64{r.SalesGrowth, r.EPSGrowth, r.EquityGrowth, r.FCFGrowth} {
		if rate == nil {
			continue
		}
		available++
		if *rate < 10 {
			return false
		}
	}
	if available == 0 {
		return false
	}
	if r.ROIC != nil && *r.ROIC < 10 {
		return false
	}
	if r.DebtPayoffYears != nil && *r.DebtPayoffYears > 3 {
		return false
	}
	return true
}
