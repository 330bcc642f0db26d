package normalize

import (
	"time"

	"github.com/valuehound/ruleone-cli/internal/model"
	"github.com/valuehound/ruleone-cli/pkg/alphavantage"
)

// AlphaVantageYears merges the four Alpha Vantage statement payloads
// into one canonical series. All four come from the same source, so
// combining them per year does not cross accounting conventions.
func AlphaVantageYears(symbol string, inc *alphavantage.IncomeStatement, bal *alphavantage.BalanceSheet, cf *alphavantage.CashFlow, earn *alphavantage.Earnings) []model.FinancialYear {
	m := newYearMap(symbol)

	if inc != nil {
		for _, r := range inc.AnnualReports {
			year, ok := FiscalYear(r.FiscalDateEnding)
			if !ok {
				continue
			}
			fy := m.at(year)
			fy.Revenue = ParseNumber(r.TotalRevenue)
			fy.NetIncome = ParseNumber(r.NetIncome)
		}
	}

	if bal != nil {
		for _, r := range bal.AnnualReports {
			year, ok := FiscalYear(r.FiscalDateEnding)
			if !ok {
				continue
			}
			fy := m.at(year)
			fy.BookValue = ParseNumber(r.TotalShareholderEquity)
			fy.TotalDebt = ParseNumber(r.ShortLongTermDebtTotal)
		}
	}

	if cf != nil {
		for _, r := range cf.AnnualReports {
			year, ok := FiscalYear(r.FiscalDateEnding)
			if !ok {
				continue
			}
			fy := m.at(year)
			fy.FreeCashFlow = DeriveFCF(ParseNumber(r.OperatingCashflow), ParseNumber(r.CapitalExpenditures))
		}
	}

	if earn != nil {
		for _, r := range earn.AnnualEarnings {
			year, ok := FiscalYear(r.FiscalDateEnding)
			if !ok {
				continue
			}
			m.at(year).EPS = ParseNumber(r.ReportedEPS)
		}
	}

	return m.series()
}

// AlphaVantageROIC converts the overview's trailing ROIC, reported as a
// decimal fraction string, into a percentage. Attached to the latest
// fiscal year by the adapter since Alpha Vantage has no per-year ROIC.
func AlphaVantageROIC(ov *alphavantage.Overview) *float64 {
	if ov == nil {
		return nil
	}
	frac := ParseNumber(ov.ROIC)
	if frac == nil {
		return nil
	}
	pct := *frac * 100
	return &pct
}

// AlphaVantageCompany builds the identity record from the overview and
// quote payloads.
func AlphaVantageCompany(symbol string, ov *alphavantage.Overview, quote *alphavantage.GlobalQuote) model.Company {
	c := model.Company{
		Symbol:      model.NormalizeSymbol(symbol),
		RefreshedAt: time.Now().UTC(),
	}
	if ov != nil {
		c.Name = ov.Name
		c.Exchange = ov.Exchange
		c.Sector = ov.Sector
		c.PERatio = ParseNumber(ov.PERatio)
		c.EPS = ParseNumber(ov.EPS)
	}
	if quote != nil {
		c.Price = ParseNumber(quote.Quote.Price)
		c.Change = ParseNumber(quote.Quote.Change)
	}
	return c
}
