package normalize

import (
	"time"

	"github.com/valuehound/ruleone-cli/internal/model"
	"github.com/valuehound/ruleone-cli/pkg/fmp"
)

// FMPYears merges the FMP statement arrays into one canonical series.
// FMP reports free cash flow directly; the operating-minus-capex
// derivation is used only when the reported figure is absent.
func FMPYears(symbol string, inc []fmp.IncomeStatement, bal []fmp.BalanceSheet, cf []fmp.CashFlowStatement, km []fmp.KeyMetrics) []model.FinancialYear {
	m := newYearMap(symbol)

	for _, r := range inc {
		year, ok := FiscalYear(r.Date)
		if !ok {
			continue
		}
		fy := m.at(year)
		fy.Revenue = r.Revenue
		fy.NetIncome = r.NetIncome
		fy.EPS = r.EPS
	}

	for _, r := range bal {
		year, ok := FiscalYear(r.Date)
		if !ok {
			continue
		}
		fy := m.at(year)
		fy.BookValue = r.TotalStockholdersEquity
		fy.TotalDebt = r.TotalDebt
	}

	for _, r := range cf {
		year, ok := FiscalYear(r.Date)
		if !ok {
			continue
		}
		fy := m.at(year)
		if r.FreeCashFlow != nil {
			fy.FreeCashFlow = r.FreeCashFlow
		} else {
			fy.FreeCashFlow = DeriveFCF(r.OperatingCashFlow, r.CapitalExpenditure)
		}
	}

	for _, r := range km {
		year, ok := FiscalYear(r.Date)
		if !ok {
			continue
		}
		if r.ROIC != nil {
			pct := *r.ROIC * 100
			m.at(year).ROIC = &pct
		}
	}

	return m.series()
}

// FMPCompany builds the identity record from an FMP profile.
func FMPCompany(symbol string, profiles []fmp.Profile) model.Company {
	c := model.Company{
		Symbol:      model.NormalizeSymbol(symbol),
		RefreshedAt: time.Now().UTC(),
	}
	if len(profiles) == 0 {
		return c
	}
	p := profiles[0]
	c.Name = p.CompanyName
	c.Exchange = p.Exchange
	c.Sector = p.Sector
	c.Price = p.Price
	c.Change = p.Changes
	return c
}
