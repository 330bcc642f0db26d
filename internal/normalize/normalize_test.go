package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuehound/ruleone-cli/internal/model"
	"github.com/valuehound/ruleone-cli/pkg/alphavantage"
	"github.com/valuehound/ruleone-cli/pkg/fmp"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"123.45", model.Float(123.45)},
		{"-7", model.Float(-7)},
		{"1,234,567", model.Float(1234567)},
		{"None", nil},
		{"-", nil},
		{"", nil},
		{"  ", nil},
		{"n/a", nil},
	}
	for _, tc := range tests {
		got := ParseNumber(tc.in)
		if tc.want == nil {
			assert.Nil(t, got, "input %q", tc.in)
		} else {
			require.NotNil(t, got, "input %q", tc.in)
			assert.Equal(t, *tc.want, *got)
		}
	}
}

func TestFiscalYear(t *testing.T) {
	y, ok := FiscalYear("2023-09-30")
	require.True(t, ok)
	assert.Equal(t, 2023, y)

	_, ok = FiscalYear("")
	assert.False(t, ok)
	_, ok = FiscalYear("09-30")
	assert.False(t, ok)
	_, ok = FiscalYear("0001-01-01")
	assert.False(t, ok)
}

func TestDeriveFCF(t *testing.T) {
	got := DeriveFCF(model.Float(100), model.Float(30))
	require.NotNil(t, got)
	assert.Equal(t, 70.0, *got)

	// Capex reported negative still subtracts its magnitude.
	got = DeriveFCF(model.Float(100), model.Float(-30))
	require.NotNil(t, got)
	assert.Equal(t, 70.0, *got)

	// Missing operand propagates null, never zero.
	assert.Nil(t, DeriveFCF(nil, model.Float(30)))
	assert.Nil(t, DeriveFCF(model.Float(100), nil))
}

func TestAlphaVantageYears(t *testing.T) {
	inc := &alphavantage.IncomeStatement{AnnualReports: []alphavantage.IncomeReport{
		{FiscalDateEnding: "2023-09-30", TotalRevenue: "400", NetIncome: "90"},
		{FiscalDateEnding: "2022-09-24", TotalRevenue: "380", NetIncome: "None"},
	}}
	bal := &alphavantage.BalanceSheet{AnnualReports: []alphavantage.BalanceReport{
		{FiscalDateEnding: "2023-09-30", TotalShareholderEquity: "60", ShortLongTermDebtTotal: "110"},
	}}
	cf := &alphavantage.CashFlow{AnnualReports: []alphavantage.CashFlowReport{
		{FiscalDateEnding: "2023-09-30", OperatingCashflow: "110", CapitalExpenditures: "10"},
		{FiscalDateEnding: "2022-09-24", OperatingCashflow: "100", CapitalExpenditures: "None"},
	}}
	earn := &alphavantage.Earnings{AnnualEarnings: []alphavantage.AnnualEarning{
		{FiscalDateEnding: "2023-09-30", ReportedEPS: "6.1"},
	}}

	years := AlphaVantageYears("aapl", inc, bal, cf, earn)
	require.Len(t, years, 2)

	assert.Equal(t, 2022, years[0].Year)
	assert.Equal(t, "AAPL", years[0].Symbol)
	assert.Nil(t, years[0].NetIncome)
	assert.Nil(t, years[0].FreeCashFlow) // capex missing → FCF null

	assert.Equal(t, 2023, years[1].Year)
	require.NotNil(t, years[1].FreeCashFlow)
	assert.Equal(t, 100.0, *years[1].FreeCashFlow)
	require.NotNil(t, years[1].TotalDebt)
	assert.Equal(t, 110.0, *years[1].TotalDebt)
	require.NotNil(t, years[1].EPS)
	assert.Equal(t, 6.1, *years[1].EPS)
}

func TestAlphaVantageYears_DuplicateYearLaterWins(t *testing.T) {
	inc := &alphavantage.IncomeStatement{AnnualReports: []alphavantage.IncomeReport{
		{FiscalDateEnding: "2023-03-31", TotalRevenue: "100"},
		{FiscalDateEnding: "2023-12-31", TotalRevenue: "120"},
	}}

	years := AlphaVantageYears("X", inc, nil, nil, nil)
	require.Len(t, years, 1)
	require.NotNil(t, years[0].Revenue)
	assert.Equal(t, 120.0, *years[0].Revenue)
}

func TestAlphaVantageCompany(t *testing.T) {
	ov := &alphavantage.Overview{Name: "Apple Inc", Exchange: "NASDAQ", Sector: "Technology", PERatio: "29.5", EPS: "6.16", ROIC: "0.56"}
	var quote alphavantage.GlobalQuote
	quote.Quote.Price = "190.5"
	quote.Quote.Change = "-1.25"

	c := AlphaVantageCompany("aapl", ov, &quote)
	assert.Equal(t, "AAPL", c.Symbol)
	assert.Equal(t, "Apple Inc", c.Name)
	require.NotNil(t, c.Price)
	assert.Equal(t, 190.5, *c.Price)
	require.NotNil(t, c.PERatio)
	assert.Equal(t, 29.5, *c.PERatio)
	assert.False(t, c.RefreshedAt.IsZero())

	roic := AlphaVantageROIC(ov)
	require.NotNil(t, roic)
	assert.InDelta(t, 56.0, *roic, 1e-9)
}

func TestFMPYears(t *testing.T) {
	inc := []fmp.IncomeStatement{
		{Date: "2023-12-31", Revenue: model.Float(500), NetIncome: model.Float(50), EPS: model.Float(2.5)},
		{Date: "2022-12-31", Revenue: model.Float(450)},
	}
	bal := []fmp.BalanceSheet{
		{Date: "2023-12-31", TotalStockholdersEquity: model.Float(200), TotalDebt: model.Float(80)},
	}
	cf := []fmp.CashFlowStatement{
		{Date: "2023-12-31", FreeCashFlow: model.Float(40)},
		{Date: "2022-12-31", OperatingCashFlow: model.Float(60), CapitalExpenditure: model.Float(-15)},
	}
	km := []fmp.KeyMetrics{
		{Date: "2023-12-31", ROIC: model.Float(0.18)},
	}

	years := FMPYears("msft", inc, bal, cf, km)
	require.Len(t, years, 2)

	// Derived FCF when the reported figure is absent.
	require.NotNil(t, years[0].FreeCashFlow)
	assert.Equal(t, 45.0, *years[0].FreeCashFlow)

	// Reported FCF preferred.
	require.NotNil(t, years[1].FreeCashFlow)
	assert.Equal(t, 40.0, *years[1].FreeCashFlow)
	require.NotNil(t, years[1].ROIC)
	assert.InDelta(t, 18.0, *years[1].ROIC, 1e-9)
}

func TestFMPCompany(t *testing.T) {
	c := FMPCompany("msft", []fmp.Profile{{CompanyName: "Microsoft", Exchange: "NASDAQ", Sector: "Technology", Price: model.Float(410), Changes: model.Float(2.1)}})
	assert.Equal(t, "MSFT", c.Symbol)
	assert.Equal(t, "Microsoft", c.Name)
	require.NotNil(t, c.Price)
	assert.Equal(t, 410.0, *c.Price)

	empty := FMPCompany("none", nil)
	assert.Equal(t, "NONE", empty.Symbol)
	assert.Empty(t, empty.Name)
}
