package alphavantage

// Alpha Vantage reports every numeric field as a string and uses the
// literal "None" for absent values. Raw payloads keep the string form;
// normalization into typed facts happens downstream.

// Overview is the COMPANY_OVERVIEW payload, trimmed to consumed fields.
type Overview struct {
	Symbol     string `json:"Symbol"`
	Name       string `json:"Name"`
	Exchange   string `json:"Exchange"`
	Sector     string `json:"Sector"`
	PERatio    string `json:"PERatio"`
	EPS        string `json:"EPS"`
	ROIC       string `json:"ReturnOnInvestedCapitalTTM"`
	BookValue  string `json:"BookValue"`
	MarketCap  string `json:"MarketCapitalization"`
	FiscalYear string `json:"FiscalYearEnd"`
}

// GlobalQuote is the GLOBAL_QUOTE payload.
type GlobalQuote struct {
	Quote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// IncomeStatement is the INCOME_STATEMENT payload.
type IncomeStatement struct {
	Symbol        string         `json:"symbol"`
	AnnualReports []IncomeReport `json:"annualReports"`
}

// IncomeReport is one annual income statement.
type IncomeReport struct {
	FiscalDateEnding string `json:"fiscalDateEnding"`
	TotalRevenue     string `json:"totalRevenue"`
	NetIncome        string `json:"netIncome"`
}

// BalanceSheet is the BALANCE_SHEET payload.
type BalanceSheet struct {
	Symbol        string          `json:"symbol"`
	AnnualReports []BalanceReport `json:"annualReports"`
}

// BalanceReport is one annual balance sheet.
type BalanceReport struct {
	FiscalDateEnding       string `json:"fiscalDateEnding"`
	TotalShareholderEquity string `json:"totalShareholderEquity"`
	ShortLongTermDebtTotal string `json:"shortLongTermDebtTotal"`
}

// CashFlow is the CASH_FLOW payload.
type CashFlow struct {
	Symbol        string           `json:"symbol"`
	AnnualReports []CashFlowReport `json:"annualReports"`
}

// CashFlowReport is one annual cash flow statement.
type CashFlowReport struct {
	FiscalDateEnding    string `json:"fiscalDateEnding"`
	OperatingCashflow   string `json:"operatingCashflow"`
	CapitalExpenditures string `json:"capitalExpenditures"`
}

// Earnings is the EARNINGS payload.
type Earnings struct {
	Symbol         string          `json:"symbol"`
	AnnualEarnings []AnnualEarning `json:"annualEarnings"`
}

// AnnualEarning is one annual reported EPS figure.
type AnnualEarning struct {
	FiscalDateEnding string `json:"fiscalDateEnding"`
	ReportedEPS      string `json:"reportedEPS"`
}
