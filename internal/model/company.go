package model

import (
	"strings"
	"time"
)

// Provenance records which data source ultimately satisfied a company's
// data request.
type Provenance string

const (
	ProvenanceCache        Provenance = "cache"
	ProvenanceAlphaVantage Provenance = "alphavantage"
	ProvenanceFMP          Provenance = "fmp"
	ProvenanceAIExtraction Provenance = "ai-extraction"
	ProvenanceFailed       Provenance = "failed"
	ProvenanceCancelled    Provenance = "cancelled"
)

// Company is the identity record for a listed company. It is created on
// first successful lookup or batch seed and mutated on every successful
// overview refresh; it is never deleted.
type Company struct {
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Exchange    string    `json:"exchange"`
	Sector      string    `json:"sector"`
	Price       *float64  `json:"price,omitempty"`
	Change      *float64  `json:"change,omitempty"`
	PERatio     *float64  `json:"pe_ratio,omitempty"`
	EPS         *float64  `json:"eps,omitempty"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// FinancialYear is the canonical per-company per-fiscal-year fact.
// Every numeric field is nullable: absence is a first-class value, never
// zero. At most one record exists per (symbol, year); years need not be
// contiguous.
type FinancialYear struct {
	Symbol       string   `json:"symbol"`
	Year         int      `json:"year"`
	Revenue      *float64 `json:"revenue,omitempty"`
	NetIncome    *float64 `json:"net_income,omitempty"`
	FreeCashFlow *float64 `json:"free_cash_flow,omitempty"`
	BookValue    *float64 `json:"book_value,omitempty"`
	EPS          *float64 `json:"eps,omitempty"`
	ROIC         *float64 `json:"roic,omitempty"`
	TotalDebt    *float64 `json:"total_debt,omitempty"`
}

// NormalizeSymbol upper-cases and trims a ticker symbol so it can serve
// as a store key.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// DistinctYears returns the number of distinct fiscal years in a series.
func DistinctYears(years []FinancialYear) int {
	seen := make(map[int]struct{}, len(years))
	for _, fy := range years {
		seen[fy.Year] = struct{}{}
	}
	return len(seen)
}

// Float returns a pointer to v. Convenience for building nullable facts.
func Float(v float64) *float64 {
	return &v
}
