// Package normalize maps each provider's raw payload into the canonical
// FinancialYear series. A fact is nil unless the source reports a
// parseable numeric value (absence is never coerced to zero), and no
// unit rescaling happens across providers: a series carries whatever
// unit its source reports, which is why provenance travels with every
// resolution.
package normalize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/valuehound/ruleone-cli/internal/model"
)

// ParseNumber converts a provider-reported string into a nullable float.
// Alpha Vantage uses the literal "None" (and sometimes "-") for absent
// values; both map to nil, as does anything unparseable.
func ParseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParsePercent parses a string that may carry a trailing percent sign.
func ParsePercent(s string) *float64 {
	return ParseNumber(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

// FiscalYear extracts the fiscal year from a provider date label such as
// "2023-09-30". Returns false when no four-digit year leads the label.
func FiscalYear(date string) (int, bool) {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil || y < 1900 || y > 2200 {
		return 0, false
	}
	return y, true
}

// DeriveFCF computes free cash flow as operating cash flow minus the
// absolute value of capital expenditure. If either operand is missing
// the result is nil, never zero.
func DeriveFCF(operatingCF, capex *float64) *float64 {
	if operatingCF == nil || capex == nil {
		return nil
	}
	c := *capex
	if c < 0 {
		c = -c
	}
	fcf := *operatingCF - c
	return &fcf
}

// yearMap accumulates facts per fiscal year. Records are applied in
// arrival order, so when two raw records map to the same year the
// later-arriving one wins field by field.
type yearMap struct {
	symbol string
	years  map[int]*model.FinancialYear
}

func newYearMap(symbol string) *yearMap {
	return &yearMap{symbol: model.NormalizeSymbol(symbol), years: make(map[int]*model.FinancialYear)}
}

func (m *yearMap) at(year int) *model.FinancialYear {
	fy, ok := m.years[year]
	if !ok {
		fy = &model.FinancialYear{Symbol: m.symbol, Year: year}
		m.years[year] = fy
	}
	return fy
}

// series returns the accumulated years ordered ascending by year.
func (m *yearMap) series() []model.FinancialYear {
	out := make([]model.FinancialYear, 0, len(m.years))
	for _, fy := range m.years {
		out = append(out, *fy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
