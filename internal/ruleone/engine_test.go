package ruleone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuehound/ruleone-cli/internal/model"
)

func series(symbol string, revenues map[int]float64) []model.FinancialYear {
	var years []model.FinancialYear
	for y, v := range revenues {
		years = append(years, model.FinancialYear{Symbol: symbol, Year: y, Revenue: model.Float(v)})
	}
	return years
}

func TestCAGR_FlatSeries(t *testing.T) {
	years := series("X", map[int]float64{2020: 100, 2021: 100, 2022: 100})
	got := CAGR(years, Revenue)
	require.NotNil(t, got)
	assert.InDelta(t, 0.0, *got, 1e-9)
}

func TestCAGR_Doubling(t *testing.T) {
	years := series("X", map[int]float64{2021: 100, 2022: 200})
	got := CAGR(years, Revenue)
	require.NotNil(t, got)
	assert.InDelta(t, 100.0, *got, 1e-9)
}

func TestCAGR_SinglePoint(t *testing.T) {
	years := series("X", map[int]float64{2022: 100})
	assert.Nil(t, CAGR(years, Revenue))
}

func TestCAGR_NonPositiveValuesExcluded(t *testing.T) {
	// Zero and negative values are filtered; only one positive point
	// survives, so no rate exists.
	years := []model.FinancialYear{
		{Year: 2020, Revenue: model.Float(0)},
		{Year: 2021, Revenue: model.Float(-50)},
		{Year: 2022, Revenue: model.Float(100)},
	}
	assert.Nil(t, CAGR(years, Revenue))
}

func TestCAGR_NilValuesExcluded(t *testing.T) {
	years := []model.FinancialYear{
		{Year: 2020, Revenue: model.Float(100)},
		{Year: 2021},
		{Year: 2022, Revenue: model.Float(121)},
	}
	got := CAGR(years, Revenue)
	require.NotNil(t, got)
	// Two elapsed year-steps between surviving points, not one.
	assert.InDelta(t, 10.0, *got, 0.01)
}

func TestCAGR_GapsUseElapsedYears(t *testing.T) {
	// 100 → 200 over four elapsed years, despite only two points.
	years := series("X", map[int]float64{2018: 100, 2022: 200})
	got := CAGR(years, Revenue)
	require.NotNil(t, got)
	assert.InDelta(t, 18.92, *got, 0.01)
}

func TestCAGR_TenPercentExample(t *testing.T) {
	years := series("X", map[int]float64{
		2019: 100, 2020: 110, 2021: 121, 2022: 133.1, 2023: 146.4,
	})
	got := CAGR(years, Revenue)
	require.NotNil(t, got)
	assert.InDelta(t, 10.0, *got, 0.1)
}

func TestDebtPayoffYears(t *testing.T) {
	years := []model.FinancialYear{
		{Year: 2022, TotalDebt: model.Float(500), FreeCashFlow: model.Float(100)},
		{Year: 2023, TotalDebt: model.Float(300), FreeCashFlow: model.Float(150)},
	}
	got := DebtPayoffYears(years)
	require.NotNil(t, got)
	assert.InDelta(t, 2.0, *got, 1e-9)
}

func TestDebtPayoffYears_NegativeFCF(t *testing.T) {
	years := []model.FinancialYear{
		{Year: 2023, TotalDebt: model.Float(300), FreeCashFlow: model.Float(-10)},
	}
	assert.Nil(t, DebtPayoffYears(years))
}

func TestDebtPayoffYears_MissingDebt(t *testing.T) {
	years := []model.FinancialYear{
		{Year: 2023, FreeCashFlow: model.Float(150)},
	}
	assert.Nil(t, DebtPayoffYears(years))
}

func TestDebtPayoffYears_EmptySeries(t *testing.T) {
	assert.Nil(t, DebtPayoffYears(nil))
}

func TestGrowthRate_MinOfNonNil(t *testing.T) {
	got := GrowthRate(model.Float(10), model.Float(8), model.Float(12), nil)
	require.NotNil(t, got)
	assert.Equal(t, 8.0, *got)
}

func TestGrowthRate_AllNil(t *testing.T) {
	assert.Nil(t, GrowthRate(nil, nil, nil, nil))
}

func TestLatestROIC_PrefersLatestYear(t *testing.T) {
	years := []model.FinancialYear{
		{Year: 2021, ROIC: model.Float(22)},
		{Year: 2023, ROIC: model.Float(14)},
		{Year: 2022, ROIC: model.Float(18)},
	}
	got := LatestROIC(years)
	require.NotNil(t, got)
	assert.Equal(t, 14.0, *got)
}

func TestROICFromComponents(t *testing.T) {
	got := ROICFromComponents(50, 400)
	require.NotNil(t, got)
	assert.InDelta(t, 12.5, *got, 1e-9)

	assert.Nil(t, ROICFromComponents(50, 0))
}

func TestEvaluate_EndToEnd(t *testing.T) {
	// Revenue grows 10%/yr, EPS 8%/yr, equity 12%/yr; FCF missing
	// throughout (no capex data), so it is excluded from the minimum.
	years := []model.FinancialYear{
		{Year: 2019, Revenue: model.Float(100), EPS: model.Float(1.00), BookValue: model.Float(50)},
		{Year: 2020, Revenue: model.Float(110), EPS: model.Float(1.08), BookValue: model.Float(56)},
		{Year: 2021, Revenue: model.Float(121), EPS: model.Float(1.1664), BookValue: model.Float(62.72)},
		{Year: 2022, Revenue: model.Float(133.1), EPS: model.Float(1.2597), BookValue: model.Float(70.25)},
		{Year: 2023, Revenue: model.Float(146.4), EPS: model.Float(1.3605), BookValue: model.Float(78.68)},
	}
	company := model.Company{Symbol: "X", EPS: model.Float(1.36), PERatio: model.Float(20)}

	r := Evaluate(company, years, DefaultPolicy())

	require.NotNil(t, r.SalesGrowth)
	assert.InDelta(t, 10.0, *r.SalesGrowth, 0.1)
	require.NotNil(t, r.EPSGrowth)
	assert.InDelta(t, 8.0, *r.EPSGrowth, 0.1)
	require.NotNil(t, r.EquityGrowth)
	assert.InDelta(t, 12.0, *r.EquityGrowth, 0.1)
	assert.Nil(t, r.FCFGrowth)

	require.NotNil(t, r.GrowthRate)
	assert.InDelta(t, 8.0, *r.GrowthRate, 0.1)

	require.NotNil(t, r.StickerPrice)
	require.NotNil(t, r.MarginOfSafetyPrice)
	assert.InDelta(t, *r.StickerPrice*0.5, *r.MarginOfSafetyPrice, 1e-9)

	// FCF slot contributes 0: sales 9 + eps 6 + equity 9 + fcf 0,
	// ROIC unknown 0, debt unknown 0.
	assert.Equal(t, 24, r.QualityScore)
	assert.False(t, r.Excellent)
}

func TestEvaluate_NoGrowthRates(t *testing.T) {
	years := []model.FinancialYear{{Year: 2023}}
	r := Evaluate(model.Company{Symbol: "X", EPS: model.Float(2)}, years, DefaultPolicy())

	assert.False(t, r.ValuationAvailable())
	assert.Nil(t, r.StickerPrice)
	assert.Equal(t, 0, r.QualityScore)
	assert.False(t, r.Excellent)
}

func TestEvaluate_Excellent(t *testing.T) {
	years := []model.FinancialYear{
		{Year: 2019, Revenue: model.Float(100), EPS: model.Float(1), BookValue: model.Float(50), FreeCashFlow: model.Float(20), ROIC: model.Float(25), TotalDebt: model.Float(10)},
		{Year: 2023, Revenue: model.Float(200), EPS: model.Float(2), BookValue: model.Float(100), FreeCashFlow: model.Float(40), ROIC: model.Float(26), TotalDebt: model.Float(12)},
	}
	company := model.Company{Symbol: "X", EPS: model.Float(2), PERatio: model.Float(25)}

	r := Evaluate(company, years, DefaultPolicy())

	// All Big Four ≈ 18.9%, ROIC 26, payoff 0.3y.
	assert.True(t, r.Excellent)
	require.NotNil(t, r.DebtPayoffYears)
	assert.InDelta(t, 0.3, *r.DebtPayoffYears, 1e-9)
	// 12×4 growth points + 25 ROIC + 15 debt.
	assert.Equal(t, 88, r.QualityScore)
}
