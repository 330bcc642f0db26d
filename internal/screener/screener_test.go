package screener

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuehound/ruleone-cli/internal/cascade"
	"github.com/valuehound/ruleone-cli/internal/model"
	"github.com/valuehound/ruleone-cli/internal/ruleone"
)

type fakeResolver struct {
	res cascade.Resolution
	err error
}

func (f *fakeResolver) Resolve(context.Context, string) (cascade.Resolution, error) {
	return f.res, f.err
}

func growthSeries(symbol string) []model.FinancialYear {
	years := make([]model.FinancialYear, 0, 8)
	for i := 0; i < 8; i++ {
		years = append(years, model.FinancialYear{
			Symbol:  symbol,
			Year:    2016 + i,
			Revenue: model.Float(100 * pow(1.12, i)),
			EPS:     model.Float(2 * pow(1.12, i)),
		})
	}
	return years
}

func pow(base float64, n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= base
	}
	return v
}

func TestLookup_HappyPath(t *testing.T) {
	r := &fakeResolver{res: cascade.Resolution{
		Company:    model.Company{Symbol: "GRW", Name: "Growth Co", EPS: model.Float(4.4), PERatio: model.Float(25)},
		Years:      growthSeries("GRW"),
		Provenance: model.ProvenanceAlphaVantage,
	}}
	svc := New(r, ruleone.DefaultPolicy())

	rep, err := svc.Lookup(context.Background(), "grw")
	require.NoError(t, err)
	assert.Equal(t, model.ProvenanceAlphaVantage, rep.Provenance)
	assert.False(t, rep.InsufficientHistory)
	assert.False(t, rep.ComputationUnavailable)
	require.NotNil(t, rep.Result.GrowthRate)
	assert.InDelta(t, 12.0, *rep.Result.GrowthRate, 0.01)
	assert.NotNil(t, rep.Result.StickerPrice)
}

func TestLookup_NoDataIsTerminal(t *testing.T) {
	r := &fakeResolver{res: cascade.Resolution{
		Company:      model.Company{Symbol: "ZZZZ"},
		Provenance:   model.ProvenanceFailed,
		Insufficient: true,
	}}
	svc := New(r, ruleone.DefaultPolicy())

	_, err := svc.Lookup(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoData))
}

func TestLookup_InsufficientHistoryIsAState(t *testing.T) {
	r := &fakeResolver{res: cascade.Resolution{
		Company:      model.Company{Symbol: "TINY", EPS: model.Float(1)},
		Years:        growthSeries("TINY")[:3],
		Provenance:   model.ProvenanceAIExtraction,
		Insufficient: true,
	}}
	svc := New(r, ruleone.DefaultPolicy())

	rep, err := svc.Lookup(context.Background(), "TINY")
	require.NoError(t, err)
	assert.True(t, rep.InsufficientHistory)
	// Three years still yield a rate; the flag marks low confidence,
	// it does not suppress computation.
	assert.False(t, rep.ComputationUnavailable)
}

func TestLookup_ComputationUnavailable(t *testing.T) {
	// Years exist but no field has two positive points, so no growth
	// rate and no valuation. The report survives without them.
	years := []model.FinancialYear{
		{Symbol: "ODD", Year: 2022, TotalDebt: model.Float(50)},
		{Symbol: "ODD", Year: 2023, TotalDebt: model.Float(40)},
	}
	r := &fakeResolver{res: cascade.Resolution{
		Company:    model.Company{Symbol: "ODD"},
		Years:      years,
		Provenance: model.ProvenanceFMP,
	}}
	svc := New(r, ruleone.DefaultPolicy())

	rep, err := svc.Lookup(context.Background(), "ODD")
	require.NoError(t, err)
	assert.True(t, rep.ComputationUnavailable)
	assert.Nil(t, rep.Result.StickerPrice)
	assert.Equal(t, 0, rep.Result.QualityScore)
}

func TestLookup_ResolverErrorPropagates(t *testing.T) {
	r := &fakeResolver{err: eris.New("store: disk full")}
	svc := New(r, ruleone.DefaultPolicy())

	_, err := svc.Lookup(context.Background(), "AAPL")
	require.Error(t, err)
	assert.False(t, eris.Is(err, ErrNoData))
}
