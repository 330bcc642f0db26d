package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuehound/ruleone-cli/internal/model"
	"github.com/valuehound/ruleone-cli/internal/ruleone"
	"github.com/valuehound/ruleone-cli/internal/screener"
)

func TestLoadWatchlist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
symbols:
  - aapl
  - MSFT
  - " goog "
  - AAPL
  - ""
`), 0644))

	symbols, err := loadWatchlist(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, symbols)
}

func TestLoadWatchlist_MissingFile(t *testing.T) {
	_, err := loadWatchlist(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWatchlist_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols: {not a list"), 0644))

	_, err := loadWatchlist(path)
	assert.Error(t, err)
}

func TestRenderReport(t *testing.T) {
	rep := &screener.Report{
		Company:    model.Company{Symbol: "AAPL", Name: "Apple Inc", Exchange: "NASDAQ", Sector: "Technology", Price: model.Float(190)},
		Provenance: model.ProvenanceAlphaVantage,
		Result: ruleone.Result{
			SalesGrowth:         model.Float(11.2),
			EPSGrowth:           model.Float(14.8),
			GrowthRate:          model.Float(11.2),
			StickerPrice:        model.Float(240.5),
			MarginOfSafetyPrice: model.Float(120.25),
			QualityScore:        81,
			Excellent:           true,
		},
	}

	out := renderReport(rep)
	assert.Contains(t, out, "Apple Inc (AAPL)")
	assert.Contains(t, out, "source: alphavantage")
	assert.Contains(t, out, "11.2%")
	assert.Contains(t, out, "$240.50")
	assert.Contains(t, out, "81/100")
	assert.Contains(t, out, "EXCELLENT")
	// Missing facts render as n/a rather than zero.
	assert.Contains(t, out, "n/a")
}

func TestRenderReport_ComputationUnavailable(t *testing.T) {
	rep := &screener.Report{
		Company:                model.Company{Symbol: "ODD"},
		Provenance:             model.ProvenanceFMP,
		ComputationUnavailable: true,
	}

	out := renderReport(rep)
	assert.Contains(t, out, "Valuation unavailable")
	assert.NotContains(t, out, "Sticker price")
}

func TestRenderReport_InsufficientHistory(t *testing.T) {
	rep := &screener.Report{
		Company:             model.Company{Symbol: "TINY"},
		Provenance:          model.ProvenanceAIExtraction,
		InsufficientHistory: true,
		Result:              ruleone.Result{GrowthRate: model.Float(5)},
	}

	out := renderReport(rep)
	assert.Contains(t, out, "low confidence")
}
