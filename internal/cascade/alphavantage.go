package cascade

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/valuehound/ruleone-cli/internal/model"
	"github.com/valuehound/ruleone-cli/internal/normalize"
	"github.com/valuehound/ruleone-cli/pkg/alphavantage"
)

// AlphaVantageAdapter adapts the Alpha Vantage client to the cascade.
type AlphaVantageAdapter struct {
	client alphavantage.Client
}

// NewAlphaVantageAdapter wraps an Alpha Vantage client.
func NewAlphaVantageAdapter(client alphavantage.Client) *AlphaVantageAdapter {
	return &AlphaVantageAdapter{client: client}
}

func (a *AlphaVantageAdapter) Name() string {
	return string(model.ProvenanceAlphaVantage)
}

// Fetch pulls the four statement payloads and merges them into one
// series. The overview and quote are best-effort extras: once the
// statements are in hand, losing the overview should not discard them.
func (a *AlphaVantageAdapter) Fetch(ctx context.Context, symbol string, horizon int) Outcome {
	inc, err := a.client.IncomeStatement(ctx, symbol)
	if err != nil {
		return a.classify(err)
	}
	bal, err := a.client.BalanceSheet(ctx, symbol)
	if err != nil {
		return a.classify(err)
	}
	cf, err := a.client.CashFlow(ctx, symbol)
	if err != nil {
		return a.classify(err)
	}
	earn, err := a.client.Earnings(ctx, symbol)
	if err != nil {
		return a.classify(err)
	}

	years := normalize.AlphaVantageYears(symbol, inc, bal, cf, earn)
	if len(years) == 0 {
		return NoData()
	}

	ov, err := a.client.Overview(ctx, symbol)
	if err != nil {
		zap.L().Warn("alphavantage overview fetch failed", zap.String("symbol", symbol), zap.Error(err))
		ov = nil
	}
	quote, err := a.client.GlobalQuote(ctx, symbol)
	if err != nil {
		zap.L().Warn("alphavantage quote fetch failed", zap.String("symbol", symbol), zap.Error(err))
		quote = nil
	}

	// Alpha Vantage reports ROIC only as a trailing figure, so it is
	// attached to the latest fiscal year when that year has none.
	if roic := normalize.AlphaVantageROIC(ov); roic != nil {
		latest := &years[len(years)-1]
		if latest.ROIC == nil {
			latest.ROIC = roic
		}
	}

	return Data(normalize.AlphaVantageCompany(symbol, ov, quote), years)
}

func (a *AlphaVantageAdapter) classify(err error) Outcome {
	if eris.Is(err, alphavantage.ErrQuotaExceeded) {
		return QuotaExceeded(err)
	}
	return TransportFailure(err)
}
