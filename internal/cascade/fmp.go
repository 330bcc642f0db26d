package cascade

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/valuehound/ruleone-cli/internal/model"
	"github.com/valuehound/ruleone-cli/internal/normalize"
	"github.com/valuehound/ruleone-cli/pkg/fmp"
)

// FMPAdapter adapts the Financial Modeling Prep client to the cascade.
type FMPAdapter struct {
	client fmp.Client
}

// NewFMPAdapter wraps an FMP client.
func NewFMPAdapter(client fmp.Client) *FMPAdapter {
	return &FMPAdapter{client: client}
}

func (a *FMPAdapter) Name() string {
	return string(model.ProvenanceFMP)
}

func (a *FMPAdapter) Fetch(ctx context.Context, symbol string, horizon int) Outcome {
	inc, err := a.client.IncomeStatements(ctx, symbol, horizon)
	if err != nil {
		return a.classify(err)
	}
	bal, err := a.client.BalanceSheets(ctx, symbol, horizon)
	if err != nil {
		return a.classify(err)
	}
	cf, err := a.client.CashFlowStatements(ctx, symbol, horizon)
	if err != nil {
		return a.classify(err)
	}
	km, err := a.client.KeyMetrics(ctx, symbol, horizon)
	if err != nil {
		// Key metrics sit behind a higher plan tier on some accounts;
		// the statements alone are still a usable series.
		zap.L().Warn("fmp key metrics fetch failed", zap.String("symbol", symbol), zap.Error(err))
		km = nil
	}

	years := normalize.FMPYears(symbol, inc, bal, cf, km)
	if len(years) == 0 {
		return NoData()
	}

	profiles, err := a.client.Profile(ctx, symbol)
	if err != nil {
		zap.L().Warn("fmp profile fetch failed", zap.String("symbol", symbol), zap.Error(err))
		profiles = nil
	}

	return Data(normalize.FMPCompany(symbol, profiles), years)
}

func (a *FMPAdapter) classify(err error) Outcome {
	if eris.Is(err, fmp.ErrQuotaExceeded) {
		return QuotaExceeded(err)
	}
	return TransportFailure(err)
}
