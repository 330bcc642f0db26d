package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/valuehound/ruleone-cli/internal/batch"
	"github.com/valuehound/ruleone-cli/internal/cascade"
	"github.com/valuehound/ruleone-cli/internal/extract"
	"github.com/valuehound/ruleone-cli/internal/ruleone"
	"github.com/valuehound/ruleone-cli/internal/screener"
	"github.com/valuehound/ruleone-cli/internal/store"
	"github.com/valuehound/ruleone-cli/pkg/alphavantage"
	"github.com/valuehound/ruleone-cli/pkg/fmp"
	"github.com/valuehound/ruleone-cli/pkg/websearch"
)

// appEnv holds the initialized store, services, and orchestrator shared
// by the analyze/batch/serve commands.
type appEnv struct {
	Store    store.Store
	Screener *screener.Service
	Batch    *batch.Orchestrator
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initApp wires the source cascade, the screener, and the batch
// orchestrator from configuration. Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var adapters []cascade.Adapter

	if cfg.AlphaVantage.Key != "" {
		perMinute := cfg.AlphaVantage.RequestsPerMinute
		if perMinute <= 0 {
			perMinute = 5
		}
		avClient := alphavantage.NewClient(cfg.AlphaVantage.Key,
			alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL),
			alphavantage.WithRateLimit(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		)
		adapters = append(adapters, cascade.NewAlphaVantageAdapter(avClient))
	} else {
		zap.L().Warn("RULEONE_ALPHAVANTAGE_KEY not set, alpha vantage source disabled")
	}

	if cfg.FMP.Key != "" {
		fmpClient := fmp.NewClient(cfg.FMP.Key, fmp.WithBaseURL(cfg.FMP.BaseURL))
		adapters = append(adapters, cascade.NewFMPAdapter(fmpClient))
	} else {
		zap.L().Warn("RULEONE_FMP_KEY not set, fmp source disabled")
	}

	if cfg.WebSearch.Key != "" && cfg.Anthropic.Key != "" {
		searchClient := websearch.NewClient(cfg.WebSearch.Key,
			websearch.WithSearchBaseURL(cfg.WebSearch.SearchBaseURL),
			websearch.WithReaderBaseURL(cfg.WebSearch.ReaderBaseURL),
		)
		completer := extract.NewClaudeCompleter(cfg.Anthropic.Key,
			extract.WithModel(cfg.Anthropic.Model),
			extract.WithMaxTokens(cfg.Anthropic.MaxTokens),
		)
		adapters = append(adapters, extract.New(searchClient, completer))
	} else {
		zap.L().Debug("websearch or anthropic key not set, ai extraction disabled")
	}

	resolver := cascade.NewResolver(st, adapters,
		cascade.WithMinYears(cfg.Resolver.MinYears),
		cascade.WithHorizon(cfg.Resolver.Horizon),
		cascade.WithOverviewTTL(time.Duration(cfg.Resolver.OverviewTTLHours)*time.Hour),
	)

	policy := ruleone.Policy{
		PECap:                  cfg.Valuation.PECap,
		MinimumReturn:          cfg.Valuation.MinimumReturn,
		MarginOfSafetyDiscount: cfg.Valuation.MarginOfSafetyDiscount,
	}
	svc := screener.New(resolver, policy)

	orch := batch.New(svc, batch.Config{
		GroupSize:  cfg.Batch.GroupSize,
		GroupDelay: time.Duration(cfg.Batch.GroupDelaySecs) * time.Second,
	})

	return &appEnv{Store: st, Screener: svc, Batch: orch}, nil
}
