package cascade

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/valuehound/ruleone-cli/internal/model"
	"github.com/valuehound/ruleone-cli/internal/retry"
	"github.com/valuehound/ruleone-cli/internal/store"
)

const (
	defaultMinYears    = 7
	defaultHorizon     = 10
	defaultOverviewTTL = 24 * time.Hour
)

// Resolution is the outcome of resolving one symbol through the
// cascade. Insufficient marks a best-effort result that carries fewer
// distinct fiscal years than the resolver's minimum.
type Resolution struct {
	Company      model.Company
	Years        []model.FinancialYear
	Provenance   model.Provenance
	Insufficient bool
}

// Resolver walks the source cascade for a symbol: store first, then
// adapters in priority order. A quota-limited adapter is skipped for
// the rest of the resolver's lifetime, so a batch sharing one resolver
// stops hammering an exhausted source.
type Resolver struct {
	store       store.Store
	adapters    []Adapter
	minYears    int
	horizon     int
	overviewTTL time.Duration

	mu       sync.Mutex
	disabled map[string]bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMinYears sets the distinct-year threshold below which a result
// is only accepted best-effort.
func WithMinYears(n int) ResolverOption {
	return func(r *Resolver) {
		r.minYears = n
	}
}

// WithHorizon sets how many fiscal years adapters are asked for.
func WithHorizon(n int) ResolverOption {
	return func(r *Resolver) {
		r.horizon = n
	}
}

// WithOverviewTTL sets how long a stored overview stays fresh enough to
// short-circuit the cascade. Historical years never expire.
func WithOverviewTTL(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.overviewTTL = d
	}
}

// NewResolver creates a resolver over the given store and adapters.
// Adapter order is priority order.
func NewResolver(st store.Store, adapters []Adapter, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:       st,
		adapters:    adapters,
		minYears:    defaultMinYears,
		horizon:     defaultHorizon,
		overviewTTL: defaultOverviewTTL,
		disabled:    make(map[string]bool),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve produces the best available data for a symbol. It returns an
// error only for store or context failures; a symbol no source knows
// resolves with provenance "failed" and Insufficient set.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (Resolution, error) {
	symbol = model.NormalizeSymbol(symbol)

	cached, err := r.store.GetCompany(ctx, symbol)
	if err != nil {
		return Resolution{}, err
	}
	cachedYears, err := r.store.GetFinancialYears(ctx, symbol)
	if err != nil {
		return Resolution{}, err
	}

	cacheSufficient := model.DistinctYears(cachedYears) >= r.minYears
	overviewFresh := cached != nil && time.Since(cached.RefreshedAt) < r.overviewTTL

	if cacheSufficient && overviewFresh {
		return Resolution{
			Company:    *cached,
			Years:      cachedYears,
			Provenance: model.ProvenanceCache,
		}, nil
	}

	// A partial Data outcome is held as a fallback; only the cascade's
	// tail gets to win with it, and a sufficient cached series beats it.
	var fallback *Resolution
	for _, a := range r.adapters {
		if r.isDisabled(a.Name()) {
			continue
		}

		out := a.Fetch(ctx, symbol, r.horizon)
		if err := ctx.Err(); err != nil {
			return Resolution{}, err
		}

		switch out.Status {
		case StatusData:
			res := Resolution{
				Company:    out.Company,
				Years:      out.Years,
				Provenance: model.Provenance(a.Name()),
			}
			if model.DistinctYears(out.Years) >= r.minYears {
				if err := r.persist(ctx, res); err != nil {
					return Resolution{}, err
				}
				return res, nil
			}
			res.Insufficient = true
			if fallback == nil || model.DistinctYears(res.Years) > model.DistinctYears(fallback.Years) {
				fallback = &res
			}
			zap.L().Info("source returned partial history",
				zap.String("symbol", symbol),
				zap.String("source", a.Name()),
				zap.Int("years", model.DistinctYears(out.Years)))

		case StatusQuotaExceeded:
			r.disable(a.Name())
			zap.L().Warn("source quota exhausted, disabling for this run",
				zap.String("symbol", symbol),
				zap.String("source", a.Name()),
				zap.Error(out.Err))

		case StatusTransportFailure:
			zap.L().Warn("source unreachable, trying next",
				zap.String("symbol", symbol),
				zap.String("source", a.Name()),
				zap.Error(out.Err))

		case StatusNoData:
			zap.L().Debug("source has no data",
				zap.String("symbol", symbol),
				zap.String("source", a.Name()))
		}
	}

	if cacheSufficient {
		res := Resolution{Years: cachedYears, Provenance: model.ProvenanceCache}
		if cached != nil {
			res.Company = *cached
		} else {
			res.Company = model.Company{Symbol: symbol}
		}
		return res, nil
	}

	if fallback != nil {
		if err := r.persist(ctx, *fallback); err != nil {
			return Resolution{}, err
		}
		return *fallback, nil
	}

	if cached != nil || len(cachedYears) > 0 {
		res := Resolution{
			Company:      model.Company{Symbol: symbol},
			Years:        cachedYears,
			Provenance:   model.ProvenanceCache,
			Insufficient: true,
		}
		if cached != nil {
			res.Company = *cached
		}
		return res, nil
	}

	return Resolution{
		Company:      model.Company{Symbol: symbol},
		Provenance:   model.ProvenanceFailed,
		Insufficient: true,
	}, nil
}

func (r *Resolver) persist(ctx context.Context, res Resolution) error {
	cfg := retry.DefaultConfig
	return retry.Do(ctx, cfg, func(ctx context.Context) error {
		if err := r.store.UpsertCompany(ctx, res.Company); err != nil {
			return err
		}
		return r.store.UpsertFinancialYears(ctx, res.Years)
	})
}

func (r *Resolver) isDisabled(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disabled[name]
}

func (r *Resolver) disable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled[name] = true
}
