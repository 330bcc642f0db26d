// Package screener glues the source cascade, the store, and the Rule
// One engine into the lookup operation shared by the CLI, the batch
// orchestrator, and the HTTP API.
package screener

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/valuehound/ruleone-cli/internal/cascade"
	"github.com/valuehound/ruleone-cli/internal/model"
	"github.com/valuehound/ruleone-cli/internal/ruleone"
)

// ErrNoData marks a symbol that no source, including the cache, knows
// anything about. Callers map it to a not-found response; it is the
// only lookup condition treated as terminal.
var ErrNoData = eris.New("screener: no data for symbol")

// Resolver is the slice of cascade.Resolver the screener needs.
type Resolver interface {
	Resolve(ctx context.Context, symbol string) (cascade.Resolution, error)
}

// Report is the full outcome of a lookup. InsufficientHistory and
// ComputationUnavailable are explicit states, not errors: a report with
// either flag still carries whatever was derivable.
type Report struct {
	Company                model.Company         `json:"company"`
	Years                  []model.FinancialYear `json:"years"`
	Result                 ruleone.Result        `json:"result"`
	Provenance             model.Provenance      `json:"provenance"`
	InsufficientHistory    bool                  `json:"insufficient_history"`
	ComputationUnavailable bool                  `json:"computation_unavailable"`
}

// Service performs lookups.
type Service struct {
	resolver Resolver
	policy   ruleone.Policy
}

// New creates a screener service. A zero Policy gets the defaults.
func New(resolver Resolver, policy ruleone.Policy) *Service {
	return &Service{resolver: resolver, policy: policy}
}

// Lookup resolves a symbol, persists what was found (through the
// resolver), and runs the valuation engine over the result.
func (s *Service) Lookup(ctx context.Context, symbol string) (*Report, error) {
	symbol = model.NormalizeSymbol(symbol)

	res, err := s.resolver.Resolve(ctx, symbol)
	if err != nil {
		return nil, eris.Wrapf(err, "screener: resolve %s", symbol)
	}
	if res.Provenance == model.ProvenanceFailed {
		return nil, ErrNoData
	}

	result := ruleone.Evaluate(res.Company, res.Years, s.policy)

	report := &Report{
		Company:                res.Company,
		Years:                  res.Years,
		Result:                 result,
		Provenance:             res.Provenance,
		InsufficientHistory:    res.Insufficient,
		ComputationUnavailable: !result.ValuationAvailable(),
	}

	zap.L().Info("lookup complete",
		zap.String("symbol", symbol),
		zap.String("provenance", string(res.Provenance)),
		zap.Int("years", model.DistinctYears(res.Years)),
		zap.Int("quality_score", result.QualityScore),
		zap.Bool("insufficient", report.InsufficientHistory))

	return report, nil
}
