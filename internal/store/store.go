// Package store persists the canonical company and financial-year
// records. Both tables are append/update-only from the pipeline's
// perspective: nothing here deletes.
package store

import (
	"context"

	"github.com/valuehound/ruleone-cli/internal/model"
)

// Store defines the persistence contract for canonical metrics.
type Store interface {
	// UpsertCompany inserts or refreshes the identity record keyed by
	// normalized symbol.
	UpsertCompany(ctx context.Context, company model.Company) error
	// GetCompany returns the identity record, or nil when the symbol is
	// unknown (not an error).
	GetCompany(ctx context.Context, symbol string) (*model.Company, error)

	// UpsertFinancialYears writes a series. Each (symbol, year) upsert
	// is atomic insert-or-update, so concurrent workers writing
	// different companies need no cross-worker coordination.
	UpsertFinancialYears(ctx context.Context, years []model.FinancialYear) error
	// GetFinancialYears returns the stored series ordered by year
	// ascending; empty when none exist.
	GetFinancialYears(ctx context.Context, symbol string) ([]model.FinancialYear, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
