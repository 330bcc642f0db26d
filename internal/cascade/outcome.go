// Package cascade resolves a company's financial history through an
// ordered chain of data sources: the local store first, then provider
// adapters in priority order.
package cascade

import (
	"github.com/valuehound/ruleone-cli/internal/model"
)

// Status classifies an adapter attempt. Absence of data is a value
// here, not an error.
type Status int

const (
	// StatusData means the adapter produced a usable series.
	StatusData Status = iota
	// StatusNoData means the source answered but knows nothing about
	// the symbol.
	StatusNoData
	// StatusQuotaExceeded means the source refused for rate or plan
	// reasons. The adapter is skipped for the rest of the resolver's
	// lifetime.
	StatusQuotaExceeded
	// StatusTransportFailure means the attempt failed for reasons
	// unrelated to the symbol (network, 5xx, malformed payload).
	StatusTransportFailure
)

func (s Status) String() string {
	switch s {
	case StatusData:
		return "data"
	case StatusNoData:
		return "no-data"
	case StatusQuotaExceeded:
		return "quota-exceeded"
	case StatusTransportFailure:
		return "transport-failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of one adapter attempt. Company and Years are
// set only when Status is StatusData; Err only for the failure
// statuses.
type Outcome struct {
	Status  Status
	Company model.Company
	Years   []model.FinancialYear
	Err     error
}

// Data builds a successful outcome.
func Data(company model.Company, years []model.FinancialYear) Outcome {
	return Outcome{Status: StatusData, Company: company, Years: years}
}

// NoData builds an outcome for a source that has nothing on the symbol.
func NoData() Outcome {
	return Outcome{Status: StatusNoData}
}

// QuotaExceeded builds an outcome for a rate- or plan-limited source.
func QuotaExceeded(err error) Outcome {
	return Outcome{Status: StatusQuotaExceeded, Err: err}
}

// TransportFailure builds an outcome for a symbol-independent failure.
func TransportFailure(err error) Outcome {
	return Outcome{Status: StatusTransportFailure, Err: err}
}
