package cascade

import "context"

// Adapter is one provider in the source cascade. Fetch returns a typed
// Outcome rather than an error so the resolver can distinguish "source
// has no data" from "source is broken" from "source is rate limited".
type Adapter interface {
	// Name identifies the adapter; it doubles as the provenance value
	// recorded when this adapter satisfies a resolution.
	Name() string
	// Fetch retrieves the overview and annual series for a symbol.
	// horizon is the number of fiscal years the caller wants; adapters
	// may return more when the provider hands them over anyway.
	Fetch(ctx context.Context, symbol string, horizon int) Outcome
}
