// Package extract recovers financial history from public documents when
// the structured providers come up empty. It searches for the company's
// annual-report pages, reads them, and asks Claude to pull the figures
// into a fixed JSON shape.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/valuehound/ruleone-cli/internal/cascade"
	"github.com/valuehound/ruleone-cli/internal/model"
	"github.com/valuehound/ruleone-cli/pkg/websearch"
)

const (
	// confidenceFloor rejects extractions the model itself does not
	// trust. Below it the adapter reports no data rather than risk
	// poisoning the store with guessed figures.
	confidenceFloor = 0.3

	defaultMaxPages    = 3
	defaultMaxDocChars = 60000
)

// Adapter implements cascade.Adapter over web search plus Claude. It is
// the slowest and least reliable source, so it belongs at the tail of
// the cascade.
type Adapter struct {
	search      websearch.Client
	ai          TextCompleter
	maxPages    int
	maxDocChars int
}

// Option configures the adapter.
type Option func(*Adapter)

// WithMaxPages caps how many search hits are read per symbol.
func WithMaxPages(n int) Option {
	return func(a *Adapter) {
		a.maxPages = n
	}
}

// WithMaxDocChars caps the document text sent to the model.
func WithMaxDocChars(n int) Option {
	return func(a *Adapter) {
		a.maxDocChars = n
	}
}

// New creates the extraction adapter.
func New(search websearch.Client, ai TextCompleter, opts ...Option) *Adapter {
	a := &Adapter{
		search:      search,
		ai:          ai,
		maxPages:    defaultMaxPages,
		maxDocChars: defaultMaxDocChars,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Adapter) Name() string {
	return string(model.ProvenanceAIExtraction)
}

func (a *Adapter) Fetch(ctx context.Context, symbol string, horizon int) cascade.Outcome {
	query := fmt.Sprintf("%s stock annual report revenue net income EPS total debt history", symbol)
	results, err := a.search.Search(ctx, query)
	if err != nil {
		return cascade.TransportFailure(eris.Wrap(err, "extract: search"))
	}
	if len(results) == 0 {
		return cascade.NoData()
	}

	var doc strings.Builder
	pages := 0
	for _, r := range results {
		if pages >= a.maxPages || doc.Len() >= a.maxDocChars {
			break
		}
		content := r.Content
		if content == "" {
			content, err = a.search.Read(ctx, r.URL)
			if err != nil {
				zap.L().Warn("extract: page read failed",
					zap.String("symbol", symbol),
					zap.String("url", r.URL),
					zap.Error(err))
				continue
			}
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		fmt.Fprintf(&doc, "## %s (%s)\n\n%s\n\n", r.Title, r.URL, content)
		pages++
	}
	if doc.Len() == 0 {
		return cascade.NoData()
	}

	text := doc.String()
	if len(text) > a.maxDocChars {
		text = text[:a.maxDocChars]
	}

	raw, err := a.ai.Complete(ctx, buildPrompt(symbol, horizon, text))
	if err != nil {
		return cascade.TransportFailure(err)
	}

	payload, err := parsePayload(raw)
	if err != nil {
		return cascade.TransportFailure(err)
	}
	if payload.Confidence < confidenceFloor {
		zap.L().Info("extract: confidence below floor",
			zap.String("symbol", symbol),
			zap.Float64("confidence", payload.Confidence))
		return cascade.NoData()
	}

	years := payload.toYears(symbol)
	if len(years) == 0 {
		return cascade.NoData()
	}

	company := model.Company{
		Symbol:      model.NormalizeSymbol(symbol),
		Name:        payload.CompanyName,
		RefreshedAt: time.Now().UTC(),
	}
	return cascade.Data(company, years)
}

func buildPrompt(symbol string, horizon int, doc string) string {
	return fmt.Sprintf(`You are a financial data extractor. From the documents below, extract annual financial figures for the company with ticker symbol %s, covering up to the last %d fiscal years.

Respond with ONLY a JSON object, no prose, in exactly this shape:
{
  "company_name": "string",
  "confidence": 0.0,
  "years": [
    {"year": 2023, "revenue": null, "net_income": null, "free_cash_flow": null, "book_value": null, "eps": null, "roic": null, "total_debt": null}
  ]
}

Rules:
- All monetary figures in absolute units (not millions or thousands).
- roic is a percentage.
- Use null for any figure the documents do not state. Never guess.
- confidence is your overall confidence in the extraction, 0 to 1.

Documents:

%s`, symbol, horizon, doc)
}

type payload struct {
	CompanyName string        `json:"company_name"`
	Confidence  float64       `json:"confidence"`
	Years       []payloadYear `json:"years"`
}

type payloadYear struct {
	Year         int      `json:"year"`
	Revenue      *float64 `json:"revenue"`
	NetIncome    *float64 `json:"net_income"`
	FreeCashFlow *float64 `json:"free_cash_flow"`
	BookValue    *float64 `json:"book_value"`
	EPS          *float64 `json:"eps"`
	ROIC         *float64 `json:"roic"`
	TotalDebt    *float64 `json:"total_debt"`
}

// parsePayload tolerates markdown code fences around the JSON, which
// models emit despite instructions.
func parsePayload(raw string) (*payload, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	var p payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, eris.Wrap(err, "extract: parse model response")
	}
	return &p, nil
}

func (p *payload) toYears(symbol string) []model.FinancialYear {
	symbol = model.NormalizeSymbol(symbol)
	var years []model.FinancialYear
	for _, y := range p.Years {
		if y.Year < 1900 || y.Year > 2200 {
			continue
		}
		fy := model.FinancialYear{
			Symbol:       symbol,
			Year:         y.Year,
			Revenue:      y.Revenue,
			NetIncome:    y.NetIncome,
			FreeCashFlow: y.FreeCashFlow,
			BookValue:    y.BookValue,
			EPS:          y.EPS,
			ROIC:         y.ROIC,
			TotalDebt:    y.TotalDebt,
		}
		if fy.Revenue == nil && fy.NetIncome == nil && fy.FreeCashFlow == nil &&
			fy.BookValue == nil && fy.EPS == nil && fy.TotalDebt == nil {
			continue
		}
		years = append(years, fy)
	}
	return years
}
