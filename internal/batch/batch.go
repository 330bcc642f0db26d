// Package batch runs unattended screening jobs over lists of symbols.
// One orchestrator runs at most one job at a time; per-company failures
// are absorbed into the job's counters and never abort the run.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/valuehound/ruleone-cli/internal/model"
	"github.com/valuehound/ruleone-cli/internal/screener"
)

// State is a job lifecycle phase.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// ErrBatchActive rejects a second job while one is running. The running
// job is untouched.
var ErrBatchActive = eris.New("batch: a job is already running")

// ErrJobNotFound marks an unknown job id.
var ErrJobNotFound = eris.New("batch: job not found")

// Config tunes the pacing of a job.
type Config struct {
	// GroupSize is how many companies are resolved concurrently.
	GroupSize int
	// GroupDelay is the pause between groups, giving rate-limited
	// providers room to breathe.
	GroupDelay time.Duration
}

// DefaultConfig paces a job for free-tier provider quotas.
func DefaultConfig() Config {
	return Config{GroupSize: 3, GroupDelay: 2 * time.Second}
}

func (c Config) withDefaults() Config {
	if c.GroupSize <= 0 {
		c.GroupSize = 3
	}
	if c.GroupDelay < 0 {
		c.GroupDelay = 0
	}
	return c
}

// CompanyResult is the per-company outcome of a job.
type CompanyResult struct {
	Symbol              string           `json:"symbol"`
	Provenance          model.Provenance `json:"provenance"`
	QualityScore        int              `json:"quality_score"`
	Excellent           bool             `json:"excellent"`
	StickerPrice        *float64         `json:"sticker_price,omitempty"`
	MarginOfSafetyPrice *float64         `json:"margin_of_safety_price,omitempty"`
	Insufficient        bool             `json:"insufficient,omitempty"`
	Error               string           `json:"error,omitempty"`
}

// Snapshot is an immutable view of a job's progress, safe to hand out
// while the job runs.
type Snapshot struct {
	ID        string        `json:"id"`
	State     State         `json:"state"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Current   string        `json:"current,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	ETA       time.Duration `json:"eta"`
}

// Lookup is the slice of screener.Service the orchestrator needs.
type Lookup interface {
	Lookup(ctx context.Context, symbol string) (*screener.Report, error)
}

type job struct {
	id        string
	symbols   []string
	state     State
	processed int
	succeeded int
	failed    int
	current   string
	startedAt time.Time
	eta       time.Duration
	results   []CompanyResult
	cancel    context.CancelFunc
	done      chan struct{}
}

// Orchestrator runs batch jobs. Completed jobs stay readable for the
// orchestrator's lifetime.
type Orchestrator struct {
	lookup Lookup
	cfg    Config

	mu       sync.Mutex
	jobs     map[string]*job
	activeID string
}

// New creates an orchestrator.
func New(lookup Lookup, cfg Config) *Orchestrator {
	return &Orchestrator{
		lookup: lookup,
		cfg:    cfg.withDefaults(),
		jobs:   make(map[string]*job),
	}
}

// Start launches a job over the given symbols and returns its id. A
// second Start while a job is running returns ErrBatchActive without
// touching the running job.
func (o *Orchestrator) Start(ctx context.Context, symbols []string) (string, error) {
	if len(symbols) == 0 {
		return "", eris.New("batch: no symbols")
	}

	o.mu.Lock()
	if o.activeID != "" && o.jobs[o.activeID].state == StateRunning {
		o.mu.Unlock()
		return "", ErrBatchActive
	}

	jobCtx, cancel := context.WithCancel(ctx)
	j := &job{
		id:        uuid.NewString(),
		symbols:   append([]string(nil), symbols...),
		state:     StateRunning,
		startedAt: time.Now().UTC(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	o.jobs[j.id] = j
	o.activeID = j.id
	o.mu.Unlock()

	zap.L().Info("batch started",
		zap.String("job_id", j.id),
		zap.Int("total", len(symbols)),
		zap.Int("group_size", o.cfg.GroupSize))

	go o.run(jobCtx, j)
	return j.id, nil
}

// Cancel stops a running job. Symbols not yet attempted are recorded
// with provenance "cancelled". Cancelling a completed job is a no-op.
func (o *Orchestrator) Cancel(jobID string) error {
	o.mu.Lock()
	j, ok := o.jobs[jobID]
	o.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}
	j.cancel()
	return nil
}

// Snapshot returns a copy of the job's progress counters.
func (o *Orchestrator) Snapshot(jobID string) (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return Snapshot{}, ErrJobNotFound
	}
	return Snapshot{
		ID:        j.id,
		State:     j.state,
		Total:     len(j.symbols),
		Processed: j.processed,
		Succeeded: j.succeeded,
		Failed:    j.failed,
		Current:   j.current,
		StartedAt: j.startedAt,
		ETA:       j.eta,
	}, nil
}

// Results returns a copy of the per-company outcomes recorded so far.
func (o *Orchestrator) Results(jobID string) ([]CompanyResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return append([]CompanyResult(nil), j.results...), nil
}

// Wait blocks until the job finishes or the context is cancelled.
func (o *Orchestrator) Wait(ctx context.Context, jobID string) error {
	o.mu.Lock()
	j, ok := o.jobs[jobID]
	o.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.done:
		return nil
	}
}

func (o *Orchestrator) run(ctx context.Context, j *job) {
	defer close(j.done)

	next := 0
	for next < len(j.symbols) {
		if ctx.Err() != nil {
			break
		}

		end := next + o.cfg.GroupSize
		if end > len(j.symbols) {
			end = len(j.symbols)
		}

		var g errgroup.Group
		for _, sym := range j.symbols[next:end] {
			sym := sym
			g.Go(func() error {
				o.processOne(ctx, j, sym)
				return nil
			})
		}
		g.Wait() //nolint:errcheck // workers never return errors

		next = end
		if next < len(j.symbols) && ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case <-time.After(o.cfg.GroupDelay):
			}
		}
	}

	o.mu.Lock()
	for _, sym := range j.symbols[next:] {
		j.results = append(j.results, CompanyResult{
			Symbol:     model.NormalizeSymbol(sym),
			Provenance: model.ProvenanceCancelled,
			Error:      "batch cancelled",
		})
	}
	j.state = StateCompleted
	j.current = ""
	j.eta = 0
	o.mu.Unlock()

	zap.L().Info("batch finished",
		zap.String("job_id", j.id),
		zap.Int("processed", j.processed),
		zap.Int("succeeded", j.succeeded),
		zap.Int("failed", j.failed))
}

// processOne resolves a single symbol and records the outcome. A panic
// inside the pipeline is converted into a failed result so one bad
// company cannot take the job down.
func (o *Orchestrator) processOne(ctx context.Context, j *job, symbol string) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("batch worker panic",
				zap.String("job_id", j.id),
				zap.String("symbol", symbol),
				zap.Any("panic", r))
			o.record(j, CompanyResult{
				Symbol:     model.NormalizeSymbol(symbol),
				Provenance: model.ProvenanceFailed,
				Error:      fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	symbol = model.NormalizeSymbol(symbol)

	if ctx.Err() != nil {
		o.record(j, CompanyResult{Symbol: symbol, Provenance: model.ProvenanceCancelled, Error: "batch cancelled"})
		return
	}

	o.mu.Lock()
	j.current = symbol
	o.mu.Unlock()

	rep, err := o.lookup.Lookup(ctx, symbol)
	if err != nil {
		res := CompanyResult{Symbol: symbol, Provenance: model.ProvenanceFailed, Error: eris.ToString(err, false)}
		if eris.Is(err, context.Canceled) {
			res.Provenance = model.ProvenanceCancelled
			res.Error = "batch cancelled"
		}
		o.record(j, res)
		return
	}

	o.record(j, CompanyResult{
		Symbol:              symbol,
		Provenance:          rep.Provenance,
		QualityScore:        rep.Result.QualityScore,
		Excellent:           rep.Result.Excellent,
		StickerPrice:        rep.Result.StickerPrice,
		MarginOfSafetyPrice: rep.Result.MarginOfSafetyPrice,
		Insufficient:        rep.InsufficientHistory,
	})
}

// record updates the counters and the result list in one critical
// section, so a snapshot never sees processed incremented without its
// succeeded/failed twin.
func (o *Orchestrator) record(j *job, res CompanyResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	j.results = append(j.results, res)
	j.processed++
	if res.Error == "" {
		j.succeeded++
	} else {
		j.failed++
	}

	remaining := len(j.symbols) - j.processed
	if remaining > 0 && j.processed > 0 {
		avg := time.Since(j.startedAt) / time.Duration(j.processed)
		j.eta = avg * time.Duration(remaining)
	} else {
		j.eta = 0
	}
}
