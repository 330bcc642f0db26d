package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/valuehound/ruleone-cli/internal/batch"
	"github.com/valuehound/ruleone-cli/internal/model"
)

var (
	batchFile  string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Screen a watchlist of symbols",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		symbols, err := loadWatchlist(batchFile)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(symbols) > batchLimit {
			symbols = symbols[:batchLimit]
		}
		if len(symbols) == 0 {
			zap.L().Info("watchlist is empty, nothing to do")
			return nil
		}

		env, err := initApp(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		id, err := env.Batch.Start(ctx, symbols)
		if err != nil {
			return err
		}

		if err := watchJob(ctx, env.Batch, id); err != nil {
			return err
		}

		results, err := env.Batch.Results(id)
		if err != nil {
			return err
		}
		printSummary(results)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "watchlist.yaml", "YAML watchlist of symbols")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max symbols to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

// watchlist is the YAML shape of the batch input file.
type watchlist struct {
	Symbols []string `yaml:"symbols"`
}

func loadWatchlist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read watchlist %s", path)
	}

	var wl watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, eris.Wrapf(err, "parse watchlist %s", path)
	}

	seen := make(map[string]struct{}, len(wl.Symbols))
	var symbols []string
	for _, s := range wl.Symbols {
		sym := model.NormalizeSymbol(s)
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

// watchJob polls the job until it completes, logging progress. A signal
// cancels the job and waits for it to wind down.
func watchJob(ctx context.Context, orch *batch.Orchestrator, id string) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("cancelling batch", zap.String("job_id", id))
			_ = orch.Cancel(id)
			return orch.Wait(context.Background(), id)
		case <-ticker.C:
			snap, err := orch.Snapshot(id)
			if err != nil {
				return err
			}
			if snap.State == batch.StateCompleted {
				return nil
			}
			zap.L().Info("batch progress",
				zap.Int("processed", snap.Processed),
				zap.Int("total", snap.Total),
				zap.Int("failed", snap.Failed),
				zap.String("current", snap.Current),
				zap.Duration("eta", snap.ETA))
		}
	}
}

func printSummary(results []batch.CompanyResult) {
	var excellent, failed, cancelled int
	for _, r := range results {
		switch {
		case r.Provenance == model.ProvenanceCancelled:
			cancelled++
		case r.Error != "":
			failed++
			fmt.Printf("  %-6s FAILED  %s\n", r.Symbol, r.Error)
		default:
			marker := ""
			if r.Excellent {
				marker = "  EXCELLENT"
				excellent++
			}
			fmt.Printf("  %-6s score %3d  sticker %s%s\n", r.Symbol, r.QualityScore, fmtPrice(r.StickerPrice), marker)
		}
	}
	fmt.Printf("\n%d screened, %d excellent, %d failed, %d cancelled\n",
		len(results)-cancelled, excellent, failed, cancelled)
}
