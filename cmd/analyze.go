package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/valuehound/ruleone-cli/internal/screener"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze SYMBOL",
	Short: "Screen a single company and print its Rule One report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		rep, err := env.Screener.Lookup(ctx, args[0])
		if err != nil {
			if eris.Is(err, screener.ErrNoData) {
				return eris.Errorf("no data found for %s from any source", args[0])
			}
			return err
		}

		fmt.Print(renderReport(rep))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func renderReport(rep *screener.Report) string {
	var b strings.Builder

	name := rep.Company.Name
	if name == "" {
		name = rep.Company.Symbol
	}
	fmt.Fprintf(&b, "\n%s (%s)\n", name, rep.Company.Symbol)
	if rep.Company.Sector != "" {
		fmt.Fprintf(&b, "%s · %s\n", rep.Company.Exchange, rep.Company.Sector)
	}
	fmt.Fprintf(&b, "source: %s, fiscal years: %d\n", rep.Provenance, len(rep.Years))
	if rep.InsufficientHistory {
		fmt.Fprintf(&b, "WARNING: fewer years of history than the screen prefers; treat rates as low confidence\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "  Sales growth    %s\n", fmtPct(rep.Result.SalesGrowth))
	fmt.Fprintf(&b, "  EPS growth      %s\n", fmtPct(rep.Result.EPSGrowth))
	fmt.Fprintf(&b, "  Equity growth   %s\n", fmtPct(rep.Result.EquityGrowth))
	fmt.Fprintf(&b, "  FCF growth      %s\n", fmtPct(rep.Result.FCFGrowth))
	fmt.Fprintf(&b, "  ROIC            %s\n", fmtPct(rep.Result.ROIC))
	fmt.Fprintf(&b, "  Debt payoff     %s\n", fmtYears(rep.Result.DebtPayoffYears))
	b.WriteString("\n")

	if rep.ComputationUnavailable {
		fmt.Fprintf(&b, "  Valuation unavailable: no growth rate could be derived\n")
	} else {
		fmt.Fprintf(&b, "  Growth rate     %s\n", fmtPct(rep.Result.GrowthRate))
		fmt.Fprintf(&b, "  Sticker price   %s\n", fmtPrice(rep.Result.StickerPrice))
		fmt.Fprintf(&b, "  MOS price       %s\n", fmtPrice(rep.Result.MarginOfSafetyPrice))
		if rep.Company.Price != nil {
			fmt.Fprintf(&b, "  Current price   %s\n", fmtPrice(rep.Company.Price))
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "  Quality score   %d/100\n", rep.Result.QualityScore)
	if rep.Result.Excellent {
		fmt.Fprintf(&b, "  Rule One EXCELLENT\n")
	}
	b.WriteString("\n")

	return b.String()
}

func fmtPct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func fmtYears(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f years", *v)
}

func fmtPrice(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("$%.2f", *v)
}
