package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/seenimoa/fairvalue/pkg/models"
	"github.com/seenimoa/fairvalue/pkg/utils"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printValuation(w io.Writer, v *models.ValuationResponse) {
	fmt.Fprintf(w, "%s  %s  price %s  shares %s\n\n",
		v.Ticker, v.Mode, utils.FormatMoney(v.CurrentPrice, v.Currency), utils.FormatCompact(v.SharesOutstanding))

	tw := newTable(w)
	fmt.Fprintln(tw, "SCENARIO\tINTRINSIC\tBUY\tUPSIDE\tTERMINAL x")
	for _, s := range v.Scenarios {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\n",
			s.Name,
			utils.FormatMoney(s.IntrinsicValue, ""),
			utils.FormatMoney(s.BuyPrice, ""),
			utils.FormatPercent(s.Upside),
			s.TerminalMultiple)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nWeighted intrinsic value:   %s\n", utils.FormatMoney(v.WeightedIntrinsicValue, v.Currency))
	fmt.Fprintf(w, "Margin-of-safety buy price: %s\n", utils.FormatMoney(v.MarginOfSafetyBuyPrice, v.Currency))
	if v.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", v.RunID)
	}
	printWarnings(w, v.GlobalWarnings)
}

func printBatch(w io.Writer, result *models.BatchResult) {
	tw := newTable(w)
	fmt.Fprintln(tw, "TICKER\tPRICE\tINTRINSIC\tBUY\tUPSIDE")
	for _, item := range result.Results {
		r := item.Result
		var upside float64
		if r.CurrentPrice > 0 {
			upside = r.WeightedIntrinsicValue/r.CurrentPrice - 1
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			item.Ticker,
			utils.FormatMoney(r.CurrentPrice, r.Currency),
			utils.FormatMoney(r.WeightedIntrinsicValue, ""),
			utils.FormatMoney(r.MarginOfSafetyBuyPrice, ""),
			utils.FormatPercent(upside))
	}
	tw.Flush()
}

func printSnapshot(w io.Writer, s *models.FinancialSnapshot) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Ticker\t%s\n", s.Ticker)
	fmt.Fprintf(tw, "Currency\t%s (financials %s, fx %.4f)\n", s.Currency, s.FinancialCurrency, s.Metadata.FXRate)
	fmt.Fprintf(tw, "Price\t%s\n", utils.FormatMoney(s.CurrentPrice, s.Currency))
	fmt.Fprintf(tw, "Shares\t%s\n", utils.FormatCompact(s.SharesOutstanding))
	fmt.Fprintf(tw, "Revenue\t%s\n", utils.FormatCompact(s.Metadata.LatestRevenue))
	fmt.Fprintf(tw, "Net income\t%s\n", utils.FormatCompact(s.Metadata.LatestNetIncome))
	fmt.Fprintf(tw, "Operating cash flow\t%s\n", utils.FormatCompact(s.Metadata.LatestOperatingCashFlow))
	fmt.Fprintf(tw, "Capex\t%s\n", utils.FormatCompact(s.Metadata.LatestCapex))
	fmt.Fprintf(tw, "FCF history\t%s\n", compactSeries(s.FCFHistory))
	fmt.Fprintf(tw, "Owner earnings\t%s\n", compactSeries(s.OwnerEarningsHistory))
	fmt.Fprintf(tw, "Dividends (TTM)\t%s\n", utils.FormatMoney(s.DividendsPerShareTTM, s.Currency))
	tw.Flush()
	printWarnings(w, s.Warnings)
}

func printHistory(w io.Writer, ticker string, runs []models.ValuationRun) {
	if len(runs) == 0 {
		fmt.Fprintf(w, "No recorded valuations for %s\n", ticker)
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "WHEN\tMODE\tPRICE\tINTRINSIC\tBUY\tID")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Mode,
			utils.FormatMoney(r.CurrentPrice, r.Currency),
			utils.FormatMoney(r.WeightedIntrinsicValue, ""),
			utils.FormatMoney(r.MarginOfSafetyBuyPrice, ""),
			r.ID)
	}
	tw.Flush()
}

func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w, "\nWarnings:")
	for _, msg := range warnings {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
}

func compactSeries(values []float64) string {
	if len(values) == 0 {
		return "-"
	}
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += utils.FormatCompact(v)
	}
	return out
}
