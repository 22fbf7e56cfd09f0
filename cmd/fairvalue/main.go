// fairvalue estimates the intrinsic value of a stock from discounted cash
// flows or dividends across weighted growth scenarios.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/seenimoa/fairvalue/api"
	"github.com/seenimoa/fairvalue/internal/config"
	"github.com/seenimoa/fairvalue/internal/infra"
	"github.com/seenimoa/fairvalue/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set in PersistentPreRunE.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fairvalue",
	Short: "Scenario-weighted DCF and DDM intrinsic value estimates",
	Long: `fairvalue pulls financial statements, prices and dividends for a ticker,
normalizes them into a currency-adjusted snapshot and discounts projected
cash flows (DCF) or dividends (DDM) across probability-weighted scenarios.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger = infra.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(valueCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fairvalue %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Value Command ---

var valueCmd = &cobra.Command{
	Use:   "value [ticker]",
	Short: "Estimate the intrinsic value of a stock",
	Long: `Estimate the intrinsic value of a stock.

Scenarios are given as name:growth:multiple:probability, where growth is a
single rate or a comma-separated per-year list. Without --scenario the
built-in Bear/Base/Bull set is used.

Examples:
  fairvalue value AAPL
  fairvalue value MSFT --years 5 --discount-rate 0.09 --owner-earnings
  fairvalue value KO --mode ddm --scenario Base:0.04:15:1
  fairvalue value NVDA --scenario Bull:0.25,0.2,0.15:25:0.3 --scenario Base:0.1:18:0.7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := requestFromFlags(cmd)
		if err != nil {
			return err
		}
		raw["ticker"] = args[0]

		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.svc.Valuate(cmd.Context(), raw)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(resp)
		}
		printValuation(os.Stdout, resp)
		return nil
	},
}

// --- Batch Command ---

var batchCmd = &cobra.Command{
	Use:   "batch [ticker...]",
	Short: "Value several stocks with shared assumptions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := requestFromFlags(cmd)
		if err != nil {
			return err
		}
		raw["tickers"] = args

		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.svc.Batch(cmd.Context(), raw)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(result)
		}
		printBatch(os.Stdout, result)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{valueCmd, batchCmd} {
		c.Flags().String("mode", "", "valuation mode: dcf or ddm (default from config)")
		c.Flags().Int("years", 0, "forecast horizon in years (default from config)")
		c.Flags().Float64("discount-rate", 0, "annual discount rate, e.g. 0.10")
		c.Flags().Float64("margin", 0, "margin of safety, e.g. 0.30")
		c.Flags().Bool("owner-earnings", false, "use owner earnings instead of free cash flow")
		c.Flags().StringArray("scenario", nil, "scenario as name:growth:multiple:probability (repeatable)")
		c.Flags().Bool("json", false, "print the raw JSON response")
	}
}

// --- Snapshot Command ---

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [ticker]",
	Short: "Show the normalized financial snapshot for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.svc.Snapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(snap)
		}
		printSnapshot(os.Stdout, snap)
		return nil
	},
}

func init() {
	snapshotCmd.Flags().Bool("json", false, "print the raw JSON snapshot")
}

// --- History Command ---

var historyCmd = &cobra.Command{
	Use:   "history [ticker]",
	Short: "List recorded valuations for a stock",
	Long:  "List recorded valuations for a stock. Requires database.url to be configured.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database.URL == "" {
			return fmt.Errorf("valuation history requires database.url (or DATABASE_URL)")
		}
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := a.svc.History(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(runs)
		}
		printHistory(os.Stdout, utils.NormalizeTicker(args[0]), runs)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs")
	historyCmd.Flags().Bool("json", false, "print the raw JSON runs")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		api.Version = version
		srv := api.NewServer(cfg, a.svc, logger)
		return srv.ListenAndServe(ctx, cfg.API.Addr())
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and backend status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  fairvalue: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Valuation defaults:")
		fmt.Printf("    Mode:          %s\n", cfg.Valuation.Mode)
		fmt.Printf("    Horizon:       %d years\n", cfg.Valuation.ForecastYears)
		fmt.Printf("    Discount rate: %s\n", utils.FormatPercent(cfg.Valuation.DiscountRate))
		fmt.Printf("    Margin:        %s\n", utils.FormatPercent(cfg.Valuation.MarginOfSafety))
		fmt.Println()

		fmt.Println("  Data:")
		fmt.Printf("    Provider:      %s (%d req/s)\n", cfg.Data.Provider, cfg.Data.RateLimit)
		fmt.Printf("    Cache:         %s, ttl %s\n", cfg.Data.CacheBackend, cfg.Data.CacheDuration())
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		fmt.Println()

		fmt.Println("  Backends:")
		for _, k := range config.CheckSecrets(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
