package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"PriceOpt/internal/services/ingest"
	"PriceOpt/internal/services/report"
	"PriceOpt/internal/usecase"
	"PriceOpt/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "priceopt-enrich",
	Short: "Enrich a sales CSV with elasticities, roles and optimal prices",
	Long: `priceopt-enrich reads a price/quantity CSV, estimates category and
product elasticities, classifies every product and writes the enriched
rows plus an optional summary next to it.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runEnrich,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func init() {
	f := rootCmd.Flags()
	f.StringP("input", "i", "", "input CSV file (required)")
	f.StringP("output", "o", "", "enriched CSV output (default <input>_enriched.csv)")
	f.String("summary", "", "write overall and per-role summary CSVs with this prefix")
	f.Int("workers", 4, "categories analysed in parallel")
	f.Int("min-observations", ingest.DefaultMinObservations, "minimum rows per category group")
	f.String("delimiter", ";", "output field separator")
	f.Bool("decimal-comma", true, "use ',' as decimal mark in output")
	f.String("log-level", "info", "log level")

	_ = viper.BindPFlags(f)
	viper.SetEnvPrefix("PRICEOPT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate(fmt.Sprintf("priceopt-enrich version %s\n", rootCmd.Version))
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	input := viper.GetString("input")
	if input == "" {
		return fmt.Errorf("--input is required")
	}
	output := viper.GetString("output")
	if output == "" {
		ext := filepath.Ext(input)
		output = strings.TrimSuffix(input, ext) + "_enriched.csv"
	}

	lgr := logger.NewWriter(cmd.ErrOrStderr(), viper.GetString("log-level"))

	format := report.DefaultFormat()
	if r := []rune(viper.GetString("delimiter")); len(r) == 1 {
		format.Delimiter = r[0]
	} else {
		return fmt.Errorf("--delimiter must be a single character")
	}
	format.DecimalComma = viper.GetBool("decimal-comma")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	start := time.Now()
	ds, err := ingest.Parse(data, ingest.Options{MinObservations: viper.GetInt("min-observations")})
	if err != nil {
		return fmt.Errorf("parse %s: %w", input, err)
	}
	ds.ID = filepath.Base(input)
	for _, w := range ds.Warnings {
		lgr.Warn("ingest", logger.String("warning", w))
	}
	lgr.Info("dataset parsed",
		logger.Int("rows", len(ds.Rows)),
		logger.Int("groups", len(ds.Groups)),
		logger.Int("dropped", ds.DroppedRows),
		logger.String("delimiter", ds.Delimiter))

	res, err := usecase.AnalyzeDataset(ctx, ds, usecase.AnalyzeOptions{
		Workers:         viper.GetInt("workers"),
		MinObservations: viper.GetInt("min-observations"),
		OnProgress: func(done, total int) {
			lgr.Debug("category done", logger.Int("done", done), logger.Int("total", total))
		},
	})
	if err != nil {
		return err
	}

	if err := writeFile(output, func(w io.Writer) error { return report.WriteEnriched(w, res, format) }); err != nil {
		return err
	}

	if prefix := viper.GetString("summary"); prefix != "" {
		if err := writeFile(prefix+"_overall.csv", func(w io.Writer) error { return report.WriteOverall(w, res.Summary, format) }); err != nil {
			return err
		}
		if err := writeFile(prefix+"_roles.csv", func(w io.Writer) error { return report.WriteRoleStats(w, res.Summary, format) }); err != nil {
			return err
		}
	}

	lgr.Info("enrichment written",
		logger.String("output", output),
		logger.Int("products", res.Summary.ProductsAnalysed),
		logger.Int("classified", res.Summary.ProductsClassified),
		logger.Duration("duration_ms", time.Since(start)))
	return ctx.Err()
}

func writeFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// withContext is used by tests to run the command against a cancellable context.
func withContext(ctx context.Context, args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
