// Command compare times the greedy and dynamic programming change makers
// for a list of amounts and prints their breakdowns side by side.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/coin-change/internal/benchmark"
	"github.com/eugenenazirov/coin-change/internal/change"
	"github.com/eugenenazirov/coin-change/internal/config"
	"github.com/eugenenazirov/coin-change/internal/logging"
	"github.com/eugenenazirov/coin-change/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "compare: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	app := kingpin.New("compare", "Compare greedy and minimum-coin change making")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	amounts := app.Arg("amounts", "Amounts to make change for").Default("113", "1234", "10565", "100000").Ints()
	configFile := app.Flag("config", "Path to YAML configuration file").String()
	envFile := app.Flag("env-file", "Path to a .env file loaded before reading the environment").String()
	denominationsStr := app.Flag("denominations", "Comma-separated coin denominations").String()
	iterations := app.Flag("iterations", "Timed calls per algorithm and amount").Default("0").Int()
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").String()

	if _, err := app.Parse(args); err != nil {
		return err
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
		EnvFile:    *envFile,
		Iterations: iterations,
	}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}
	if *denominationsStr != "" {
		overrides.DenominationsStr = denominationsStr
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.NewWithWriter(cfg.LogLevel, stderr)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ascending := change.Ascending(cfg.Denominations)
	descending := change.Descending(cfg.Denominations)
	runner := benchmark.NewRunner(cfg.BenchmarkIterations)

	logger.Info("comparing change makers",
		zap.Ints("amounts", *amounts),
		zap.Ints("denominations", ascending),
		zap.Int("iterations", runner.Iterations),
	)

	for _, amount := range *amounts {
		cmp, err := runner.Compare(ctx, amount, descending, ascending)
		if err != nil {
			return fmt.Errorf("amount %d: %w", amount, err)
		}
		logger.Debug("comparison finished",
			zap.Int("amount", amount),
			zap.Duration("greedy_per_call", cmp.Greedy.PerCall()),
			zap.Duration("optimal_per_call", cmp.Optimal.PerCall()),
			zap.Bool("greedy_optimal", cmp.GreedyOptimal()),
		)
		report.DisplayComparison(stdout, cmp)
	}

	return nil
}
