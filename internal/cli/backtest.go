package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/smacross/backtest"
	"github.com/rustyeddy/smacross/feed"
	"github.com/rustyeddy/smacross/journal"
	"github.com/rustyeddy/smacross/pkg/id"
)

func newBacktestCmd(rc *RootConfig) *cobra.Command {
	var rank string

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Backtest the SMA crossover rule on every instrument",
		Long: `Split each instrument's daily series into training and testing
partitions, trade the short/long SMA crossover on each, and rank the
instruments by cumulative gain.

Examples:
  smacross backtest --prices prices.csv
  smacross backtest --prices prices.csv --universe sp500.txt --short 20 --long 50
  smacross backtest --config run.yaml --rank testing --top 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			by := backtest.RankBy(rank)
			if by != backtest.ByTraining && by != backtest.ByTesting {
				return fmt.Errorf("--rank must be training or testing (got %q)", rank)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runBacktest(ctx, cmd, rc, by)
		},
	}

	f := cmd.Flags()
	f.String("strategy", "", "rule to run: sma-cross|noop")
	f.Int("short", 0, "short SMA window (bars)")
	f.Int("long", 0, "long SMA window (bars)")
	f.Float64("split", 0, "fraction of each series used for training, in (0,1)")
	f.String("start", "", "drop rows before this date (YYYY-MM-DD)")
	f.Int("workers", 0, "instruments evaluated at once (0 = GOMAXPROCS)")
	f.Int("top", 0, "rows to print (0 = all)")
	f.String("prices", "", "long-format price CSV")
	f.String("universe", "", "symbol list, one per line (default: every symbol in prices)")
	f.String("journal", "", "where to record the run: none|csv|sqlite")
	f.String("results", "", "results CSV path when --journal csv")
	f.StringVar(&rank, "rank", string(backtest.ByTraining), "rank by training or testing gain")

	for key, name := range map[string]string{
		"strategy.name":             "strategy",
		"strategy.short_window":     "short",
		"strategy.long_window":      "long",
		"evaluation.split_fraction": "split",
		"evaluation.start_date":     "start",
		"evaluation.workers":        "workers",
		"evaluation.top_n":          "top",
		"data.prices_file":          "prices",
		"data.universe_file":        "universe",
		"journal.type":              "journal",
		"journal.results_file":      "results",
	} {
		_ = rc.V.BindPFlag(key, f.Lookup(name))
	}

	return cmd
}

func runBacktest(ctx context.Context, cmd *cobra.Command, rc *RootConfig, by backtest.RankBy) error {
	cfg := rc.Config
	log := rc.Log

	table, err := feed.LoadTable(cfg.Data.PricesFile)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}
	start, err := cfg.Evaluation.Start()
	if err != nil {
		return err
	}
	table = table.Since(start)

	var symbols []string
	if cfg.Data.UniverseFile != "" {
		if symbols, err = feed.LoadUniverse(cfg.Data.UniverseFile); err != nil {
			return fmt.Errorf("load universe: %w", err)
		}
	}

	ev, err := backtest.NewEvaluator(backtest.Params{
		Strategy:      cfg.Strategy.Name,
		ShortWindow:   cfg.Strategy.ShortWindow,
		LongWindow:    cfg.Strategy.LongWindow,
		SplitFraction: cfg.Evaluation.SplitFraction,
		Workers:       cfg.Evaluation.Workers,
	}, log)
	if err != nil {
		return err
	}

	log.Info("backtest starting",
		zap.String("prices", cfg.Data.PricesFile),
		zap.Int("rows", table.Len()),
		zap.Int("short", cfg.Strategy.ShortWindow),
		zap.Int("long", cfg.Strategy.LongWindow),
	)

	rep, err := ev.Run(ctx, table, symbols)
	if err != nil {
		return err
	}
	rep.RunID = id.New()
	rep.Dataset = cfg.Data.PricesFile

	rep.Print(cmd.OutOrStdout(), cfg.Evaluation.TopN, by)

	j, err := journal.New(cfg.Journal)
	if err != nil {
		return err
	}
	defer j.Close()

	if err := j.RecordReport(ctx, rep); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if cfg.Journal.Type != "" && cfg.Journal.Type != "none" {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded run %s (%s)\n", rep.RunID, cfg.Journal.Type)
	}
	return nil
}
