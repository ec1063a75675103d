// Command scan runs one breakout analysis and prints the report.
package main

import (
	"context"
	"flag"
	"fmt"
	"html"
	"os"
	"os/signal"
	"regexp"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"BreakoutSentinel/internal/collector"
	"BreakoutSentinel/internal/config"
	"BreakoutSentinel/internal/logging"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/notifier"
)

var tags = regexp.MustCompile(`</?b>`)

// plain strips the chat markup from a report.
func plain(s string) string { return html.UnescapeString(tags.ReplaceAllString(s, "")) }

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "path to config file")
	symbol := flag.String("symbol", config.DefaultSymbol, "ticker symbol")
	interval := flag.String("interval", config.DefaultInterval, "bar interval: 1h, 1d, 1wk, 1mo")
	period := flag.String("period", config.DefaultPeriod, "lookback period: 1mo, 3mo, 6mo, 1y, 2y")
	flag.Parse()

	if err := run(*cfgPath, model.Request{Symbol: *symbol, Interval: *interval, Period: *period}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath string, req model.Request) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logging.New("warn", true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fetcher, closeCache := collector.NewFetcherFromConfig(ctx, cfg, nil, logger)
	defer closeCache()

	a, err := collector.NewCollector(fetcher, cfg.Analysis, nil, logger).Analyze(ctx, req)
	if err != nil {
		logger.Debug("analysis failed", zap.Error(err))
		return errors.New(plain(notifier.FormatError(req, err)))
	}
	fmt.Println(plain(notifier.FormatAnalysis(a, cfg.Analysis.Strategies, cfg.Analysis.MaxReportEvents)))
	return nil
}
