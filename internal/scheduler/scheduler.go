package scheduler

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"BreakoutSentinel/internal/config"
	"BreakoutSentinel/internal/metrics"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/notifier"
	"BreakoutSentinel/internal/recorder"
)

const historyLimit = 10

// Analyzer runs one analysis. *collector.Collector satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req model.Request) (*model.Analysis, error)
}

// Notifier delivers a message to the user.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string) error
}

// Scheduler runs watchlist scans on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Analyzer Analyzer
	Notifier Notifier
	Recorder recorder.Recorder
	Config   *config.Config
	Metrics  *metrics.Metrics // optional
	Ctx      context.Context
	logger   *zap.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, an Analyzer, n Notifier, rec recorder.Recorder, cfg *config.Config, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Analyzer: an,
		Notifier: n,
		Recorder: rec,
		Config:   cfg,
		Ctx:      ctx,
		logger:   logger.Named("scheduler"),
	}
}

// RegisterAll registers the watchlist scan.
func (s *Scheduler) RegisterAll() error {
	if _, err := s.Cron.AddFunc(s.Config.Schedule.ScanCron, s.scanTask); err != nil {
		return errors.Wrap(err, "register scan task")
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.String("scan_cron", s.Config.Schedule.ScanCron))
}

// Stop stops the cron scheduler and waits for running scans.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) scanTask() {
	notified := s.ScanWatchlist(s.Ctx)
	s.logger.Info("watchlist scan done", zap.Int("symbols", len(s.Config.Watchlist)), zap.Int("alerts", notified))
}

// ScanWatchlist analyzes every watchlist entry, at most schedule.concurrency
// at a time, and alerts on new breakouts among the last
// notify_lookback_bars bars. It returns the number of alerts sent.
func (s *Scheduler) ScanWatchlist(ctx context.Context) int {
	var g errgroup.Group
	g.SetLimit(s.Config.Schedule.Concurrency)

	var alerts atomic.Int32
	for _, item := range s.Config.Watchlist {
		req := item.Request()
		g.Go(func() error {
			if s.scanOne(ctx, req) {
				alerts.Add(1)
			}
			return nil
		})
	}
	g.Wait()
	return int(alerts.Load())
}

func (s *Scheduler) scanOne(ctx context.Context, req model.Request) bool {
	log := s.logger.With(zap.String("symbol", req.Symbol), zap.String("interval", req.Interval))
	a, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		log.Error("scheduled scan failed", zap.Error(err))
		s.trySend(ctx, notifier.FormatError(req, err))
		return false
	}

	fresh, err := s.Recorder.RecordAnalysis(ctx, a)
	if err != nil {
		log.Error("record analysis failed", zap.Error(err))
		fresh = a.Events
	} else {
		s.Metrics.ObserveBreakouts(fresh)
	}

	recent := freshSince(a, fresh, s.Config.Schedule.NotifyLookbackBars)
	if len(recent) == 0 {
		return false
	}
	log.Info("breakout detected", zap.Int("events", len(recent)))
	s.trySend(ctx, notifier.FormatAlert(a, recent))
	return true
}

// freshSince keeps the fresh events that fall on the last lookback bars.
func freshSince(a *model.Analysis, fresh []model.BreakoutEvent, lookback int) []model.BreakoutEvent {
	type key struct {
		index    int
		strategy string
	}
	isFresh := make(map[key]bool, len(fresh))
	for _, e := range fresh {
		isFresh[key{e.Index, e.StrategyID}] = true
	}
	var out []model.BreakoutEvent
	for _, e := range a.EventsSince(lookback) {
		if isFresh[key{e.Index, e.StrategyID}] {
			out = append(out, e)
		}
	}
	return out
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/scan@SomeBot" in group chats
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/scan":
		return s.handleScan(ctx, args)
	case "/history":
		if len(args) == 0 {
			return "Usage: /history SYMBOL"
		}
		symbol := strings.ToUpper(args[0])
		recs, err := s.Recorder.RecentBreakouts(ctx, symbol, historyLimit)
		if err != nil {
			s.logger.Error("history lookup failed", zap.String("symbol", symbol), zap.Error(err))
			return "❌ History lookup failed."
		}
		return notifier.FormatHistory(symbol, recs)
	case "/watchlist":
		reqs := make([]model.Request, len(s.Config.Watchlist))
		for i, w := range s.Config.Watchlist {
			reqs[i] = w.Request()
		}
		return notifier.FormatWatchlist(reqs)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) handleScan(ctx context.Context, args []string) string {
	req := model.Request{Symbol: config.DefaultSymbol, Interval: config.DefaultInterval, Period: config.DefaultPeriod}
	if len(args) > 0 {
		req.Symbol = strings.ToUpper(args[0])
	}
	if len(args) > 1 {
		req.Interval = strings.ToLower(args[1])
	}
	if len(args) > 2 {
		req.Period = strings.ToLower(args[2])
	}

	a, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		s.logger.Warn("on-demand scan failed", zap.String("symbol", req.Symbol), zap.Error(err))
		return notifier.FormatError(req, err)
	}
	if fresh, err := s.Recorder.RecordAnalysis(ctx, a); err != nil {
		s.logger.Error("record analysis failed", zap.Error(err))
	} else {
		s.Metrics.ObserveBreakouts(fresh)
	}
	return notifier.FormatAnalysis(a, s.Config.Analysis.Strategies, s.Config.Analysis.MaxReportEvents)
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text); err != nil {
		s.logger.Error("send notification failed", zap.Error(err))
	}
}
