package recorder

import (
	"context"
	"time"

	"BreakoutSentinel/internal/model"
)

// BreakoutRecord is a stored breakout event.
type BreakoutRecord struct {
	RunID      string
	Symbol     string
	Interval   string
	StrategyID string
	BarTime    time.Time
	Close      float64
	Volume     float64
	RecordedAt time.Time
}

// Recorder persists analyses for later lookup.
type Recorder interface {
	// RecordAnalysis stores the scan and its events and returns the events
	// not seen in an earlier scan.
	RecordAnalysis(ctx context.Context, a *model.Analysis) ([]model.BreakoutEvent, error)
	// RecentBreakouts returns up to limit stored events for symbol, newest bar first.
	RecentBreakouts(ctx context.Context, symbol string, limit int) ([]BreakoutRecord, error)
	Close() error
}
