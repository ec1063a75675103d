package recorder

import (
	"context"

	"BreakoutSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
// Every event counts as new.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(_ context.Context, a *model.Analysis) ([]model.BreakoutEvent, error) {
	return a.Events, nil
}

func (n *NoopRecorder) RecentBreakouts(context.Context, string, int) ([]BreakoutRecord, error) {
	return nil, nil
}

func (n *NoopRecorder) Close() error { return nil }
