package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"BreakoutSentinel/internal/model"
)

// SQLiteRecorder persists scans and breakout events to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// WAL lets dashboards read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	r := &SQLiteRecorder{db: db, logger: logger.Named("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	r.logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL UNIQUE,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			interval    TEXT NOT NULL,
			period      TEXT NOT NULL,
			bars        INTEGER NOT NULL,
			events      INTEGER NOT NULL,
			last_close  REAL,
			indicators  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_symbol_ts ON scans(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS breakouts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			interval    TEXT NOT NULL,
			strategy    TEXT NOT NULL,
			bar_time    INTEGER NOT NULL,
			close       REAL,
			volume      REAL,
			recorded_at INTEGER NOT NULL,
			UNIQUE (symbol, interval, strategy, bar_time)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_breakouts_symbol_bar ON breakouts(symbol, bar_time)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return errors.Wrapf(err, "exec %q", strings.Fields(s)[:6])
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(ctx context.Context, a *model.Analysis) ([]model.BreakoutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	latest := make(map[string]float64)
	if a.Indicators != nil {
		for name, v := range a.Indicators.Latest() {
			if v.Valid {
				latest[name] = v.Value
			}
		}
	}
	indicators, err := json.Marshal(latest)
	if err != nil {
		return nil, errors.Wrap(err, "encode indicators")
	}
	var lastClose sql.NullFloat64
	if bar, ok := a.Series.Last(); ok {
		lastClose = sql.NullFloat64{Float64: bar.Close, Valid: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	runID := a.RunID.String()
	_, err = tx.ExecContext(ctx, `INSERT INTO scans
		(run_id, timestamp, symbol, interval, period, bars, events, last_close, indicators)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		runID, a.At.Unix(), a.Request.Symbol, a.Request.Interval, a.Request.Period,
		len(a.Series), len(a.Events), lastClose, string(indicators),
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert scan")
	}

	var fresh []model.BreakoutEvent
	for _, e := range a.Events {
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO breakouts
			(run_id, symbol, interval, strategy, bar_time, close, volume, recorded_at)
			VALUES (?,?,?,?,?,?,?,?)`,
			runID, a.Request.Symbol, a.Request.Interval, e.StrategyID,
			e.Time.Unix(), e.Close, e.Volume, a.At.Unix(),
		)
		if err != nil {
			return nil, errors.Wrap(err, "insert breakout")
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			fresh = append(fresh, e)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return fresh, nil
}

func (r *SQLiteRecorder) RecentBreakouts(ctx context.Context, symbol string, limit int) ([]BreakoutRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT run_id, symbol, interval, strategy, bar_time, close, volume, recorded_at
		FROM breakouts WHERE symbol = ? ORDER BY bar_time DESC, id DESC LIMIT ?`,
		strings.ToUpper(symbol), limit)
	if err != nil {
		return nil, errors.Wrap(err, "query breakouts")
	}
	defer rows.Close()

	var out []BreakoutRecord
	for rows.Next() {
		var rec BreakoutRecord
		var barTime, recordedAt int64
		if err := rows.Scan(&rec.RunID, &rec.Symbol, &rec.Interval, &rec.StrategyID,
			&barTime, &rec.Close, &rec.Volume, &recordedAt); err != nil {
			return nil, errors.Wrap(err, "scan breakout")
		}
		rec.BarTime = time.Unix(barTime, 0).UTC()
		rec.RecordedAt = time.Unix(recordedAt, 0).UTC()
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "iterate breakouts")
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
