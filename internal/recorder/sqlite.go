package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists cycle history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	log zerolog.Logger
	mu  sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read
	// while the bot writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			outcome       TEXT,
			ref_symbol    TEXT,
			ref_return    REAL,
			regime_passed INTEGER,
			scanned       INTEGER,
			skipped       INTEGER,
			selected      TEXT,
			sold_count    INTEGER,
			bought_count  INTEGER,
			quote_balance REAL,
			duration_ms   INTEGER,
			error         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT,
			side         TEXT,
			quantity     REAL,
			quote_amount REAL,
			status       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(rec *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := rec.Report
	regime := 0
	if rep.RegimePassed {
		regime = 1
	}
	_, err := r.db.Exec(`INSERT INTO cycles
		(timestamp, outcome, ref_symbol, ref_return, regime_passed,
		 scanned, skipped, selected, sold_count, bought_count,
		 quote_balance, duration_ms, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rep.StartedAt.Unix(), string(rep.Outcome), rep.RefSymbol, rep.RefReturn, regime,
		rep.Scanned, rep.Skipped, strings.Join(rep.Selected, ","),
		len(rep.Sold), len(rep.Bought),
		rep.QuoteBalance, rep.FinishedAt.Sub(rep.StartedAt).Milliseconds(), rep.Err,
	)
	return err
}

func (r *SQLiteRecorder) RecordTrade(rec *TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, symbol, side, quantity, quote_amount, status)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Symbol, rec.Side, rec.Quantity, rec.QuoteAmount, rec.Status,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
