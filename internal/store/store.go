package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tidecast/internal/config"
	"tidecast/internal/performance"
	"tidecast/internal/portfolio"
	"tidecast/internal/signal"
)

// Open creates or opens a SQLite database at the given path with WAL mode
// enabled.
func Open(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return db, nil
}

// Migrate runs the schema creation SQL. Safe to call multiple times due to
// IF NOT EXISTS.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (1)`); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return nil
}

// Store persists one session's snapshots and trades. Every session gets its
// own uuid and its rows never mix with another session's, so concurrent or
// repeated runs cannot interfere through shared state.
type Store struct {
	db        *sql.DB
	sessionID string
}

// NewSession registers a fresh session row and returns a store scoped to it.
func NewSession(db *sql.DB, symbol string, trading config.TradingConfig) (*Store, error) {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO sessions (id, symbol, initial_capital, unit_size, max_units)
		VALUES (?, ?, ?, ?, ?)`,
		id, symbol, trading.InitialCapital, trading.UnitSize, trading.MaxUnits,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &Store{db: db, sessionID: id}, nil
}

func (s *Store) SessionID() string {
	return s.sessionID
}

// SaveSnapshot records one tick's portfolio state and derived metrics.
func (s *Store) SaveSnapshot(snap portfolio.Snapshot, report performance.Report, sig signal.Signal) error {
	_, err := s.db.Exec(`
		INSERT INTO snapshots (
			session_id, tick_at, signal, price, cash, units, avg_entry_price,
			cost_basis, position_value, unrealized_pnl, portfolio_value,
			total_return_pct, max_drawdown_pct, closed_trades,
			profitable_trades, win_rate, realized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.sessionID, snap.Time.UTC().Format(time.RFC3339), sig.String(),
		snap.Price, snap.Cash, snap.Units, snap.AvgEntryPrice,
		snap.CostBasis, snap.PositionValue, snap.UnrealizedPnL, snap.Value,
		report.TotalReturnRate, report.MaxDrawdown, report.ClosedTrades,
		report.ProfitableTrades, report.WinRate, report.RealizedPnL,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// UpsertTrade writes a trade record, replacing any earlier state of the
// same trade within this session. Partial exits update the row in place.
func (s *Store) UpsertTrade(t portfolio.TradeRecord) error {
	var exitTime, exitPrice any
	if !t.ExitTime.IsZero() {
		exitTime = t.ExitTime.UTC().Format(time.RFC3339)
		exitPrice = t.ExitPrice
	}

	_, err := s.db.Exec(`
		INSERT INTO trades (
			session_id, trade_id, entry_time, entry_price, units,
			remaining_units, exit_time, exit_price, realized_pnl,
			return_rate, holding_hours, closed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, trade_id) DO UPDATE SET
			remaining_units = excluded.remaining_units,
			exit_time = excluded.exit_time,
			exit_price = excluded.exit_price,
			realized_pnl = excluded.realized_pnl,
			return_rate = excluded.return_rate,
			holding_hours = excluded.holding_hours,
			closed = excluded.closed`,
		s.sessionID, t.ID, t.EntryTime.UTC().Format(time.RFC3339), t.EntryPrice,
		t.Units, t.RemainingUnits, exitTime, exitPrice, t.RealizedPnL,
		t.ReturnRate, t.HoldingHours, boolToInt(t.Closed),
	)
	if err != nil {
		return fmt.Errorf("upserting trade %d: %w", t.ID, err)
	}
	return nil
}

// SaveTrades upserts the full trade log.
func (s *Store) SaveTrades(trades []portfolio.TradeRecord) error {
	for _, t := range trades {
		if err := s.UpsertTrade(t); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
