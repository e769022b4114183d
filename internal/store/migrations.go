package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    initial_capital REAL NOT NULL,
    unit_size REAL NOT NULL,
    max_units REAL NOT NULL,
    started_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id),
    tick_at TEXT NOT NULL,
    signal TEXT NOT NULL,
    price REAL NOT NULL,
    cash REAL NOT NULL,
    units REAL NOT NULL,
    avg_entry_price REAL NOT NULL,
    cost_basis REAL NOT NULL,
    position_value REAL NOT NULL,
    unrealized_pnl REAL NOT NULL,
    portfolio_value REAL NOT NULL,
    total_return_pct REAL NOT NULL,
    max_drawdown_pct REAL NOT NULL,
    closed_trades INTEGER NOT NULL,
    profitable_trades INTEGER NOT NULL,
    win_rate REAL NOT NULL,
    realized_pnl REAL NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_snapshots_session_time ON snapshots(session_id, tick_at);

CREATE TABLE IF NOT EXISTS trades (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id),
    trade_id INTEGER NOT NULL,
    entry_time TEXT NOT NULL,
    entry_price REAL NOT NULL,
    units REAL NOT NULL,
    remaining_units REAL NOT NULL,
    exit_time TEXT,
    exit_price REAL,
    realized_pnl REAL NOT NULL DEFAULT 0,
    return_rate REAL NOT NULL DEFAULT 0,
    holding_hours INTEGER NOT NULL DEFAULT 0,
    closed INTEGER NOT NULL DEFAULT 0,
    UNIQUE(session_id, trade_id)
);
CREATE INDEX IF NOT EXISTS idx_trades_session ON trades(session_id);
`
