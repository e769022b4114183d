package performance

import (
	"log/slog"
)

// LogReport logs the performance report as structured JSON.
func LogReport(r Report) {
	slog.Info("=== PERFORMANCE REPORT ===",
		"portfolio_value", r.PortfolioValue,
		"total_return_pct", r.TotalReturnRate,
		"peak_value", r.PeakValue,
		"max_drawdown_pct", r.MaxDrawdown,
		"closed_trades", r.ClosedTrades,
		"profitable_trades", r.ProfitableTrades,
		"win_rate", r.WinRate,
		"realized_pnl", r.RealizedPnL,
		"avg_holding_hours", r.AvgHoldingHours,
	)
}
