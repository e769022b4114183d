package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"tidecast/internal/performance"
	"tidecast/internal/portfolio"
)

// Server exposes the read-only query surface: current summary, equity
// curve and trade log. Every handler reads immutable snapshot copies from
// the ledger, so responses are never torn by the writer.
type Server struct {
	addr      string
	sessionID string
	ledger    *portfolio.Ledger
	tracker   *performance.Tracker
}

func NewServer(addr, sessionID string, ledger *portfolio.Ledger, tracker *performance.Tracker) *Server {
	return &Server{
		addr:      addr,
		sessionID: sessionID,
		ledger:    ledger,
		tracker:   tracker,
	}
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/equity", s.handleEquity)
	mux.HandleFunc("/api/trades", s.handleTrades)

	srv := &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("web server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"ok": true, "session_id": s.sessionID})
}

type summaryResponse struct {
	SessionID        string  `json:"session_id"`
	Time             string  `json:"time"`
	Price            float64 `json:"price"`
	Cash             float64 `json:"cash"`
	Units            float64 `json:"units"`
	AvgEntryPrice    float64 `json:"avg_entry_price"`
	PositionValue    float64 `json:"position_value"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	PortfolioValue   float64 `json:"portfolio_value"`
	TotalReturnPct   float64 `json:"total_return_pct"`
	MaxDrawdownPct   float64 `json:"max_drawdown_pct"`
	WinRate          float64 `json:"win_rate"`
	ClosedTrades     int     `json:"closed_trades"`
	ProfitableTrades int     `json:"profitable_trades"`
	RealizedPnL      float64 `json:"realized_pnl"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.ledger.Snapshot()
	report := s.tracker.Generate()

	writeJSON(w, summaryResponse{
		SessionID:        s.sessionID,
		Time:             formatTime(snap.Time),
		Price:            snap.Price,
		Cash:             snap.Cash,
		Units:            snap.Units,
		AvgEntryPrice:    snap.AvgEntryPrice,
		PositionValue:    snap.PositionValue,
		UnrealizedPnL:    snap.UnrealizedPnL,
		PortfolioValue:   report.PortfolioValue,
		TotalReturnPct:   report.TotalReturnRate,
		MaxDrawdownPct:   report.MaxDrawdown,
		WinRate:          report.WinRate,
		ClosedTrades:     report.ClosedTrades,
		ProfitableTrades: report.ProfitableTrades,
		RealizedPnL:      report.RealizedPnL,
	})
}

type equityPoint struct {
	Time          string  `json:"time"`
	Value         float64 `json:"value"`
	Cash          float64 `json:"cash"`
	PositionValue float64 `json:"position_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	DrawdownPct   float64 `json:"drawdown_pct"`
}

func (s *Server) handleEquity(w http.ResponseWriter, r *http.Request) {
	curve := s.ledger.History()
	drawdowns := performance.DrawdownSeries(curve, s.ledger.InitialCapital())

	points := make([]equityPoint, len(curve))
	for i, p := range curve {
		points[i] = equityPoint{
			Time:          formatTime(p.Time),
			Value:         p.Value,
			Cash:          p.Cash,
			PositionValue: p.PositionValue,
			UnrealizedPnL: p.UnrealizedPnL,
			DrawdownPct:   drawdowns[i],
		}
	}
	writeJSON(w, points)
}

type tradeResponse struct {
	ID             int     `json:"id"`
	EntryTime      string  `json:"entry_time"`
	EntryPrice     float64 `json:"entry_price"`
	Units          float64 `json:"units"`
	RemainingUnits float64 `json:"remaining_units"`
	ExitTime       string  `json:"exit_time,omitempty"`
	ExitPrice      float64 `json:"exit_price,omitempty"`
	RealizedPnL    float64 `json:"realized_pnl"`
	ReturnRatePct  float64 `json:"return_rate_pct"`
	HoldingHours   int     `json:"holding_hours"`
	Closed         bool    `json:"closed"`
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	trades := s.ledger.Trades()
	out := make([]tradeResponse, len(trades))
	for i, t := range trades {
		out[i] = tradeResponse{
			ID:             t.ID,
			EntryTime:      formatTime(t.EntryTime),
			EntryPrice:     t.EntryPrice,
			Units:          t.Units,
			RemainingUnits: t.RemainingUnits,
			ExitTime:       formatTime(t.ExitTime),
			ExitPrice:      t.ExitPrice,
			RealizedPnL:    t.RealizedPnL,
			ReturnRatePct:  t.ReturnRate,
			HoldingHours:   t.HoldingHours,
			Closed:         t.Closed,
		}
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
