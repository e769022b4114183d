package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tidecast/internal/config"
	"tidecast/internal/performance"
	"tidecast/internal/portfolio"
	"tidecast/internal/signal"
)

func newTestServer(t *testing.T) (*Server, *portfolio.Ledger) {
	t.Helper()
	ledger := portfolio.NewLedger(config.TradingConfig{
		InitialCapital: 20_000, UnitSize: 2_500, MaxUnits: 5,
	})
	tracker := performance.NewTracker(ledger)
	return NewServer(":0", "test-session", ledger, tracker), ledger
}

func TestHandleSummary(t *testing.T) {
	srv, ledger := newTestServer(t)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if _, err := ledger.Advance(ts, 2000, signal.StrongBullish); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	srv.handleSummary(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp summaryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID != "test-session" {
		t.Errorf("session id: got %q", resp.SessionID)
	}
	if resp.Units != 2 || resp.Cash != 15_000 {
		t.Errorf("got units=%v cash=%v, want 2/15000", resp.Units, resp.Cash)
	}
}

func TestHandleEquity(t *testing.T) {
	srv, ledger := newTestServer(t)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, price := range []float64{2000, 2100, 1950} {
		if _, err := ledger.Advance(ts.Add(time.Duration(i)*time.Hour), price, signal.Neutral); err != nil {
			t.Fatal(err)
		}
	}

	rec := httptest.NewRecorder()
	srv.handleEquity(rec, httptest.NewRequest(http.MethodGet, "/api/equity", nil))

	var points []equityPoint
	if err := json.NewDecoder(rec.Body).Decode(&points); err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
}

func TestHandleTrades_EmptyLog(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleTrades(rec, httptest.NewRequest(http.MethodGet, "/api/trades", nil))

	var trades []tradeResponse
	if err := json.NewDecoder(rec.Body).Decode(&trades); err != nil {
		t.Fatal(err)
	}
	if len(trades) != 0 {
		t.Errorf("got %d trades, want 0", len(trades))
	}
}
