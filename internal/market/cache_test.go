package market

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache(time.Minute)

	candles := []Candle{{Close: 2000}, {Close: 2100}}
	c.Set("ETHUSDT", candles)

	got, ok := c.Get("ETHUSDT")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[1].Close != 2100 {
		t.Errorf("got %v", got)
	}
}

func TestCache_MissForUnknownSymbol(t *testing.T) {
	c := NewCache(time.Minute)
	if _, ok := c.Get("BTCUSDT"); ok {
		t.Error("expected miss for unknown symbol")
	}
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Set("ETHUSDT", []Candle{{Close: 2000}})

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("ETHUSDT"); ok {
		t.Error("expected entry to expire")
	}
}

func TestCloses_ExtractsSeries(t *testing.T) {
	candles := []Candle{{Close: 1900}, {Close: 1950}, {Close: 2000}}
	closes := Closes(candles)
	if len(closes) != 3 || closes[0] != 1900 || closes[2] != 2000 {
		t.Errorf("got %v", closes)
	}
}
