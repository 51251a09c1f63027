package models

import "time"

// PriceSample is one point of per-symbol history, produced once per ticker
// update. Immutable once appended to a buffer.
type PriceSample struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"` // quote-denominated turnover
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
}

// Ticker is the merged last-known state of an exchange ticker. Exchange
// updates are partial (only changed fields), so the connector folds each
// frame into one of these before handing it to the tick callback.
type Ticker struct {
	Symbol      string
	LastPrice   float64
	Volume24h   float64
	Turnover24h float64
	High24h     float64
	Low24h      float64

	hasPrice    bool
	hasTurnover bool
}

// Apply merges a partial update into the ticker state.
func (t *Ticker) Apply(u TickerUpdate) {
	if u.Symbol != "" {
		t.Symbol = u.Symbol
	}
	if u.LastPrice != nil {
		t.LastPrice = *u.LastPrice
		t.hasPrice = true
	}
	if u.Volume24h != nil {
		t.Volume24h = *u.Volume24h
	}
	if u.Turnover24h != nil {
		t.Turnover24h = *u.Turnover24h
		t.hasTurnover = true
	}
	if u.High24h != nil {
		t.High24h = *u.High24h
	}
	if u.Low24h != nil {
		t.Low24h = *u.Low24h
	}
}

// Complete reports whether both last price and turnover have been seen at
// least once. The tick callback is suppressed until then.
func (t *Ticker) Complete() bool { return t.hasPrice && t.hasTurnover }

// Sample converts the current ticker state into a PriceSample.
func (t *Ticker) Sample(now time.Time) PriceSample {
	return PriceSample{
		Timestamp: now,
		Price:     t.LastPrice,
		Volume:    t.Turnover24h,
		High:      t.High24h,
		Low:       t.Low24h,
	}
}

// TickerUpdate is a partial ticker frame; nil fields were absent.
type TickerUpdate struct {
	Symbol      string
	LastPrice   *float64
	Volume24h   *float64
	Turnover24h *float64
	High24h     *float64
	Low24h      *float64
}

// Instrument is one tradable contract from the exchange instrument list.
// Field tags follow the Bybit v5 instruments-info payload.
type Instrument struct {
	Symbol    string `json:"symbol"`
	QuoteCoin string `json:"quoteCoin"`
	Status    string `json:"status"`
}
