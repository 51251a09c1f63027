package bybit

import (
	"encoding/json"
	"strconv"
	"strings"

	"OppRadar/internal/domain/models"
)

type wsRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
}

// tickerFrame is a v5 ticker push. Numeric fields arrive as strings and
// only changed fields are present.
type tickerFrame struct {
	Topic string     `json:"topic"`
	Data  tickerData `json:"data"`
}

type tickerData struct {
	Symbol       string  `json:"symbol"`
	LastPrice    *string `json:"lastPrice"`
	Volume24h    *string `json:"volume24h"`
	Turnover24h  *string `json:"turnover24h"`
	HighPrice24h *string `json:"highPrice24h"`
	LowPrice24h  *string `json:"lowPrice24h"`
}

// parseTickerFrame extracts a partial ticker update from a raw frame. Pong
// replies, subscription acks, and unrelated topics return ok=false.
func parseTickerFrame(b []byte) (models.TickerUpdate, bool) {
	var f tickerFrame
	if err := json.Unmarshal(b, &f); err != nil {
		return models.TickerUpdate{}, false
	}
	if !strings.HasPrefix(f.Topic, "tickers.") {
		return models.TickerUpdate{}, false
	}

	symbol := f.Data.Symbol
	if symbol == "" {
		symbol = strings.TrimPrefix(f.Topic, "tickers.")
	}
	if symbol == "" {
		return models.TickerUpdate{}, false
	}

	return models.TickerUpdate{
		Symbol:      symbol,
		LastPrice:   parseFloatField(f.Data.LastPrice),
		Volume24h:   parseFloatField(f.Data.Volume24h),
		Turnover24h: parseFloatField(f.Data.Turnover24h),
		High24h:     parseFloatField(f.Data.HighPrice24h),
		Low24h:      parseFloatField(f.Data.LowPrice24h),
	}, true
}

// parseFloatField treats an absent or malformed field as absent.
func parseFloatField(s *string) *float64 {
	if s == nil || *s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil
	}
	return &v
}
