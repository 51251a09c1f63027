package bybit

import (
	"context"
	"fmt"

	"OppRadar/internal/domain/models"
	xhttp "OppRadar/pkg/http"

	"github.com/cenkalti/backoff/v4"
)

type instrumentsResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []models.Instrument `json:"list"`
	} `json:"result"`
}

// ListTradableSymbols enumerates linear instruments over REST and keeps only
// USDT-quoted contracts that are currently trading. The call is retried with
// exponential backoff since it runs once at startup and everything downstream
// depends on it.
func (c *Client) ListTradableSymbols(ctx context.Context) ([]string, error) {
	var out []string

	op := func() error {
		var resp instrumentsResponse
		err := c.rest.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    c.restURL + "/v5/market/instruments-info",
			QueryParams: map[string][]string{
				"category": {"linear"},
				"limit":    {"1000"},
			},
		}, &resp)
		if err != nil {
			return err
		}
		if resp.RetCode != 0 {
			return fmt.Errorf("instruments-info retCode %d: %s", resp.RetCode, resp.RetMsg)
		}

		out = out[:0]
		for _, ins := range resp.Result.List {
			if ins.QuoteCoin == "USDT" && ins.Status == "Trading" {
				out = append(out, ins.Symbol)
			}
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	return out, nil
}
