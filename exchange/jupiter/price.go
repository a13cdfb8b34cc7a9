package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/grokini/tradebot/core"
)

type priceResponse struct {
	Data map[string]struct {
		ID    string          `json:"id"`
		Price decimal.Decimal `json:"price"`
	} `json:"data"`
}

// Price implements core.PriceOracle. An oracle answer that omits the mint is
// reported as core.ErrPriceUnavailable, not as zero.
func (c *Client) Price(ctx context.Context, mint string) (decimal.Decimal, error) {
	if mint == "" {
		return decimal.Zero, fmt.Errorf("%w: mint is required", core.ErrInvalidInput)
	}

	query := url.Values{}
	query.Set("ids", mint)

	body, status, err := c.get(ctx, c.priceURL+"/price?"+query.Encode())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", core.ErrUpstreamUnavailable, err)
	}
	if status != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: price API returned %d", core.ErrUpstreamUnavailable, status)
	}

	var parsed priceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", core.ErrInvalidResponse, err)
	}

	entry, ok := parsed.Data[mint]
	if !ok || entry.Price.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s", core.ErrPriceUnavailable, mint)
	}
	return entry.Price, nil
}
