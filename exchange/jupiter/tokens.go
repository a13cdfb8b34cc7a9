package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/grokini/tradebot/core"
)

// fallbackDecimals is assumed for tokens missing from the strict list.
const fallbackDecimals = 9

// TokenInfo implements core.TokenResolver with a per-process cache: one
// upstream lookup per mint, then served from memory.
func (c *Client) TokenInfo(ctx context.Context, mint string) (core.TokenInfo, error) {
	c.mu.RLock()
	cached, ok := c.tokenCache[mint]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	info, err := c.fetchTokenInfo(ctx, mint)
	if err != nil {
		return core.TokenInfo{}, err
	}

	c.mu.Lock()
	c.tokenCache[mint] = info
	c.mu.Unlock()
	return info, nil
}

func (c *Client) fetchTokenInfo(ctx context.Context, mint string) (core.TokenInfo, error) {
	query := url.Values{}
	query.Set("address", mint)

	body, status, err := c.get(ctx, c.tokenURL+"/strict?"+query.Encode())
	if err != nil {
		return core.TokenInfo{}, fmt.Errorf("%w: %v", core.ErrUpstreamUnavailable, err)
	}
	if status != http.StatusOK {
		return core.TokenInfo{}, fmt.Errorf("%w: token API returned %d", core.ErrUpstreamUnavailable, status)
	}

	var tokens []core.TokenInfo
	if err := json.Unmarshal(body, &tokens); err != nil {
		return core.TokenInfo{}, fmt.Errorf("%w: %v", core.ErrInvalidResponse, err)
	}

	for _, token := range tokens {
		if token.Mint == mint {
			return token, nil
		}
	}

	// Unknown tokens still get a usable placeholder so trading is not
	// blocked on the metadata list.
	return core.TokenInfo{
		Mint:     mint,
		Symbol:   shortenAddress(mint),
		Name:     "Unknown Token",
		Decimals: fallbackDecimals,
	}, nil
}

func shortenAddress(address string) string {
	if len(address) <= 8 {
		return address
	}
	return address[:4] + "..." + address[len(address)-4:]
}
