// Package jupiter wraps the Jupiter aggregator HTTP API: swap quotes, swap
// transaction construction, the price oracle and token metadata lookups.
package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/grokini/tradebot/core"
)

const (
	// DefaultQuoteAPIURL is the aggregator quote/swap endpoint base.
	DefaultQuoteAPIURL = "https://quote-api.jup.ag/v6"
	// DefaultPriceAPIURL is the price oracle endpoint base.
	DefaultPriceAPIURL = "https://price.jup.ag/v6"
	// DefaultTokenAPIURL is the strict token list endpoint base.
	DefaultTokenAPIURL = "https://token.jup.ag"

	// quoteTTL is the window within which the aggregator honors a quote.
	// A quote older than this must be re-fetched, never reused.
	quoteTTL = 30 * time.Second

	requestTimeout = 15 * time.Second
)

const (
	minSlippageBps = 1
	maxSlippageBps = 5000
)

// Client talks to the Jupiter aggregator. It implements core.Aggregator,
// core.PriceOracle and core.TokenResolver.
type Client struct {
	quoteURL string
	priceURL string
	tokenURL string

	http *http.Client
	log  core.Logger

	mu         sync.RWMutex
	tokenCache map[string]core.TokenInfo
}

// NewClient creates a Jupiter client from settings, falling back to the
// public endpoints for empty URLs.
func NewClient(settings core.JupiterSettings, log core.Logger) *Client {
	quoteURL := settings.QuoteAPIURL
	if quoteURL == "" {
		quoteURL = DefaultQuoteAPIURL
	}
	priceURL := settings.PriceAPIURL
	if priceURL == "" {
		priceURL = DefaultPriceAPIURL
	}
	tokenURL := settings.TokenAPIURL
	if tokenURL == "" {
		tokenURL = DefaultTokenAPIURL
	}

	return &Client{
		quoteURL:   quoteURL,
		priceURL:   priceURL,
		tokenURL:   tokenURL,
		http:       &http.Client{Timeout: requestTimeout},
		log:        log,
		tokenCache: make(map[string]core.TokenInfo),
	}
}

// quoteResponse mirrors the aggregator's quote payload. Amount fields come
// back as decimal strings.
type quoteResponse struct {
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             string          `json:"inAmount"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SlippageBps          int             `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            json.RawMessage `json:"routePlan"`
	Error                string          `json:"error"`
	ErrorCode            string          `json:"errorCode"`
}

// Quote fetches a priced route for swapping amount of inputMint into
// outputMint. Validation failures are rejected before any network call.
func (c *Client) Quote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*core.Quote, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", core.ErrInvalidInput)
	}
	if slippageBps < minSlippageBps || slippageBps > maxSlippageBps {
		return nil, fmt.Errorf("%w: slippage must be between %d and %d bps",
			core.ErrInvalidInput, minSlippageBps, maxSlippageBps)
	}
	if inputMint == "" || outputMint == "" {
		return nil, fmt.Errorf("%w: input and output mints are required", core.ErrInvalidInput)
	}

	query := url.Values{}
	query.Set("inputMint", inputMint)
	query.Set("outputMint", outputMint)
	query.Set("amount", strconv.FormatUint(amount, 10))
	query.Set("slippageBps", strconv.Itoa(slippageBps))

	body, status, err := c.get(ctx, c.quoteURL+"/quote?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUpstreamUnavailable, err)
	}

	// Classify the HTTP status before touching the body: a failing
	// aggregator often answers with an empty or non-JSON payload.
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: quote API returned %d", core.ErrUpstreamUnavailable, status)
	}

	var parsed quoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidResponse, err)
	}

	// The aggregator reports an unroutable pair with an error payload.
	if parsed.Error != "" {
		return nil, fmt.Errorf("%w: %s", core.ErrNoRoute, parsed.Error)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: quote API returned %d", core.ErrInvalidResponse, status)
	}

	inAmount, err := strconv.ParseUint(parsed.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad inAmount %q", core.ErrInvalidResponse, parsed.InAmount)
	}
	outAmount, err := strconv.ParseUint(parsed.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad outAmount %q", core.ErrInvalidResponse, parsed.OutAmount)
	}
	minOut, err := strconv.ParseUint(parsed.OtherAmountThreshold, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad otherAmountThreshold %q", core.ErrInvalidResponse, parsed.OtherAmountThreshold)
	}

	impact, _ := strconv.ParseFloat(parsed.PriceImpactPct, 64)

	now := time.Now()
	return &core.Quote{
		InputMint:      inputMint,
		OutputMint:     outputMint,
		InAmount:       inAmount,
		OutAmount:      outAmount,
		MinOutAmount:   minOut,
		SlippageBps:    slippageBps,
		PriceImpactPct: impact,
		Route:          json.RawMessage(body),
		FetchedAt:      now,
		ValidUntil:     now.Add(quoteTTL),
	}, nil
}

// swapRequest is the transaction construction payload. The quote's raw route
// is replayed verbatim under quoteResponse.
type swapRequest struct {
	QuoteResponse             json.RawMessage `json:"quoteResponse"`
	UserPublicKey             string          `json:"userPublicKey"`
	WrapAndUnwrapSol          bool            `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool            `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports uint64          `json:"prioritizationFeeLamports"`
}

type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
	Error           string `json:"error"`
}

// SwapTransaction asks the aggregator for an unsigned transaction executing
// the quote for userPublicKey. The aggregator rejecting the quote means its
// validity window elapsed; the caller must re-quote.
func (c *Client) SwapTransaction(ctx context.Context, quote *core.Quote, userPublicKey string, priorityFeeLamports uint64) ([]byte, error) {
	if quote.Expired(time.Now()) {
		return nil, core.ErrQuoteExpired
	}

	payload, err := json.Marshal(swapRequest{
		QuoteResponse:             quote.Route,
		UserPublicKey:             userPublicKey,
		WrapAndUnwrapSol:          true,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: priorityFeeLamports,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.quoteURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: swap API returned %d", core.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var parsed swapResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidResponse, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", core.ErrQuoteExpired, parsed.Error)
	}

	raw, err := base64.StdEncoding.DecodeString(parsed.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("%w: bad transaction encoding: %v", core.ErrInvalidResponse, err)
	}
	return raw, nil
}

// get performs a GET and returns the body with the status code; transport
// errors are returned as-is for the caller to classify.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, resp.StatusCode, err
	}
	return buf.Bytes(), resp.StatusCode, nil
}
