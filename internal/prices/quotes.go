// Package prices looks up current market prices and FX rates for holdings.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
)

// market maps a bucket to the quote API's market segment.
func market(b models.InvestmentBucket) (string, bool) {
	switch b {
	case models.BucketMutualFund:
		return "mf", true
	case models.BucketIndianStock:
		return "nse", true
	case models.BucketUSStock:
		return "us", true
	case models.BucketCrypto:
		return "crypto", true
	}
	return "", false
}

type quoteResponse struct {
	Symbol   string   `json:"symbol"`
	Price    *float64 `json:"price"`
	Currency string   `json:"currency"`
}

// QuoteClient fetches unit prices from a JSON quote API:
//
//	GET {base}/quote?symbol=AAPL&market=us&currency=USD
//	{"symbol": "AAPL", "price": 210.5, "currency": "USD"}
type QuoteClient struct {
	baseURL string
	client  *http.Client
}

// NewQuoteClient creates a client for the quote API at baseURL.
func NewQuoteClient(baseURL string, client *http.Client) *QuoteClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &QuoteClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Price returns the current unit price of symbol in currency.
func (c *QuoteClient) Price(ctx context.Context, symbol string, bucket models.InvestmentBucket, currency string) (float64, error) {
	lookupErr := func(err error) error {
		return &apperr.LookupError{Source: "quote", Key: symbol, Err: err}
	}

	mkt, ok := market(bucket)
	if !ok {
		return 0, lookupErr(fmt.Errorf("bucket %s has no market price", bucket))
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("market", mkt)
	if currency != "" {
		q.Set("currency", currency)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return 0, lookupErr(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, lookupErr(fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return 0, lookupErr(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, lookupErr(fmt.Errorf("failed to decode quote: %w", err))
	}
	if body.Price == nil || *body.Price <= 0 {
		return 0, lookupErr(fmt.Errorf("no price in response"))
	}
	if currency != "" && body.Currency != "" && !strings.EqualFold(body.Currency, currency) {
		return 0, lookupErr(fmt.Errorf("quote is in %s, want %s", body.Currency, currency))
	}
	return *body.Price, nil
}
