package prices

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/mmynk/fintrack/internal/apperr"
)

// ECBClient reads the European Central Bank daily reference rates, which
// quote every currency against EUR, and crosses them into USD/INR.
type ECBClient struct {
	url    string
	client *http.Client
}

// NewECBClient creates a client for the eurofxref daily XML at url.
func NewECBClient(url string, client *http.Client) *ECBClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ECBClient{url: url, client: client}
}

// USDINR returns how many rupees one US dollar buys.
func (c *ECBClient) USDINR(ctx context.Context) (float64, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return 0, &apperr.LookupError{Source: "ecb", Key: "USDINR", Err: err}
	}
	rate, err := parseUSDINR(body)
	if err != nil {
		return 0, &apperr.LookupError{Source: "ecb", Key: "USDINR", Err: err}
	}
	return rate, nil
}

func (c *ECBClient) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// parseUSDINR extracts the EUR->USD and EUR->INR cubes and divides them.
func parseUSDINR(raw []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %w", err)
	}

	rates := make(map[string]float64, 2)
	for _, cube := range doc.FindElements("//Cube[@currency]") {
		cur := cube.SelectAttrValue("currency", "")
		if cur != "USD" && cur != "INR" {
			continue
		}
		v, err := strconv.ParseFloat(cube.SelectAttrValue("rate", ""), 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse %s rate: %w", cur, err)
		}
		rates[cur] = v
	}

	usd, inr := rates["USD"], rates["INR"]
	if usd <= 0 || inr <= 0 {
		return 0, fmt.Errorf("USD or INR rate missing from reference rates")
	}
	return inr / usd, nil
}
