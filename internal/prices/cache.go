package prices

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mmynk/fintrack/internal/models"
)

// QuoteSource returns unit prices.
type QuoteSource interface {
	Price(ctx context.Context, symbol string, bucket models.InvestmentBucket, currency string) (float64, error)
}

// RateSource returns the USD/INR exchange rate.
type RateSource interface {
	USDINR(ctx context.Context) (float64, error)
}

const fxKey = "fx:USDINR"

// Lookup combines a quote source and a rate source behind a shared cache.
// Entries are fresh for the configured TTL; failures are not cached.
type Lookup struct {
	quotes QuoteSource
	rates  RateSource
	cache  *expirable.LRU[string, float64]
}

// NewLookup creates a cached lookup. size bounds the number of cached
// entries and ttl is how long a looked-up value is reused.
func NewLookup(quotes QuoteSource, rates RateSource, size int, ttl time.Duration) *Lookup {
	if size <= 0 {
		size = 512
	}
	return &Lookup{
		quotes: quotes,
		rates:  rates,
		cache:  expirable.NewLRU[string, float64](size, nil, ttl),
	}
}

func quoteKey(symbol string, bucket models.InvestmentBucket, currency string) string {
	return string(bucket) + ":" + models.NormalizeSymbol(symbol) + ":" + currency
}

// Price returns a cached price or looks it up.
func (l *Lookup) Price(ctx context.Context, symbol string, bucket models.InvestmentBucket, currency string) (float64, error) {
	key := quoteKey(symbol, bucket, currency)
	if p, ok := l.cache.Get(key); ok {
		return p, nil
	}

	p, err := l.quotes.Price(ctx, models.NormalizeSymbol(symbol), bucket, currency)
	if err != nil {
		return 0, err
	}
	l.cache.Add(key, p)
	slog.Debug("Price looked up", "symbol", symbol, "bucket", bucket, "price", p)
	return p, nil
}

// USDINR returns a cached rate or looks it up.
func (l *Lookup) USDINR(ctx context.Context) (float64, error) {
	if r, ok := l.cache.Get(fxKey); ok {
		return r, nil
	}

	r, err := l.rates.USDINR(ctx)
	if err != nil {
		return 0, err
	}
	l.cache.Add(fxKey, r)
	return r, nil
}
