package collector

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"FiboTrader/internal/model"

	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"
)

// binanceMaxLimit is the largest page the futures klines endpoint returns.
const binanceMaxLimit = 1500

// BinanceFetcher implements Fetcher using Binance USDⓈ-M futures klines.
type BinanceFetcher struct {
	client      *futures.Client
	rateLimiter *rate.Limiter
	maxRetries  int
	SymbolMap   map[string]string // maps internal symbol to futures contract
}

// NewBinanceFetcher creates a fetcher with optional proxy support. Public
// market data needs no keys; empty strings are fine.
func NewBinanceFetcher(apiKey, secretKey, proxyURL string) *BinanceFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := futures.NewClient(apiKey, secretKey)
	client.HTTPClient = &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
	return &BinanceFetcher{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(10), 20),
		maxRetries:  3,
		SymbolMap: map[string]string{
			"GOLD":   "XAUUSDT",
			"XAU":    "XAUUSDT",
			"XAUUSD": "XAUUSDT",
			"SILVER": "XAGUSDT",
			"BTC":    "BTCUSDT",
			"ETH":    "ETHUSDT",
		},
	}
}

// binanceSymbol resolves symbol to a futures contract name. Contract names
// are upper-case letters and digits only, so Yahoo-style tickers such as
// "GC=F" are rejected before any request is made.
func (f *BinanceFetcher) binanceSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if mapped, ok := f.SymbolMap[s]; ok {
		s = mapped
	}
	if s == "" {
		return "", fmt.Errorf("binance: empty symbol")
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("binance: invalid futures symbol %q", symbol)
		}
	}
	return s, nil
}

func (f *BinanceFetcher) Name() string { return "binance" }

// FetchDailyBars returns the last `days` daily klines, oldest first.
func (f *BinanceFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	contract, err := f.binanceSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if days <= 0 || days > binanceMaxLimit {
		days = binanceMaxLimit
	}

	var klines []*futures.Kline
	backoff := 200 * time.Millisecond
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if err := f.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		var err error
		klines, err = f.client.NewKlinesService().
			Symbol(contract).
			Interval("1d").
			Limit(days).
			Do(ctx)
		if err == nil {
			break
		}
		if attempt == f.maxRetries {
			return nil, fmt.Errorf("binance klines %s: %w", contract, err)
		}
		wait := time.Duration(math.Pow(2, float64(attempt))) * backoff
		log.Printf("[WARN] binance klines failed (attempt %d/%d): %v, retrying in %v", attempt+1, f.maxRetries+1, err, wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return klinesToBars(klines)
}

func klinesToBars(klines []*futures.Kline) ([]model.OHLCV, error) {
	bars := make([]model.OHLCV, 0, len(klines))
	for _, k := range klines {
		if k == nil {
			continue
		}
		var vals [5]float64
		for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parse kline %d: %w", k.OpenTime, err)
			}
			vals[i] = v
		}
		bars = append(bars, model.OHLCV{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return bars, nil
}
