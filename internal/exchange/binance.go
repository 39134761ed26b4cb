package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/fadai88/binance-momentum-bot/internal/metrics"
	"github.com/fadai88/binance-momentum-bot/internal/model"
)

const (
	defaultBaseURL  = "https://api.binance.com"
	requestAttempts = 3
	exchangeInfoTTL = 10 * time.Minute
)

// Options configures the Binance gateway.
type Options struct {
	BaseURL        string
	APIKey         string
	APISecret      string
	QuoteAsset     string
	ProxyURL       string
	RequestsPerSec float64
}

// Binance implements Gateway against the Binance spot REST API.
type Binance struct {
	baseURL    string
	apiKey     string
	secret     string
	quoteAsset string
	client     *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retryDelay time.Duration
	log        zerolog.Logger

	mu     sync.Mutex
	info   *exchangeInfo
	infoAt time.Time
}

// NewBinance creates a gateway with optional proxy support. All requests are
// paced by a shared rate limiter and guarded by a circuit breaker.
func NewBinance(opts Options, log zerolog.Logger) *Binance {
	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rps := opts.RequestsPerSec
	if rps <= 0 {
		rps = 4
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	b := &Binance{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     opts.APIKey,
		secret:     opts.APISecret,
		quoteAsset: opts.QuoteAsset,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		retryDelay: time.Second,
		log:        log.With().Str("component", "binance").Logger(),
	}
	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "binance",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	return b
}

// apiError is a non-2xx response from the Binance API.
type apiError struct {
	Status int
	Code   int
	Msg    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("binance: status %d code %d: %s", e.Status, e.Code, e.Msg)
}

// retryable reports whether a request error is worth another attempt.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.Status == http.StatusTooManyRequests || ae.Status >= 500
	}
	return true
}

func (b *Binance) request(ctx context.Context, method, path string, params url.Values, signed bool, out any) error {
	var lastErr error
	for attempt := 0; attempt < requestAttempts; attempt++ {
		if attempt > 0 {
			backoff := b.retryDelay << uint(attempt-1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			b.log.Debug().Str("path", path).Int("attempt", attempt+1).Msg("retrying request")
		}
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		_, err := b.breaker.Execute(func() (any, error) {
			return nil, b.doOnce(ctx, method, path, params, signed, out)
		})
		if err == nil {
			metrics.APIRequestsTotal.WithLabelValues(path, "ok").Inc()
			return nil
		}
		lastErr = err
		if !retryable(err) {
			metrics.APIRequestsTotal.WithLabelValues(path, "error").Inc()
			return err
		}
	}
	metrics.APIRequestsTotal.WithLabelValues(path, "error").Inc()
	return fmt.Errorf("all %d attempts failed: %w", requestAttempts, lastErr)
}

func (b *Binance) doOnce(ctx context.Context, method, path string, params url.Values, signed bool, out any) error {
	query := ""
	if params != nil {
		query = params.Encode()
	}
	if signed {
		auth := url.Values{}
		auth.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		auth.Set("recvWindow", "5000")
		if query != "" {
			query += "&" + auth.Encode()
		} else {
			query = auth.Encode()
		}
		query += "&signature=" + b.sign(query)
	}
	endpoint := b.baseURL + path
	if query != "" {
		endpoint += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	if b.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", b.apiKey)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		ae := &apiError{Status: resp.StatusCode}
		var payload struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Msg != "" {
			ae.Code = payload.Code
			ae.Msg = payload.Msg
		} else {
			ae.Msg = strings.TrimSpace(string(body))
		}
		return ae
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// sign computes the HMAC-SHA256 hex signature Binance expects over the
// query string.
func (b *Binance) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(b.secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// FetchPriceSeries returns up to days daily klines for symbol, oldest first.
func (b *Binance) FetchPriceSeries(ctx context.Context, symbol string, days int) (model.PriceSeries, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", "1d")
	params.Set("limit", strconv.Itoa(days))
	var raw [][]any
	if err := b.request(ctx, http.MethodGet, "/api/v3/klines", params, false, &raw); err != nil {
		return model.PriceSeries{}, fmt.Errorf("%w: klines %s: %w", ErrDataUnavailable, symbol, err)
	}
	if len(raw) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: no klines for %s", ErrDataUnavailable, symbol)
	}
	candles := make([]model.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		candles = append(candles, model.Candle{
			Time:   time.UnixMilli(int64(toFloat(k[0]))),
			Open:   toFloat(k[1]),
			High:   toFloat(k[2]),
			Low:    toFloat(k[3]),
			Close:  toFloat(k[4]),
			Volume: toFloat(k[5]),
		})
	}
	// Ensure chronological order
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return model.PriceSeries{Symbol: symbol, Candles: candles}, nil
}

// toFloat coerces the mixed number/string fields Binance uses in kline arrays.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

type exchangeInfo struct {
	Symbols []symbolInfo `json:"symbols"`
}

type symbolInfo struct {
	Symbol               string         `json:"symbol"`
	Status               string         `json:"status"`
	BaseAsset            string         `json:"baseAsset"`
	QuoteAsset           string         `json:"quoteAsset"`
	IsSpotTradingAllowed bool           `json:"isSpotTradingAllowed"`
	Filters              []symbolFilter `json:"filters"`
}

type symbolFilter struct {
	FilterType  string `json:"filterType"`
	StepSize    string `json:"stepSize"`
	MinNotional string `json:"minNotional"`
}

func (b *Binance) getExchangeInfo(ctx context.Context) (*exchangeInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.info != nil && time.Since(b.infoAt) < exchangeInfoTTL {
		return b.info, nil
	}
	var info exchangeInfo
	if err := b.request(ctx, http.MethodGet, "/api/v3/exchangeInfo", nil, false, &info); err != nil {
		return nil, fmt.Errorf("%w: exchange info: %w", ErrDataUnavailable, err)
	}
	b.info = &info
	b.infoAt = time.Now()
	return b.info, nil
}

// FetchTradableUniverse lists spot pairs currently trading against the
// configured quote asset.
func (b *Binance) FetchTradableUniverse(ctx context.Context) ([]string, error) {
	info, err := b.getExchangeInfo(ctx)
	if err != nil {
		return nil, err
	}
	var symbols []string
	for _, si := range info.Symbols {
		if si.Status != "TRADING" || !si.IsSpotTradingAllowed {
			continue
		}
		if si.QuoteAsset != b.quoteAsset {
			continue
		}
		symbols = append(symbols, si.Symbol)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no tradable %s pairs", ErrDataUnavailable, b.quoteAsset)
	}
	return symbols, nil
}

// FetchSymbolConstraints returns the lot size and minimum notional rules
// for one pair, from the cached exchange info snapshot. A pair absent from
// a healthy snapshot yields ErrUnknownSymbol; a snapshot that cannot be
// fetched at all yields ErrDataUnavailable.
func (b *Binance) FetchSymbolConstraints(ctx context.Context, symbol string) (model.SymbolConstraints, error) {
	info, err := b.getExchangeInfo(ctx)
	if err != nil {
		return model.SymbolConstraints{}, err
	}
	for _, si := range info.Symbols {
		if si.Symbol != symbol {
			continue
		}
		c := model.SymbolConstraints{Symbol: symbol}
		for _, f := range si.Filters {
			switch f.FilterType {
			case "LOT_SIZE":
				c.QuantityPrecision = stepPrecision(f.StepSize)
			case "MIN_NOTIONAL", "NOTIONAL":
				if v, err := strconv.ParseFloat(f.MinNotional, 64); err == nil {
					c.MinNotional = v
				}
			}
		}
		return c, nil
	}
	return model.SymbolConstraints{}, fmt.Errorf("%w: %s not in exchange info", ErrUnknownSymbol, symbol)
}

// stepPrecision converts a LOT_SIZE step like "0.00100000" into decimal
// places (3). Unparseable steps fall back to whole units.
func stepPrecision(step string) int {
	f, err := strconv.ParseFloat(step, 64)
	if err != nil || f <= 0 {
		return 0
	}
	s := strings.TrimRight(step, "0")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// FetchHoldings returns the free balance of every asset with a positive
// amount.
func (b *Binance) FetchHoldings(ctx context.Context) (model.Holdings, error) {
	var acct struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := b.request(ctx, http.MethodGet, "/api/v3/account", nil, true, &acct); err != nil {
		return nil, fmt.Errorf("%w: account: %w", ErrDataUnavailable, err)
	}
	holdings := make(model.Holdings, len(acct.Balances))
	for _, bal := range acct.Balances {
		free, err := strconv.ParseFloat(bal.Free, 64)
		if err != nil || free <= 0 {
			continue
		}
		holdings[bal.Asset] = free
	}
	return holdings, nil
}

// FetchPrice returns the latest trade price for symbol.
func (b *Binance) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	var ticker struct {
		Price string `json:"price"`
	}
	if err := b.request(ctx, http.MethodGet, "/api/v3/ticker/price", params, false, &ticker); err != nil {
		return 0, fmt.Errorf("%w: ticker %s: %w", ErrDataUnavailable, symbol, err)
	}
	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad price %q for %s", ErrDataUnavailable, ticker.Price, symbol)
	}
	return price, nil
}

// SubmitMarketOrder places a MARKET order and reports the executed quantity
// and quote value. Venue refusals are wrapped in ErrOrderRejected.
func (b *Binance) SubmitMarketOrder(ctx context.Context, symbol string, side model.Side, quantity float64) (model.Fill, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(side))
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(quantity, 'f', -1, 64))
	params.Set("newClientOrderId", uuid.NewString())
	var resp struct {
		Status              string `json:"status"`
		ExecutedQty         string `json:"executedQty"`
		CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
	}
	if err := b.request(ctx, http.MethodPost, "/api/v3/order", params, true, &resp); err != nil {
		metrics.OrdersTotal.WithLabelValues(string(side), "error").Inc()
		var ae *apiError
		if errors.As(err, &ae) {
			return model.Fill{}, fmt.Errorf("%w: %s %s: %w", ErrOrderRejected, side, symbol, err)
		}
		return model.Fill{}, fmt.Errorf("submit %s %s: %w", side, symbol, err)
	}
	if resp.Status == "REJECTED" || resp.Status == "EXPIRED" {
		metrics.OrdersTotal.WithLabelValues(string(side), "rejected").Inc()
		return model.Fill{}, fmt.Errorf("%w: %s %s: status %s", ErrOrderRejected, side, symbol, resp.Status)
	}
	executed, _ := strconv.ParseFloat(resp.ExecutedQty, 64)
	quote, _ := strconv.ParseFloat(resp.CummulativeQuoteQty, 64)
	metrics.OrdersTotal.WithLabelValues(string(side), "filled").Inc()
	b.log.Info().
		Str("symbol", symbol).
		Str("side", string(side)).
		Float64("qty", executed).
		Float64("quote", quote).
		Msg("order filled")
	return model.Fill{
		Symbol:      symbol,
		Side:        side,
		Quantity:    executed,
		QuoteAmount: quote,
		Status:      resp.Status,
	}, nil
}
