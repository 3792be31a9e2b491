// Package polygon is a typed client for the Polygon.io market-data REST API.
// It covers ticker reference lookups, news search, daily open/close bars and
// the RSI and MACD indicators. Every call validates its arguments, waits on
// the client-side rate limiter and issues exactly one GET; nothing is retried
// or cached.
package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/seenimoa/sastocks/internal/infra"
	"github.com/seenimoa/sastocks/pkg/utils"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.polygon.io"

const bodyPreviewLimit = 1024

// Client talks to the Polygon REST API.
type Client struct {
	http    *resty.Client
	apiKey  string
	limiter *infra.RateLimiter
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL string
	timeout time.Duration
	limiter *infra.RateLimiter
}

// WithBaseURL points the client at a different API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(o *clientOptions) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithRateLimiter makes every call wait on rl before it is sent.
func WithRateLimiter(rl *infra.RateLimiter) Option {
	return func(o *clientOptions) { o.limiter = rl }
}

// New creates a client authenticating with apiKey.
func New(apiKey string, opts ...Option) *Client {
	o := clientOptions{baseURL: DefaultBaseURL, timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		http:    infra.NewHTTPClient(infra.HTTPOptions{BaseURL: o.baseURL, Timeout: o.timeout}),
		apiKey:  apiKey,
		limiter: o.limiter,
	}
}

// TickerDetails fetches reference data for one ticker. A non-OK status in the
// body is returned to the caller as-is; inspect resp.OK().
func (c *Client) TickerDetails(ctx context.Context, ticker string) (*TickerDetailsResponse, error) {
	code, err := tickerCode(ticker)
	if err != nil {
		return nil, err
	}

	var out TickerDetailsResponse
	if err := c.get(ctx, "tickers", "/v3/reference/tickers/"+code, nil, &out); err != nil {
		return nil, err
	}
	if out.OK() && out.Results == nil {
		return nil, &ErrRemote{Endpoint: "tickers", Detail: "response has no results"}
	}
	return &out, nil
}

// Comparison operators accepted on the published_utc news filter.
const (
	OpGT  = "gt"
	OpGTE = "gte"
	OpLT  = "lt"
	OpLTE = "lte"
)

// NewsParams are the arguments of a news search. Zero values are omitted
// from the request, except Limit which defaults to 10 and Operator which
// defaults to "gte".
type NewsParams struct {
	Ticker       string
	PublishedUTC string // e.g., "2021-03-30T00:00:00Z"
	Operator     string // gt, gte, lt, lte
	Order        string // asc, desc
	Limit        int
	Sort         string // e.g., "published_utc"
}

// News searches articles mentioning a ticker.
func (c *Client) News(ctx context.Context, p NewsParams) (*NewsResponse, error) {
	code, err := tickerCode(p.Ticker)
	if err != nil {
		return nil, err
	}
	op := p.Operator
	if op == "" {
		op = OpGTE
	}
	switch op {
	case OpGT, OpGTE, OpLT, OpLTE:
	default:
		return nil, &ErrInvalidInput{Param: "published_utc operator", Value: op, Reason: "must be one of gt, gte, lt, lte"}
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	q := url.Values{}
	q.Set("ticker", code)
	q.Set("limit", strconv.Itoa(limit))
	setIf(q, "published_utc."+op, p.PublishedUTC)
	setIf(q, "order", p.Order)
	setIf(q, "sort", p.Sort)

	var out NewsResponse
	if err := c.get(ctx, "news", "/v2/reference/news", q, &out); err != nil {
		return nil, err
	}
	if out.OK() && out.Results == nil {
		return nil, &ErrRemote{Endpoint: "news", Detail: "response has no results"}
	}
	return &out, nil
}

// DailyOpenClose fetches the split-adjusted daily bar of a ticker on date (YYYY-MM-DD).
func (c *Client) DailyOpenClose(ctx context.Context, ticker, date string) (*DailyOpenCloseResponse, error) {
	code, err := tickerCode(ticker)
	if err != nil {
		return nil, err
	}
	if !utils.IsDate(date) {
		return nil, &ErrInvalidInput{Param: "date", Value: date, Reason: "must be YYYY-MM-DD"}
	}

	q := url.Values{}
	q.Set("adjusted", "true")

	var out DailyOpenCloseResponse
	if err := c.get(ctx, "open-close", "/v1/open-close/"+code+"/"+date, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RSIParams are the arguments of an RSI query. Zero values take the
// provider-documented defaults noted per field.
type RSIParams struct {
	Ticker           string
	Timestamp        string // optional; YYYY-MM-DD or epoch milliseconds
	Timespan         string // "day"
	Window           int    // 14
	SeriesType       string // "close"
	Order            string // "desc"
	Limit            int    // 10
	ExpandUnderlying bool
}

// RSI fetches the relative strength index series of a ticker.
func (c *Client) RSI(ctx context.Context, p RSIParams) (*IndicatorResponse, error) {
	code, err := tickerCode(p.Ticker)
	if err != nil {
		return nil, err
	}
	q, err := indicatorQuery(p.Timestamp, p.Timespan, p.SeriesType, p.Order, p.Limit, p.ExpandUnderlying)
	if err != nil {
		return nil, err
	}
	q.Set("window", strconv.Itoa(orInt(p.Window, 14)))

	var out IndicatorResponse
	if err := c.get(ctx, "rsi", "/v1/indicators/rsi/"+code, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MACDParams are the arguments of a MACD query.
type MACDParams struct {
	Ticker           string
	Timestamp        string // optional; YYYY-MM-DD or epoch milliseconds
	Timespan         string // "day"
	ShortWindow      int    // 12
	LongWindow       int    // 26
	SignalWindow     int    // 9
	SeriesType       string // "close"
	Order            string // "desc"
	Limit            int    // 10
	ExpandUnderlying bool
}

// MACD fetches the moving average convergence/divergence series of a ticker.
func (c *Client) MACD(ctx context.Context, p MACDParams) (*IndicatorResponse, error) {
	code, err := tickerCode(p.Ticker)
	if err != nil {
		return nil, err
	}
	q, err := indicatorQuery(p.Timestamp, p.Timespan, p.SeriesType, p.Order, p.Limit, p.ExpandUnderlying)
	if err != nil {
		return nil, err
	}
	q.Set("short_window", strconv.Itoa(orInt(p.ShortWindow, 12)))
	q.Set("long_window", strconv.Itoa(orInt(p.LongWindow, 26)))
	q.Set("signal_window", strconv.Itoa(orInt(p.SignalWindow, 9)))

	var out IndicatorResponse
	if err := c.get(ctx, "macd", "/v1/indicators/macd/"+code, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Helpers ──

// get issues one GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("polygon: %s: rate limiter: %w", endpoint, err)
	}

	req := c.http.R().SetContext(ctx)
	if q != nil {
		req.SetQueryParamsFromValues(q)
	}
	req.SetQueryParam("apiKey", c.apiKey)

	resp, err := req.Get(path)
	if err != nil {
		return &ErrRemote{Endpoint: endpoint, Detail: "request failed", Err: redact(err)}
	}
	if !resp.IsSuccess() {
		return &ErrRemote{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       preview(resp.Body()),
		}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &ErrRemote{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       preview(resp.Body()),
			Detail:     "decode response",
			Err:        err,
		}
	}
	if env, ok := out.(interface{ status() string }); ok && env.status() == "" {
		return &ErrRemote{Endpoint: endpoint, StatusCode: resp.StatusCode(), Body: preview(resp.Body()), Detail: "response has no status"}
	}
	return nil
}

func (e *Envelope) status() string { return e.Status }

// tickerCode validates a ticker and returns it uppercased for the path.
func tickerCode(ticker string) (string, error) {
	if !utils.IsAlphanumeric(ticker) {
		return "", &ErrInvalidInput{Param: "ticker", Value: ticker, Reason: "must be alphanumeric"}
	}
	return strings.ToUpper(ticker), nil
}

// indicatorQuery builds the parameters shared by RSI and MACD.
func indicatorQuery(timestamp, timespan, seriesType, order string, limit int, expand bool) (url.Values, error) {
	if timestamp != "" && !utils.IsDate(timestamp) && !utils.IsDigits(timestamp) {
		return nil, &ErrInvalidInput{Param: "timestamp", Value: timestamp, Reason: "must be YYYY-MM-DD or epoch milliseconds"}
	}

	q := url.Values{}
	q.Set("timespan", orString(timespan, "day"))
	q.Set("adjusted", "true")
	q.Set("series_type", orString(seriesType, "close"))
	q.Set("order", orString(order, "desc"))
	q.Set("limit", strconv.Itoa(orInt(limit, 10)))
	setIf(q, "timestamp", timestamp)
	if expand {
		q.Set("expand_underlying", "true")
	}
	return q, nil
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func preview(body []byte) string {
	if len(body) > bodyPreviewLimit {
		body = body[:bodyPreviewLimit]
	}
	return string(body)
}

// redact strips the apiKey query parameter from transport errors so it never
// reaches logs.
func redact(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	u, perr := url.Parse(ue.URL)
	if perr != nil {
		ue.URL = ""
		return err
	}
	q := u.Query()
	if q.Has("apiKey") {
		q.Set("apiKey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	ue.URL = u.String()
	return err
}
