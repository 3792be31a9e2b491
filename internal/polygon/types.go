package polygon

import "github.com/shopspring/decimal"

// StatusOK is the provider's success marker in the top-level "status" field.
const StatusOK = "OK"

// Envelope carries the fields every provider response shares.
type Envelope struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

// OK reports whether the provider flagged the response as successful.
func (e Envelope) OK() bool { return e.Status == StatusOK }

// Reason returns the provider's explanation for a non-OK status.
func (e Envelope) Reason() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// ── Ticker details ──

// TickerDetailsResponse is returned by /v3/reference/tickers/{ticker}.
type TickerDetailsResponse struct {
	Envelope
	Results *TickerDetails `json:"results"`
}

// TickerDetails is the subset of reference data sastocks keeps.
type TickerDetails struct {
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	Market          string `json:"market"`
	Locale          string `json:"locale"`
	PrimaryExchange string `json:"primary_exchange"`
	Type            string `json:"type"`
	Active          bool   `json:"active"`
	CurrencyName    string `json:"currency_name"`
	Description     string `json:"description"`
}

// ── News ──

// NewsResponse is returned by /v2/reference/news.
type NewsResponse struct {
	Envelope
	Count   int        `json:"count"`
	NextURL string     `json:"next_url,omitempty"`
	Results []NewsItem `json:"results"`
}

// NewsItem is one article in a news search. Every field may be absent.
type NewsItem struct {
	ID           string     `json:"id"`
	Publisher    *Publisher `json:"publisher"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	PublishedUTC string     `json:"published_utc"`
	ArticleURL   string     `json:"article_url"`
	Tickers      []string   `json:"tickers"`
	AMPURL       string     `json:"amp_url"`
	ImageURL     string     `json:"image_url"`
	Description  string     `json:"description"`
	Keywords     []string   `json:"keywords"`
}

// Publisher describes the outlet behind a NewsItem.
type Publisher struct {
	Name        string `json:"name"`
	HomepageURL string `json:"homepage_url"`
	LogoURL     string `json:"logo_url"`
	FaviconURL  string `json:"favicon_url"`
}

// ── Daily open/close ──

// DailyOpenCloseResponse is returned by /v1/open-close/{ticker}/{date}. Price
// fields sit at the top level of the body.
type DailyOpenCloseResponse struct {
	Envelope
	From       string              `json:"from"`
	Symbol     string              `json:"symbol"`
	Open       decimal.NullDecimal `json:"open"`
	High       decimal.NullDecimal `json:"high"`
	Low        decimal.NullDecimal `json:"low"`
	Close      decimal.NullDecimal `json:"close"`
	Volume     decimal.NullDecimal `json:"volume"`
	AfterHours decimal.NullDecimal `json:"afterHours"`
	PreMarket  decimal.NullDecimal `json:"preMarket"`
}

// ── Indicators ──

// IndicatorResponse is returned by the RSI and MACD endpoints.
type IndicatorResponse struct {
	Envelope
	NextURL string            `json:"next_url,omitempty"`
	Results *IndicatorResults `json:"results"`
}

// IndicatorResults holds the computed series, newest first by default.
type IndicatorResults struct {
	Underlying *struct {
		URL string `json:"url"`
	} `json:"underlying,omitempty"`
	Values []IndicatorValue `json:"values"`
}

// IndicatorValue is a single point of an indicator series. Signal and
// Histogram are only present for MACD.
type IndicatorValue struct {
	Timestamp int64               `json:"timestamp"`
	Value     decimal.NullDecimal `json:"value"`
	Signal    decimal.NullDecimal `json:"signal"`
	Histogram decimal.NullDecimal `json:"histogram"`
}

// FirstValue returns results.values[0].value, or an invalid (null) decimal
// when the series is absent or empty.
func (r *IndicatorResponse) FirstValue() decimal.NullDecimal {
	if r == nil || r.Results == nil || len(r.Results.Values) == 0 {
		return decimal.NullDecimal{}
	}
	return r.Results.Values[0].Value
}
