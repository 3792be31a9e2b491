// Package feeds reads per-ticker RSS/Atom headline feeds and turns their items
// into articles for the news ingestor.
package feeds

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
	"github.com/phuslu/log"

	"github.com/seenimoa/sastocks/internal/infra"
	"github.com/seenimoa/sastocks/pkg/models"
	"github.com/seenimoa/sastocks/pkg/utils"
)

// TickerPlaceholder is replaced by the ticker in a feed URL template.
const TickerPlaceholder = "{ticker}"

// DefaultURLTemplate is Yahoo Finance's per-ticker headline feed.
const DefaultURLTemplate = "https://feeds.finance.yahoo.com/rss/2.0/headline?s={ticker}&region=US&lang=en-US"

// Options configures a Source.
type Options struct {
	URLTemplate string
	Timeout     time.Duration
	CacheTTL    time.Duration // how long a fetched feed is reused, default 10m
	Limiter     *infra.RateLimiter
}

// Source fetches one feed per ticker. A multi-day run asks for the same
// feed once per day; the parsed feed is cached so it is downloaded once.
type Source struct {
	template string
	http     *resty.Client
	parser   *gofeed.Parser
	cache    *infra.Cache[*gofeed.Feed]
	limiter  *infra.RateLimiter
	log      *log.Logger
}

// New creates a feed source.
func New(opts Options, l *log.Logger) *Source {
	if opts.URLTemplate == "" {
		opts.URLTemplate = DefaultURLTemplate
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &Source{
		template: opts.URLTemplate,
		http:     infra.NewHTTPClient(infra.HTTPOptions{Timeout: opts.Timeout}),
		parser:   gofeed.NewParser(),
		cache:    infra.NewCache[*gofeed.Feed](opts.CacheTTL),
		limiter:  opts.Limiter,
		log:      l,
	}
}

func (s *Source) Name() string { return "feed" }

// FeedURL expands the template for ticker.
func (s *Source) FeedURL(ticker string) string {
	return strings.ReplaceAll(s.template, TickerPlaceholder, url.QueryEscape(ticker))
}

// Articles returns the feed items published on or after midnight UTC of day.
// Items without a link or a publish time are dropped.
func (s *Source) Articles(ctx context.Context, sym models.Symbol, day string) ([]models.Article, error) {
	feed, err := s.fetch(ctx, s.FeedURL(sym.Ticker))
	if err != nil {
		return nil, err
	}

	publisher := strings.TrimSpace(feed.Title)
	if publisher == "" {
		publisher = models.UnknownName
	}

	var out []models.Article
	for _, item := range feed.Items {
		a, ok := articleFromItem(item, publisher)
		if !ok {
			s.log.Debug().Str("ticker", sym.Ticker).Str("link", item.Link).Msg("skipping feed item")
			continue
		}
		if a.PublishedOn < day {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Source) fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	if feed, ok := s.cache.Get(feedURL); ok {
		return feed, nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("feeds: rate limiter: %w", err)
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8").
		Get(feedURL)
	if err != nil {
		return nil, fmt.Errorf("feeds: fetch %s: %w", feedURL, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("feeds: fetch %s: HTTP %d", feedURL, resp.StatusCode())
	}

	feed, err := s.parser.ParseString(resp.String())
	if err != nil {
		return nil, fmt.Errorf("feeds: parse %s: %w", feedURL, err)
	}
	s.cache.Set(feedURL, feed)
	return feed, nil
}

func articleFromItem(item *gofeed.Item, publisher string) (models.Article, bool) {
	if item == nil || item.Link == "" {
		return models.Article{}, false
	}
	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}
	if published == nil {
		return models.Article{}, false
	}

	author := models.UnknownName
	switch {
	case item.Author != nil && item.Author.Name != "":
		author = item.Author.Name
	case len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "":
		author = item.Authors[0].Name
	}

	a := models.Article{
		PublishedOn: utils.FormatDate(published.UTC()),
		Title:       strings.TrimSpace(item.Title),
		Description: item.Description,
		URL:         item.Link,
		Author:      author,
		Keywords:    models.JoinKeywords(item.Categories),
		Publisher:   publisher,
	}
	if item.Image != nil {
		a.ImageURL = item.Image.URL
	}
	return a, true
}
