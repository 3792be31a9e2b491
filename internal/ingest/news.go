package ingest

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"github.com/seenimoa/sastocks/internal/polygon"
	"github.com/seenimoa/sastocks/pkg/models"
	"github.com/seenimoa/sastocks/pkg/utils"
)

// ArticleSource yields candidate articles for one symbol and day. The
// returned articles need not carry SymbolID; the ingestor sets it.
type ArticleSource interface {
	Name() string
	Articles(ctx context.Context, sym models.Symbol, day string) ([]models.Article, error)
}

// ArticleStore is the persistence NewsIngestor needs.
type ArticleStore interface {
	SymbolLister
	InsertArticleIfAbsent(ctx context.Context, a *models.Article) (bool, error)
}

// NewsIngestor stores every article a source returns that is not already
// stored under the same URL.
type NewsIngestor struct {
	source ArticleSource
	store  ArticleStore
	runner runner
}

// NewNewsIngestor wires a NewsIngestor. concurrency bounds how many symbols
// of one day are fetched in parallel.
func NewNewsIngestor(src ArticleSource, st ArticleStore, concurrency int, l *log.Logger) *NewsIngestor {
	return &NewsIngestor{
		source: src,
		store:  st,
		runner: runner{symbols: st, concurrency: concurrency, log: l},
	}
}

// PullNews ingests articles for every tracked symbol on every day in
// [start, end], ascending.
func (n *NewsIngestor) PullNews(ctx context.Context, start, end string) (*Report, error) {
	return n.runner.run(ctx, "news:"+n.source.Name(), start, end, n.pullSymbolDay)
}

func (n *NewsIngestor) pullSymbolDay(ctx context.Context, l *log.Logger, sym models.Symbol, day string, t *tally) error {
	articles, err := n.source.Articles(ctx, sym, day)
	if err != nil {
		return err
	}

	for i := range articles {
		a := &articles[i]
		a.SymbolID = sym.ID
		created, err := n.store.InsertArticleIfAbsent(ctx, a)
		if err != nil {
			l.Error().Err(err).Str("url", a.URL).Msg("storing article failed")
			t.add(func(r *Report) {
				r.Failures = append(r.Failures, Failure{Ticker: sym.Ticker, Date: day, Err: err.Error()})
			})
			continue
		}
		if !created {
			l.Debug().Str("url", a.URL).Msg("article already exists")
			t.add(func(r *Report) { r.Skipped++ })
			continue
		}
		l.Info().Str("url", a.URL).Str("title", a.Title).Msg("article stored")
		t.add(func(r *Report) { r.Created++ })
	}
	return nil
}

// ── Provider-backed source ──

// NewsSearcher is the provider call PolygonNews depends on.
type NewsSearcher interface {
	News(ctx context.Context, p polygon.NewsParams) (*polygon.NewsResponse, error)
}

// PolygonNews reads articles from the provider's news search, asking for
// everything published on or after midnight UTC of the day.
type PolygonNews struct {
	client NewsSearcher
	limit  int
	log    *log.Logger
}

// NewPolygonNews creates the provider-backed source. limit <= 0 uses the
// provider default of 10.
func NewPolygonNews(client NewsSearcher, limit int, l *log.Logger) *PolygonNews {
	return &PolygonNews{client: client, limit: limit, log: l}
}

func (p *PolygonNews) Name() string { return "polygon" }

// Articles implements ArticleSource. A non-OK status is reported as
// *ErrValidationFailed; malformed items are logged and dropped.
func (p *PolygonNews) Articles(ctx context.Context, sym models.Symbol, day string) ([]models.Article, error) {
	resp, err := p.client.News(ctx, polygon.NewsParams{
		Ticker:       sym.Ticker,
		PublishedUTC: utils.StartOfDayUTC(day),
		Operator:     polygon.OpGTE,
		Limit:        p.limit,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &ErrValidationFailed{Ticker: sym.Ticker, Status: resp.Status, Message: resp.Reason()}
	}

	out := make([]models.Article, 0, len(resp.Results))
	for _, item := range resp.Results {
		a, err := ArticleFromNewsItem(item)
		if err != nil {
			p.log.Warn().Err(err).Str("ticker", sym.Ticker).Str("date", day).Msg("skipping news item")
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// ArticleFromNewsItem normalises a provider news item. Missing text fields
// become "", a missing author or publisher becomes "Unknown", keywords are
// joined with ", ". Items without a URL or a parseable publish time are rejected.
func ArticleFromNewsItem(item polygon.NewsItem) (models.Article, error) {
	if item.ArticleURL == "" {
		return models.Article{}, fmt.Errorf("news item %q has no article_url", item.ID)
	}
	published, err := utils.PublishedDate(item.PublishedUTC)
	if err != nil {
		return models.Article{}, fmt.Errorf("news item %s: %w", item.ArticleURL, err)
	}

	author := item.Author
	if author == "" {
		author = models.UnknownName
	}
	publisher := models.UnknownName
	if item.Publisher != nil && item.Publisher.Name != "" {
		publisher = item.Publisher.Name
	}

	return models.Article{
		PublishedOn: published,
		Title:       item.Title,
		Description: item.Description,
		URL:         item.ArticleURL,
		Author:      author,
		Keywords:    models.JoinKeywords(item.Keywords),
		Publisher:   publisher,
		ImageURL:    item.ImageURL,
		AMPURL:      item.AMPURL,
	}, nil
}
