package sentiment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/seenimoa/sastocks/internal/logging"
	"github.com/seenimoa/sastocks/internal/store"
	"github.com/seenimoa/sastocks/pkg/models"
)

// Store is the persistence the Annotator needs.
type Store interface {
	ListArticles(ctx context.Context, f store.ArticleFilter) ([]models.Article, error)
	SymbolByID(ctx context.Context, id uint) (*models.Symbol, error)
	SetArticleSentiment(ctx context.Context, id uint, label, rationale string) error
}

// Options narrows an annotation run.
type Options struct {
	Term  string // defaults to "short"
	Limit int    // 0 labels every unlabelled article
}

// Report summarises an annotation run.
type Report struct {
	RunID    string         `json:"run_id"`
	Total    int            `json:"total"`
	Labelled int            `json:"labelled"`
	Failed   int            `json:"failed"`
	ByLabel  map[string]int `json:"by_label"`
	Duration time.Duration  `json:"duration"`
}

// Annotator labels articles that have no sentiment yet.
type Annotator struct {
	classifier Classifier
	store      Store
	log        *log.Logger
}

// NewAnnotator wires an Annotator.
func NewAnnotator(c Classifier, st Store, l *log.Logger) *Annotator {
	return &Annotator{classifier: c, store: st, log: l}
}

// Annotate classifies each unlabelled article's title against its owning
// symbol's name and stores the verdict. A failure on one article is logged
// and the run continues; already-labelled articles are never touched.
func (a *Annotator) Annotate(ctx context.Context, opts Options) (*Report, error) {
	if opts.Term == "" {
		opts.Term = "short"
	}
	began := time.Now()
	rep := &Report{RunID: uuid.NewString(), ByLabel: map[string]int{}}
	l := logging.With(a.log, "run_id", rep.RunID, "job", "sentiment", "classifier", a.classifier.Name())

	articles, err := a.store.ListArticles(ctx, store.ArticleFilter{Unlabelled: true, Limit: opts.Limit})
	if err != nil {
		return nil, err
	}
	rep.Total = len(articles)
	l.Info().Int("articles", len(articles)).Str("term", opts.Term).Msg("run started")

	names := map[uint]string{}
	for _, art := range articles {
		if err := ctx.Err(); err != nil {
			rep.Duration = time.Since(began)
			return rep, err
		}
		al := logging.With(l, "url", art.URL)

		company, ok := names[art.SymbolID]
		if !ok {
			company = models.UnknownName
			sym, err := a.store.SymbolByID(ctx, art.SymbolID)
			if err != nil {
				al.Error().Err(err).Uint64("symbol_id", uint64(art.SymbolID)).Msg("loading symbol failed")
				rep.Failed++
				continue
			}
			if sym != nil && sym.Name != "" {
				company = sym.Name
			}
			names[art.SymbolID] = company
		}

		v, err := a.classifier.Classify(ctx, art.Title, company, opts.Term)
		if err != nil {
			al.Error().Err(err).Msg("classification failed")
			rep.Failed++
			continue
		}
		if err := a.store.SetArticleSentiment(ctx, art.ID, v.Label, v.Rationale); err != nil {
			al.Error().Err(err).Msg("storing sentiment failed")
			rep.Failed++
			continue
		}
		rep.Labelled++
		rep.ByLabel[v.Label]++
		al.Debug().Str("label", v.Label).Msg("article labelled")
	}

	rep.Duration = time.Since(began)
	l.Info().
		Int("labelled", rep.Labelled).
		Int("failed", rep.Failed).
		Dur("duration", rep.Duration).
		Msg("run finished")
	return rep, nil
}
