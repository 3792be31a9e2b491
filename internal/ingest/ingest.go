// Package ingest walks a date range over every tracked symbol and upserts
// provider data into the store. Each (symbol, day) pair is processed as an
// isolated unit: its failure is logged and counted, and the run moves on.
package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/sastocks/internal/logging"
	"github.com/seenimoa/sastocks/internal/polygon"
	"github.com/seenimoa/sastocks/internal/store"
	"github.com/seenimoa/sastocks/pkg/models"
	"github.com/seenimoa/sastocks/pkg/utils"
)

// MarketData is the provider surface the ingestors depend on.
// *polygon.Client satisfies it.
type MarketData interface {
	TickerDetails(ctx context.Context, ticker string) (*polygon.TickerDetailsResponse, error)
	News(ctx context.Context, p polygon.NewsParams) (*polygon.NewsResponse, error)
	DailyOpenClose(ctx context.Context, ticker, date string) (*polygon.DailyOpenCloseResponse, error)
	RSI(ctx context.Context, p polygon.RSIParams) (*polygon.IndicatorResponse, error)
	MACD(ctx context.Context, p polygon.MACDParams) (*polygon.IndicatorResponse, error)
}

// SymbolLister loads the tracked symbols in a stable order.
type SymbolLister interface {
	ListSymbols(ctx context.Context, f store.SymbolFilter) ([]models.Symbol, error)
}

// Failure records one symbol-day that could not be processed.
type Failure struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date"`
	Err    string `json:"error"`
}

// Report summarises an ingestion run.
type Report struct {
	RunID      string        `json:"run_id"`
	Days       int           `json:"days"`
	SymbolDays int           `json:"symbol_days"`
	Created    int           `json:"created"`
	Updated    int           `json:"updated"`
	Skipped    int           `json:"skipped"`
	Failures   []Failure     `json:"failures,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Failed returns the number of symbol-days that did not complete.
func (r *Report) Failed() int { return len(r.Failures) }

// tally collects outcomes from concurrent symbol-day units.
type tally struct {
	mu     sync.Mutex
	report Report
}

func (t *tally) add(fn func(r *Report)) {
	t.mu.Lock()
	fn(&t.report)
	t.mu.Unlock()
}

func (t *tally) fail(sym models.Symbol, day string, err error) {
	t.add(func(r *Report) {
		r.Failures = append(r.Failures, Failure{Ticker: sym.Ticker, Date: day, Err: err.Error()})
	})
}

// runner drives the day × symbol iteration shared by the news and metrics
// ingestors.
type runner struct {
	symbols     SymbolLister
	concurrency int
	log         *log.Logger
}

// unitFunc processes one symbol-day. Errors it returns are logged and
// counted as failures; they never stop the run.
type unitFunc func(ctx context.Context, l *log.Logger, sym models.Symbol, day string, t *tally) error

// run walks [start, end] ascending. Within a day, symbols are processed in
// store order, up to r.concurrency at a time. Only a malformed range or a
// cancelled ctx ends the run early.
func (r *runner) run(ctx context.Context, job, start, end string, unit unitFunc) (*Report, error) {
	days, err := utils.DaysInRange(start, end)
	if err != nil {
		return nil, &polygon.ErrInvalidInput{Param: "date range", Value: start + ".." + end, Reason: err.Error()}
	}

	began := time.Now()
	runID := uuid.NewString()
	l := logging.With(r.log, "run_id", runID, "job", job)
	t := &tally{report: Report{RunID: runID}}

	l.Info().Str("start", start).Str("end", end).Int("days", len(days)).Msg("run started")

	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return r.finish(l, t, began), err
		}
		t.add(func(rep *Report) { rep.Days++ })

		syms, err := r.symbols.ListSymbols(ctx, store.SymbolFilter{})
		if err != nil {
			l.Error().Err(err).Str("date", day).Msg("loading symbols failed, skipping day")
			continue
		}

		g := new(errgroup.Group)
		g.SetLimit(max(r.concurrency, 1))
		for _, sym := range syms {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				// A started unit finishes even if ctx is cancelled meanwhile.
				uctx := context.WithoutCancel(ctx)
				ul := logging.With(l, "ticker", sym.Ticker, "date", day)
				t.add(func(rep *Report) { rep.SymbolDays++ })
				if err := unit(uctx, ul, sym, day, t); err != nil {
					ul.Error().Err(err).Msg("symbol-day failed")
					t.fail(sym, day, err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	return r.finish(l, t, began), ctx.Err()
}

func (r *runner) finish(l *log.Logger, t *tally, began time.Time) *Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	rep := t.report
	rep.Duration = time.Since(began)
	l.Info().
		Int("days", rep.Days).
		Int("symbol_days", rep.SymbolDays).
		Int("created", rep.Created).
		Int("updated", rep.Updated).
		Int("skipped", rep.Skipped).
		Int("failed", len(rep.Failures)).
		Dur("duration", rep.Duration).
		Msg("run finished")
	return &rep
}
