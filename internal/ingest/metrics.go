package ingest

import (
	"context"

	"github.com/phuslu/log"

	"github.com/seenimoa/sastocks/internal/polygon"
	"github.com/seenimoa/sastocks/pkg/models"
)

// MetricStore is the persistence MetricsIngestor needs.
type MetricStore interface {
	SymbolLister
	UpsertDailyMetric(ctx context.Context, m *models.DailyMetric) (bool, error)
}

// MetricsIngestor stores one DailyMetric per symbol and day, built from the
// RSI, MACD and daily open/close endpoints.
type MetricsIngestor struct {
	client MarketData
	store  MetricStore
	runner runner
}

// NewMetricsIngestor wires a MetricsIngestor.
func NewMetricsIngestor(client MarketData, st MetricStore, concurrency int, l *log.Logger) *MetricsIngestor {
	return &MetricsIngestor{
		client: client,
		store:  st,
		runner: runner{symbols: st, concurrency: concurrency, log: l},
	}
}

// PullMetrics upserts metrics for every tracked symbol on every day in
// [start, end], ascending. Re-running a range overwrites the stored rows.
func (m *MetricsIngestor) PullMetrics(ctx context.Context, start, end string) (*Report, error) {
	return m.runner.run(ctx, "finance", start, end, m.pullSymbolDay)
}

// pullSymbolDay fetches all three series before writing anything, so a
// failing call never leaves a partial row behind.
func (m *MetricsIngestor) pullSymbolDay(ctx context.Context, l *log.Logger, sym models.Symbol, day string, t *tally) error {
	rsi, err := m.client.RSI(ctx, polygon.RSIParams{Ticker: sym.Ticker, Timestamp: day})
	if err != nil {
		return err
	}
	if !rsi.OK() {
		return &ErrValidationFailed{Ticker: sym.Ticker, Status: rsi.Status, Message: rsi.Reason()}
	}

	macd, err := m.client.MACD(ctx, polygon.MACDParams{Ticker: sym.Ticker, Timestamp: day})
	if err != nil {
		return err
	}
	if !macd.OK() {
		return &ErrValidationFailed{Ticker: sym.Ticker, Status: macd.Status, Message: macd.Reason()}
	}

	bar, err := m.client.DailyOpenClose(ctx, sym.Ticker, day)
	if err != nil {
		return err
	}
	if !bar.OK() {
		return &ErrValidationFailed{Ticker: sym.Ticker, Status: bar.Status, Message: bar.Reason()}
	}

	metric := &models.DailyMetric{
		SymbolID:   sym.ID,
		MetricDate: day,
		Open:       bar.Open,
		High:       bar.High,
		Low:        bar.Low,
		Close:      bar.Close,
		AfterHours: bar.AfterHours,
		Volume:     bar.Volume,
		RSI:        rsi.FirstValue(),
		MACD:       macd.FirstValue(),
	}
	created, err := m.store.UpsertDailyMetric(ctx, metric)
	if err != nil {
		return err
	}

	if created {
		t.add(func(r *Report) { r.Created++ })
	} else {
		t.add(func(r *Report) { r.Updated++ })
	}
	l.Info().
		Bool("created", created).
		Str("close", metric.Close.Decimal.String()).
		Msg("daily metric stored")
	return nil
}
