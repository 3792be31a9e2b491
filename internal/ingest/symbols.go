package ingest

import (
	"context"
	"errors"
	"strings"

	"github.com/phuslu/log"

	"github.com/seenimoa/sastocks/internal/polygon"
	"github.com/seenimoa/sastocks/pkg/models"
)

// SymbolStore is the persistence SymbolIngestor needs.
type SymbolStore interface {
	SymbolByTicker(ctx context.Context, ticker string) (*models.Symbol, error)
	CreateSymbol(ctx context.Context, sym *models.Symbol) error
}

// AddOutcome tells whether AddSymbol wrote a new row.
type AddOutcome string

const (
	OutcomeCreated       AddOutcome = "created"
	OutcomeAlreadyExists AddOutcome = "already_exists"
)

// AddResult is returned by a successful AddSymbol.
type AddResult struct {
	Outcome AddOutcome
	Symbol  *models.Symbol
}

// SymbolIngestor registers new tracked symbols after checking them with the provider.
type SymbolIngestor struct {
	client MarketData
	store  SymbolStore
	log    *log.Logger
}

// NewSymbolIngestor wires a SymbolIngestor.
func NewSymbolIngestor(client MarketData, st SymbolStore, l *log.Logger) *SymbolIngestor {
	return &SymbolIngestor{client: client, store: st, log: l}
}

// AddSymbol validates code with the provider and stores it unless it is
// already tracked. Calling it twice for the same code creates one row.
func (s *SymbolIngestor) AddSymbol(ctx context.Context, code string) (*AddResult, error) {
	resp, err := s.client.TickerDetails(ctx, code)
	if err != nil {
		var remote *polygon.ErrRemote
		if errors.As(err, &remote) && remote.NotFound() {
			err = &ErrValidationFailed{Ticker: code, Status: "NOT_FOUND", Message: remote.Body}
		}
		s.log.Error().Err(err).Str("ticker", code).Msg("ticker lookup failed")
		return nil, err
	}
	if !resp.OK() {
		err := &ErrValidationFailed{Ticker: code, Status: resp.Status, Message: resp.Reason()}
		s.log.Error().Err(err).Str("ticker", code).Msg("ticker rejected by provider")
		return nil, err
	}

	ticker := strings.ToUpper(code)
	existing, err := s.store.SymbolByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.log.Info().Str("ticker", ticker).Msg("ticker already exists")
		return &AddResult{Outcome: OutcomeAlreadyExists, Symbol: existing}, nil
	}

	name := models.UnknownName
	if resp.Results != nil && resp.Results.Name != "" {
		name = resp.Results.Name
	}
	sym := &models.Symbol{Ticker: ticker, Name: name}
	if err := s.store.CreateSymbol(ctx, sym); err != nil {
		// A concurrent AddSymbol may have won the unique index.
		if again, lookupErr := s.store.SymbolByTicker(ctx, ticker); lookupErr == nil && again != nil {
			return &AddResult{Outcome: OutcomeAlreadyExists, Symbol: again}, nil
		}
		s.log.Error().Err(err).Str("ticker", ticker).Msg("storing ticker failed")
		return nil, err
	}

	s.log.Info().Str("ticker", ticker).Str("name", name).Msg("ticker added")
	return &AddResult{Outcome: OutcomeCreated, Symbol: sym}, nil
}
