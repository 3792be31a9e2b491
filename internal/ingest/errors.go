package ingest

import "fmt"

// ErrValidationFailed is returned when the provider answers successfully but
// flags the symbol or query as not OK (unknown ticker, plan limits, ...).
// Nothing is written when it occurs.
type ErrValidationFailed struct {
	Ticker  string
	Status  string
	Message string
}

func (e *ErrValidationFailed) Error() string {
	msg := fmt.Sprintf("ingest: provider rejected %s: status %s", e.Ticker, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}
