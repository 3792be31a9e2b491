package polygon

import (
	"fmt"
)

// ErrInvalidInput is returned before any request is sent when a ticker,
// date, operator or timestamp argument is malformed.
type ErrInvalidInput struct {
	Param  string
	Value  string
	Reason string
}

func (e *ErrInvalidInput) Error() string {
	return fmt.Sprintf("polygon: invalid %s %q: %s", e.Param, e.Value, e.Reason)
}

// ErrRemote is returned when the provider answers with a non-2xx status, the
// transport fails, or the body lacks the structure the caller depends on.
type ErrRemote struct {
	Endpoint   string // e.g., "tickers", "news", "open-close", "rsi", "macd"
	StatusCode int    // 0 when no response was received
	Status     string
	Body       string // first bodyPreviewLimit bytes of the response
	Detail     string
	Err        error
}

func (e *ErrRemote) Error() string {
	msg := "polygon: " + e.Endpoint
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
		if e.Body != "" {
			msg += ": " + e.Body
		}
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ErrRemote) Unwrap() error { return e.Err }

// NotFound reports whether the provider answered 404.
func (e *ErrRemote) NotFound() bool { return e.StatusCode == 404 }
