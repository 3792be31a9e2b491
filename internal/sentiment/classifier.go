// Package sentiment labels stored news articles as good (YES), bad (NO) or
// uncertain (UNKNOWN) news for the stock price of the article's company.
package sentiment

import (
	"context"
	"fmt"
)

// Verdict is a classifier's answer for one headline.
type Verdict struct {
	Label     string `json:"sentiment"` // models.SentimentYes, SentimentNo or SentimentUnknown
	Rationale string `json:"reason"`
}

// Classifier judges whether headline is good news for company over term
// (e.g., "short", "long").
type Classifier interface {
	Name() string
	Classify(ctx context.Context, headline, company, term string) (Verdict, error)
}

// ErrUnparseable is returned when a model reply carries no usable label.
type ErrUnparseable struct {
	Reply string
}

func (e *ErrUnparseable) Error() string {
	reply := e.Reply
	if len(reply) > 200 {
		reply = reply[:200] + "..."
	}
	return fmt.Sprintf("sentiment: no label in reply %q", reply)
}
