package sentiment

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/seenimoa/sastocks/pkg/models"
)

// Bullish and bearish phrase weights (lowercase).
var bullishWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "soar": 0.7, "upbeat": 0.5,
	"positive": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"buy": 0.5, "strong": 0.4, "recovery": 0.5, "breakout": 0.6,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5,
	"exceeds": 0.5, "beats estimate": 0.6, "expansion": 0.4,
	"profit": 0.3, "dividend": 0.4, "buyback": 0.5, "raises guidance": 0.6,
}

var bearishWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6, "tumble": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6,
	"sell": 0.5, "weak": 0.4, "decline": 0.5, "loss": 0.4,
	"selloff": 0.7, "fall": 0.4, "correction": 0.5, "lawsuit": 0.5,
	"default": 0.7, "fraud": 0.8, "scam": 0.8, "investigation": 0.5,
	"recall": 0.5, "miss": 0.5, "warning": 0.5, "concern": 0.3,
}

// Net scores beyond ±labelThreshold become YES or NO.
const labelThreshold = 0.1

// ScoreHeadline returns a score in [-1, 1] (bearish to bullish), a
// confidence in [0.1, 0.85] and the phrases that matched, sorted.
func ScoreHeadline(headline string) (score, confidence float64, matched []string) {
	lower := strings.ToLower(headline)

	bull, bear := 0.0, 0.0
	for word, weight := range bullishWords {
		if strings.Contains(lower, word) {
			bull += weight
			matched = append(matched, word)
		}
	}
	for word, weight := range bearishWords {
		if strings.Contains(lower, word) {
			bear += weight
			matched = append(matched, word)
		}
	}
	sort.Strings(matched)

	if len(matched) == 0 {
		return 0, 0.1, nil
	}
	score = (bull - bear) / (bull + bear)
	confidence = math.Min(float64(len(matched))*0.15+0.2, 0.85)
	return score, confidence, matched
}

// KeywordClassifier labels headlines from a fixed lexicon. It needs no
// network and ignores company and term.
type KeywordClassifier struct{}

func (KeywordClassifier) Name() string { return "keyword" }

// Classify implements Classifier.
func (KeywordClassifier) Classify(_ context.Context, headline, _, _ string) (Verdict, error) {
	score, conf, matched := ScoreHeadline(headline)

	label := models.SentimentUnknown
	switch {
	case score > labelThreshold:
		label = models.SentimentYes
	case score < -labelThreshold:
		label = models.SentimentNo
	}

	if len(matched) == 0 {
		return Verdict{Label: label, Rationale: "No sentiment keywords matched."}, nil
	}
	return Verdict{
		Label:     label,
		Rationale: fmt.Sprintf("Score %.2f (confidence %.2f) from: %s.", score, conf, strings.Join(matched, ", ")),
	}, nil
}
