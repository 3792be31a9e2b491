package sentiment

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/seenimoa/sastocks/internal/llm"
	"github.com/seenimoa/sastocks/pkg/models"
)

const systemPrompt = `You are a financial expert with stock recommendation experience.
Answer "YES" if the headline is good news, "NO" if it is bad news, or "UNKNOWN" if uncertain.
Then give one short and concise sentence explaining why.

Constraints:
- Respond only with a JSON object of the form {"sentiment": "YES|NO|UNKNOWN", "reason": "..."}.
- Do not add anything before or after the JSON object.
- Do not make anything up.`

// LLMClassifier asks a chat model for a verdict.
type LLMClassifier struct {
	provider llm.Provider
	opts     llm.ChatOptions
}

// NewLLMClassifier wraps provider. opts.JSON is always set.
func NewLLMClassifier(provider llm.Provider, opts llm.ChatOptions) *LLMClassifier {
	opts.JSON = true
	return &LLMClassifier{provider: provider, opts: opts}
}

func (c *LLMClassifier) Name() string { return "llm:" + c.provider.Name() }

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, headline, company, term string) (Verdict, error) {
	opts := c.opts
	resp, err := c.provider.Chat(ctx, []llm.Message{
		llm.SystemMessage(systemPrompt),
		llm.UserMessage(userPrompt(headline, company, term)),
	}, &opts)
	if err != nil {
		return Verdict{}, err
	}
	return ParseReply(resp.Content)
}

func userPrompt(headline, company, term string) string {
	if term == "" {
		term = "short"
	}
	return "Is this headline good or bad for the stock price of " + company +
		" in the " + term + " term?\nHeadline: " + headline
}

// ParseReply extracts a Verdict from a model reply. It accepts a JSON object
// (optionally inside a code fence or surrounded by prose) and falls back to a
// bare label on the first line followed by the rationale.
func ParseReply(reply string) (Verdict, error) {
	text := strings.TrimSpace(reply)

	if i, j := strings.Index(text, "{"), strings.LastIndex(text, "}"); i >= 0 && j > i {
		var v Verdict
		if err := json.Unmarshal([]byte(text[i:j+1]), &v); err == nil {
			if label, ok := normaliseLabel(v.Label); ok {
				return Verdict{Label: label, Rationale: strings.TrimSpace(v.Rationale)}, nil
			}
		}
	}

	first, rest, _ := strings.Cut(text, "\n")
	if label, ok := normaliseLabel(first); ok {
		return Verdict{Label: label, Rationale: strings.TrimSpace(rest)}, nil
	}
	return Verdict{}, &ErrUnparseable{Reply: reply}
}

func normaliseLabel(s string) (string, bool) {
	s = strings.ToUpper(strings.Trim(strings.TrimSpace(s), `"'“”.:`))
	if models.ValidSentiment(s) {
		return s, true
	}
	return "", false
}
