package sentiment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/seenimoa/sastocks/internal/llm"
	"github.com/seenimoa/sastocks/internal/logging"
	"github.com/seenimoa/sastocks/internal/store"
	"github.com/seenimoa/sastocks/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

type fakeProvider struct {
	reply    string
	err      error
	messages []llm.Message
	opts     *llm.ChatOptions
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Chat(_ context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.Response, error) {
	f.messages = messages
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.reply}, nil
}

// scripted returns a fixed verdict per headline and fails on "boom".
type scripted map[string]Verdict

func (scripted) Name() string { return "scripted" }

func (s scripted) Classify(_ context.Context, headline, company, term string) (Verdict, error) {
	if headline == "boom" {
		return Verdict{}, errors.New("model unavailable")
	}
	v, ok := s[headline]
	if !ok {
		return Verdict{Label: models.SentimentUnknown, Rationale: company + "/" + term}, nil
	}
	return v, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

// ════════════════════════════════════════════════════════════════════
// ParseReply
// ════════════════════════════════════════════════════════════════════

func TestParseReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Verdict
	}{
		{"json", `{"sentiment":"YES","reason":"Revenue beat."}`, Verdict{"YES", "Revenue beat."}},
		{"lowercase label", `{"sentiment":"no","reason":" Guidance cut. "}`, Verdict{"NO", "Guidance cut."}},
		{"code fence", "```json\n{\"sentiment\": \"UNKNOWN\", \"reason\": \"Mixed.\"}\n```", Verdict{"UNKNOWN", "Mixed."}},
		{"prose around json", `Sure: {"sentiment":"YES","reason":"x"} hope that helps`, Verdict{"YES", "x"}},
		{"first line label", "YES\nStrong demand for the new product.", Verdict{"YES", "Strong demand for the new product."}},
		{"quoted first line", "\"NO\".\nLawsuit risk.", Verdict{"NO", "Lawsuit risk."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReply(tt.reply)
			if err != nil {
				t.Fatalf("ParseReply: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseReplyRejects(t *testing.T) {
	for _, reply := range []string{"", "Maybe?", `{"sentiment":"POSITIVE","reason":"x"}`} {
		_, err := ParseReply(reply)
		var pe *ErrUnparseable
		if !errors.As(err, &pe) {
			t.Errorf("ParseReply(%q): got %v, want *ErrUnparseable", reply, err)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// Classifiers
// ════════════════════════════════════════════════════════════════════

func TestLLMClassifierPrompt(t *testing.T) {
	p := &fakeProvider{reply: `{"sentiment":"YES","reason":"Record quarter."}`}
	c := NewLLMClassifier(p, llm.ChatOptions{Model: "gpt-4o-mini", MaxTokens: 128})

	v, err := c.Classify(context.Background(), "Apple posts record quarter", "Apple Inc.", "long")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if v.Label != models.SentimentYes || v.Rationale != "Record quarter." {
		t.Errorf("verdict: got %+v", v)
	}
	if len(p.messages) != 2 || p.messages[0].Role != llm.RoleSystem {
		t.Fatalf("messages: got %+v", p.messages)
	}
	user := p.messages[1].Content
	for _, want := range []string{"Apple Inc.", "long term", "Headline: Apple posts record quarter"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q: %q", want, user)
		}
	}
	if p.opts == nil || !p.opts.JSON || p.opts.Model != "gpt-4o-mini" {
		t.Errorf("options: got %+v", p.opts)
	}
	if c.Name() != "llm:fake" {
		t.Errorf("Name: got %q", c.Name())
	}
}

func TestLLMClassifierPropagatesErrors(t *testing.T) {
	c := NewLLMClassifier(&fakeProvider{err: llm.ErrRateLimit}, llm.ChatOptions{})
	if _, err := c.Classify(context.Background(), "h", "c", ""); !errors.Is(err, llm.ErrRateLimit) {
		t.Errorf("got %v, want ErrRateLimit", err)
	}
}

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		headline string
		want     string
	}{
		{"Apple shares rally on strong growth and record high", models.SentimentYes},
		{"Stocks plunge amid fraud investigation", models.SentimentNo},
		{"Company opens new office in Austin", models.SentimentUnknown},
	}
	for _, tt := range tests {
		v, err := KeywordClassifier{}.Classify(context.Background(), tt.headline, "", "")
		if err != nil {
			t.Fatalf("Classify(%q): %v", tt.headline, err)
		}
		if v.Label != tt.want {
			t.Errorf("Classify(%q): got %q, want %q", tt.headline, v.Label, tt.want)
		}
		if v.Rationale == "" {
			t.Errorf("Classify(%q): empty rationale", tt.headline)
		}
	}
}

func TestScoreHeadlineMatchesSorted(t *testing.T) {
	score, conf, matched := ScoreHeadline("Strong rally")
	if score != 1 {
		t.Errorf("score: got %.2f, want 1", score)
	}
	if conf <= 0.1 {
		t.Errorf("confidence: got %.2f", conf)
	}
	if strings.Join(matched, ",") != "rally,strong" {
		t.Errorf("matched: got %v", matched)
	}
}

// ════════════════════════════════════════════════════════════════════
// Annotator
// ════════════════════════════════════════════════════════════════════

func TestAnnotateLabelsOnlyUnlabelled(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	sym := &models.Symbol{Ticker: "AAPL", Name: "Apple Inc."}
	if err := st.CreateSymbol(ctx, sym); err != nil {
		t.Fatalf("CreateSymbol: %v", err)
	}

	arts := []*models.Article{
		{URL: "https://x/1", Title: "good", PublishedOn: "2021-03-30", SymbolID: sym.ID},
		{URL: "https://x/2", Title: "boom", PublishedOn: "2021-03-30", SymbolID: sym.ID},
		{URL: "https://x/3", Title: "other", PublishedOn: "2021-03-30", SymbolID: sym.ID},
		{URL: "https://x/4", Title: "good", PublishedOn: "2021-03-30", SymbolID: sym.ID,
			SentimentLabel: strPtr(models.SentimentNo), SentimentRationale: strPtr("manual")},
	}
	for _, a := range arts {
		if err := st.CreateArticle(ctx, a); err != nil {
			t.Fatalf("CreateArticle: %v", err)
		}
	}

	c := scripted{"good": {Label: models.SentimentYes, Rationale: "Good news."}}
	rep, err := NewAnnotator(c, st, logging.Discard()).Annotate(ctx, Options{})
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if rep.Total != 3 || rep.Labelled != 2 || rep.Failed != 1 {
		t.Errorf("report: got %+v", rep)
	}
	if rep.ByLabel[models.SentimentYes] != 1 || rep.ByLabel[models.SentimentUnknown] != 1 {
		t.Errorf("by label: got %v", rep.ByLabel)
	}

	check := func(url, wantLabel, wantRationale string) {
		t.Helper()
		a, err := st.ArticleByURL(ctx, url)
		if err != nil || a == nil {
			t.Fatalf("ArticleByURL(%s): a=%v err=%v", url, a, err)
		}
		if wantLabel == "" {
			if a.SentimentLabel != nil {
				t.Errorf("%s: label got %q, want null", url, *a.SentimentLabel)
			}
			return
		}
		if a.SentimentLabel == nil || *a.SentimentLabel != wantLabel {
			t.Errorf("%s: label got %v, want %q", url, a.SentimentLabel, wantLabel)
		}
		if a.SentimentRationale == nil || *a.SentimentRationale != wantRationale {
			t.Errorf("%s: rationale got %v, want %q", url, a.SentimentRationale, wantRationale)
		}
	}
	check("https://x/1", models.SentimentYes, "Good news.")
	check("https://x/2", "", "")
	check("https://x/3", models.SentimentUnknown, "Apple Inc./short")
	check("https://x/4", models.SentimentNo, "manual")
}

func TestAnnotateLimitAndTerm(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	sym := &models.Symbol{Ticker: "MSFT", Name: "Microsoft"}
	if err := st.CreateSymbol(ctx, sym); err != nil {
		t.Fatalf("CreateSymbol: %v", err)
	}
	for _, u := range []string{"https://x/a", "https://x/b", "https://x/c"} {
		if err := st.CreateArticle(ctx, &models.Article{URL: u, Title: "t", PublishedOn: "2021-03-30", SymbolID: sym.ID}); err != nil {
			t.Fatalf("CreateArticle: %v", err)
		}
	}

	rep, err := NewAnnotator(scripted{}, st, logging.Discard()).Annotate(ctx, Options{Term: "long", Limit: 2})
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if rep.Labelled != 2 {
		t.Errorf("labelled: got %d, want 2", rep.Labelled)
	}
	a, _ := st.ArticleByURL(ctx, "https://x/a")
	if a.SentimentRationale == nil || *a.SentimentRationale != "Microsoft/long" {
		t.Errorf("rationale: got %v, want Microsoft/long", a.SentimentRationale)
	}
	left, _ := st.ListArticles(ctx, store.ArticleFilter{Unlabelled: true})
	if len(left) != 1 {
		t.Errorf("unlabelled left: got %d, want 1", len(left))
	}
}
