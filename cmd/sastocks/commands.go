package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/sastocks/api"
	"github.com/seenimoa/sastocks/internal/config"
	"github.com/seenimoa/sastocks/internal/feeds"
	"github.com/seenimoa/sastocks/internal/infra"
	"github.com/seenimoa/sastocks/internal/ingest"
	"github.com/seenimoa/sastocks/internal/llm"
	"github.com/seenimoa/sastocks/internal/sentiment"
	"github.com/seenimoa/sastocks/internal/store"
	"github.com/seenimoa/sastocks/pkg/utils"
)

// --- Ticker Commands ---

var tickerCmd = &cobra.Command{
	Use:   "ticker",
	Short: "Manage tracked ticker symbols",
}

var tickerAddCmd = &cobra.Command{
	Use:   "add [symbol]",
	Short: "Validate a ticker with the provider and start tracking it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newPolygonClient()
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := ingest.NewSymbolIngestor(client, st, logger).AddSymbol(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		switch res.Outcome {
		case ingest.OutcomeCreated:
			fmt.Printf("Added %s (%s)\n", res.Symbol.Ticker, res.Symbol.Name)
		case ingest.OutcomeAlreadyExists:
			fmt.Printf("%s already exists\n", res.Symbol.Ticker)
		}
		return nil
	},
}

var tickerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked ticker symbols",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		syms, err := st.ListSymbols(cmd.Context(), store.SymbolFilter{})
		if err != nil {
			return err
		}
		if len(syms) == 0 {
			fmt.Println("No tickers tracked yet. Add one with: sastocks ticker add <symbol>")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTICKER\tNAME\tADDED")
		for _, s := range syms {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, s.Ticker, s.Name, utils.FormatDate(s.CreatedAt))
		}
		return tw.Flush()
	},
}

func init() {
	tickerCmd.AddCommand(tickerAddCmd)
	tickerCmd.AddCommand(tickerListCmd)
}

// --- Finance Command ---

var financeCmd = &cobra.Command{
	Use:   "finance",
	Short: "Pull daily price and indicator metrics for every tracked ticker",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := dateFlags(cmd)
		if err != nil {
			return err
		}
		client, err := newPolygonClient()
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		rep, err := ingest.NewMetricsIngestor(client, st, cfg.Ingest.Concurrency, logger).PullMetrics(cmd.Context(), start, end)
		if err != nil {
			return err
		}
		printReport("finance", rep)
		return nil
	},
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Pull news articles for every tracked ticker",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := dateFlags(cmd)
		if err != nil {
			return err
		}
		source, _ := cmd.Flags().GetString("source")

		var src ingest.ArticleSource
		switch source {
		case "polygon":
			client, err := newPolygonClient()
			if err != nil {
				return err
			}
			src = ingest.NewPolygonNews(client, cfg.Ingest.NewsLimit, logger)
		case "feed":
			src = feeds.New(feeds.Options{
				URLTemplate: cfg.Feeds.URLTemplate,
				Timeout:     cfg.Feeds.Timeout,
				Limiter:     infra.NewRateLimiter(cfg.Feeds.RateLimit, cfg.Feeds.RateWindow),
			}, logger)
		default:
			return fmt.Errorf("unknown news source %q (want polygon or feed)", source)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		rep, err := ingest.NewNewsIngestor(src, st, cfg.Ingest.Concurrency, logger).PullNews(cmd.Context(), start, end)
		if err != nil {
			return err
		}
		printReport("news", rep)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{financeCmd, newsCmd} {
		c.Flags().String("start-date", "", "first day to pull, YYYY-MM-DD (default: yesterday)")
		c.Flags().String("end-date", "", "last day to pull, YYYY-MM-DD (default: today)")
	}
	newsCmd.Flags().String("source", "polygon", "article source: polygon or feed")
}

// --- Sentiment Command ---

var sentimentCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Label unlabelled articles as good or bad news for their stock",
	RunE: func(cmd *cobra.Command, args []string) error {
		term, _ := cmd.Flags().GetString("term")
		if term == "" {
			term = cfg.Sentiment.Term
		}
		limit, _ := cmd.Flags().GetInt("limit")
		if !cmd.Flags().Changed("limit") {
			limit = cfg.Sentiment.BatchSize
		}
		kind, _ := cmd.Flags().GetString("classifier")
		if kind == "" {
			kind = cfg.Sentiment.Classifier
		}

		var classifier sentiment.Classifier
		switch kind {
		case "keyword":
			classifier = sentiment.KeywordClassifier{}
		case "llm":
			provider, err := llm.New(llm.Config{
				Provider:  cfg.LLM.Provider,
				APIKey:    cfg.LLM.OpenAIKey,
				OpenAIURL: cfg.LLM.OpenAIURL,
				OllamaURL: cfg.LLM.OllamaURL,
				Model:     cfg.LLM.Model,
				Timeout:   cfg.LLM.Timeout,
			})
			if err != nil {
				if errors.Is(err, llm.ErrNoAPIKey) {
					return fmt.Errorf("%w (config llm.openai_key or %s), or use --classifier keyword", err, config.EnvOpenAIKey)
				}
				return err
			}
			classifier = sentiment.NewLLMClassifier(provider, llm.ChatOptions{
				Model:       cfg.LLM.Model,
				Temperature: cfg.LLM.Temperature,
				MaxTokens:   cfg.LLM.MaxTokens,
			})
		default:
			return fmt.Errorf("unknown classifier %q (want llm or keyword)", kind)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		rep, err := sentiment.NewAnnotator(classifier, st, logger).Annotate(cmd.Context(), sentiment.Options{Term: term, Limit: limit})
		if err != nil {
			return err
		}
		fmt.Printf("sentiment: %d/%d labelled, %d failed (run %s, %v)\n",
			rep.Labelled, rep.Total, rep.Failed, rep.RunID, rep.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	sentimentCmd.Flags().String("term", "", "investment horizon the headline is judged for (default from config)")
	sentimentCmd.Flags().Int("limit", 0, "label at most this many articles (0 = all)")
	sentimentCmd.Flags().String("classifier", "", "llm or keyword (default from config)")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.API.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.API.Port = port
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		srv := api.NewServer(cfg.API, st, logger, version)
		return srv.ListenAndServe(cmd.Context(), net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port)))
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (default from config)")
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, credentials and store contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  sastocks - System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (UTC):    %s\n", time.Now().UTC().Format(time.RFC3339))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Database:      %s (%s)\n", cfg.Database.Driver, cfg.Database.DSN)
		fmt.Printf("    Polygon:       %s (timeout %v)\n", cfg.Polygon.BaseURL, cfg.Polygon.Timeout)
		fmt.Printf("    Concurrency:   %d\n", cfg.Ingest.Concurrency)
		fmt.Printf("    Sentiment:     %s (LLM %s, model %s)\n", cfg.Sentiment.Classifier, cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}
		fmt.Println()

		fmt.Println("  Store:")
		st, err := openStore()
		if err != nil {
			fmt.Printf("    unavailable: %v\n", err)
		} else {
			defer st.Close()
			counts, err := st.Counts(cmd.Context())
			if err != nil {
				fmt.Printf("    unavailable: %v\n", err)
			} else {
				fmt.Printf("    Symbols:       %d\n", counts.Symbols)
				fmt.Printf("    Articles:      %d\n", counts.Articles)
				fmt.Printf("    Daily metrics: %d\n", counts.Metrics)
			}
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Helpers ---

// dateFlags reads --start-date/--end-date, defaulting to yesterday and today (UTC).
func dateFlags(cmd *cobra.Command) (start, end string, err error) {
	defStart, defEnd := utils.DefaultRange(time.Now().UTC())
	start, _ = cmd.Flags().GetString("start-date")
	end, _ = cmd.Flags().GetString("end-date")
	if start == "" {
		start = defStart
	}
	if end == "" {
		end = defEnd
	}
	for _, d := range []string{start, end} {
		if !utils.IsDate(d) {
			return "", "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", d)
		}
	}
	return start, end, nil
}

func printReport(job string, rep *ingest.Report) {
	fmt.Printf("%s: %d day(s), %d symbol-day(s): %d created, %d updated, %d skipped, %d failed (run %s, %v)\n",
		job, rep.Days, rep.SymbolDays, rep.Created, rep.Updated, rep.Skipped, rep.Failed(),
		rep.RunID, rep.Duration.Round(time.Millisecond))
	for _, f := range rep.Failures {
		fmt.Printf("  ! %s %s: %s\n", f.Ticker, f.Date, f.Err)
	}
}
