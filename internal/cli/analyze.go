package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/realcheck/internal/authority"
	"github.com/ppiankov/realcheck/internal/model"
	"github.com/ppiankov/realcheck/internal/pipeline"
	"github.com/ppiankov/realcheck/internal/store"
)

var (
	outJSON        string
	outMD          string
	textFile       string
	description    string
	timeout        time.Duration
	userAgent      string
	noCache        bool
	noFooter       bool
	noSave         bool
	insecureTLS    bool
	httpProxy      string
	httpsProxy     string
	searchName     string
	classifierName string
	llmProvider    string
	llmModel       string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Analyze a single article URL",
	Long: `Analyze fetches an article and:
- Estimates how likely the text is machine-generated
- Extracts up to six factual claims
- Searches the web for supporting and debunking evidence per claim
- Combines both signals into an overall verdict

Use --text-file when the site blocks automated requests; the URL is
then only recorded on the report.

Example:
  realcheck analyze https://apnews.com/article/example
  realcheck analyze https://example.com --json report.json --md report.md
  realcheck analyze https://paywalled.example --text-file article.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	analyzeCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the report to the configured store")

	// Input flags
	analyzeCmd.Flags().StringVar(&textFile, "text-file", "", "analyze text from this file instead of fetching (- for stdin)")
	analyzeCmd.Flags().StringVar(&description, "description", "", "free-form note recorded on the report")

	addRunFlags(analyzeCmd)
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")
}

// addRunFlags registers the flags shared by analyze and batch
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default: browser-like)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch and search)")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	cmd.Flags().StringVar(&searchName, "search", "", "search provider (duckduckgo, serpapi, none)")
	cmd.Flags().StringVar(&classifierName, "classifier", "", "authorship classifier (huggingface, llm, none)")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "enable LLM summary with provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

// applyRunFlags copies explicitly set flags over the loaded configuration
func applyRunFlags(cmd *cobra.Command, cfg *model.Config) error {
	flags := cmd.Flags()
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if flags.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if flags.Changed("search") {
		cfg.Search.Provider = searchName
	}
	if flags.Changed("classifier") {
		cfg.Classifier.Provider = classifierName
	}
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.StrictEvidence = true
		applyEnvKeys(cfg)
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}

	if err := requireLLMKey(cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	url := args[0]

	cfg, err := setup()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	req := pipeline.Request{URL: url, Description: description}
	if textFile != "" {
		text, err := readText(textFile)
		if err != nil {
			return err
		}
		req.ManualText = text
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", url)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Classifier: %s, search: %s\n", cfg.Classifier.Provider, cfg.Search.Provider)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	report, err := p.Run(ctx, req)
	if err != nil {
		if fe, ok := asFetchError(err); ok {
			fmt.Fprintln(os.Stderr, fe.Message())
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ AI score %.2f over %d chunks\n", report.Authorship.Probability, report.Authorship.Chunks)
		fmt.Fprintf(os.Stderr, "✓ Checked %d claims\n", len(report.Claims))
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM summary using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter, authority.NewClassifier(&cfg.Authority))
	if err := renderer.RenderReport(os.Stdout, report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if !noSave {
		saveReport(cfg, report)
	}
	return nil
}

// saveReport persists report to the configured store. Failures are
// reported but do not fail the command.
func saveReport(cfg *model.Config, report *model.Report) {
	reports, err := store.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: report store unavailable: %v\n", err)
		return
	}
	if reports == nil {
		return
	}
	defer func() { _ = reports.Close() }()

	location, err := reports.Save(context.Background(), report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save report: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "✓ Saved report: %s\n", location)
}

func asFetchError(err error) (*pipeline.FetchError, bool) {
	var fe *pipeline.FetchError
	ok := errors.As(err, &fe)
	return fe, ok
}

func readText(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return string(data), nil
}
