package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/realcheck/internal/authority"
	"github.com/ppiankov/realcheck/internal/pipeline"
	"github.com/ppiankov/realcheck/internal/store"
	"github.com/ppiankov/realcheck/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple article URLs from a file in parallel",
	Long: `Batch analyzes many articles concurrently:
- Read URLs from the input file (one per line, # starts a comment)
- Analyze URLs in parallel with a configurable worker count
- Write one JSON and one Markdown report per URL

Example:
  realcheck batch urls.txt
  realcheck batch urls.txt --concurrency 8 --output-dir ./reports
  realcheck batch urls.txt --timeout 30m --search serpapi`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.batch_workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for reports (default: output.reports_dir)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 20*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	addRunFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := setup()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = cfg.Concurrency.BatchWorkers
	}
	if outputDir == "" {
		outputDir = cfg.Output.ReportsDir
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  RealCheck Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	reports, err := store.NewFileStore(outputDir)
	if err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, concurrency, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing URLs from %s with %d workers...\n\n", file, concurrency)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter, authority.NewClassifier(&cfg.Authority))
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", result.URL, failureMessage(result.Error))
			continue
		}

		jsonPath, err := reports.Save(ctx, result.Report)
		if err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.URL, err)
			continue
		}
		mdPath := strings.TrimSuffix(jsonPath, ".json") + ".md"
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.URL, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%s, AI score %.2f)\n", result.URL, result.Report.Overall, result.Report.Authorship.Probability)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d URLs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// failureMessage prefers the user-facing text of fetch failures
func failureMessage(err error) string {
	if fe, ok := asFetchError(err); ok {
		return fe.Message()
	}
	return err.Error()
}
