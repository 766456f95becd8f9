package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/realcheck/internal/store"
)

var historyLimit int

// historyCmd lists saved reports
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved reports",
	Long: `History lists reports saved by analyze and serve, newest first.
Reports are read from the configured store (store.backend: file or sqlite).

Example:
  realcheck history
  realcheck history --limit 5
  realcheck history show 5b1c2f0e-...`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one saved report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of reports to list (0 for all)")
}

func openStore() (store.ReportStore, error) {
	cfg, err := setup()
	if err != nil {
		return nil, err
	}
	reports, err := store.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("open report store: %w", err)
	}
	if reports == nil {
		return nil, errors.New("report history is not enabled (store.backend is none)")
	}
	return reports, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	reports, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = reports.Close() }()

	summaries, err := reports.List(context.Background(), historyLimit)
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}
	return writeSummaries(os.Stdout, summaries)
}

func writeSummaries(w io.Writer, summaries []store.Summary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No saved reports.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tANALYZED\tOVERALL\tAI\tFLAGS\tURL")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\t%s\n",
			s.ID, s.Timestamp.Format("2006-01-02 15:04"), s.Overall, s.AIScore, s.FalseFlags, s.URL)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	reports, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = reports.Close() }()

	report, err := reports.Get(context.Background(), args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("report %s not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("get report: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
