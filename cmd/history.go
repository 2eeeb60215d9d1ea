package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/linkrank/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs, or show one run in detail",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("db", "", "SQLite run database")
	historyCmd.Flags().Int("limit", 20, "number of runs to list (0 = all)")
	historyCmd.Flags().Int64("run", 0, "show this run's trace and top pages")
	historyCmd.Flags().IntP("top", "k", 0, "number of top pages to show with --run")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, map[string]string{"db": "db_path", "top": "top_k"})
	if err != nil {
		return err
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("history: --db or db_path is required")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetInt64("run")

	st, err := store.Open(cmd.Context(), cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if runID == 0 {
		runs, err := st.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		writeRunList(cmd.OutOrStdout(), runs)
		return nil
	}

	run, err := st.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	writeRunDetail(cmd.OutOrStdout(), run, cfg.TopK)
	return nil
}

func writeRunList(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tINPUT\tNODES\tITER\tPERPLEXITY\tCONVERGED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%.4f\t%t\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Input, r.Nodes, r.Iterations, r.Perplexity, r.Converged)
	}
	tw.Flush()
}

func writeRunDetail(w io.Writer, r store.Run, k int) {
	fmt.Fprintf(w, "run #%d  %s  %s\n", r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Input)
	fmt.Fprintf(w, "nodes %d  sinks %d  no in-links %d  below initial %d\n",
		r.Nodes, r.Sinks, r.NoInlinks, r.BelowInitial)
	fmt.Fprintf(w, "iterations %d  perplexity %v  converged %t\n\n", r.Iterations, r.Perplexity, r.Converged)

	for _, p := range r.Trace {
		fmt.Fprintf(w, "Perplexity at iteration %d => %v\n", p.Iteration, p.Perplexity)
	}
	fmt.Fprintln(w)
	for i, e := range r.Top {
		if k > 0 && i >= k {
			break
		}
		fmt.Fprintf(w, "%3d. %s => %v\n", i+1, e.ID, e.Rank)
	}
}
