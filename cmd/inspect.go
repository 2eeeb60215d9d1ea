package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/linkrank/internal/linkfile"
	"github.com/papapumpkin/linkrank/internal/pagerank"
	"github.com/papapumpkin/linkrank/internal/report"
)

// maxUncountedShown bounds the sample of zero out-degree sources printed.
const maxUncountedShown = 10

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print graph statistics without iterating",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringP("input", "i", "", "in-link file (.gz is decompressed)")
	inspectCmd.Flags().IntP("top", "k", 0, "length of the in-link list")
	inspectCmd.Flags().Bool("exact-out-degree", false, "count out-degree as distinct link targets")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"input":            "input",
		"top":              "top_k",
		"exact-out-degree": "exact_out_degree",
	})
	if err != nil {
		return err
	}
	var opts []pagerank.GraphOption
	if cfg.ExactOutDegree {
		opts = append(opts, pagerank.WithExactOutDegree())
	}
	g, err := linkfile.LoadGraph(cfg.Input, opts...)
	if err != nil {
		return err
	}
	writeInspect(cmd.OutOrStdout(), g, cfg.TopK)
	return nil
}

// writeInspect prints the structural statistics of g.
func writeInspect(w io.Writer, g *pagerank.Graph, k int) {
	_, sinks := g.DetectSinkNodes()
	uncounted := g.UncountedSources()

	fmt.Fprintf(w, "nodes:               %d\n", g.Len())
	fmt.Fprintf(w, "no in-link records:  %d\n", g.NoInlinkCount())
	fmt.Fprintf(w, "source-only nodes:   %d\n", g.SourceOnlyCount())
	fmt.Fprintf(w, "sinks:               %d\n", sinks)
	fmt.Fprintf(w, "out-degree entries:  %d\n", g.OutDegreeEntries())
	fmt.Fprintf(w, "zero out-degree sources: %d\n", len(uncounted))
	for i, id := range uncounted {
		if i == maxUncountedShown {
			fmt.Fprintf(w, "  ... and %d more\n", len(uncounted)-maxUncountedShown)
			break
		}
		fmt.Fprintf(w, "  %s\n", id)
	}
	if len(uncounted) > 0 {
		fmt.Fprintln(w, "warning: run will fail; these pages link out but have no record of their own")
	}

	fmt.Fprintln(w)
	if err := report.WriteTopInLinks(w, report.TopInLinks(g.InLinkCounts(), k)); err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
	}
}
