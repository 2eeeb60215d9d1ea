package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/linkrank/internal/config"
	"github.com/papapumpkin/linkrank/internal/linkfile"
	"github.com/papapumpkin/linkrank/internal/pagerank"
	"github.com/papapumpkin/linkrank/internal/report"
	"github.com/papapumpkin/linkrank/internal/store"
	"github.com/papapumpkin/linkrank/internal/telemetry"
	"github.com/papapumpkin/linkrank/internal/ui"
)

// previewSize is the number of top pages echoed to the console.
const previewSize = 10

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute PageRank for an in-link file",
	Long: `Loads the in-link file, iterates until the perplexity of the rank
distribution changes by less than 1 on five checks, and writes the top pages
by rank and by in-link count, the perplexity trace, and a TOML summary into
the output directory.`,
	RunE: runRun,
}

// runFlags maps run's flags to config keys.
func runFlags() map[string]string {
	return map[string]string{
		"input":            "input",
		"out":              "output_dir",
		"top":              "top_k",
		"workers":          "workers",
		"max-iterations":   "max_iterations",
		"exact-out-degree": "exact_out_degree",
		"db":               "db_path",
		"telemetry":        "telemetry_path",
	}
}

func init() {
	f := runCmd.Flags()
	f.StringP("input", "i", "", "in-link file (.gz is decompressed)")
	f.StringP("out", "o", "", "output directory for report files")
	f.IntP("top", "k", 0, "length of the ranked lists")
	f.Int("workers", 0, "goroutines for the per-node update pass")
	f.Int("max-iterations", 0, "stop after this many iterations (0 = until converged)")
	f.Bool("exact-out-degree", false, "count out-degree as distinct link targets")
	f.String("db", "", "SQLite database to record the run in")
	f.String("telemetry", "", "JSONL file for progress events")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, runFlags())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	printer := ui.New(cfg.Verbose)
	printer.Banner()
	_, err = runPipeline(ctx, cfg, printer)
	return err
}

// runPipeline loads, iterates, reports and records one computation. The
// report is written even when the iteration cap stops the run early.
func runPipeline(ctx context.Context, cfg config.Config, printer *ui.Printer) (report.Report, error) {
	runID := uuid.NewString()

	var emitter *telemetry.Emitter
	if cfg.TelemetryPath != "" {
		em, err := telemetry.NewEmitter(cfg.TelemetryPath)
		if err != nil {
			return report.Report{}, err
		}
		defer em.Close()
		emitter = em
	}

	var opts []pagerank.GraphOption
	if cfg.ExactOutDegree {
		opts = append(opts, pagerank.WithExactOutDegree())
	}
	g, err := linkfile.LoadGraph(cfg.Input, opts...)
	if err != nil {
		return report.Report{}, err
	}
	printer.Loaded(g.Len())

	sinks, sinkCount := g.DetectSinkNodes()
	engine := pagerank.NewEngine(g, pagerank.Options{
		MaxIterations: cfg.MaxIterations,
		Workers:       cfg.Workers,
		Observer:      pagerank.Observers(printer, emitter.Observer(runID)),
	})
	if err := engine.Init(); err != nil {
		return report.Report{}, fmt.Errorf("%s: %w", cfg.Input, err)
	}

	var sinkMass float64
	for _, s := range sinks {
		r, _ := engine.Vector().Current(s)
		sinkMass += r
	}
	g.PruneZeroOutDegree()
	printer.GraphStats(sinkCount, sinkMass, g.OutDegreeEntries())

	_ = emitter.Emit(telemetry.Event{Kind: telemetry.KindLoadDone, RunID: runID, Data: telemetry.LoadData{
		Nodes:     g.Len(),
		Sinks:     sinkCount,
		NoInlinks: g.NoInlinkCount(),
		Input:     cfg.Input,
	}})

	res, runErr := engine.Run(ctx)
	if runErr != nil {
		_ = emitter.Emit(telemetry.Event{Kind: telemetry.KindAborted, RunID: runID, Data: telemetry.DoneData{
			Iterations: res.Iterations,
			Perplexity: res.Perplexity,
			Error:      runErr.Error(),
		}})
		if !errors.Is(runErr, pagerank.ErrIterationCap) {
			return report.Report{}, runErr
		}
	}
	printer.Converged(res)

	rep := report.Build(g, engine.Vector(), res, cfg.TopK)
	rep.Input = cfg.Input
	if err := report.WriteAll(cfg.OutputDir, rep, res.Trace); err != nil {
		return rep, err
	}
	printer.TopPreview(rep.TopRank, previewSize)
	printer.Proportions(rep)

	if cfg.DBPath != "" {
		st, err := store.Open(ctx, cfg.DBPath)
		if err != nil {
			return rep, err
		}
		defer st.Close()
		id, err := st.SaveRun(ctx, store.FromReport(rep, res.Trace))
		if err != nil {
			return rep, err
		}
		printer.Info(fmt.Sprintf("recorded run #%d in %s", id, cfg.DBPath))
	}

	if runErr == nil {
		_ = emitter.Emit(telemetry.Event{Kind: telemetry.KindConverged, RunID: runID, Data: telemetry.DoneData{
			Iterations: res.Iterations,
			Perplexity: res.Perplexity,
		}})
	}
	return rep, runErr
}
