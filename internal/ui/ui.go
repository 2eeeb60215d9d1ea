// Package ui prints human-readable progress for linkrank commands to stderr.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/papapumpkin/linkrank/internal/pagerank"
	"github.com/papapumpkin/linkrank/internal/report"
)

// Printer writes styled progress lines. The zero value is not usable; call New.
type Printer struct {
	w       io.Writer
	verbose bool
}

// New returns a Printer writing to stderr.
func New(verbose bool) *Printer {
	return NewTo(os.Stderr, verbose)
}

// NewTo returns a Printer writing to w.
func NewTo(w io.Writer, verbose bool) *Printer {
	return &Printer{w: w, verbose: verbose}
}

func (p *Printer) Banner() {
	fmt.Fprintln(p.w, styleHeading.Render("linkrank")+" "+styleMuted.Render("iterative PageRank"))
}

// Loaded reports the graph size after the input is read.
func (p *Printer) Loaded(nodes int) {
	fmt.Fprintf(p.w, "Finished loading %s nodes.\n", styleValue.Render(fmt.Sprint(nodes)))
}

// GraphStats prints the bookkeeping lines shown before iteration starts.
func (p *Printer) GraphStats(sinks int, sinkMass float64, outDegreeEntries int) {
	fmt.Fprintf(p.w, "No. of sink nodes:: %s\n", styleValue.Render(fmt.Sprint(sinks)))
	fmt.Fprintf(p.w, "Total SinkPR => %s\n", styleValue.Render(fmt.Sprint(sinkMass)))
	fmt.Fprintf(p.w, "Loaded outlinks for %s\n", styleValue.Render(fmt.Sprint(outDegreeEntries)))
}

// Iteration prints one perplexity line in verbose mode. It satisfies
// pagerank.Observer.
func (p *Printer) Iteration(prog pagerank.Progress) {
	if !p.verbose {
		return
	}
	fmt.Fprintf(p.w, "%s Perplexity => %v\n", styleMuted.Render(iconStep), prog.Perplexity)
}

// Converged reports the outcome of the iteration loop.
func (p *Printer) Converged(res pagerank.Result) {
	if res.Converged {
		fmt.Fprintf(p.w, "%s converged after %d iteration(s), perplexity %v\n",
			styleSuccess.Render(iconDone), res.Iterations, res.Perplexity)
		return
	}
	fmt.Fprintf(p.w, "%s stopped after %d iteration(s) without converging, perplexity %v\n",
		styleDanger.Render(iconFailed), res.Iterations, res.Perplexity)
}

// TopPreview prints the first n entries of the by-rank list.
func (p *Printer) TopPreview(entries []report.RankEntry, n int) {
	fmt.Fprintf(p.w, "Top %d pages are::\n", min(n, len(entries)))
	for i, e := range entries {
		if i >= n {
			break
		}
		fmt.Fprintf(p.w, "%s : %v\n", e.ID, e.Rank)
	}
}

// Proportions prints the corpus-level ratios.
func (p *Printer) Proportions(r report.Report) {
	p.row("Proportion of pages with no in-links::", r.NoInlinkRatio)
	p.row("Proportion of pages with no out-links::", r.SinkRatio)
	p.row("Proportion of pages whose PageRank is less than their initial values::", r.BelowInitialRatio)
}

func (p *Printer) row(label string, v float64) {
	fmt.Fprintf(p.w, "%-44s %s\n", label, styleValue.Render(fmt.Sprint(v)))
}

func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.w, styleMuted.Render(msg))
}

func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.w, styleSuccess.Render(iconDone)+" "+msg)
}

func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.w, styleDanger.Render("error:")+" "+msg)
}
