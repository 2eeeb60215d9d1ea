package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/papapumpkin/linkrank/internal/pagerank"
)

// Output file names, relative to the output directory.
const (
	TopRankFile    = "top_pagerank.txt"
	TopInLinksFile = "top_inlinks.txt"
	PerplexityFile = "perplexity.txt"
	SummaryFile    = "summary.toml"
)

// WriteTopRank writes the by-rank list, one "id => rank" line per page.
func WriteTopRank(w io.Writer, entries []RankEntry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "=====list of the document IDs of the top %d pages as sorted by PageRank=====\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(bw, "%s => %v\n", e.ID, e.Rank)
	}
	return bw.Flush()
}

// WriteTopInLinks writes the by-in-link-count list.
func WriteTopInLinks(w io.Writer, entries []InLinkEntry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "=====list of the document IDs of the top %d pages by in-link count=====\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(bw, "%s => %d\n", e.ID, e.Count)
	}
	return bw.Flush()
}

// WritePerplexity writes one line per iteration in iteration order.
func WritePerplexity(w io.Writer, trace []pagerank.Progress) error {
	bw := bufio.NewWriter(w)
	for _, p := range trace {
		fmt.Fprintf(bw, "Perplexity at iteration %d => %v\n", p.Iteration, p.Perplexity)
	}
	return bw.Flush()
}

// WriteSummaryTOML writes r to path as TOML, creating parent directories.
func WriteSummaryTOML(path string, r Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: creating directory for %s: %w", path, err)
	}
	data, err := toml.Marshal(r)
	if err != nil {
		return fmt.Errorf("report: marshaling summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}

// ReadSummaryTOML loads a summary written by WriteSummaryTOML.
func ReadSummaryTOML(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("report: reading %s: %w", path, err)
	}
	var r Report
	if err := toml.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("report: parsing %s: %w", path, err)
	}
	return r, nil
}

// WriteAll writes every report file into dir.
func WriteAll(dir string, r Report, trace []pagerank.Progress) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: creating %s: %w", dir, err)
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{TopRankFile, func(w io.Writer) error { return WriteTopRank(w, r.TopRank) }},
		{TopInLinksFile, func(w io.Writer) error { return WriteTopInLinks(w, r.TopInLinks) }},
		{PerplexityFile, func(w io.Writer) error { return WritePerplexity(w, trace) }},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	return WriteSummaryTOML(filepath.Join(dir, SummaryFile), r)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("report: close %s: %w", path, err)
	}
	return nil
}
