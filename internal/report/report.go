// Package report turns a converged rank vector into ranked lists and
// corpus-level proportions, and writes them out as text and TOML.
package report

import (
	"sort"
	"time"

	"github.com/papapumpkin/linkrank/internal/pagerank"
)

// DefaultTopK is the length of the ranked lists.
const DefaultTopK = 50

// RankEntry is one page in the by-rank list.
type RankEntry struct {
	ID   string  `toml:"id"`
	Rank float64 `toml:"rank"`
}

// InLinkEntry is one page in the by-in-link-count list.
type InLinkEntry struct {
	ID    string `toml:"id"`
	Count int    `toml:"count"`
}

// Report is everything produced after the iteration finishes.
type Report struct {
	Input       string    `toml:"input"`
	GeneratedAt time.Time `toml:"generated_at"`

	Nodes        int `toml:"nodes"`
	Sinks        int `toml:"sinks"`
	NoInlinks    int `toml:"no_inlinks"`
	BelowInitial int `toml:"below_initial"`

	NoInlinkRatio     float64 `toml:"no_inlink_ratio"`
	SinkRatio         float64 `toml:"sink_ratio"`
	BelowInitialRatio float64 `toml:"below_initial_ratio"`

	Iterations int     `toml:"iterations"`
	Perplexity float64 `toml:"perplexity"`
	Converged  bool    `toml:"converged"`

	TopRank    []RankEntry   `toml:"top_rank"`
	TopInLinks []InLinkEntry `toml:"top_inlinks"`
}

// Build assembles a report from the graph and the committed ranks. Lists
// are ordered by value descending, ties broken by ID ascending, and trimmed
// to k entries.
func Build(g *pagerank.Graph, v *pagerank.Vector, res pagerank.Result, k int) Report {
	if k <= 0 {
		k = DefaultTopK
	}
	_, sinks := g.DetectSinkNodes()
	n := v.Len()

	r := Report{
		GeneratedAt: time.Now().UTC(),
		Nodes:       n,
		Sinks:       sinks,
		NoInlinks:   g.NoInlinkCount(),
		Iterations:  res.Iterations,
		Perplexity:  res.Perplexity,
		Converged:   res.Converged,
		TopRank:     TopRank(v, k),
		TopInLinks:  TopInLinks(g.InLinkCounts(), k),
	}
	if n > 0 {
		r.BelowInitial = BelowInitial(v)
		nf := float64(n)
		r.NoInlinkRatio = float64(r.NoInlinks) / nf
		r.SinkRatio = float64(r.Sinks) / nf
		r.BelowInitialRatio = float64(r.BelowInitial) / nf
	}
	return r
}

// TopRank returns the k highest-ranked pages.
func TopRank(v *pagerank.Vector, k int) []RankEntry {
	ids, ranks := v.IDs(), v.Slice()
	entries := make([]RankEntry, len(ids))
	for i, id := range ids {
		entries[i] = RankEntry{ID: id, Rank: ranks[i]}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rank != entries[j].Rank {
			return entries[i].Rank > entries[j].Rank
		}
		return entries[i].ID < entries[j].ID
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

// TopInLinks returns the k pages with the most in-links.
func TopInLinks(counts map[string]int, k int) []InLinkEntry {
	entries := make([]InLinkEntry, 0, len(counts))
	for id, c := range counts {
		entries = append(entries, InLinkEntry{ID: id, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].ID < entries[j].ID
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

// BelowInitial counts pages whose rank ended below the uniform 1/N start.
func BelowInitial(v *pagerank.Vector) int {
	if v.Len() == 0 {
		return 0
	}
	initial := 1.0 / float64(v.Len())
	count := 0
	for _, r := range v.Slice() {
		if r < initial {
			count++
		}
	}
	return count
}
