// Package pagerank computes the stationary PageRank distribution of a
// directed link graph using the power method with uniform teleportation and
// explicit redistribution of the rank mass parked at sink nodes.
//
// The graph is built from in-link records: each record names a target page
// and the pages that link into it. Queries never mutate topology; the only
// post-load mutation is PruneZeroOutDegree, which drops bookkeeping entries.
package pagerank

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// ErrNodeNotFound is returned when a query references a node that was never
// registered in the graph.
var ErrNodeNotFound = errors.New("node not found")

// Record is one line of the in-link input: a target page and the pages that
// link to it. Sources may repeat; duplicates collapse into the in-link set.
type Record struct {
	Target  string
	Sources []string
}

// RecordSource yields records until it returns io.EOF.
type RecordSource interface {
	Next() (Record, error)
}

// GraphOption configures a Graph at construction time.
type GraphOption func(*Graph)

// WithExactOutDegree switches out-degree accounting to the number of distinct
// targets each node links to. By default the reference registration rule is
// used: the first sighting of a node (as a record target or as a source)
// registers it at zero and every later sighting adds one.
func WithExactOutDegree() GraphOption {
	return func(g *Graph) { g.exact = true }
}

// Graph holds the in-link adjacency of a link corpus together with the
// out-degree bookkeeping needed by the rank update.
type Graph struct {
	// inLinks maps every known node → set of nodes linking into it.
	inLinks map[string]map[string]struct{}
	// outDegree maps node → recorded out-degree.
	outDegree map[string]int
	// linkers holds every node observed inside some record's source list.
	linkers map[string]struct{}
	// inLinkCount maps record target → size of its in-link set.
	inLinkCount map[string]int

	noInlinkCount int
	exact         bool

	sinks   []string // sorted; nil until DetectSinkNodes runs
	nodeIDs []string // sorted cache, reset on mutation
}

// NewGraph creates an empty graph.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		inLinks:     make(map[string]map[string]struct{}),
		outDegree:   make(map[string]int),
		linkers:     make(map[string]struct{}),
		inLinkCount: make(map[string]int),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Build creates a graph from a slice of records.
func Build(records []Record, opts ...GraphOption) *Graph {
	g := NewGraph(opts...)
	for _, rec := range records {
		g.AddRecord(rec.Target, rec.Sources)
	}
	return g
}

// Load drains src into a new graph. It stops at io.EOF and returns any other
// error from the source unchanged.
func Load(src RecordSource, opts ...GraphOption) (*Graph, error) {
	g := NewGraph(opts...)
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return g, nil
		}
		if err != nil {
			return nil, err
		}
		g.AddRecord(rec.Target, rec.Sources)
	}
}

// AddRecord merges one in-link record into the graph. A record with no
// sources counts towards NoInlinkCount. Edges already present are ignored,
// so repeated sources never inflate out-degrees.
func (g *Graph) AddRecord(target string, sources []string) {
	g.sinks = nil
	g.nodeIDs = nil

	g.ensureNode(target)
	if g.exact {
		if _, ok := g.outDegree[target]; !ok {
			g.outDegree[target] = 0
		}
	} else {
		g.registerSighting(target)
	}

	if len(sources) == 0 {
		g.noInlinkCount++
	}

	set := g.inLinks[target]
	for _, src := range sources {
		if _, dup := set[src]; dup {
			continue
		}
		set[src] = struct{}{}
		g.linkers[src] = struct{}{}
		g.ensureNode(src)
		if g.exact {
			g.outDegree[src]++
		} else {
			g.registerSighting(src)
		}
	}
	g.inLinkCount[target] = len(set)
}

// registerSighting applies the reference counting rule: zero on first
// sighting, plus one on each later one.
func (g *Graph) registerSighting(id string) {
	if n, ok := g.outDegree[id]; ok {
		g.outDegree[id] = n + 1
		return
	}
	g.outDegree[id] = 0
}

func (g *Graph) ensureNode(id string) {
	if _, ok := g.inLinks[id]; !ok {
		g.inLinks[id] = make(map[string]struct{})
	}
}

// DetectSinkNodes classifies as a sink every node that never appeared in any
// record's source list, i.e. a page no other page's in-link record credits
// with an outgoing link. The result is computed once and cached until the
// next AddRecord. The returned slice is sorted and must not be modified.
func (g *Graph) DetectSinkNodes() ([]string, int) {
	if g.sinks == nil {
		sinks := make([]string, 0)
		for id := range g.inLinks {
			if _, ok := g.linkers[id]; !ok {
				sinks = append(sinks, id)
			}
		}
		sort.Strings(sinks)
		g.sinks = sinks
	}
	return g.sinks, len(g.sinks)
}

// IsSink reports whether id is classified as a sink.
func (g *Graph) IsSink(id string) bool {
	if _, ok := g.inLinks[id]; !ok {
		return false
	}
	_, linked := g.linkers[id]
	return !linked
}

// UncountedSources returns, sorted, every node that appears in some in-link
// set while carrying a zero out-degree. A non-empty result means the rank
// update will fail with ErrZeroOutDegree.
func (g *Graph) UncountedSources() []string {
	var ids []string
	for id := range g.linkers {
		if g.outDegree[id] == 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// PruneZeroOutDegree deletes every out-degree entry whose count is exactly
// zero and returns how many were removed. Nodes stay in the graph. Call it
// only after all records are loaded.
func (g *Graph) PruneZeroOutDegree() int {
	removed := 0
	for id, n := range g.outDegree {
		if n == 0 {
			delete(g.outDegree, id)
			removed++
		}
	}
	return removed
}

// OutDegree returns the recorded out-degree of id. A node whose entry was
// pruned reports zero.
func (g *Graph) OutDegree(id string) (int, error) {
	if _, ok := g.inLinks[id]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return g.outDegree[id], nil
}

// InLinks returns the nodes linking into id, sorted.
func (g *Graph) InLinks(id string) ([]string, error) {
	set, ok := g.inLinks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return sortedKeys(set), nil
}

// InLinkCount returns the size of the in-link set recorded for id.
func (g *Graph) InLinkCount(id string) (int, error) {
	set, ok := g.inLinks[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return len(set), nil
}

// InLinkCounts returns a copy of the per-target in-link counts. Nodes that
// only ever appeared as sources have no entry.
func (g *Graph) InLinkCounts() map[string]int {
	out := make(map[string]int, len(g.inLinkCount))
	for id, n := range g.inLinkCount {
		out[id] = n
	}
	return out
}

// Nodes returns all node IDs, sorted alphabetically. The returned slice is
// shared and must not be modified.
func (g *Graph) Nodes() []string {
	if g.nodeIDs == nil {
		ids := make([]string, 0, len(g.inLinks))
		for id := range g.inLinks {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		g.nodeIDs = ids
	}
	return g.nodeIDs
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.inLinks)
}

// NoInlinkCount returns how many records carried no sources.
func (g *Graph) NoInlinkCount() int {
	return g.noInlinkCount
}

// SourceOnlyCount returns how many nodes appeared only as sources and never
// had a record of their own. With NoInlinkCount and the records that carried
// sources it accounts for every node.
func (g *Graph) SourceOnlyCount() int {
	return len(g.inLinks) - len(g.inLinkCount)
}

// OutDegreeEntries returns the number of nodes with an out-degree entry.
func (g *Graph) OutDegreeEntries() int {
	return len(g.outDegree)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
