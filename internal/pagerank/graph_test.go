package pagerank

import (
	"errors"
	"io"
	"reflect"
	"testing"
)

// buildTriangle creates the in-link records
//
//	A ← B, C
//	B ← C
//	C ← A
//	D ← (nothing)
//
// in which D never links anywhere and is the only sink.
func buildTriangle(t *testing.T, opts ...GraphOption) *Graph {
	t.Helper()
	return Build([]Record{
		{Target: "A", Sources: []string{"B", "C"}},
		{Target: "B", Sources: []string{"C"}},
		{Target: "C", Sources: []string{"A"}},
		{Target: "D"},
	}, opts...)
}

func mustOutDegree(t *testing.T, g *Graph, id string) int {
	t.Helper()
	n, err := g.OutDegree(id)
	if err != nil {
		t.Fatalf("OutDegree(%q): %v", id, err)
	}
	return n
}

func TestBuild_RegistersEveryNode(t *testing.T) {
	t.Parallel()
	g := Build([]Record{{Target: "A", Sources: []string{"B"}}})

	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
	if got := g.Nodes(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Nodes() = %v, want [A B]", got)
	}
	in, err := g.InLinks("B")
	if err != nil {
		t.Fatalf("InLinks(B): %v", err)
	}
	if len(in) != 0 {
		t.Errorf("InLinks(B) = %v, want empty", in)
	}
}

func TestBuild_ReferenceOutDegreeCounting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records []Record
		want    map[string]int
	}{
		{
			name:    "source seen once without own record stays at zero",
			records: []Record{{Target: "A", Sources: []string{"B"}}},
			want:    map[string]int{"A": 0, "B": 0},
		},
		{
			name: "own record plus one link counts one",
			records: []Record{
				{Target: "A", Sources: []string{"B"}},
				{Target: "B"},
			},
			want: map[string]int{"A": 0, "B": 1},
		},
		{
			name: "source in two records without own record counts one",
			records: []Record{
				{Target: "A", Sources: []string{"C"}},
				{Target: "B", Sources: []string{"C"}},
			},
			want: map[string]int{"A": 0, "B": 0, "C": 1},
		},
		{
			name: "complete corpus matches true out-degree",
			records: []Record{
				{Target: "A", Sources: []string{"B", "C"}},
				{Target: "B", Sources: []string{"C"}},
				{Target: "C", Sources: []string{"A"}},
				{Target: "D"},
			},
			want: map[string]int{"A": 1, "B": 1, "C": 2, "D": 0},
		},
		{
			name:    "self loop",
			records: []Record{{Target: "A", Sources: []string{"A"}}},
			want:    map[string]int{"A": 1},
		},
		{
			name:    "duplicate sources collapse",
			records: []Record{{Target: "A", Sources: []string{"B", "B", "B"}}},
			want:    map[string]int{"A": 0, "B": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := Build(tt.records)
			for id, want := range tt.want {
				if got := mustOutDegree(t, g, id); got != want {
					t.Errorf("OutDegree(%q) = %d, want %d", id, got, want)
				}
			}
		})
	}
}

func TestBuild_ExactOutDegree(t *testing.T) {
	t.Parallel()
	g := Build([]Record{
		{Target: "A", Sources: []string{"C"}},
		{Target: "B", Sources: []string{"C", "C"}},
	}, WithExactOutDegree())

	want := map[string]int{"A": 0, "B": 0, "C": 2}
	for id, w := range want {
		if got := mustOutDegree(t, g, id); got != w {
			t.Errorf("OutDegree(%q) = %d, want %d", id, got, w)
		}
	}
}

func TestBuild_RepeatedRecordMergesEdges(t *testing.T) {
	t.Parallel()
	g := Build([]Record{
		{Target: "A", Sources: []string{"B"}},
		{Target: "A", Sources: []string{"B", "C"}},
	})

	in, _ := g.InLinks("A")
	if !reflect.DeepEqual(in, []string{"B", "C"}) {
		t.Errorf("InLinks(A) = %v, want [B C]", in)
	}
	if n, _ := g.InLinkCount("A"); n != 2 {
		t.Errorf("InLinkCount(A) = %d, want 2", n)
	}
	// B's edge into A is recorded once.
	if got := mustOutDegree(t, g, "B"); got != 0 {
		t.Errorf("OutDegree(B) = %d, want 0", got)
	}
}

func TestBuild_NoInlinkCount(t *testing.T) {
	t.Parallel()
	g := Build([]Record{
		{Target: "A", Sources: []string{"B"}},
		{Target: "B"},
		{Target: "C"},
	})
	if g.NoInlinkCount() != 2 {
		t.Errorf("NoInlinkCount() = %d, want 2", g.NoInlinkCount())
	}
	if g.SourceOnlyCount() != 0 {
		t.Errorf("SourceOnlyCount() = %d, want 0", g.SourceOnlyCount())
	}
	counts := g.InLinkCounts()
	want := map[string]int{"A": 1, "B": 0, "C": 0}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("InLinkCounts() = %v, want %v", counts, want)
	}
}

func TestSourceOnlyCount(t *testing.T) {
	t.Parallel()
	g := Build([]Record{
		{Target: "A", Sources: []string{"B", "C", "D"}},
		{Target: "B", Sources: []string{"A"}},
		{Target: "E"},
	})
	// C and D link out but never get a line of their own.
	if got := g.SourceOnlyCount(); got != 2 {
		t.Errorf("SourceOnlyCount() = %d, want 2", got)
	}
	if g.Len() != 5 {
		t.Errorf("Len() = %d, want 5", g.Len())
	}
	withSources := len(g.InLinkCounts()) - g.NoInlinkCount()
	if g.NoInlinkCount()+withSources+g.SourceOnlyCount() != g.Len() {
		t.Errorf("no-inlink %d + with-sources %d + source-only %d != %d nodes",
			g.NoInlinkCount(), withSources, g.SourceOnlyCount(), g.Len())
	}
}

func TestDetectSinkNodes(t *testing.T) {
	t.Parallel()
	g := buildTriangle(t)

	sinks, n := g.DetectSinkNodes()
	if n != 1 || !reflect.DeepEqual(sinks, []string{"D"}) {
		t.Errorf("DetectSinkNodes() = %v, %d; want [D], 1", sinks, n)
	}
	if !g.IsSink("D") {
		t.Error("IsSink(D) = false, want true")
	}
	if g.IsSink("A") {
		t.Error("IsSink(A) = true, want false")
	}
	if g.IsSink("missing") {
		t.Error("IsSink(missing) = true, want false")
	}
}

func TestDetectSinkNodes_NeverASource(t *testing.T) {
	t.Parallel()
	// A is linked to by B but never links out itself.
	g := Build([]Record{
		{Target: "A", Sources: []string{"B"}},
		{Target: "B"},
	})
	sinks, _ := g.DetectSinkNodes()
	if !reflect.DeepEqual(sinks, []string{"A"}) {
		t.Errorf("sinks = %v, want [A]", sinks)
	}
}

func TestDetectSinkNodes_RecomputedAfterAdd(t *testing.T) {
	t.Parallel()
	g := Build([]Record{{Target: "A"}})
	if _, n := g.DetectSinkNodes(); n != 1 {
		t.Fatalf("sink count = %d, want 1", n)
	}
	g.AddRecord("B", []string{"A"})
	sinks, _ := g.DetectSinkNodes()
	if !reflect.DeepEqual(sinks, []string{"B"}) {
		t.Errorf("sinks = %v, want [B]", sinks)
	}
}

func TestPruneZeroOutDegree(t *testing.T) {
	t.Parallel()
	g := buildTriangle(t)

	if g.OutDegreeEntries() != 4 {
		t.Fatalf("OutDegreeEntries() = %d, want 4", g.OutDegreeEntries())
	}
	if removed := g.PruneZeroOutDegree(); removed != 1 {
		t.Errorf("PruneZeroOutDegree() = %d, want 1", removed)
	}
	if g.OutDegreeEntries() != 3 {
		t.Errorf("OutDegreeEntries() = %d, want 3", g.OutDegreeEntries())
	}
	// Topology is untouched.
	if g.Len() != 4 {
		t.Errorf("Len() = %d, want 4", g.Len())
	}
	if got := mustOutDegree(t, g, "D"); got != 0 {
		t.Errorf("OutDegree(D) = %d, want 0 after prune", got)
	}
}

func TestQueries_NodeNotFound(t *testing.T) {
	t.Parallel()
	g := buildTriangle(t)

	if _, err := g.OutDegree("Z"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("OutDegree(Z) error = %v, want ErrNodeNotFound", err)
	}
	if _, err := g.InLinks("Z"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("InLinks(Z) error = %v, want ErrNodeNotFound", err)
	}
	if _, err := g.InLinkCount("Z"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("InLinkCount(Z) error = %v, want ErrNodeNotFound", err)
	}
}

type sliceSource struct {
	recs []Record
	err  error
}

func (s *sliceSource) Next() (Record, error) {
	if len(s.recs) == 0 {
		if s.err != nil {
			return Record{}, s.err
		}
		return Record{}, io.EOF
	}
	r := s.recs[0]
	s.recs = s.recs[1:]
	return r, nil
}

func TestLoad(t *testing.T) {
	t.Parallel()
	g, err := Load(&sliceSource{recs: []Record{
		{Target: "A", Sources: []string{"B"}},
		{Target: "B"},
	}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
}

func TestLoad_PropagatesSourceError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	_, err := Load(&sliceSource{recs: []Record{{Target: "A"}}, err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("Load error = %v, want %v", err, boom)
	}
}

func TestUncountedSources(t *testing.T) {
	t.Parallel()
	g := Build([]Record{
		{Target: "A", Sources: []string{"B", "C"}},
		{Target: "B"},
	})
	// C never has a record of its own, so it is registered once at zero.
	if got := g.UncountedSources(); !reflect.DeepEqual(got, []string{"C"}) {
		t.Errorf("UncountedSources() = %v, want [C]", got)
	}
	if got := buildTriangle(t).UncountedSources(); len(got) != 0 {
		t.Errorf("UncountedSources() on complete corpus = %v, want none", got)
	}
}
