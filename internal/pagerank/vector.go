package pagerank

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyGraph is returned when a rank vector is initialised over zero nodes.
var ErrEmptyGraph = errors.New("empty graph")

// Vector holds the committed rank of every node and a scratch buffer for the
// iteration in progress. The node domain is fixed by InitUniform.
type Vector struct {
	ids     []string
	index   map[string]int
	current []float64
	next    []float64
}

// NewVector returns an uninitialised vector; call InitUniform before use.
func NewVector() *Vector {
	return &Vector{}
}

// InitUniform fixes the node domain to ids and assigns 1/len(ids) to every
// node. The scratch buffer starts as a copy of the committed values, so a
// Commit with no SetNext calls is a no-op.
func (v *Vector) InitUniform(ids []string) error {
	if len(ids) == 0 {
		return ErrEmptyGraph
	}
	v.ids = append([]string(nil), ids...)
	v.index = make(map[string]int, len(ids))
	for i, id := range v.ids {
		v.index[id] = i
	}
	uniform := 1.0 / float64(len(ids))
	v.current = make([]float64, len(ids))
	for i := range v.current {
		v.current[i] = uniform
	}
	v.next = append([]float64(nil), v.current...)
	return nil
}

// SetNext stores value for id in the scratch buffer. It is not visible
// through Current until Commit.
func (v *Vector) SetNext(id string, value float64) error {
	i, ok := v.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	v.next[i] = value
	return nil
}

// Commit replaces the committed values with the scratch buffer. The buffer
// is not cleared: a key left unwritten keeps its last committed value.
func (v *Vector) Commit() {
	copy(v.current, v.next)
}

// Current returns the committed rank of id.
func (v *Vector) Current(id string) (float64, error) {
	i, ok := v.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return v.current[i], nil
}

// Values returns a copy of the committed ranks keyed by node.
func (v *Vector) Values() map[string]float64 {
	out := make(map[string]float64, len(v.ids))
	for i, id := range v.ids {
		out[id] = v.current[i]
	}
	return out
}

// Slice returns the committed ranks in domain order. The slice is shared
// and must not be modified.
func (v *Vector) Slice() []float64 {
	return v.current
}

// IDs returns the node domain in the order given to InitUniform.
func (v *Vector) IDs() []string {
	return v.ids
}

// Len returns the size of the node domain.
func (v *Vector) Len() int {
	return len(v.ids)
}

// Sum returns the total committed rank mass.
func (v *Vector) Sum() float64 {
	return floats.Sum(v.current)
}
