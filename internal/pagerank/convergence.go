package pagerank

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Convergence defaults: iteration stops once the perplexity has moved by
// less than DefaultPerplexityDelta on DefaultSmallDeltas checks.
const (
	DefaultPerplexityDelta = 1.0
	DefaultSmallDeltas     = 5
)

// Perplexity returns 2^H where H is the Shannon entropy, in bits, of the
// distribution p. Zero entries contribute nothing and are never passed to
// the logarithm. Entries must not be negative.
func Perplexity(p []float64) float64 {
	// stat.Entropy skips zero entries rather than evaluating log(0).
	bits := stat.Entropy(p) / math.Ln2
	return math.Exp2(bits)
}

// Tracker decides when the power iteration has settled.
//
// The small-delta counter counts every check whose perplexity delta is
// below the threshold and is never reset by a large delta, so the checks
// that trigger a stop need not be consecutive iterations.
type Tracker struct {
	threshold   float64
	required    int
	smallDeltas int
}

// TrackerOption configures a Tracker at construction time.
type TrackerOption func(*Tracker)

// WithPerplexityDelta sets the delta below which a check counts as small.
func WithPerplexityDelta(delta float64) TrackerOption {
	return func(t *Tracker) { t.threshold = delta }
}

// WithSmallDeltas sets how many small checks end the iteration.
func WithSmallDeltas(n int) TrackerOption {
	return func(t *Tracker) { t.required = n }
}

// NewTracker returns a tracker with DefaultPerplexityDelta and
// DefaultSmallDeltas unless overridden by opts.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		threshold: DefaultPerplexityDelta,
		required:  DefaultSmallDeltas,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Perplexity returns the perplexity of the committed ranks in v.
func (t *Tracker) Perplexity(v *Vector) float64 {
	return Perplexity(v.Slice())
}

// ShouldStop records one check and reports whether the iteration should end.
func (t *Tracker) ShouldStop(oldPerplexity, newPerplexity float64) bool {
	if math.Abs(newPerplexity-oldPerplexity) >= t.threshold {
		return false
	}
	t.smallDeltas++
	return t.smallDeltas >= t.required
}

// SmallDeltas returns how many checks so far fell under the threshold.
func (t *Tracker) SmallDeltas() int {
	return t.smallDeltas
}
