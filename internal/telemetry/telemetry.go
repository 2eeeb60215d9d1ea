// Package telemetry provides a JSONL event stream for PageRank runs. Graph
// loading, every iteration, and the final outcome are recorded as structured
// JSON events so a run can be followed live or analysed afterwards.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/papapumpkin/linkrank/internal/pagerank"
)

// Event kinds identify the type of telemetry event.
const (
	KindLoadDone  = "load_done"
	KindIteration = "iteration"
	KindConverged = "converged"
	KindAborted   = "aborted"
)

// Event represents a single telemetry record.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// LoadData is the payload of a load_done event.
type LoadData struct {
	Nodes     int    `json:"nodes"`
	Sinks     int    `json:"sinks"`
	NoInlinks int    `json:"no_inlinks"`
	Input     string `json:"input,omitempty"`
}

// DoneData is the payload of converged and aborted events.
type DoneData struct {
	Iterations int     `json:"iterations"`
	Perplexity float64 `json:"perplexity"`
	Error      string  `json:"error,omitempty"`
}

// Emitter writes telemetry events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
	now  func() time.Time
}

// NewEmitter creates a new Emitter that writes JSONL events to the file at
// path. The file is created if it does not exist, or appended to if it does.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  json.NewEncoder(f),
		now:  time.Now,
	}, nil
}

// Emit writes a single event. A zero Timestamp is filled in with the current
// time. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.now().UTC()
	}
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}

// Observer returns a pagerank.Observer that emits one iteration event per
// progress record, tagged with runID. Encoding errors are dropped; progress
// logging never interrupts the computation. A nil Emitter yields nil.
func (e *Emitter) Observer(runID string) pagerank.Observer {
	if e == nil {
		return nil
	}
	return pagerank.ObserverFunc(func(p pagerank.Progress) {
		_ = e.Emit(Event{Kind: KindIteration, RunID: runID, Data: p})
	})
}
