package pagerank

// Progress describes one completed iteration.
type Progress struct {
	Iteration  int     `json:"iteration"`
	Perplexity float64 `json:"perplexity"`
	SinkMass   float64 `json:"sink_mass"`
}

// Observer receives progress from Engine.Run, in iteration order.
type Observer interface {
	Iteration(p Progress)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Progress)

// Iteration calls f(p).
func (f ObserverFunc) Iteration(p Progress) { f(p) }

type multiObserver []Observer

func (m multiObserver) Iteration(p Progress) {
	for _, o := range m {
		o.Iteration(p)
	}
}

// Observers fans progress out to every non-nil observer, in order.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}
